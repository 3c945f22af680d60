package enpi

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomek7667/emsboard/internal/domain"
)

type fakeStore struct {
	defs      map[int64]domain.EnpiDefinition
	targets   map[int]domain.Num
	manual    map[string]map[int]domain.Num
	auto      map[int]domain.Num
	baselines map[int64]domain.BaselineDetail
	autoErr   error
}

func (f *fakeStore) EnpiDefinition(_ context.Context, id int64) (domain.EnpiDefinition, error) {
	d, ok := f.defs[id]
	if !ok {
		return d, domain.ErrNotFound
	}
	return d, nil
}

func (f *fakeStore) EnpiTargets(context.Context, int64, int) (map[int]domain.Num, error) {
	return f.targets, nil
}

func (f *fakeStore) EnpiManualValues(_ context.Context, _ int64, _ int, variable string) (map[int]domain.Num, error) {
	return f.manual[variable], nil
}

func (f *fakeStore) MonthlyAggregate(context.Context, domain.AutoSource, int) (map[int]domain.Num, error) {
	return f.auto, f.autoErr
}

func (f *fakeStore) Baseline(_ context.Context, id int64) (domain.BaselineDetail, error) {
	d, ok := f.baselines[id]
	if !ok {
		return d, domain.ErrNotFound
	}
	return d, nil
}

func plant2024() domain.BaselineDetail {
	return domain.BaselineDetail{
		Baseline: domain.Baseline{ID: 7, Year: 2024, Intercept: 10},
		Factors:  []domain.Factor{{Name: "x", Coefficient: 2}},
		MonitoredData: map[int]domain.MonthData{
			1: {Factors: domain.Observed{"x": domain.Some(5)}, ActualConsumption: domain.Some(18)},
			2: {Factors: domain.Observed{}, ActualConsumption: domain.Some(30)},
		},
	}
}

func TestComponentBaselineColumns(t *testing.T) {
	ctx := context.Background()
	s := &fakeStore{baselines: map[int64]domain.BaselineDetail{7: plant2024()}}

	got, err := Component(ctx, s, 1, domain.BaselineSource{BaselineID: 7, Column: domain.ColumnActualConsumption}, 2024)
	require.NoError(t, err)
	assert.Equal(t, Monthly{1: domain.Some(18), 2: domain.Some(30)}, got)

	got, err = Component(ctx, s, 1, domain.BaselineSource{BaselineID: 7, Column: domain.ColumnBaselineStandard}, 2024)
	require.NoError(t, err)
	assert.Equal(t, Monthly{1: domain.Some(20)}, got, "february has no factor value")

	got, err = Component(ctx, s, 1, domain.BaselineSource{BaselineID: 7, Column: "x"}, 2024)
	require.NoError(t, err)
	assert.Equal(t, Monthly{1: domain.Some(5)}, got)

	got, err = Component(ctx, s, 1, domain.BaselineSource{BaselineID: 7, Column: "x"}, 2025)
	require.NoError(t, err)
	assert.Empty(t, got, "other year")

	got, err = Component(ctx, s, 1, domain.BaselineSource{BaselineID: 99, Column: "x"}, 2024)
	require.NoError(t, err)
	assert.Empty(t, got, "deleted baseline")
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	s := &fakeStore{
		defs: map[int64]domain.EnpiDefinition{
			3: {
				ID: 3, Name: "actual vs standard", Unit: "ratio", HigherIsBetter: true,
				Numerator:   domain.BaselineSource{BaselineID: 7, Column: domain.ColumnActualConsumption},
				Denominator: domain.ManualSource{VariableName: "units"},
			},
		},
		baselines: map[int64]domain.BaselineDetail{7: plant2024()},
		manual:    map[string]map[int]domain.Num{"units": {1: domain.Some(6), 2: domain.Some(0)}},
		targets:   map[int]domain.Num{1: domain.Some(2.5)},
	}

	report, err := Load(ctx, s, 3, 2024)
	require.NoError(t, err)
	require.Len(t, report.Report, 12)
	assert.Equal(t, domain.Some(3), report.Report[0].ActualEnpi)
	assert.InDelta(t, 1.2, report.Report[0].AchievementRate.Float64, 1e-9)
	assert.Equal(t, StatusMet, report.Report[0].AchievementStatus)
	assert.False(t, report.Report[1].ActualEnpi.Valid, "zero denominator")

	_, err = Load(ctx, s, 4, 2024)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoadPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("boom")
	s := &fakeStore{
		defs: map[int64]domain.EnpiDefinition{
			1: {
				ID: 1, Name: "n", Unit: "u",
				Numerator:   domain.AutoSource{Table: "t", ValueColumn: "v", TimeColumn: "ts", Aggregation: domain.AggSum},
				Denominator: domain.ManualSource{VariableName: "m"},
			},
		},
		autoErr: boom,
	}
	_, err := Load(context.Background(), s, 1, 2024)
	assert.ErrorIs(t, err, boom)
}
