package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomek7667/emsboard/internal/domain"
)

type fakeStore struct {
	charts []domain.ChartConfig
	labels []string
	values map[int64][][]domain.Num
	err    error
	calls  int
}

func (f *fakeStore) Charts(context.Context) ([]domain.ChartConfig, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.charts, nil
}

func (f *fakeStore) AggregateChart(_ context.Context, c domain.ChartConfig, _ time.Time) ([]string, [][]domain.Num, error) {
	return f.labels, f.values[c.ID], nil
}

func TestAxisRange(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		lo, hi float64
	}{
		{"empty", nil, 0, 10},
		{"flat", []float64{7, 7}, 2, 12},
		{"padded", []float64{10, 20}, 9, 21},
		{"negative", []float64{-5, 5}, -6, 6},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lo, hi := AxisRange(tc.values)
			assert.InDelta(t, tc.lo, lo, 1e-9)
			assert.InDelta(t, tc.hi, hi, 1e-9)
		})
	}
}

func TestBuild(t *testing.T) {
	cfg := domain.ChartConfig{
		ID:         3,
		ChartTitle: "Boiler",
		Series: []domain.ChartSeries{
			{SeriesLabel: "gas", ChartType: "bar", YAxisID: "y", AggregationMethod: "sum"},
			{SeriesLabel: "temp", ChartType: "line", YAxisID: "y1", AggregationMethod: "avg"},
		},
	}
	values := [][]domain.Num{
		{domain.Some(10), domain.None()},
		{domain.Some(60), domain.Some(70)},
	}
	d := Build(cfg, []string{"08", "09"}, values)

	assert.Equal(t, "Boiler", d.TableName)
	require.Len(t, d.Datasets, 2)
	assert.Equal(t, "gas (sum)", d.Datasets[0].Label)
	assert.Equal(t, []domain.Num{domain.Some(10), domain.Some(0)}, d.Datasets[0].Data)
	assert.Equal(t, "y1", d.Datasets[1].YAxisID)

	want := []domain.Axis{
		{ID: "y", Position: "left", Min: -1, Max: 11, Title: "gas (sum)"},
		{ID: "y1", Position: "right", Min: 59, Max: 71, Title: "temp (avg)"},
	}
	if diff := cmp.Diff(want, d.Axes); diff != "" {
		t.Errorf("axes mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildWithoutRows(t *testing.T) {
	cfg := domain.ChartConfig{ID: 1, ChartTitle: "Idle", Series: []domain.ChartSeries{
		{SeriesLabel: "a", ChartType: "line", YAxisID: "y", AggregationMethod: "avg"},
		{SeriesLabel: "b", ChartType: "line", YAxisID: "y", AggregationMethod: "avg"},
	}}
	d := Build(cfg, nil, nil)
	assert.Empty(t, d.Labels)
	require.Len(t, d.Axes, 1)
	assert.Equal(t, domain.Axis{ID: "y", Position: "left", Min: 0, Max: 10, Title: "a (avg) / b (avg)"}, d.Axes[0])
}

func TestLoadSkipsChartsWithoutSeries(t *testing.T) {
	s := &fakeStore{
		charts: []domain.ChartConfig{
			{ID: 1, ChartTitle: "empty"},
			{ID: 2, ChartTitle: "meters", Series: []domain.ChartSeries{{SeriesLabel: "kwh", AggregationMethod: "sum"}}},
		},
		labels: []string{"01"},
		values: map[int64][][]domain.Num{2: {{domain.Some(4)}}},
	}
	got, err := Load(context.Background(), s, time.Now())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.EqualValues(t, 2, got[0].ChartID)

	s.err = errors.New("boom")
	_, err = Load(context.Background(), s, time.Now())
	assert.Error(t, err)
}
