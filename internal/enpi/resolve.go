package enpi

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomek7667/emsboard/internal/baseline"
	"github.com/tomek7667/emsboard/internal/domain"
)

// Store is what report assembly reads from.
type Store interface {
	EnpiDefinition(ctx context.Context, id int64) (domain.EnpiDefinition, error)
	EnpiTargets(ctx context.Context, enpiID int64, year int) (map[int]domain.Num, error)
	EnpiManualValues(ctx context.Context, enpiID int64, year int, variable string) (map[int]domain.Num, error)
	MonthlyAggregate(ctx context.Context, src domain.AutoSource, year int) (map[int]domain.Num, error)
	Baseline(ctx context.Context, id int64) (domain.BaselineDetail, error)
}

// Load resolves both components and the targets of an EnPI for one year and
// builds its report.
func Load(ctx context.Context, s Store, id int64, year int) (domain.EnpiReport, error) {
	def, err := s.EnpiDefinition(ctx, id)
	if err != nil {
		return domain.EnpiReport{}, err
	}
	nums, err := Component(ctx, s, def.ID, def.Numerator, year)
	if err != nil {
		return domain.EnpiReport{}, fmt.Errorf("numerator: %w", err)
	}
	dens, err := Component(ctx, s, def.ID, def.Denominator, year)
	if err != nil {
		return domain.EnpiReport{}, fmt.Errorf("denominator: %w", err)
	}
	targets, err := s.EnpiTargets(ctx, def.ID, year)
	if err != nil {
		return domain.EnpiReport{}, err
	}
	return BuildReport(def, year, nums, dens, targets), nil
}

// Component returns the monthly values of one side of an EnPI.
//
// A baseline source only contributes when the baseline belongs to the
// requested year, since monitored data is stored per baseline and month.
// A baseline that no longer exists contributes nothing.
func Component(ctx context.Context, s Store, enpiID int64, src domain.Source, year int) (Monthly, error) {
	switch v := src.(type) {
	case domain.ManualSource:
		return s.EnpiManualValues(ctx, enpiID, year, v.VariableName)
	case domain.AutoSource:
		return s.MonthlyAggregate(ctx, v, year)
	case domain.BaselineSource:
		d, err := s.Baseline(ctx, v.BaselineID)
		if errors.Is(err, domain.ErrNotFound) {
			return Monthly{}, nil
		}
		if err != nil {
			return nil, err
		}
		if d.Baseline.Year != year {
			return Monthly{}, nil
		}
		return baselineColumn(d, v.Column), nil
	}
	return nil, fmt.Errorf("%w: unsupported source %T", domain.ErrInvalid, src)
}

func baselineColumn(d domain.BaselineDetail, column string) Monthly {
	values := Monthly{}
	f := baseline.FormulaOf(d)
	for month, md := range d.MonitoredData {
		var v domain.Num
		switch column {
		case domain.ColumnActualConsumption:
			v = md.ActualConsumption
		case domain.ColumnBaselineStandard:
			if standard, ok := baseline.Evaluate(f, md.Factors); ok {
				v = domain.Some(standard)
			}
		default:
			v = md.Factors[column]
		}
		if v.Valid {
			values[month] = v
		}
	}
	return values
}
