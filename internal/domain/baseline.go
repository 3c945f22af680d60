package domain

import (
	"fmt"
	"math"
	"strings"
)

type Factor struct {
	Name        string  `json:"factor_name"`
	Coefficient float64 `json:"coefficient"`
}

type Baseline struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Year      int     `json:"year"`
	Intercept float64 `json:"formula_intercept"`
	R2        Num     `json:"formula_r2"`
	Notes     string  `json:"notes"`
	CreatedAt string  `json:"created_at"`
}

// MonthData is what was recorded for one month of a baseline.
type MonthData struct {
	Factors           Observed `json:"factors"`
	ActualConsumption Num      `json:"actual_consumption"`
}

// BaselineDetail is the payload of GET /api/regression_baselines/{id}.
type BaselineDetail struct {
	Baseline      Baseline          `json:"baseline"`
	Factors       []Factor          `json:"factors"`
	MonitoredData map[int]MonthData `json:"monitored_data"`
}

type FactorInput struct {
	Name  string `json:"name"`
	Coeff Num    `json:"coeff"`
}

// BaselineInput is the create payload; numeric fields arrive as form strings.
type BaselineInput struct {
	Name      string        `json:"name"`
	Year      Num           `json:"year"`
	Intercept Num           `json:"intercept"`
	R2        Num           `json:"r2"`
	Notes     string        `json:"notes"`
	Factors   []FactorInput `json:"factors"`
}

// Normalize validates the input and returns the baseline with its factors.
// Factor rows without a name or a coefficient are dropped.
func (in BaselineInput) Normalize() (Baseline, []Factor, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Baseline{}, nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	year, ok := in.Year.Get()
	if !ok || year != math.Trunc(year) || year < 1 {
		return Baseline{}, nil, fmt.Errorf("%w: year must be a positive integer", ErrInvalid)
	}
	intercept, ok := in.Intercept.Get()
	if !ok {
		return Baseline{}, nil, fmt.Errorf("%w: intercept must be a number", ErrInvalid)
	}

	var factors []Factor
	for _, f := range in.Factors {
		fname := strings.TrimSpace(f.Name)
		coeff, ok := f.Coeff.Get()
		if fname == "" || !ok {
			continue
		}
		factors = append(factors, Factor{Name: fname, Coefficient: coeff})
	}
	if len(factors) == 0 {
		return Baseline{}, nil, fmt.Errorf("%w: at least one factor is required", ErrInvalid)
	}

	b := Baseline{
		Name:      name,
		Year:      int(year),
		Intercept: intercept,
		R2:        in.R2,
		Notes:     in.Notes,
	}
	return b, factors, nil
}

// MonitoredInput is the upsert payload of POST /api/monitored_data.
type MonitoredInput struct {
	BaselineID        int64    `json:"baseline_id"`
	Month             int      `json:"month"`
	Factors           Observed `json:"factors"`
	ActualConsumption Num      `json:"actual_consumption"`
}

func (in MonitoredInput) Validate() error {
	if in.BaselineID <= 0 {
		return fmt.Errorf("%w: baseline_id is required", ErrInvalid)
	}
	if in.Month < 1 || in.Month > 12 {
		return fmt.Errorf("%w: month must be between 1 and 12", ErrInvalid)
	}
	return nil
}

// HasData reports whether the month carries anything worth saving.
func (in MonitoredInput) HasData() bool {
	if in.ActualConsumption.Valid {
		return true
	}
	for _, v := range in.Factors {
		if v.Valid {
			return true
		}
	}
	return false
}
