// Package baseline evaluates regression baseline formulas against monthly
// observations and derives the rows shown on the regression page, the
// dashboard baseline chart and exports.
package baseline

import (
	"github.com/tomek7667/emsboard/internal/domain"
)

// Formula is intercept + Σ value(factor) × coefficient.
type Formula struct {
	Intercept float64
	Factors   []domain.Factor
}

func FormulaOf(d domain.BaselineDetail) Formula {
	return Formula{Intercept: d.Baseline.Intercept, Factors: d.Factors}
}

// Evaluate returns the predicted consumption. ok is false when any factor of
// the formula has no observed value; no partial sum is ever returned.
func Evaluate(f Formula, observed domain.Observed) (float64, bool) {
	result := f.Intercept
	for _, factor := range f.Factors {
		v, ok := observed[factor.Name].Get()
		if !ok {
			return 0, false
		}
		result += v * factor.Coefficient
	}
	return result, true
}
