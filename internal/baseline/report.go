package baseline

import (
	"math"
	"strconv"

	"github.com/tomek7667/emsboard/internal/domain"
)

// HighlightPercent is the |diff %| above which a month is highlighted.
const HighlightPercent = 10.0

// Row is one month of a baseline report. Values keep full precision;
// use Fixed for display.
type Row struct {
	Month             int             `json:"month"`
	Factors           domain.Observed `json:"factors"`
	ActualConsumption domain.Num      `json:"actual_consumption"`
	BaselineStandard  domain.Num      `json:"baseline_standard"`
	Diff              domain.Num      `json:"diff"`
	DiffPercent       domain.Num      `json:"diff_percent"`
	// Degenerate marks a zero baseline standard, where diff_percent is
	// reported as 0 instead of dividing by zero.
	Degenerate bool `json:"degenerate,omitempty"`
	Highlight  bool `json:"highlight,omitempty"`
}

// Compute derives baseline standard, diff and diff percent for one month.
func Compute(f Formula, observed domain.Observed, actual domain.Num) Row {
	row := Row{Factors: observed, ActualConsumption: actual}

	standard, ok := Evaluate(f, observed)
	if !ok {
		return row
	}
	row.BaselineStandard = domain.Some(standard)

	a, ok := actual.Get()
	if !ok {
		return row
	}
	diff := standard - a
	row.Diff = domain.Some(diff)
	if standard == 0 {
		row.DiffPercent = domain.Some(0)
		row.Degenerate = true
		return row
	}
	pct := diff / standard * 100
	row.DiffPercent = domain.Some(pct)
	row.Highlight = math.Abs(pct) > HighlightPercent
	return row
}

// Report builds the twelve monthly rows of a baseline, January first.
// Months without monitored data produce rows with undefined values.
func Report(d domain.BaselineDetail) []Row {
	f := FormulaOf(d)
	rows := make([]Row, 0, 12)
	for month := 1; month <= 12; month++ {
		md := d.MonitoredData[month]
		row := Compute(f, md.Factors, md.ActualConsumption)
		row.Month = month
		if row.Factors == nil {
			row.Factors = domain.Observed{}
		}
		rows = append(rows, row)
	}
	return rows
}

// Fixed formats n with two decimals, or "" when undefined.
func Fixed(n domain.Num) string {
	v, ok := n.Get()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
