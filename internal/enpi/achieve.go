// Package enpi computes Energy Performance Indicator reports: the monthly
// ratio of numerator to denominator and how it compares to the target.
package enpi

import (
	"math"

	"github.com/tomek7667/emsboard/internal/domain"
)

const (
	StatusMet    = "met"
	StatusMissed = "missed"
)

type Achievement struct {
	Rate   float64
	Status string
}

// Achieve compares an actual EnPI with its target. ok is false when the
// target is missing or not positive, the actual is missing, or the rate is
// not finite (actual 0 when lower is better).
func Achieve(actual, target domain.Num, higherIsBetter bool) (Achievement, bool) {
	a, ok := actual.Get()
	if !ok {
		return Achievement{}, false
	}
	t, ok := target.Get()
	if !ok || t <= 0 {
		return Achievement{}, false
	}

	var rate float64
	if higherIsBetter {
		rate = a / t
	} else {
		if a == 0 {
			return Achievement{}, false
		}
		rate = t / a
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return Achievement{}, false
	}

	status := StatusMissed
	if rate >= 1 {
		status = StatusMet
	}
	return Achievement{Rate: rate, Status: status}, true
}

// Ratio is numerator / denominator, undefined when either side is missing or
// the denominator is zero.
func Ratio(numerator, denominator domain.Num) domain.Num {
	n, ok := numerator.Get()
	if !ok {
		return domain.None()
	}
	d, ok := denominator.Get()
	if !ok || d == 0 {
		return domain.None()
	}
	return domain.Some(n / d)
}
