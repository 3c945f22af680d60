package enpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomek7667/emsboard/internal/domain"
)

func TestAchieve(t *testing.T) {
	tests := []struct {
		name   string
		actual domain.Num
		target domain.Num
		higher bool
		ok     bool
		rate   float64
		status string
	}{
		{"higher better met", domain.Some(110), domain.Some(100), true, true, 1.10, StatusMet},
		{"higher better missed", domain.Some(90), domain.Some(100), true, true, 0.90, StatusMissed},
		{"exactly on target", domain.Some(100), domain.Some(100), true, true, 1, StatusMet},
		{"lower better missed", domain.Some(110), domain.Some(100), false, true, 100.0 / 110, StatusMissed},
		{"lower better met", domain.Some(80), domain.Some(100), false, true, 1.25, StatusMet},
		{"zero target", domain.Some(100), domain.Some(0), true, false, 0, ""},
		{"negative target", domain.Some(100), domain.Some(-5), true, false, 0, ""},
		{"missing target", domain.Some(100), domain.None(), true, false, 0, ""},
		{"missing actual", domain.None(), domain.Some(100), true, false, 0, ""},
		{"zero actual lower better", domain.Some(0), domain.Some(100), false, false, 0, ""},
		{"zero actual higher better", domain.Some(0), domain.Some(100), true, true, 0, StatusMissed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Achieve(tt.actual, tt.target, tt.higher)
			require.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.rate, got.Rate, 1e-9)
			assert.Equal(t, tt.status, got.Status)
		})
	}
}

func TestRatio(t *testing.T) {
	assert.Equal(t, domain.Some(2.5), Ratio(domain.Some(5), domain.Some(2)))
	assert.False(t, Ratio(domain.Some(5), domain.Some(0)).Valid)
	assert.False(t, Ratio(domain.None(), domain.Some(2)).Valid)
	assert.False(t, Ratio(domain.Some(5), domain.None()).Valid)
}

func TestBuildReport(t *testing.T) {
	def := domain.EnpiDefinition{ID: 3, Name: "kWh per unit", Unit: "kWh/pcs", HigherIsBetter: false}
	report := BuildReport(def, 2024,
		Monthly{1: domain.Some(1000), 2: domain.Some(900), 3: domain.Some(50)},
		Monthly{1: domain.Some(100), 2: domain.Some(0), 3: domain.Some(10)},
		Monthly{1: domain.Some(12), 3: domain.Some(4)},
	)

	require.Len(t, report.Report, 12)
	assert.Equal(t, 2024, report.Year)
	assert.Equal(t, int64(3), report.Definition.ID)

	jan := report.Report[0]
	assert.Equal(t, "Jan", jan.MonthName)
	assert.Equal(t, domain.Some(10), jan.ActualEnpi)
	assert.InDelta(t, 1.2, jan.AchievementRate.Float64, 1e-9)
	assert.Equal(t, StatusMet, jan.AchievementStatus)

	feb := report.Report[1]
	assert.False(t, feb.ActualEnpi.Valid)
	assert.False(t, feb.AchievementRate.Valid)
	assert.Empty(t, feb.AchievementStatus)

	mar := report.Report[2]
	assert.Equal(t, domain.Some(5), mar.ActualEnpi)
	assert.InDelta(t, 0.8, mar.AchievementRate.Float64, 1e-9)
	assert.Equal(t, StatusMissed, mar.AchievementStatus)

	dec := report.Report[11]
	assert.Equal(t, 12, dec.Month)
	assert.Equal(t, "Dec", dec.MonthName)
	assert.False(t, dec.NumeratorValue.Valid)
}
