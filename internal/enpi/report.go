package enpi

import (
	"time"

	"github.com/tomek7667/emsboard/internal/domain"
)

// Monthly holds one value per month, keyed 1..12. Missing keys are undefined.
type Monthly map[int]domain.Num

// MonthName returns the short English month name, "Jan" for 1.
func MonthName(month int) string {
	return time.Month(month).String()[:3]
}

// BuildReport assembles the twelve rows of an EnPI report.
func BuildReport(def domain.EnpiDefinition, year int, numerators, denominators, targets Monthly) domain.EnpiReport {
	rows := make([]domain.EnpiReportRow, 0, 12)
	for month := 1; month <= 12; month++ {
		row := domain.EnpiReportRow{
			Month:            month,
			MonthName:        MonthName(month),
			TargetValue:      targets[month],
			NumeratorValue:   numerators[month],
			DenominatorValue: denominators[month],
		}
		row.ActualEnpi = Ratio(row.NumeratorValue, row.DenominatorValue)
		if a, ok := Achieve(row.ActualEnpi, row.TargetValue, def.HigherIsBetter); ok {
			row.AchievementRate = domain.Some(a.Rate)
			row.AchievementStatus = a.Status
		}
		rows = append(rows, row)
	}
	return domain.EnpiReport{Definition: def, Year: year, Report: rows}
}
