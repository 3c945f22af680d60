// Package export writes baseline and EnPI reports as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tomek7667/emsboard/internal/baseline"
	"github.com/tomek7667/emsboard/internal/domain"
	"github.com/tomek7667/emsboard/internal/enpi"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename builds a download name such as "baseline-Plant_2024.xlsx".
func Filename(kind, name string, year int) string {
	name = strings.Trim(unsafeName.ReplaceAllString(name, "_"), "_")
	if name == "" {
		name = kind
	}
	return fmt.Sprintf("%s-%s-%d.xlsx", kind, name, year)
}

// cell writes undefined values as empty cells and rounds the rest.
func cell(n domain.Num) any {
	if v, ok := n.Get(); ok {
		return baseline.Round2(v)
	}
	return nil
}

func percent(rate domain.Num) domain.Num {
	if v, ok := rate.Get(); ok {
		return domain.Some(v * 100)
	}
	return rate
}

type sheet struct {
	f    *excelize.File
	name string
	row  int
}

func (s *sheet) append(values ...any) error {
	s.row++
	axis, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	return s.f.SetSheetRow(s.name, axis, &values)
}

func (s *sheet) style(id, cols int) error {
	from, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(cols, s.row)
	if err != nil {
		return err
	}
	return s.f.SetCellStyle(s.name, from, to, id)
}

type styles struct {
	header    int
	highlight int
}

func newStyles(f *excelize.File) (styles, error) {
	var (
		s   styles
		err error
	)
	s.header, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return s, err
	}
	s.highlight, err = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FADBD8"}, Pattern: 1},
	})
	return s, err
}

// Baseline writes the formula and the twelve monthly rows of a baseline.
// Months whose |diff %| exceeds baseline.HighlightPercent are shaded.
func Baseline(w io.Writer, d domain.BaselineDetail, rows []baseline.Row) error {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return err
	}
	report := &sheet{f: f, name: "Report"}
	if err := f.SetSheetName("Sheet1", report.name); err != nil {
		return err
	}

	header := []any{"Month"}
	for _, fc := range d.Factors {
		header = append(header, fc.Name)
	}
	header = append(header, "Actual consumption", "Baseline standard", "Diff", "Diff %")
	if err := report.append(header...); err != nil {
		return err
	}
	if err := report.style(st.header, len(header)); err != nil {
		return err
	}
	for _, r := range rows {
		values := []any{enpi.MonthName(r.Month)}
		for _, fc := range d.Factors {
			values = append(values, cell(r.Factors[fc.Name]))
		}
		values = append(values, cell(r.ActualConsumption), cell(r.BaselineStandard), cell(r.Diff), cell(r.DiffPercent))
		if err := report.append(values...); err != nil {
			return err
		}
		if r.Highlight {
			if err := report.style(st.highlight, len(values)); err != nil {
				return err
			}
		}
	}
	if err := f.SetColWidth(report.name, "A", "Z", 18); err != nil {
		return err
	}

	if _, err := f.NewSheet("Formula"); err != nil {
		return err
	}
	formula := &sheet{f: f, name: "Formula"}
	b := d.Baseline
	meta := [][]any{
		{"Name", b.Name},
		{"Year", b.Year},
		{"Intercept", b.Intercept},
		{"R²", cell(b.R2)},
		{"Notes", b.Notes},
		{},
		{"Factor", "Coefficient"},
	}
	for _, m := range meta {
		if err := formula.append(m...); err != nil {
			return err
		}
	}
	for _, fc := range d.Factors {
		if err := formula.append(fc.Name, fc.Coefficient); err != nil {
			return err
		}
	}
	return f.Write(w)
}

// Enpi writes the monthly report of one EnPI for one year.
func Enpi(w io.Writer, r domain.EnpiReport) error {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return err
	}
	s := &sheet{f: f, name: fmt.Sprint(r.Year)}
	if err := f.SetSheetName("Sheet1", s.name); err != nil {
		return err
	}

	def := r.Definition
	if err := s.append(def.Name, def.Unit); err != nil {
		return err
	}
	if err := s.style(st.header, 2); err != nil {
		return err
	}
	s.row++

	header := []any{"Month", "Target", "Numerator", "Denominator", "Actual", "Achievement %", "Status"}
	if err := s.append(header...); err != nil {
		return err
	}
	if err := s.style(st.header, len(header)); err != nil {
		return err
	}
	for _, row := range r.Report {
		if err := s.append(row.MonthName, cell(row.TargetValue), cell(row.NumeratorValue),
			cell(row.DenominatorValue), cell(row.ActualEnpi), cell(percent(row.AchievementRate)), row.AchievementStatus); err != nil {
			return err
		}
		if row.AchievementStatus == enpi.StatusMissed {
			if err := s.style(st.highlight, len(header)); err != nil {
				return err
			}
		}
	}
	if err := f.SetColWidth(s.name, "A", "G", 16); err != nil {
		return err
	}
	return f.Write(w)
}
