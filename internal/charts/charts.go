// Package charts renders dashboard, baseline and EnPI charts as standalone
// HTML pages with go-echarts.
package charts

import (
	"fmt"
	"io"

	echarts "github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/tomek7667/emsboard/internal/baseline"
	"github.com/tomek7667/emsboard/internal/domain"
	"github.com/tomek7667/emsboard/internal/enpi"
)

// DefaultAssetsHost serves echarts.min.js when no local copy is configured.
const DefaultAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

var palette = []string{"#3498db", "#e74c3c", "#2ecc71", "#f1c40f", "#9b59b6", "#1abc9c"}

type Renderer struct {
	AssetsHost string
	Height     string
}

func NewRenderer(assetsHost string) *Renderer {
	if assetsHost == "" {
		assetsHost = DefaultAssetsHost
	}
	return &Renderer{AssetsHost: assetsHost, Height: "420px"}
}

func (r *Renderer) init(title string) echarts.GlobalOpts {
	return echarts.WithInitializationOpts(opts.Initialization{
		PageTitle:  title,
		Width:      "100%",
		Height:     r.Height,
		AssetsHost: r.AssetsHost,
	})
}

// point maps an undefined value to "-", which echarts draws as a gap.
func point(n domain.Num) any {
	if v, ok := n.Get(); ok {
		return baseline.Round2(v)
	}
	return "-"
}

func lineData(values []domain.Num) []opts.LineData {
	data := make([]opts.LineData, 0, len(values))
	for _, v := range values {
		data = append(data, opts.LineData{Value: point(v)})
	}
	return data
}

func barData(values []domain.Num) []opts.BarData {
	data := make([]opts.BarData, 0, len(values))
	for _, v := range values {
		data = append(data, opts.BarData{Value: point(v)})
	}
	return data
}

func monthLabels() []string {
	labels := make([]string, 0, 12)
	for m := 1; m <= 12; m++ {
		labels = append(labels, enpi.MonthName(m))
	}
	return labels
}

// Dashboard draws one real-time chart: bar datasets on the base chart, line
// datasets overlapped, each bound to its left (y) or right (y1) axis.
func (r *Renderer) Dashboard(d domain.ChartData) *echarts.Bar {
	bar := echarts.NewBar()
	global := []echarts.GlobalOpts{
		r.init(d.TableName),
		echarts.WithTitleOpts(opts.Title{Title: d.TableName}),
		echarts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		echarts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		echarts.WithXAxisOpts(opts.XAxis{Name: "time"}),
	}
	axisIndex := map[string]int{"y": 0}
	for _, a := range d.Axes {
		if a.ID == "y" {
			global = append(global, echarts.WithYAxisOpts(opts.YAxis{
				Name: a.Title, Type: "value", Min: a.Min, Max: a.Max, Position: a.Position,
			}))
		}
	}
	bar.SetGlobalOptions(global...)
	for _, a := range d.Axes {
		if a.ID != "y" {
			axisIndex[a.ID] = 1
			bar.ExtendYAxis(opts.YAxis{Name: a.Title, Type: "value", Min: a.Min, Max: a.Max, Position: a.Position})
		}
	}

	bar.SetXAxis(d.Labels)
	for i, ds := range d.Datasets {
		color := palette[i%len(palette)]
		idx := axisIndex[ds.YAxisID]
		if ds.Type == "bar" {
			bar.AddSeries(ds.Label, barData(ds.Data),
				echarts.WithBarChartOpts(opts.BarChart{YAxisIndex: idx}),
				echarts.WithItemStyleOpts(opts.ItemStyle{Color: color}))
			continue
		}
		line := echarts.NewLine()
		line.SetXAxis(d.Labels).AddSeries(ds.Label, lineData(ds.Data),
			echarts.WithLineChartOpts(opts.LineChart{YAxisIndex: idx}),
			echarts.WithItemStyleOpts(opts.ItemStyle{Color: color}))
		bar.Overlap(line)
	}
	return bar
}

// Baseline draws the baseline standard as a dashed line against the actual
// consumption for the twelve months of a baseline.
func (r *Renderer) Baseline(b domain.Baseline, rows []baseline.Row) *echarts.Line {
	standard := make([]domain.Num, 0, len(rows))
	actual := make([]domain.Num, 0, len(rows))
	for _, row := range rows {
		standard = append(standard, row.BaselineStandard)
		actual = append(actual, row.ActualConsumption)
	}

	title := fmt.Sprintf("Baseline performance - %s", b.Name)
	line := echarts.NewLine()
	line.SetGlobalOptions(
		r.init(title),
		echarts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%d", b.Year)}),
		echarts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		echarts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		echarts.WithYAxisOpts(opts.YAxis{Name: "consumption", Type: "value"}),
	)
	line.SetXAxis(monthLabels()).
		AddSeries("baseline standard", lineData(standard),
			echarts.WithLineStyleOpts(opts.LineStyle{Type: "dashed", Color: "rgb(255, 99, 132)"}),
			echarts.WithItemStyleOpts(opts.ItemStyle{Color: "rgb(255, 99, 132)"})).
		AddSeries("actual consumption", lineData(actual),
			echarts.WithItemStyleOpts(opts.ItemStyle{Color: "rgb(54, 162, 235)"}))
	return line
}

// Enpi draws the monthly actual EnPI as bars with the target as a line.
func (r *Renderer) Enpi(report domain.EnpiReport) *echarts.Bar {
	actual := make([]domain.Num, 0, len(report.Report))
	target := make([]domain.Num, 0, len(report.Report))
	for _, row := range report.Report {
		actual = append(actual, row.ActualEnpi)
		target = append(target, row.TargetValue)
	}

	title := fmt.Sprintf("%s (%s)", report.Definition.Name, report.Definition.Unit)
	bar := echarts.NewBar()
	bar.SetGlobalOptions(
		r.init(title),
		echarts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%d", report.Year)}),
		echarts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		echarts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		echarts.WithYAxisOpts(opts.YAxis{Name: report.Definition.Unit, Type: "value"}),
	)
	bar.SetXAxis(monthLabels()).
		AddSeries("actual EnPI", barData(actual), echarts.WithItemStyleOpts(opts.ItemStyle{Color: palette[0]}))

	line := echarts.NewLine()
	line.SetXAxis(monthLabels()).
		AddSeries("target", lineData(target),
			echarts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}),
			echarts.WithItemStyleOpts(opts.ItemStyle{Color: palette[1]}))
	bar.Overlap(line)
	return bar
}

// Render writes a standalone HTML page holding the given charts.
func (r *Renderer) Render(w io.Writer, cs ...components.Charter) error {
	page := components.NewPage()
	page.SetAssetsHost(r.AssetsHost)
	page.AddCharts(cs...)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render chart page: %w", err)
	}
	return nil
}
