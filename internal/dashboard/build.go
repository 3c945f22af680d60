// Package dashboard turns chart configs into real-time chart data and keeps
// the rendered charts of the dashboard page up to date.
package dashboard

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tomek7667/emsboard/internal/domain"
)

// Store is the data the dashboard reads.
type Store interface {
	Charts(ctx context.Context) ([]domain.ChartConfig, error)
	AggregateChart(ctx context.Context, chart domain.ChartConfig, now time.Time) ([]string, [][]domain.Num, error)
}

// Load builds every chart that has at least one series, in display order.
func Load(ctx context.Context, s Store, now time.Time) ([]domain.ChartData, error) {
	configs, err := s.Charts(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.ChartData{}
	for _, cfg := range configs {
		if len(cfg.Series) == 0 {
			continue
		}
		labels, values, err := s.AggregateChart(ctx, cfg, now)
		if err != nil {
			return nil, fmt.Errorf("chart %q: %w", cfg.ChartTitle, err)
		}
		out = append(out, Build(cfg, labels, values))
	}
	return out, nil
}

// Build assembles the chart data of one config from its aggregated values.
// Undefined values are drawn as 0.
func Build(cfg domain.ChartConfig, labels []string, values [][]domain.Num) domain.ChartData {
	if labels == nil {
		labels = []string{}
	}
	d := domain.ChartData{
		ChartID:   cfg.ID,
		TableName: cfg.ChartTitle,
		Labels:    labels,
		Datasets:  make([]domain.Dataset, 0, len(cfg.Series)),
	}
	for i, s := range cfg.Series {
		data := make([]domain.Num, len(labels))
		for j := range data {
			data[j] = domain.Some(0)
			if i < len(values) && j < len(values[i]) && values[i][j].Valid {
				data[j] = values[i][j]
			}
		}
		yAxis := s.YAxisID
		if yAxis != "y1" {
			yAxis = "y"
		}
		d.Datasets = append(d.Datasets, domain.Dataset{
			Label:   SeriesLabel(s),
			Data:    data,
			Type:    s.ChartType,
			YAxisID: yAxis,
		})
	}
	d.Axes = Axes(d.Datasets)
	return d
}

// SeriesLabel suffixes the label with the aggregation, e.g. "kWh (sum)".
func SeriesLabel(s domain.ChartSeries) string {
	agg := "avg"
	if strings.EqualFold(s.AggregationMethod, "sum") {
		agg = "sum"
	}
	return fmt.Sprintf("%s (%s)", s.SeriesLabel, agg)
}

// Axes computes the range and title of every y axis used by datasets, left
// axis first.
func Axes(datasets []domain.Dataset) []domain.Axis {
	var axes []domain.Axis
	for _, id := range []string{"y", "y1"} {
		var (
			labels []string
			values []float64
		)
		for _, ds := range datasets {
			if ds.YAxisID != id {
				continue
			}
			labels = append(labels, ds.Label)
			for _, v := range ds.Data {
				if f, ok := v.Get(); ok {
					values = append(values, f)
				}
			}
		}
		if labels == nil {
			continue
		}
		position := "left"
		if id == "y1" {
			position = "right"
		}
		lo, hi := AxisRange(values)
		axes = append(axes, domain.Axis{
			ID:       id,
			Position: position,
			Min:      lo,
			Max:      hi,
			Title:    strings.Join(labels, " / "),
		})
	}
	return axes
}

// AxisRange pads the data range by 10% on both sides. Flat data gets ±5
// around its value and no data gets 0..10.
func AxisRange(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 10
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span > 0 {
		return lo - span*0.1, hi + span*0.1
	}
	return lo - 5, hi + 5
}
