package domain

import (
	"fmt"
	"strings"
)

type TimeGrouping string

const (
	GroupHour  TimeGrouping = "hour"
	GroupDay   TimeGrouping = "day"
	GroupMonth TimeGrouping = "month"
)

type ChartSeries struct {
	ID                int64  `json:"id,omitempty"`
	ChartID           int64  `json:"chart_id,omitempty"`
	SourceColumnName  string `json:"source_column_name"`
	SeriesLabel       string `json:"series_label"`
	ChartType         string `json:"chart_type"`
	YAxisID           string `json:"y_axis_id"`
	AggregationMethod string `json:"aggregation_method"`
}

type ChartConfig struct {
	ID              int64         `json:"id"`
	ChartTitle      string        `json:"chart_title"`
	SourceTableName string        `json:"source_table_name"`
	TimeColumn      string        `json:"time_column"`
	TimeGrouping    TimeGrouping  `json:"time_grouping"`
	DisplayOrder    int           `json:"display_order"`
	Series          []ChartSeries `json:"series"`
}

// Normalize fills defaults and rejects values outside the supported
// enumerations. Table and column existence is checked by the store.
func (c *ChartConfig) Normalize() error {
	c.ChartTitle = strings.TrimSpace(c.ChartTitle)
	if c.ChartTitle == "" {
		return fmt.Errorf("%w: chart_title is required", ErrInvalid)
	}
	if c.SourceTableName == "" || c.TimeColumn == "" {
		return fmt.Errorf("%w: source_table_name and time_column are required", ErrInvalid)
	}
	switch c.TimeGrouping {
	case GroupHour, GroupDay, GroupMonth:
	case "":
		c.TimeGrouping = GroupHour
	default:
		return fmt.Errorf("%w: time_grouping %q", ErrInvalid, c.TimeGrouping)
	}
	for i := range c.Series {
		s := &c.Series[i]
		if s.SourceColumnName == "" {
			return fmt.Errorf("%w: series %d has no source column", ErrInvalid, i+1)
		}
		if strings.TrimSpace(s.SeriesLabel) == "" {
			s.SeriesLabel = s.SourceColumnName
		}
		switch s.ChartType {
		case "line", "bar":
		case "":
			s.ChartType = "line"
		default:
			return fmt.Errorf("%w: chart_type %q", ErrInvalid, s.ChartType)
		}
		switch s.YAxisID {
		case "y", "y1":
		case "":
			s.YAxisID = "y"
		default:
			return fmt.Errorf("%w: y_axis_id %q", ErrInvalid, s.YAxisID)
		}
		s.AggregationMethod = strings.ToLower(strings.TrimSpace(s.AggregationMethod))
		switch s.AggregationMethod {
		case "sum", "avg":
		case "":
			s.AggregationMethod = "avg"
		default:
			return fmt.Errorf("%w: aggregation_method %q", ErrInvalid, s.AggregationMethod)
		}
	}
	return nil
}

// Dataset is one aggregated series of a dashboard chart.
type Dataset struct {
	Label   string `json:"label"`
	Data    []Num  `json:"data"`
	Type    string `json:"type"`
	YAxisID string `json:"yAxisID"`
}

// ChartData is one entry of GET /api/realtime_dashboard.
type ChartData struct {
	ChartID   int64     `json:"chartId"`
	TableName string    `json:"tableName"`
	Labels    []string  `json:"labels"`
	Datasets  []Dataset `json:"datasets"`
	Axes      []Axis    `json:"axes"`
}

// Axis is the computed range of one y axis of a dashboard chart.
type Axis struct {
	ID       string  `json:"id"`
	Position string  `json:"position"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Title    string  `json:"title"`
}
