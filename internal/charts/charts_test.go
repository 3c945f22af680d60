package charts

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomek7667/emsboard/internal/baseline"
	"github.com/tomek7667/emsboard/internal/domain"
	"github.com/tomek7667/emsboard/internal/enpi"
)

func TestPoint(t *testing.T) {
	assert.Equal(t, "-", point(domain.None()))
	assert.Equal(t, 1.23, point(domain.Some(1.2345)))
}

func TestRenderDashboardChart(t *testing.T) {
	r := NewRenderer("/static/echarts/")
	d := domain.ChartData{
		ChartID:   4,
		TableName: "Compressor room",
		Labels:    []string{"08", "09"},
		Datasets: []domain.Dataset{
			{Label: "kWh (sum)", Data: []domain.Num{domain.Some(10), domain.Some(12)}, Type: "bar", YAxisID: "y"},
			{Label: "pressure (avg)", Data: []domain.Num{domain.Some(6.1), domain.Some(6.4)}, Type: "line", YAxisID: "y1"},
		},
		Axes: []domain.Axis{
			{ID: "y", Position: "left", Min: 9.8, Max: 12.2, Title: "kWh (sum)"},
			{ID: "y1", Position: "right", Min: 6.07, Max: 6.43, Title: "pressure (avg)"},
		},
	}
	chart := r.Dashboard(d)
	require.Len(t, chart.YAxisList, 2)
	assert.Equal(t, "right", chart.YAxisList[1].Position)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, chart))
	out := buf.String()
	assert.Contains(t, out, "Compressor room")
	assert.Contains(t, out, "pressure (avg)")
	assert.Contains(t, out, "/static/echarts/echarts.min.js")
}

func TestRenderBaselineAndEnpi(t *testing.T) {
	r := NewRenderer("")
	detail := domain.BaselineDetail{
		Baseline: domain.Baseline{Name: "Plant 2024", Year: 2024, Intercept: 10},
		Factors:  []domain.Factor{{Name: "x", Coefficient: 2}},
		MonitoredData: map[int]domain.MonthData{
			1: {Factors: domain.Observed{"x": domain.Some(5)}, ActualConsumption: domain.Some(25)},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, r.Baseline(detail.Baseline, baseline.Report(detail))))
	assert.Contains(t, buf.String(), "Plant 2024")
	assert.Contains(t, buf.String(), "baseline standard")

	report := enpi.BuildReport(domain.EnpiDefinition{Name: "Intensity", Unit: "kWh/pcs"}, 2024,
		enpi.Monthly{1: domain.Some(10)}, enpi.Monthly{1: domain.Some(2)}, enpi.Monthly{1: domain.Some(4)})
	buf.Reset()
	require.NoError(t, r.Render(&buf, r.Enpi(report)))
	assert.Contains(t, buf.String(), "Intensity")
	assert.Contains(t, buf.String(), DefaultAssetsHost)
}
