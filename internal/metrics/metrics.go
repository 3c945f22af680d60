// Package metrics holds the prometheus collectors of the server. All methods
// are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reports            *prometheus.CounterVec
	dashboardRefreshes *prometheus.CounterVec
	dashboardCharts    prometheus.Gauge
	hostSamples        *prometheus.CounterVec
	apiErrors          *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in
// tests and the default registry in the server.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emsboard_reports_built_total",
			Help: "Reports built, by kind (baseline, enpi).",
		}, []string{"kind"}),
		dashboardRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emsboard_dashboard_refreshes_total",
			Help: "Real-time dashboard refreshes, by result.",
		}, []string{"result"}),
		dashboardCharts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "emsboard_dashboard_charts",
			Help: "Charts built by the last dashboard refresh.",
		}),
		hostSamples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emsboard_host_samples_total",
			Help: "Host resource samples taken by the collector, by result.",
		}, []string{"result"}),
		apiErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emsboard_api_errors_total",
			Help: "API responses with an error status, by status code.",
		}, []string{"status"}),
		gatherer: reg,
	}
	reg.MustRegister(m.reports, m.dashboardRefreshes, m.dashboardCharts, m.hostSamples, m.apiErrors)
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) ReportBuilt(kind string) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(kind).Inc()
}

func (m *Metrics) DashboardRefreshed(charts int, err error) {
	if m == nil {
		return
	}
	m.dashboardRefreshes.WithLabelValues(result(err)).Inc()
	if err == nil {
		m.dashboardCharts.Set(float64(charts))
	}
}

func (m *Metrics) HostSampled(err error) {
	if m == nil {
		return
	}
	m.hostSamples.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) APIError(status string) {
	if m == nil {
		return
	}
	m.apiErrors.WithLabelValues(status).Inc()
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
