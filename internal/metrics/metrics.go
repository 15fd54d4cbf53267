package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	gatewayRequests *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
	submissions     *prometheus.CounterVec
	exports         *prometheus.CounterVec
	chartSelections prometheus.Counter
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		gatewayRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backtestctl_gateway_requests_total",
				Help: "Total number of gateway requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),

		gatewayDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backtestctl_gateway_request_duration_seconds",
				Help:    "Gateway request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backtestctl_submissions_total",
				Help: "Total number of backtest submissions by result",
			},
			[]string{"result"},
		),

		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backtestctl_report_exports_total",
				Help: "Total number of report exports by result",
			},
			[]string{"result"},
		),

		chartSelections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "backtestctl_chart_selections_total",
				Help: "Total number of chart selections",
			},
		),
	}

	reg.MustRegister(r.gatewayRequests)
	reg.MustRegister(r.gatewayDuration)
	reg.MustRegister(r.submissions)
	reg.MustRegister(r.exports)
	reg.MustRegister(r.chartSelections)

	return r
}

// ObserveRequest records one gateway call. Implements gateway.Observer.
func (r *Registry) ObserveRequest(operation, outcome string, seconds float64) {
	r.gatewayRequests.WithLabelValues(operation, outcome).Inc()
	r.gatewayDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordSubmission records a submission outcome ("succeeded", "failed",
// "invalid").
func (r *Registry) RecordSubmission(result string) {
	r.submissions.WithLabelValues(result).Inc()
}

// RecordExport records a report export outcome ("succeeded", "failed").
func (r *Registry) RecordExport(result string) {
	r.exports.WithLabelValues(result).Inc()
}

// RecordChartSelection records one chart selection.
func (r *Registry) RecordChartSelection() {
	r.chartSelections.Inc()
}

// Handler returns an HTTP handler exposing the registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}
