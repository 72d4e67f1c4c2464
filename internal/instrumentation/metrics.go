package instrumentation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the gateway.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Tool invocations
	ToolCallsTotal *prometheus.CounterVec
	ToolLatencyMs  *prometheus.HistogramVec

	// Upstream calls
	UpstreamRequestsTotal *prometheus.CounterVec
	UpstreamLatencyMs     *prometheus.HistogramVec

	ErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates the gateway metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ToolCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ranger_mcp_tool_calls_total",
			Help: "Total number of tool calls by tool and outcome",
		}, []string{"tool", "outcome"}),

		ToolLatencyMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ranger_mcp_tool_latency_ms",
			Help:    "Tool call latency in milliseconds",
			Buckets: []float64{5, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		}, []string{"tool"}),

		UpstreamRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ranger_upstream_requests_total",
			Help: "Total number of upstream requests by API, endpoint and status class",
		}, []string{"api", "endpoint", "status"}),

		UpstreamLatencyMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ranger_upstream_latency_ms",
			Help:    "Upstream request latency in milliseconds",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		}, []string{"api", "endpoint"}),

		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ranger_errors_total",
			Help: "Total number of errors by component and type",
		}, []string{"component", "error_type"}),
	}
}

// RecordToolCall counts a finished tool call and observes its latency.
func (m *Metrics) RecordToolCall(tool, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ToolCallsTotal.WithLabelValues(tool, outcome).Inc()
	m.ToolLatencyMs.WithLabelValues(tool).Observe(float64(elapsed.Milliseconds()))
}

// RecordUpstream counts an upstream request. status is a class such as "2xx"
// or "network".
func (m *Metrics) RecordUpstream(api, endpoint, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequestsTotal.WithLabelValues(api, endpoint, status).Inc()
	m.UpstreamLatencyMs.WithLabelValues(api, endpoint).Observe(float64(elapsed.Milliseconds()))
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(component, errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
