package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all the Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	HTTPRequestSize      *prometheus.HistogramVec
	HTTPResponseSize     *prometheus.HistogramVec

	// Tool dispatch metrics
	ToolDispatches  *prometheus.CounterVec
	ToolDuration    *prometheus.HistogramVec
	ToolPayloadSize *prometheus.HistogramVec

	// Model metrics
	ModelRequests *prometheus.CounterVec
	ModelDuration *prometheus.HistogramVec
	ModelTokens   *prometheus.CounterVec

	// System metrics
	GoRoutines  prometheus.Gauge
	MemoryUsage prometheus.Gauge
	GCCycles    prometheus.Gauge
}

// NewMetrics creates all metrics and registers them with reg. Pass
// prometheus.DefaultRegisterer to expose them on the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),
		HTTPRequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_size_bytes",
				Help:    "Size of HTTP requests in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "endpoint"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "Size of HTTP responses in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "endpoint"},
		),

		// Tool dispatch metrics
		ToolDispatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_dispatches_total",
				Help: "Total number of tool calls dispatched",
			},
			[]string{"tool_name", "status", "error_kind"},
		),
		ToolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tool_dispatch_duration_seconds",
				Help:    "Duration of tool calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"tool_name"},
		),
		ToolPayloadSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tool_payload_size_bytes",
				Help:    "Size of tool result payloads in bytes",
				Buckets: prometheus.ExponentialBuckets(64, 4, 7),
			},
			[]string{"tool_name"},
		),

		// Model metrics
		ModelRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "model_requests_total",
				Help: "Total number of model completions by outcome",
			},
			[]string{"model", "outcome"}, // tool_call, answer, error
		),
		ModelDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "model_request_duration_seconds",
				Help:    "Duration of model completions in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"model"},
		),
		ModelTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "model_tokens_total",
				Help: "Tokens consumed by model completions",
			},
			[]string{"model", "direction"}, // input, output
		),

		// System metrics
		GoRoutines: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "go_goroutines_current",
				Help: "Number of goroutines that currently exist",
			},
		),
		MemoryUsage: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "memory_usage_bytes",
				Help: "Current memory usage in bytes",
			},
		),
		GCCycles: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "gc_cycles_completed",
				Help: "Number of completed GC cycles",
			},
		),
	}
}

// RecordHTTPRequest records metrics for an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration, requestSize, responseSize int64) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	m.HTTPRequestSize.WithLabelValues(method, endpoint).Observe(float64(requestSize))
	m.HTTPResponseSize.WithLabelValues(method, endpoint).Observe(float64(responseSize))
}

// IncHTTPRequestsInFlight increments the in-flight requests counter
func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecHTTPRequestsInFlight decrements the in-flight requests counter
func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// RecordToolDispatch records a dispatched tool call
func (m *Metrics) RecordToolDispatch(toolName, status, errorKind string, duration time.Duration, payloadSize int) {
	m.ToolDispatches.WithLabelValues(toolName, status, errorKind).Inc()
	m.ToolDuration.WithLabelValues(toolName).Observe(duration.Seconds())
	m.ToolPayloadSize.WithLabelValues(toolName).Observe(float64(payloadSize))
}

// RecordModelRequest records a model completion
func (m *Metrics) RecordModelRequest(model, outcome string, duration time.Duration, inputTokens, outputTokens int) {
	m.ModelRequests.WithLabelValues(model, outcome).Inc()
	m.ModelDuration.WithLabelValues(model).Observe(duration.Seconds())
	m.ModelTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	m.ModelTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
}

// UpdateSystemMetrics updates system-level metrics
func (m *Metrics) UpdateSystemMetrics(goroutines int, memoryBytes uint64, gcCycles uint32) {
	m.GoRoutines.Set(float64(goroutines))
	m.MemoryUsage.Set(float64(memoryBytes))
	m.GCCycles.Set(float64(gcCycles))
}
