package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Interpreter client metrics
	InterpreterCallsTotal   *prometheus.CounterVec
	InterpreterCallDuration *prometheus.HistogramVec

	// Auth metrics
	LoginsTotal        *prometheus.CounterVec
	TokenDecodesTotal  *prometheus.CounterVec
	PolicyDenialsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lycosidae_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lycosidae_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		InterpreterCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lycosidae_interpreter_calls_total",
				Help: "Total number of interpreter data-service calls",
			},
			[]string{"operation", "status"},
		),
		InterpreterCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lycosidae_interpreter_call_duration_seconds",
				Help:    "Interpreter call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lycosidae_logins_total",
				Help: "Total number of login attempts",
			},
			[]string{"outcome"},
		),
		TokenDecodesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lycosidae_token_decodes_total",
				Help: "Total number of session token verifications",
			},
			[]string{"outcome"},
		),
		PolicyDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lycosidae_policy_denials_total",
				Help: "Total number of authorization policy denials",
			},
			[]string{"predicate"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.InterpreterCallsTotal,
		m.InterpreterCallDuration,
		m.LoginsTotal,
		m.TokenDecodesTotal,
		m.PolicyDenialsTotal,
	)

	return m
}

// Handler returns the Prometheus scrape handler for this metrics registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records a completed HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveInterpreterCall records a completed interpreter call.
func (m *Metrics) ObserveInterpreterCall(operation, status string, duration time.Duration) {
	m.InterpreterCallsTotal.WithLabelValues(operation, status).Inc()
	m.InterpreterCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
