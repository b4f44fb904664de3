// Package monitoring provides Prometheus metrics and the gin middleware that
// records them.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Relay metrics
	Connections    prometheus.Gauge
	MessagesTotal  *prometheus.CounterVec
	DroppedClients prometheus.Counter
}

// New creates a metrics collector backed by its own registry so tests can
// construct collectors independently.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	startTime := time.Now()

	// Evaluated at scrape time, so it stays live however often the registry
	// handler is built.
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "popgate_uptime_seconds",
			Help: "Process uptime in seconds",
		},
		func() float64 { return time.Since(startTime).Seconds() },
	)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "popgate_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "popgate_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		Connections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "popgate_relay_connections",
				Help: "Currently connected relay clients",
			},
		),
		MessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "popgate_relay_messages_total",
				Help: "Messages broadcast by the relay, by message type",
			},
			[]string{"type"},
		),
		DroppedClients: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "popgate_relay_dropped_clients_total",
				Help: "Clients disconnected because their send queue filled",
			},
		),
	}
}

// Registry exposes the backing registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordBroadcast records a message fanned out by the relay.
func (m *Metrics) RecordBroadcast(msgType string) {
	m.MessagesTotal.WithLabelValues(msgType).Inc()
}
