package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors of the service.
type Metrics struct {
	// Signaling relay
	RelayConnections prometheus.Gauge
	RelayEvents      *prometheus.CounterVec
	RelayDropped     *prometheus.CounterVec

	// Auth
	AuthCodes  *prometheus.CounterVec
	QrSessions *prometheus.CounterVec

	// HTTP
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Default returns the process-wide instance registered with the default registry.
func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = newMetrics(promauto.With(prometheus.DefaultRegisterer))
	})
	return defaultMetrics
}

// NewWithRegistry registers a fresh set of collectors on reg; used by tests
// that need isolated counters.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	return newMetrics(promauto.With(reg))
}

func newMetrics(f promauto.Factory) *Metrics {
	return &Metrics{
		RelayConnections: f.NewGauge(prometheus.GaugeOpts{
			Name: "messenger_relay_connections",
			Help: "Number of live signaling connections",
		}),
		RelayEvents: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messenger_relay_events_total",
				Help: "Signaling events relayed to a peer",
			},
			[]string{"event"},
		),
		RelayDropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messenger_relay_dropped_total",
				Help: "Inbound signaling frames dropped without delivery",
			},
			[]string{"reason"},
		),
		AuthCodes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messenger_auth_codes_total",
				Help: "Phone verification codes issued, by delivery outcome",
			},
			[]string{"delivery"},
		),
		QrSessions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messenger_qr_sessions_total",
				Help: "QR login session transitions",
			},
			[]string{"outcome"},
		),
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messenger_http_requests_total",
				Help: "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "messenger_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}
