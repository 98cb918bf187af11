package internal

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// routeUnmatched labels requests that matched no route.
const routeUnmatched = "unmatched"

// Metrics records request metrics for every application sharing it.
// A nil *Metrics records nothing.
type Metrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	errors      *prometheus.CounterVec
	wsOpen      *prometheus.GaugeVec
	unknownHost prometheus.Counter
}

// NewMetrics registers the metrics with reg.
// Create it once per registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mosaic",
			Name:      "requests_total",
			Help:      "Requests dispatched, by application, route and status.",
		}, []string{"app", "route", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mosaic",
			Name:      "request_duration_seconds",
			Help:      "Request dispatch duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"app", "route"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mosaic",
			Name:      "request_errors_total",
			Help:      "Request errors, by application and kind.",
		}, []string{"app", "kind"}),
		wsOpen: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mosaic",
			Name:      "websocket_connections",
			Help:      "Open websocket connections.",
		}, []string{"app"}),
		unknownHost: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mosaic",
			Name:      "unknown_host_total",
			Help:      "Requests for hosts no application answers.",
		}),
	}
}

func (m *Metrics) observe(app, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = routeUnmatched
	}
	m.requests.WithLabelValues(app, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(app, route).Observe(d.Seconds())
}

func (m *Metrics) errorSeen(app string, kind Kind) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(app, kind.String()).Inc()
}

func (m *Metrics) wsOpened(app string) {
	if m == nil {
		return
	}
	m.wsOpen.WithLabelValues(app).Inc()
}

func (m *Metrics) wsClosed(app string) {
	if m == nil {
		return
	}
	m.wsOpen.WithLabelValues(app).Dec()
}

func (m *Metrics) hostMissed() {
	if m == nil {
		return
	}
	m.unknownHost.Inc()
}
