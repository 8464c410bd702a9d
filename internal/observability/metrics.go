package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters for the response pipeline.
type Metrics struct {
	CacheLookups       *prometheus.CounterVec // labels: result={hit,miss}
	ResponsesBuilt     *prometheus.CounterVec // labels: format={geojson,topojson,cap}
	ConversionFailures prometheus.Counter
	ReconnectAttempts  prometheus.Counter
	AlertsPublished    *prometheus.CounterVec // labels: channel={kafka,telegram,websocket}
}

func newMetrics() *Metrics {
	return &Metrics{
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_geo",
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by result.",
		}, []string{"result"}),
		ResponsesBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_geo",
			Name:      "responses_built_total",
			Help:      "Responses built per output format.",
		}, []string{"format"}),
		ConversionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_geo",
			Name:      "conversion_failures_total",
			Help:      "Features dropped from CAP feeds because their geometry could not be converted.",
		}),
		ReconnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_geo",
			Name:      "db_reconnect_attempts_total",
			Help:      "Database reconnection attempts.",
		}),
		AlertsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_geo",
			Name:      "alerts_published_total",
			Help:      "Alerts pushed to downstream channels.",
		}, []string{"channel"}),
	}
}

// NewMetrics creates and registers all metrics with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.CacheLookups,
		m.ResponsesBuilt,
		m.ConversionFailures,
		m.ReconnectAttempts,
		m.AlertsPublished,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so parallel tests do not
// trip "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
