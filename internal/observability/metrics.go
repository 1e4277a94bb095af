package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters for report intake and the
// upstream service adapters.
type Metrics struct {
	ReportsCreated prometheus.Counter
	ReportsUpdated prometheus.Counter

	// Adapter metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,empty,error}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
	WeatherRequests *prometheus.CounterVec // labels: outcome={success,error}
	ImageUploads    *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReportsCreated,
		m.ReportsUpdated,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.WeatherRequests,
		m.ImageUploads,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so
// parallel tests don't trip "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "idlewatch",
			Name:      "reports_created_total",
			Help:      "Total incident reports persisted.",
		}),
		ReportsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "idlewatch",
			Name:      "reports_updated_total",
			Help:      "Total incident report edits persisted.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "idlewatch",
			Name:      "geocode_requests_total",
			Help:      "Geocoding lookups by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "idlewatch",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "idlewatch",
			Name:      "weather_requests_total",
			Help:      "Weather service requests by outcome.",
		}, []string{"outcome"}),
		ImageUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "idlewatch",
			Name:      "image_uploads_total",
			Help:      "Image host uploads by outcome.",
		}, []string{"outcome"}),
	}
}
