// Package metrics exposes Prometheus metrics for the flowboard server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"flowboard/internal/bus"
)

// Registry holds all metrics for the application.
type Registry struct {
	StreamClients    prometheus.Gauge
	PublishRejected  prometheus.Counter
	CorrelationHits  prometheus.Counter
	CorrelationMiss  prometheus.Counter
	IngressEvents    prometheus.Counter
	IngressRejected  prometheus.Counter

	registry *prometheus.Registry
}

// New creates a metrics registry. Bus publish/drop totals and live
// session counts are read straight from the bus.
func New(b *bus.Bus) *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{registry: reg}

	promauto.With(reg).NewCounterFunc(
		prometheus.CounterOpts{
			Name: "flowboard_events_published_total",
			Help: "Total number of accepted progress events",
		},
		func() float64 { return float64(b.Published()) },
	)

	promauto.With(reg).NewCounterFunc(
		prometheus.CounterOpts{
			Name: "flowboard_events_dropped_total",
			Help: "Total number of events dropped under subscriber overflow",
		},
		func() float64 { return float64(b.Dropped()) },
	)

	promauto.With(reg).NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "flowboard_bus_sessions",
			Help: "Number of sessions with live subscribers",
		},
		func() float64 { return float64(b.SessionCount()) },
	)

	r.StreamClients = promauto.With(reg).NewGauge(prometheus.GaugeOpts{
		Name: "flowboard_stream_clients",
		Help: "Number of open stream connections",
	})

	r.PublishRejected = promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "flowboard_publish_rejected_total",
		Help: "Total number of publish requests rejected as invalid",
	})

	r.CorrelationHits = promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "flowboard_correlation_hits_total",
		Help: "Total number of messages correlated to a node",
	})

	r.CorrelationMiss = promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "flowboard_correlation_misses_total",
		Help: "Total number of messages no keyword rule matched",
	})

	r.IngressEvents = promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "flowboard_ingress_events_total",
		Help: "Total number of events accepted from the MQTT ingress",
	})

	r.IngressRejected = promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "flowboard_ingress_rejected_total",
		Help: "Total number of MQTT ingress payloads dropped as invalid",
	})

	return r
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
