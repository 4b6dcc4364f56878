// Package metrics exposes Prometheus instrumentation for the directory
// server: mutation counters, subscriber gauges and HTTP request totals.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ServicesCreated counts successful service creations.
	ServicesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "servicedir",
		Subsystem: "registry",
		Name:      "services_created_total",
		Help:      "Total number of services created.",
	})

	// ServicesDeleted counts successful service deletions.
	ServicesDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "servicedir",
		Subsystem: "registry",
		Name:      "services_deleted_total",
		Help:      "Total number of services deleted.",
	})

	// EventsPublished counts change events fanned out, labeled by event kind.
	EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "servicedir",
		Subsystem: "broadcast",
		Name:      "events_published_total",
		Help:      "Total number of change events published to subscribers.",
	}, []string{"event"})

	// SubscribersConnected tracks currently connected WebSocket subscribers.
	SubscribersConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "servicedir",
		Subsystem: "broadcast",
		Name:      "subscribers_connected",
		Help:      "Number of currently connected WebSocket subscribers.",
	})

	// SubscribersDropped counts subscribers dropped after delivery failures.
	SubscribersDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "servicedir",
		Subsystem: "broadcast",
		Name:      "subscribers_dropped_total",
		Help:      "Total number of subscribers dropped after failed deliveries.",
	})

	// HTTPRequests counts handled HTTP requests by method and status code.
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "servicedir",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "status"})
)

// Register registers all collectors with the default registerer. Call once
// at startup.
func Register() {
	prometheus.MustRegister(
		ServicesCreated,
		ServicesDeleted,
		EventsPublished,
		SubscribersConnected,
		SubscribersDropped,
		HTTPRequests,
	)
}

// Handler returns the exposition endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
