// Package metrics exposes Prometheus counters for the synchronization layer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application's Prometheus collectors, registered on a
// private registry so tests can construct fresh instances per case.
type Metrics struct {
	registry *prometheus.Registry

	DetectionCycles      prometheus.Counter
	DetectionFailures    prometheus.Counter
	DetectionTransitions *prometheus.CounterVec
	NotificationsEmitted prometheus.Counter
	ResolveCacheHits     prometheus.Counter
	ResolveCacheMisses   prometheus.Counter
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DetectionCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchday_detection_cycles_total",
			Help: "Completed detection polling cycles.",
		}),
		DetectionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchday_detection_poll_failures_total",
			Help: "Per-match poll failures (isolated, retried next cycle).",
		}),
		DetectionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchday_detection_transitions_total",
			Help: "Observed match status transitions by notification type.",
		}, []string{"type"}),
		NotificationsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchday_notifications_emitted_total",
			Help: "Notifications appended to the inbox.",
		}),
		ResolveCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchday_resolve_cache_hits_total",
			Help: "Competition resolutions served from the in-memory cache.",
		}),
		ResolveCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchday_resolve_cache_misses_total",
			Help: "Competition resolutions that required an upstream call.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.DetectionCycles,
		m.DetectionFailures,
		m.DetectionTransitions,
		m.NotificationsEmitted,
		m.ResolveCacheHits,
		m.ResolveCacheMisses,
	)
	return m
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
