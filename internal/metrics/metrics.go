// Package metrics exposes Prometheus counters for social and storage activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "three_good_things"

// Metrics holds the collectors registered for one process. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	socialActions   *prometheus.CounterVec
	entryWrites     *prometheus.CounterVec
	cleanupFailures *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		socialActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "social_actions_total",
			Help:      "Follow and like mutations by action and outcome.",
		}, []string{"action", "outcome"}),
		entryWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entry_writes_total",
			Help:      "Entry create, update and delete operations by outcome.",
		}, []string{"operation", "outcome"}),
		cleanupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_cleanup_failures_total",
			Help:      "Best-effort object deletions that failed.",
		}, []string{"bucket"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.socialActions,
		m.entryWrites,
		m.cleanupFailures,
		m.httpRequests,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) SocialAction(action string, err error) {
	if m == nil {
		return
	}
	m.socialActions.WithLabelValues(action, outcome(err)).Inc()
}

func (m *Metrics) EntryWrite(operation string, err error) {
	if m == nil {
		return
	}
	m.entryWrites.WithLabelValues(operation, outcome(err)).Inc()
}

func (m *Metrics) CleanupFailure(bucket string) {
	if m == nil {
		return
	}
	m.cleanupFailures.WithLabelValues(bucket).Inc()
}

func (m *Metrics) HTTPRequest(method, route, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
