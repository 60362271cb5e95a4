package service

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// planning engine.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	planningRuns     *prometheus.CounterVec
	planningDuration *prometheus.HistogramVec
	sessionsCreated  prometheus.Counter
	sessionsReplaced prometheus.Counter
	conflictsFound   *prometheus.CounterVec
	snapshotHits     prometheus.Counter
	snapshotMisses   prometheus.Counter
}

// NewMetricsService registers the core collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	planningRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planning_runs_total",
		Help: "Planning runs by solver mode and terminal status",
	}, []string{"mode", "status"})

	planningDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planning_duration_seconds",
		Help:    "Wall clock of planning runs",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 120, 300, 600},
	}, []string{"mode"})

	sessionsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "planning_sessions_created_total",
		Help: "Sessions inserted by planning commits",
	})

	sessionsReplaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "planning_sessions_replaced_total",
		Help: "Sessions removed by replace-existing commits",
	})

	conflictsFound := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "conflict_reports_total",
		Help: "Conflicts surfaced by the report endpoint, by kind",
	}, []string{"kind"})

	snapshotHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snapshot_cache_hits_total",
		Help: "Conflict/availability snapshot cache hits",
	})

	snapshotMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snapshot_cache_misses_total",
		Help: "Conflict/availability snapshot cache misses",
	})

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		requestDuration, requestTotal,
		planningRuns, planningDuration, sessionsCreated, sessionsReplaced,
		conflictsFound, snapshotHits, snapshotMisses,
	)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		planningRuns:     planningRuns,
		planningDuration: planningDuration,
		sessionsCreated:  sessionsCreated,
		sessionsReplaced: sessionsReplaced,
		conflictsFound:   conflictsFound,
		snapshotHits:     snapshotHits,
		snapshotMisses:   snapshotMisses,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	return m.handler
}

// ObserveRequest records one handled HTTP request.
func (m *MetricsService) ObserveRequest(method, path, status string, elapsed time.Duration) {
	m.requestDuration.WithLabelValues(method, path, status).Observe(elapsed.Seconds())
	m.requestTotal.WithLabelValues(method, path, status).Inc()
}

// ObservePlanningRun records a finished solver run.
func (m *MetricsService) ObservePlanningRun(mode, status string, elapsed time.Duration, created, replaced int) {
	m.planningRuns.WithLabelValues(mode, status).Inc()
	m.planningDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	m.sessionsCreated.Add(float64(created))
	m.sessionsReplaced.Add(float64(replaced))
}

// ObserveConflicts records a conflict report's findings.
func (m *MetricsService) ObserveConflicts(kindCounts map[string]int) {
	for kind, n := range kindCounts {
		m.conflictsFound.WithLabelValues(kind).Add(float64(n))
	}
}

// ObserveSnapshot records one snapshot cache lookup.
func (m *MetricsService) ObserveSnapshot(hit bool) {
	if hit {
		m.snapshotHits.Inc()
		return
	}
	m.snapshotMisses.Inc()
}
