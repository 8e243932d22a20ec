// Package metrics exposes connector metrics as Prometheus collectors.
//
// A single Metrics value satisfies the recorder interfaces of the queue,
// the catalog client and the orchestrator, so one instance can be handed to
// all three.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jdziat/simple-asset-sync/pkg/core"
)

const namespace = "assetsync"

// Metrics holds the connector collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	jobsAdmitted    *prometheus.CounterVec
	jobsRejected    *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	jobPanics       prometheus.Counter
	apiRetries      *prometheus.CounterVec
	tokenRefreshes  prometheus.Counter
	runs            *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	assetsDelivered *prometheus.CounterVec
	cursorCommits   prometheus.Counter
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jobsAdmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "jobs_admitted_total",
			Help:      "Jobs accepted by the execution queue.",
		}, []string{"origin"}),
		jobsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "jobs_rejected_total",
			Help:      "Jobs coalesced away by the execution queue.",
		}, []string{"origin"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "job_duration_seconds",
			Help:      "Wall time of executed jobs.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 900},
		}, []string{"origin"}),
		jobPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "job_panics_total",
			Help:      "Jobs that panicked.",
		}),
		apiRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "retries_total",
			Help:      "Catalog requests retried, by operation and reason.",
		}, []string{"operation", "reason"}),
		tokenRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "token_refreshes_total",
			Help:      "Access token refreshes triggered by authorization failures.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Finished sync runs, by origin and status.",
		}, []string{"origin", "status"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "run_duration_seconds",
			Help:      "Duration of sync runs.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 900},
		}, []string{"origin"}),
		assetsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "assets_delivered_total",
			Help:      "Target assets handed to the target, by classification.",
		}, []string{"classification"}),
		cursorCommits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "cursor_commits_total",
			Help:      "Asset feed cursors committed.",
		}),
	}

	m.registry.MustRegister(
		m.jobsAdmitted,
		m.jobsRejected,
		m.jobDuration,
		m.jobPanics,
		m.apiRetries,
		m.tokenRefreshes,
		m.runs,
		m.runDuration,
		m.assetsDelivered,
		m.cursorCommits,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) JobAdmitted(origin core.Origin) {
	m.jobsAdmitted.WithLabelValues(origin.String()).Inc()
}

func (m *Metrics) JobRejected(origin core.Origin) {
	m.jobsRejected.WithLabelValues(origin.String()).Inc()
}

func (m *Metrics) JobFinished(origin core.Origin, d time.Duration, panicked bool) {
	m.jobDuration.WithLabelValues(origin.String()).Observe(d.Seconds())
	if panicked {
		m.jobPanics.Inc()
	}
}

func (m *Metrics) Retried(op, reason string) {
	m.apiRetries.WithLabelValues(op, reason).Inc()
}

func (m *Metrics) TokenRefreshed() {
	m.tokenRefreshes.Inc()
}

func (m *Metrics) RunFinished(origin core.Origin, status core.RunStatus, d time.Duration) {
	m.runs.WithLabelValues(origin.String(), string(status)).Inc()
	m.runDuration.WithLabelValues(origin.String()).Observe(d.Seconds())
}

func (m *Metrics) AssetsDelivered(class core.Classification, n int) {
	m.assetsDelivered.WithLabelValues(class.String()).Add(float64(n))
}

func (m *Metrics) CursorCommitted() {
	m.cursorCommits.Inc()
}
