// Package metrics provides Prometheus metrics for the vigil pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for a pipeline run.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	// Ingest metrics
	recordsParsed  prometheus.Counter
	recordsSkipped prometheus.Counter

	// Snapshot metrics
	snapshotNodes         prometheus.Gauge
	snapshotEdges         prometheus.Gauge
	snapshotBuildDuration prometheus.Histogram

	// Solver metrics
	solveDuration  *prometheus.HistogramVec
	solverFallback *prometheus.CounterVec

	// Selection metrics
	selectionSize      *prometheus.GaugeVec
	selectionObjective *prometheus.GaugeVec

	// Export metrics
	artifactsWritten prometheus.Counter
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace overrides the metric namespace.
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

// NewManager creates a metrics manager backed by its own registry, so
// the default Go runtime collectors are not dragged in.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "vigil",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// Registry exposes the underlying registry, e.g. for promhttp.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.recordsParsed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "records_parsed_total",
		Help:      "Endorsement records successfully parsed into the network",
	})
	m.recordsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "records_skipped_total",
		Help:      "Malformed endorsement records skipped during the build",
	})

	m.snapshotNodes = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "snapshot_nodes",
		Help:      "Nodes in the current network snapshot",
	})
	m.snapshotEdges = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "snapshot_edges",
		Help:      "Edge events in the current network snapshot",
	})
	m.snapshotBuildDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "snapshot_build_duration_seconds",
		Help:      "Time spent building the network snapshot",
		Buckets:   prometheus.DefBuckets,
	})

	m.solveDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "solve_duration_seconds",
		Help:      "Time spent per selection problem and method",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"problem", "method"})
	m.solverFallback = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "solver_fallback_total",
		Help:      "Exact solver calls that fell back to the approximate method",
	}, []string{"problem"})

	m.selectionSize = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "selection_size",
		Help:      "Number of nodes selected per problem and method",
	}, []string{"problem", "method"})
	m.selectionObjective = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "selection_objective",
		Help:      "Achieved objective value per problem and method",
	}, []string{"problem", "method"})

	m.artifactsWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "artifacts_written_total",
		Help:      "Result artifacts finalized on disk",
	})
}

// RecordParsed counts successfully parsed endorsement records.
func (m *Manager) RecordParsed(n int) {
	m.recordsParsed.Add(float64(n))
}

// RecordSkipped counts malformed records skipped by the builder.
func (m *Manager) RecordSkipped(n int) {
	m.recordsSkipped.Add(float64(n))
}

// RecordSnapshot captures snapshot size and build time.
func (m *Manager) RecordSnapshot(nodes, edges int, buildTime time.Duration) {
	m.snapshotNodes.Set(float64(nodes))
	m.snapshotEdges.Set(float64(edges))
	m.snapshotBuildDuration.Observe(buildTime.Seconds())
}

// RecordSolve captures one solve call.
func (m *Manager) RecordSolve(problem, method string, d time.Duration) {
	m.solveDuration.WithLabelValues(problem, method).Observe(d.Seconds())
}

// RecordFallback counts an exact solve that degraded to the
// approximate method.
func (m *Manager) RecordFallback(problem string) {
	m.solverFallback.WithLabelValues(problem).Inc()
}

// RecordSelection captures the outcome of one selection method.
func (m *Manager) RecordSelection(problem, method string, size int, objective float64) {
	m.selectionSize.WithLabelValues(problem, method).Set(float64(size))
	m.selectionObjective.WithLabelValues(problem, method).Set(objective)
}

// RecordArtifact counts a finalized artifact.
func (m *Manager) RecordArtifact() {
	m.artifactsWritten.Inc()
}
