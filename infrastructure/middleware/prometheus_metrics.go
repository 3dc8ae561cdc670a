// Package middleware provides cross-cutting concerns for the partitioning
// engine: metrics and tracing that wrap the core domain without the
// domain depending on them.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/streamcut/internal/ports"
)

// PrometheusMetrics implements ports.MetricsCollector using Prometheus. It
// tracks window commit latency, edges placed, and the partition-quality
// gauges a Coordinator computes at assessment time.
type PrometheusMetrics struct {
	windowCommitLatency *prometheus.HistogramVec
	edgesPlacedTotal    *prometheus.CounterVec
	windowCommitsTotal  *prometheus.CounterVec
	replicateFactor     *prometheus.GaugeVec
	loadRelativeStddev  *prometheus.GaugeVec
	systemGauges        *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and registers
// all required metrics in the global Prometheus registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		windowCommitLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "streamcut_window_commit_duration_seconds",
				Help:    "Time to score and publish one Subpartitioner window.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		edgesPlacedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streamcut_edges_placed_total",
				Help: "Total edges placed into a partition, across all workers.",
			},
			[]string{"mode"},
		),
		windowCommitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streamcut_window_commits_total",
				Help: "Total window commits performed, across all workers.",
			},
			[]string{"mode", "status"},
		),
		replicateFactor: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "streamcut_replicate_factor",
				Help: "Average number of partitions a vertex is replicated across.",
			},
			[]string{"run_id"},
		),
		loadRelativeStddev: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "streamcut_load_relative_stddev",
				Help: "Partition size standard deviation relative to mean partition size.",
			},
			[]string{"run_id"},
		),
		systemGauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "streamcut_system_state",
				Help: "Miscellaneous point-in-time gauges keyed by metric name.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements ports.MetricsCollector by recording window
// commit latency in a Prometheus histogram, labeled by "mode" ("sync" when
// unset, since the synchronous Subpartitioner doesn't tag its calls).
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	mode, ok := labels["mode"]
	if !ok {
		mode = "sync"
	}
	pm.windowCommitLatency.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordCounter implements ports.MetricsCollector by incrementing the
// Prometheus counter named by metric.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	mode, ok := labels["mode"]
	if !ok {
		mode = "sync"
	}

	switch metric {
	case "edges_placed_total":
		pm.edgesPlacedTotal.WithLabelValues(mode).Add(value)
	case "window_commits_total":
		status := labels["status"]
		if status == "" {
			status = "ok"
		}
		pm.windowCommitsTotal.WithLabelValues(mode, status).Add(value)
	default:
		pm.systemGauges.WithLabelValues(metric).Add(value)
	}
}

// RecordGauge implements ports.MetricsCollector by setting the Prometheus
// gauge named by metric.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	runID := labels["run_id"]

	switch metric {
	case "replicate_factor":
		pm.replicateFactor.WithLabelValues(runID).Set(value)
	case "load_relative_stddev":
		pm.loadRelativeStddev.WithLabelValues(runID).Set(value)
	default:
		pm.systemGauges.WithLabelValues(metric).Set(value)
	}
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
