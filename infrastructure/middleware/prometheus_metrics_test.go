package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ahrav/streamcut/internal/ports"
)

// testPrometheusMetrics is shared across this package's tests so Prometheus
// doesn't panic on duplicate metric registration.
var testPrometheusMetrics *PrometheusMetrics

func init() {
	testPrometheusMetrics = NewPrometheusMetrics()
}

func TestNewPrometheusMetrics(t *testing.T) {
	pm := testPrometheusMetrics
	assert.NotNil(t, pm)
	assert.NotNil(t, pm.windowCommitLatency)
	assert.NotNil(t, pm.edgesPlacedTotal)
	assert.NotNil(t, pm.windowCommitsTotal)
	assert.NotNil(t, pm.replicateFactor)
	assert.NotNil(t, pm.loadRelativeStddev)
	assert.NotNil(t, pm.systemGauges)

	var _ ports.MetricsCollector = pm
}

func TestPrometheusMetrics_RecordLatency(t *testing.T) {
	pm := testPrometheusMetrics

	assert.NotPanics(t, func() {
		pm.RecordLatency("window_commit", 12*time.Millisecond, map[string]string{"mode": "sync"})
		pm.RecordLatency("window_commit", 8*time.Millisecond, map[string]string{"mode": "async"})
		pm.RecordLatency("window_commit", 5*time.Millisecond, nil)
	})
}

func TestPrometheusMetrics_RecordCounter(t *testing.T) {
	pm := testPrometheusMetrics

	assert.NotPanics(t, func() {
		pm.RecordCounter("edges_placed_total", 128, map[string]string{"mode": "sync"})
		pm.RecordCounter("window_commits_total", 1, map[string]string{"mode": "sync", "status": "ok"})
		pm.RecordCounter("some_other_metric", 1, nil)
	})
}

func TestPrometheusMetrics_RecordGauge(t *testing.T) {
	pm := testPrometheusMetrics

	assert.NotPanics(t, func() {
		pm.RecordGauge("replicate_factor", 1.42, map[string]string{"run_id": "run-1"})
		pm.RecordGauge("load_relative_stddev", 0.07, map[string]string{"run_id": "run-1"})
		pm.RecordGauge("some_other_gauge", 3, nil)
	})
}
