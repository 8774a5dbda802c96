package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMetrics(t *testing.T) {
	metrics := NewRunMetrics("kassigner")

	metrics.MovesPlanned.Set(12)
	metrics.BatchesPlanned.WithLabelValues("reassignment").Set(3)
	metrics.BatchesExecuted.WithLabelValues("reassignment").Inc()
	metrics.ObserveAction("balance", time.Now())

	assert.Equal(t, 12.0, testutil.ToFloat64(metrics.MovesPlanned))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.BatchesPlanned.WithLabelValues("reassignment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BatchesExecuted.WithLabelValues("reassignment")))

	path := filepath.Join(t.TempDir(), "kassigner.prom")
	require.NoError(t, metrics.WriteTextfile(path))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "kassigner_moves_planned 12")
	assert.Contains(t, string(contents), `kassigner_batches_planned{kind="reassignment"} 3`)
	assert.Contains(t, string(contents), "kassigner_action_duration_seconds")
}

func TestRunMetricsNil(t *testing.T) {
	var metrics *RunMetrics
	metrics.ObserveAction("balance", time.Now())
	assert.NoError(t, metrics.WriteTextfile("/nonexistent/path"))
}
