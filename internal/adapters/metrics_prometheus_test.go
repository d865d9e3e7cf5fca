package adapters

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetricsCounters(t *testing.T) {
	m := NewPrometheusMetrics()
	m.VersionQuery("service", nil)
	m.VersionQuery("service", nil)
	m.VersionQuery("git", errors.New("boom"))
	m.SolverRestart()
	m.Download("service", nil)
	m.IntegrityFailure("example/cmp")
	m.SolveDuration(20 * time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.versionQueries.WithLabelValues("service", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.versionQueries.WithLabelValues("git", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.solverRestarts), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.downloads.WithLabelValues("service", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.integrityFailures.WithLabelValues("example/cmp")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.solveDuration))
}

func TestPrometheusMetricsWriteTextfile(t *testing.T) {
	m := NewPrometheusMetrics()
	m.SolverRestart()
	path := filepath.Join(t.TempDir(), "component_manager.prom")
	require.NoError(t, m.WriteTextfile(path))
	assert.Contains(t, readFile(t, path), "component_manager_solver_restarts_total 1")

	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "out.prom"))
	require.Error(t, err)
}
