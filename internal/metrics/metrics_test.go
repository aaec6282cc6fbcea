package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	pm := NewPipelineMetrics(reg)

	pm.ChunkAllocated()
	pm.ChunkAllocated()
	pm.ChunkMeshed(384)
	pm.ChunkMeshed(6)
	pm.DuplicateEnqueue()
	pm.SetPending(5)
	pm.SetLastRun(1560, 2340)
	pm.ObservePhase(PhaseAllocate, 3*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(pm.chunksAllocated))
	assert.Equal(t, 2.0, testutil.ToFloat64(pm.chunksMeshed))
	assert.Equal(t, 390.0, testutil.ToFloat64(pm.quadsEmitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.duplicateEnqueues))
	assert.Equal(t, 5.0, testutil.ToFloat64(pm.pendingChunks))
	assert.Equal(t, 1560.0, testutil.ToFloat64(pm.lastRunVertices))
	assert.Equal(t, 2340.0, testutil.ToFloat64(pm.lastRunIndices))
	assert.Equal(t, 1, testutil.CollectAndCount(pm.phaseDuration))
}

func TestPipelineMetricsNilSafe(t *testing.T) {
	var pm *PipelineMetrics
	assert.NotPanics(t, func() {
		pm.ChunkAllocated()
		pm.ChunkMeshed(1)
		pm.DuplicateEnqueue()
		pm.SetPending(1)
		pm.SetLastRun(1, 1)
		pm.ObservePhase(PhaseMesh, time.Second)
	})
}

func TestExporterHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	pm := NewPipelineMetrics(reg)
	exp := NewExporter(reg, reg, NewProcessStats())

	pm.ChunkMeshed(10)
	exp.Sample()

	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "voxel_quads_emitted_total 10"))
	assert.True(t, strings.Contains(body, "voxel_process_alloc_megabytes"))
	assert.True(t, strings.Contains(body, "voxel_process_gc_cycles"))
}

func TestProcessStatsSnapshot(t *testing.T) {
	ps := NewProcessStats()
	snap := ps.Snapshot()

	assert.NotEmpty(t, snap.Uptime)
	assert.Greater(t, snap.AllocMB, 0.0)
	assert.Greater(t, snap.HeapObjects, uint64(0))
	assert.GreaterOrEqual(t, snap.Goroutines, 1)
	assert.Greater(t, ps.GetMemoryUsage(), 0.0)
}

func TestExporterStopWithoutStart(t *testing.T) {
	reg := prometheus.NewRegistry()
	exp := NewExporter(reg, reg, NewProcessStats())
	exp.Stop()

	snap := exp.Sample()
	assert.Equal(t, snap.AllocMB, testutil.ToFloat64(exp.allocMB))
}

func TestProcessStatsUptimeFormat(t *testing.T) {
	ps := &ProcessStats{StartTime: time.Now().Add(-(2*time.Hour + 3*time.Minute + 4*time.Second))}
	assert.Equal(t, "2ч 3м 4с", ps.GetUptime())

	ps.StartTime = time.Now().Add(-(5*time.Minute + 1*time.Second))
	assert.Equal(t, "5м 1с", ps.GetUptime())
}
