package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordPipe()
		m.RecordDescriptorClosed()
		m.RecordDescriptorError("close", "double_close")
		m.RecordSpawn("echo", nil)
		m.RecordWait("blocking", time.Millisecond)
		m.RecordReap("exited")
		m.MoveProcess("running", "zombie")
		m.RecordHTTPRequest("GET", "/health", "200", time.Millisecond)
		NewTimer(m, "blocking").Stop()
	})
	assert.Equal(t, MetricsSnapshot{}, m.Snapshot())
}

func TestDescriptorMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordPipe()
	m.RecordPipe()
	m.RecordDescriptorClosed()

	assert.Equal(t, float64(3), testutil.ToFloat64(m.DescriptorsOpen))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.PipesTotal))
	assert.Equal(t, int64(3), m.Snapshot().DescriptorsOpen)

	m.RecordDescriptorError("close", "double_close")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DescriptorErrors.WithLabelValues("close", "double_close")))
}

func TestProcessMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordSpawn("echo", nil)
	m.RecordSpawn("echo", errors.New("boom"))
	m.MoveProcess("", "running")
	m.MoveProcess("running", "reaped")
	m.RecordReap("exited")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.SpawnsTotal.WithLabelValues("echo", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SpawnsTotal.WithLabelValues("echo", "failure")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.ProcessStates.WithLabelValues("running")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ProcessStates.WithLabelValues("reaped")))

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.Spawned)
	assert.Equal(t, int64(1), snap.SpawnFailures)
	assert.Equal(t, int64(1), snap.Reaped)
}

func TestSeparateRegistries(t *testing.T) {
	// Two collectors on distinct registries must not collide
	assert.NotPanics(t, func() {
		NewMetrics(prometheus.NewRegistry())
		NewMetrics(prometheus.NewRegistry())
	})
}
