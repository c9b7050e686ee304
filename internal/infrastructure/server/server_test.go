package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/inspect"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/process"
)

func TestMain(m *testing.M) {
	process.DispatchAndExit()
	os.Exit(m.Run())
}

var exitSeven = process.Register("server-exit-seven", func(c *process.Child) int {
	return 7
})

type fixture struct {
	srv     *Server
	reaper  *process.Reaper
	spawner *process.Spawner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	reaper := process.NewReaper(nil).WithMetrics(metrics)
	spawner, err := process.NewSpawner(reaper, nil)
	require.NoError(t, err)
	in, err := inspect.New(nil)
	require.NoError(t, err)

	cfg := config.Default().API
	cfg.RateLimit = 0

	t.Cleanup(func() {
		for _, e := range reaper.Snapshot() {
			if e.Status.State == process.StateReaped {
				continue
			}
			h := e.Handle
			_ = reaper.Kill(&h)
			_, _ = reaper.Wait(&h, process.Blocking)
		}
	})

	return &fixture{
		srv: New(cfg, Deps{
			Reaper:    reaper,
			Inspector: in,
			Metrics:   metrics,
			Gatherer:  reg,
		}),
		reaper:  reaper,
		spawner: spawner.WithMetrics(metrics),
	}
}

func (f *fixture) get(t *testing.T, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", path, nil))

	var body map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestRootAndHealth(t *testing.T) {
	f := newFixture(t)

	w, body := f.get(t, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "procfixture", body["service"])
	assert.NotEmpty(t, w.Header().Get(tracing.Header))

	w, body = f.get(t, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, map[string]any{"running": 0.0, "zombie": 0.0, "reaped": 0.0}, body["children"])
}

func TestProcessLifecycle(t *testing.T) {
	f := newFixture(t)

	h, err := f.spawner.Spawn(exitSeven, nil)
	require.NoError(t, err)
	path := "/processes/" + strconv.Itoa(h.PID)

	// The listing re-queries running children, so it catches the zombie
	require.Eventually(t, func() bool {
		w := httptest.NewRecorder()
		f.srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		var e process.Entry
		return w.Code == http.StatusOK &&
			json.Unmarshal(w.Body.Bytes(), &e) == nil &&
			e.Status.State == process.StateZombie
	}, 5*time.Second, 10*time.Millisecond)

	w, body := f.get(t, path)
	require.Equal(t, http.StatusOK, w.Code)
	status := body["status"].(map[string]any)
	assert.Equal(t, "zombie", status["state"])
	assert.Equal(t, 7.0, status["exit_code"])
	assert.Equal(t, string(h.SpawnID), body["spawn_id"])

	// The inspector cannot read a zombie's table
	w, _ = f.get(t, path+"/fds")
	assert.Equal(t, http.StatusConflict, w.Code)

	// Observing the zombie did not collect it
	reaped, err := f.reaper.Wait(h, process.Blocking)
	require.NoError(t, err)
	assert.Equal(t, 7, reaped.Code)

	w, body = f.get(t, path)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "reaped", body["status"].(map[string]any)["state"])

	w, body = f.get(t, "/processes")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, body["count"])
}

func TestProcessErrors(t *testing.T) {
	f := newFixture(t)

	w, _ := f.get(t, "/processes/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.get(t, "/processes/-3")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Only spawned children are in the table
	w, _ = f.get(t, "/processes/"+strconv.Itoa(os.Getpid()))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOwnDescriptors(t *testing.T) {
	f := newFixture(t)

	w, body := f.get(t, "/processes/"+strconv.Itoa(os.Getpid())+"/fds")
	require.Equal(t, http.StatusOK, w.Code)
	fds := body["fds"].([]any)
	require.NotEmpty(t, fds)
	first := fds[0].(map[string]any)
	assert.Contains(t, first, "cursor")
	assert.Contains(t, []any{"read", "write", "read/write"}, first["access"])
}

func TestMetricsEndpoints(t *testing.T) {
	f := newFixture(t)

	h, err := f.spawner.Spawn(exitSeven, nil)
	require.NoError(t, err)
	_, err = f.reaper.Wait(h, process.Blocking)
	require.NoError(t, err)

	w, _ := f.get(t, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "procfixture_spawns_total")
	assert.Contains(t, w.Body.String(), "procfixture_reaped_total")

	w, body := f.get(t, "/stats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, body["spawned"])
	assert.Equal(t, 1.0, body["reaped"])
}

func TestServeShutsDownOnCancel(t *testing.T) {
	f := newFixture(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
