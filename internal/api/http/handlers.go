package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/inspect"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/process"
)

// Version is reported by the root endpoint.
const Version = "0.1.0"

// Handlers serves the read-only view of the reaper table and the
// inspector.
type Handlers struct {
	reaper    *process.Reaper
	inspector *inspect.Inspector
	metrics   *monitoring.Metrics
	logger    *logging.Logger
	started   time.Time
}

// NewHandlers creates a new handler set. inspector and metrics may be nil;
// the endpoints that need them then answer 503.
func NewHandlers(
	reaper *process.Reaper,
	inspector *inspect.Inspector,
	metrics *monitoring.Metrics,
	logger *logging.Logger,
) *Handlers {
	return &Handlers{
		reaper:    reaper,
		inspector: inspector,
		metrics:   metrics,
		logger:    logging.OrNop(logger).Named("api"),
		started:   time.Now(),
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "procfixture",
		"version": Version,
	})
}

// Health reports liveness plus a count of children per state
func (h *Handlers) Health(c *gin.Context) {
	counts := map[string]int{
		process.StateRunning.String(): 0,
		process.StateZombie.String():  0,
		process.StateReaped.String():  0,
	}
	for _, e := range h.refreshed() {
		counts[e.Status.State.String()]++
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"uptime_seconds": time.Since(h.started).Seconds(),
		"children":       counts,
		"inspector":      gin.H{"available": h.inspector != nil},
	})
}

// ListProcesses lists every spawned child with its current state
func (h *Handlers) ListProcesses(c *gin.Context) {
	entries := h.refreshed()
	c.JSON(http.StatusOK, gin.H{
		"processes": entries,
		"count":     len(entries),
	})
}

// GetProcess reports one spawned child by pid. It observes a zombie
// without collecting it.
func (h *Handlers) GetProcess(c *gin.Context) {
	pid, ok := pidParam(c)
	if !ok {
		return
	}

	handle, found := h.reaper.Find(pid)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not a spawned child", "pid": pid})
		return
	}

	status, err := h.reaper.Query(handle)
	if err != nil {
		h.logger.Warn("Query failed", zap.Int("pid", pid), zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "pid": pid})
		return
	}

	c.JSON(http.StatusOK, process.Entry{Handle: *handle, Status: status})
}

// ProcessFDs lists the open descriptors of any process
func (h *Handlers) ProcessFDs(c *gin.Context) {
	if h.inspector == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "inspector not available"})
		return
	}

	pid, ok := pidParam(c)
	if !ok {
		return
	}

	p, err := h.inspector.Lookup(pid)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "pid": pid})
		return
	}

	files, err := p.OpenFiles()
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "process": p})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"process": p,
		"fds":     files,
	})
}

// Stats returns the JSON metrics snapshot
func (h *Handlers) Stats(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metrics not enabled"})
		return
	}
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

// refreshed returns the reaper table with running entries re-queried, so
// children that have exited since the last wait show up as zombies.
func (h *Handlers) refreshed() []process.Entry {
	entries := h.reaper.Snapshot()
	for i := range entries {
		if entries[i].Status.State != process.StateRunning {
			continue
		}
		if status, err := h.reaper.Query(&entries[i].Handle); err == nil {
			entries[i].Status = status
		}
	}
	return entries
}

func pidParam(c *gin.Context) (int, bool) {
	pid, err := strconv.Atoi(c.Param("pid"))
	if err != nil || pid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pid must be a positive integer"})
		return 0, false
	}
	return pid, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, inspect.ErrNotFound), errors.Is(err, process.ErrNoSuchProcess):
		return http.StatusNotFound
	case errors.Is(err, inspect.ErrUnavailable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
