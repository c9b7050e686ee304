package process

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/shared/id"
)

// Reaper owns the state table of spawned children and collects each one
// exactly once.
type Reaper struct {
	mu      sync.Mutex
	entries map[id.SpawnID]*entry
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

type entry struct {
	handle *Handle

	// waitMu serializes waits on this child; waits on other children
	// proceed independently.
	waitMu sync.Mutex

	// Guarded by Reaper.mu
	state  State
	status ExitStatus
}

// Entry is one row of the reaper table.
type Entry struct {
	Handle
	Status ExitStatus `json:"status"`
}

// NewReaper creates an empty reaper.
func NewReaper(logger *logging.Logger) *Reaper {
	return &Reaper{
		entries: make(map[id.SpawnID]*entry),
		logger:  logging.OrNop(logger).Named("reaper"),
	}
}

// WithMetrics attaches a metrics collector.
func (r *Reaper) WithMetrics(metrics *monitoring.Metrics) *Reaper {
	r.metrics = metrics
	return r
}

func (r *Reaper) track(h *Handle) {
	r.mu.Lock()
	r.entries[h.SpawnID] = &entry{handle: h, state: StateRunning, status: ExitStatus{State: StateRunning}}
	r.mu.Unlock()
	r.metrics.MoveProcess("", StateRunning.String())
}

// Wait collects the child's exit status.
//
// Blocking mode suspends until the child has terminated. NonBlocking mode
// returns a Running status straight away if it has not. Once a child has
// been collected every further Wait fails with ErrNoSuchProcess.
func (r *Reaper) Wait(h *Handle, mode WaitMode) (ExitStatus, error) {
	e, err := r.lookup(h)
	if err != nil {
		return ExitStatus{}, err
	}

	e.waitMu.Lock()
	defer e.waitMu.Unlock()

	if r.stateOf(e) == StateReaped {
		return ExitStatus{}, fmt.Errorf("wait %s: %w", h, ErrNoSuchProcess)
	}

	timer := monitoring.NewTimer(r.metrics, mode.String())
	defer timer.Stop()

	options := 0
	if mode == NonBlocking {
		options = unix.WNOHANG
	}

	var ws unix.WaitStatus
	for {
		pid, err := unix.Wait4(h.PID, &ws, options, nil)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.ECHILD:
			// Collected behind our back; the status is gone
			r.finish(e, ExitStatus{State: StateReaped, Code: -1}, "lost")
			return ExitStatus{}, fmt.Errorf("wait %s: %w", h, ErrNoSuchProcess)
		case err != nil:
			return ExitStatus{}, fmt.Errorf("wait %s: %w", h, err)
		case pid == 0:
			return ExitStatus{State: StateRunning}, nil
		}
		break
	}

	status := fromWaitStatus(ws)
	outcome := "exited"
	if status.Signaled() {
		outcome = "signaled"
	}
	r.finish(e, status, outcome)

	r.logger.Info("Reaped child",
		zap.String("procedure", h.Procedure),
		zap.Int("pid", h.PID),
		zap.Stringer("spawn_id", h.SpawnID),
		zap.Stringer("status", status),
	)
	return status, nil
}

// Poll waits by repeated non-blocking waits every interval until the child
// is collected or ctx is done. It is the cancellable form of a blocking
// Wait.
func (r *Reaper) Poll(ctx context.Context, h *Handle, interval time.Duration) (ExitStatus, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := r.Wait(h, NonBlocking)
		if err != nil || !status.Running() {
			return status, err
		}
		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Query reports the child's state without collecting it. A terminated
// child shows up as StateZombie with its exit status and stays waitable.
func (r *Reaper) Query(h *Handle) (ExitStatus, error) {
	e, err := r.lookup(h)
	if err != nil {
		return ExitStatus{}, err
	}

	r.mu.Lock()
	state, status := e.state, e.status
	r.mu.Unlock()
	if state == StateReaped {
		return status, nil
	}

	peeked, exited, err := peek(h.PID)
	if err == unix.ECHILD {
		// A concurrent Wait may have just collected it
		r.mu.Lock()
		state, status = e.state, e.status
		r.mu.Unlock()
		if state == StateReaped {
			return status, nil
		}
		return ExitStatus{}, fmt.Errorf("query %s: %w", h, ErrNoSuchProcess)
	}
	if err != nil {
		return ExitStatus{}, fmt.Errorf("query %s: %w", h, err)
	}
	if !exited {
		return ExitStatus{State: StateRunning}, nil
	}

	peeked.State = StateZombie
	r.mu.Lock()
	if e.state == StateRunning {
		e.state = StateZombie
		e.status = peeked
		r.metrics.MoveProcess(StateRunning.String(), StateZombie.String())
	}
	r.mu.Unlock()
	return peeked, nil
}

// Kill terminates a child that has not been collected yet. The pid of a
// collected child may already belong to another process, so that case
// fails with ErrNoSuchProcess instead of signalling. Kill waits for any
// Wait in progress on the same child, which keeps the pid from being
// collected between the check and the signal.
func (r *Reaper) Kill(h *Handle) error {
	e, err := r.lookup(h)
	if err != nil {
		return err
	}

	e.waitMu.Lock()
	defer e.waitMu.Unlock()

	if r.stateOf(e) == StateReaped {
		return fmt.Errorf("kill %s: %w", h, ErrNoSuchProcess)
	}
	if err := unix.Kill(h.PID, unix.SIGKILL); err != nil {
		return fmt.Errorf("kill %s: %w", h, err)
	}
	return nil
}

// Find returns the most recent handle spawned with pid.
func (r *Reaper) Find(pid int) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var found *Handle
	for _, e := range r.entries {
		if e.handle.PID != pid {
			continue
		}
		if found == nil || e.handle.SpawnID > found.SpawnID {
			found = e.handle
		}
	}
	return found, found != nil
}

// Snapshot returns the table in spawn order. States are as last observed;
// use Query to refresh a running entry.
func (r *Reaper) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		status := e.status
		status.State = e.state
		entries = append(entries, Entry{Handle: *e.handle, Status: status})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].SpawnID < entries[j].SpawnID })
	return entries
}

func (r *Reaper) lookup(h *Handle) (*entry, error) {
	if h == nil {
		return nil, fmt.Errorf("nil handle: %w", ErrNoSuchProcess)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[h.SpawnID]
	if !ok || e.handle.PID != h.PID {
		return nil, fmt.Errorf("%s: %w", h, ErrNoSuchProcess)
	}
	return e, nil
}

func (r *Reaper) stateOf(e *entry) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return e.state
}

func (r *Reaper) finish(e *entry, status ExitStatus, outcome string) {
	status.State = StateReaped

	r.mu.Lock()
	prev := e.state
	e.state = StateReaped
	e.status = status
	r.mu.Unlock()

	r.metrics.MoveProcess(prev.String(), StateReaped.String())
	r.metrics.RecordReap(outcome)
}

func fromWaitStatus(ws unix.WaitStatus) ExitStatus {
	if ws.Signaled() {
		return ExitStatus{State: StateReaped, Code: -1, Signal: ws.Signal()}
	}
	return ExitStatus{State: StateReaped, Code: ws.ExitStatus()}
}
