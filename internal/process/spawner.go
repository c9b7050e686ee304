package process

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/procfixture/internal/descriptor"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/shared/id"
)

// closedFD marks a descriptor slot the child must not inherit.
const closedFD = ^uintptr(0)

// Spawner starts children running registered procedures.
type Spawner struct {
	reaper     *Reaper
	executable string
	logger     *logging.Logger
	metrics    *monitoring.Metrics
}

// NewSpawner creates a spawner whose children are tracked by reaper. The
// child runs the current executable, which must call DispatchAndExit
// before doing anything else.
func NewSpawner(reaper *Reaper, logger *logging.Logger) (*Spawner, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}
	return &Spawner{
		reaper:     reaper,
		executable: exe,
		logger:     logging.OrNop(logger).Named("spawner"),
	}, nil
}

// WithMetrics attaches a metrics collector.
func (s *Spawner) WithMetrics(metrics *monitoring.Metrics) *Spawner {
	s.metrics = metrics
	return s
}

// Spawn starts a child running p and returns as soon as the child exists.
//
// The child gets the parent's standard streams plus every handle open in
// set, each under its parent number, mirroring a fork. Everything else is
// closed in the child. The parent's copies stay open; closing the ends the
// parent does not use is the caller's job, right after Spawn returns.
func (s *Spawner) Spawn(p *Procedure, set *descriptor.Set, args ...string) (*Handle, error) {
	h, err := s.spawn(p, set, args)
	s.metrics.RecordSpawn(p.Name(), err)
	if err != nil {
		s.logger.Error("Spawn failed", zap.String("procedure", p.Name()), zap.Error(err))
		return nil, err
	}
	return h, nil
}

func (s *Spawner) spawn(p *Procedure, set *descriptor.Set, args []string) (*Handle, error) {
	var snap descriptor.Snapshot
	if set != nil {
		snap = set.Snapshot()
	}

	encoded, err := sonic.MarshalString(snap)
	if err != nil {
		return nil, fmt.Errorf("%w: encode descriptors: %v", ErrSpawnFailure, err)
	}

	attr := &syscall.ProcAttr{
		Env:   childEnv(p.Name(), encoded),
		Files: inheritedFiles(snap.Open),
	}
	argv := append([]string{s.executable}, args...)

	pid, _, err := syscall.StartProcess(s.executable, argv, attr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawnFailure, p.Name(), err)
	}

	h := &Handle{
		PID:       pid,
		SpawnID:   id.NewSpawnID(),
		Procedure: p.Name(),
		StartedAt: time.Now(),
	}
	s.reaper.track(h)

	s.logger.Info("Spawned child",
		zap.String("procedure", h.Procedure),
		zap.Int("pid", h.PID),
		zap.Stringer("spawn_id", h.SpawnID),
		zap.Int("inherited", len(snap.Open)),
	)
	return h, nil
}

// inheritedFiles lays out the child's descriptor table: the standard
// streams, then each open handle at its own index, with holes closed.
func inheritedFiles(open []descriptor.Handle) []uintptr {
	top := int(descriptor.Error)
	for _, h := range open {
		if int(h) > top {
			top = int(h)
		}
	}

	files := make([]uintptr, top+1)
	for i := range files {
		files[i] = closedFD
	}
	files[descriptor.Input] = uintptr(descriptor.Input)
	files[descriptor.Output] = uintptr(descriptor.Output)
	files[descriptor.Error] = uintptr(descriptor.Error)
	for _, h := range open {
		files[h] = uintptr(h)
	}
	return files
}
