package fixtures

import (
	"context"
	"errors"
	"io"
	"sort"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/procfixture/internal/descriptor"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/process"
)

// ErrUsage marks a malformed fixture invocation.
var ErrUsage = errors.New("usage")

// Env is what the parent side of a fixture runs with.
type Env struct {
	Spawner *process.Spawner
	Reaper  *process.Reaper
	Logger  *logging.Logger
	Metrics *monitoring.Metrics
	Config  config.FixtureConfig
	// Out receives the fixture's user-visible output.
	Out io.Writer
}

// Fixture is a runnable fixture program.
type Fixture struct {
	Name    string
	Summary string
	Usage   string
	Run     func(ctx context.Context, env *Env, args []string) (int, error)
}

var catalog = map[string]Fixture{}

func add(f Fixture) {
	catalog[f.Name] = f
}

// Lookup returns the fixture called name.
func Lookup(name string) (Fixture, bool) {
	f, ok := catalog[name]
	return f, ok
}

// All returns every fixture sorted by name.
func All() []Fixture {
	all := make([]Fixture, 0, len(catalog))
	for _, f := range catalog {
		all = append(all, f)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// UsageError reports a malformed invocation together with the fixture's
// usage line. It matches ErrUsage.
type UsageError struct {
	Usage string
}

func (e *UsageError) Error() string {
	return "usage: " + e.Usage
}

func (e *UsageError) Is(target error) bool {
	return target == ErrUsage
}

func usageError(usage string) error {
	return &UsageError{Usage: usage}
}

func (e *Env) newSet() *descriptor.Set {
	return descriptor.NewSet(e.Logger).WithMetrics(e.Metrics)
}

func (e *Env) logger() *logging.Logger {
	return logging.OrNop(e.Logger)
}

// wait collects h. Without a cancellable context it is a plain blocking
// wait; otherwise it polls so ctx can interrupt it, and a cancelled child
// is killed and reaped rather than left behind.
func (e *Env) wait(ctx context.Context, h *process.Handle) (process.ExitStatus, error) {
	if ctx.Done() == nil {
		return e.Reaper.Wait(h, process.Blocking)
	}

	interval := e.Config.PollInterval
	if interval <= 0 {
		interval = config.Default().Fixture.PollInterval
	}

	status, err := e.Reaper.Poll(ctx, h, interval)
	if err != nil && ctx.Err() != nil {
		e.abandon(h)
	}
	return status, err
}

func (e *Env) abandon(h *process.Handle) {
	if err := e.Reaper.Kill(h); err != nil {
		e.logger().Warn("Kill failed", zap.Stringer("child", h), zap.Error(err))
		return
	}
	if _, err := e.Reaper.Wait(h, process.Blocking); err != nil {
		e.logger().Warn("Reap after kill failed", zap.Stringer("child", h), zap.Error(err))
	}
}

// closeAll closes every handle, even after a failure, and combines the
// errors.
func closeAll(set *descriptor.Set, handles ...descriptor.Handle) error {
	var err error
	for _, h := range handles {
		err = multierr.Append(err, set.Close(h))
	}
	return err
}

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
