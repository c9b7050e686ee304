package fixtures

import (
	"context"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/procfixture/internal/process"
)

var nothingChild = process.Register("nothing", func(c *process.Child) int {
	return 0
})

func init() {
	add(Fixture{
		Name:    "zombie",
		Summary: "Child exits at once and stays a zombie until the parent reaps it",
		Usage:   "zombie",
		Run:     runZombie,
	})
	add(Fixture{
		Name:    "nothing",
		Summary: "Child that exits 0 immediately",
		Usage:   "nothing",
		Run:     runNothing,
	})
}

// runZombie leaves its child unreaped for the configured linger so the
// zombie can be observed, then collects it.
func runZombie(ctx context.Context, env *Env, args []string) (int, error) {
	if len(args) != 0 {
		return 1, usageError("zombie")
	}

	set := env.newSet()
	p, err := set.CreatePipe()
	if err != nil {
		return 1, err
	}

	h, err := env.Spawner.Spawn(nothingChild, set)
	if err != nil {
		return 1, closeAndWrap(set, err, p.Read, p.Write)
	}
	if err := set.Close(p.Read); err != nil {
		env.abandon(h)
		return 1, closeAndWrap(set, err, p.Write)
	}

	if err := sleep(ctx, env.Config.ZombieLinger); err != nil {
		env.abandon(h)
		return 1, closeAndWrap(set, err, p.Write)
	}

	if status, err := env.Reaper.Query(h); err == nil {
		env.logger().Info("Child state before reaping",
			zap.Stringer("child", h),
			zap.Stringer("state", status.State),
		)
	}

	status, err := env.wait(ctx, h)
	if cerr := set.Close(p.Write); err == nil {
		err = cerr
	}
	if err != nil {
		return 1, err
	}
	return status.Code, nil
}

func runNothing(ctx context.Context, env *Env, args []string) (int, error) {
	if len(args) != 0 {
		return 1, usageError("nothing")
	}

	h, err := env.Spawner.Spawn(nothingChild, nil)
	if err != nil {
		return 1, err
	}
	status, err := env.wait(ctx, h)
	if err != nil {
		return 1, err
	}
	return status.Code, nil
}
