package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/procfixture/internal/fixtures"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <fixture> [args...]",
		Short: "Run a fixture program",
		Long: `Run a fixture program in the foreground. The exit status is the
fixture's. Interrupting the command kills and reaps any child the
fixture is waiting on.

See "procfixture list" for the available fixtures.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runFixture(ctx, cmd, args[0], args[1:])
		},
	}
	// Everything after the fixture name belongs to the fixture
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func (a *app) runFixture(ctx context.Context, cmd *cobra.Command, name string, args []string) error {
	f, ok := fixtures.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown fixture %q (see \"procfixture list\")", name)
	}

	a.logger.Debug("Running fixture", zap.String("fixture", name), zap.Strings("args", args))
	code, err := f.Run(ctx, a.env(cmd.OutOrStdout()), args)
	if err != nil {
		return err
	}
	if code != 0 {
		return exitCode(code)
	}
	return nil
}
