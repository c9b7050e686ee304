package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/server"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/inspect"
)

func newServeCmd(a *app) *cobra.Command {
	var host, port string

	cmd := &cobra.Command{
		Use:   "serve [fixture [args...]]",
		Short: "Serve the process API, optionally while running a fixture",
		Long: `Serve the read-only process API (reaper table, descriptor tables and
metrics) until interrupted. When a fixture is named it runs in the
background and its children show up in /processes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if host != "" {
				a.cfg.API.Host = host
			}
			if port != "" {
				a.cfg.API.Port = port
			}

			in, err := inspect.New(a.logger)
			if err != nil {
				a.logger.Warn("Inspector unavailable", zap.Error(err))
				in = nil
			}

			srv := server.New(a.cfg.API, server.Deps{
				Reaper:    a.reaper,
				Inspector: in,
				Metrics:   a.metrics,
				Gatherer:  a.registry,
				Logger:    a.logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Run(ctx) })
			if len(args) > 0 {
				g.Go(func() error { return a.backgroundFixture(ctx, cmd, args[0], args[1:]) })
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "Listen host (overrides API_HOST)")
	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides API_PORT)")
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// backgroundFixture runs a fixture next to the server. Its outcome is
// logged; only a failure to start it stops the server.
func (a *app) backgroundFixture(ctx context.Context, cmd *cobra.Command, name string, args []string) error {
	err := a.runFixture(ctx, cmd, name, args)
	var code exitCode
	switch {
	case err == nil:
		a.logger.Info("Fixture finished", zap.String("fixture", name))
	case ctx.Err() != nil:
		// Shutting down
	case errors.As(err, &code):
		a.logger.Info("Fixture finished", zap.String("fixture", name), zap.Int("exit_code", int(code)))
	default:
		return err
	}
	return nil
}
