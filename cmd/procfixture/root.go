package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/procfixture/internal/fixtures"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/process"
)

// exitCode carries a fixture's exit status out of cobra.
type exitCode int

func (c exitCode) Error() string {
	return fmt.Sprintf("exit status %d", int(c))
}

// app holds what every subcommand shares. It is built once the flags are
// parsed.
type app struct {
	cfg      *config.Config
	logger   *logging.Logger
	registry *prometheus.Registry
	metrics  *monitoring.Metrics
	reaper   *process.Reaper
	spawner  *process.Spawner

	logLevel string
	dev      bool
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.dev {
		cfg.Logging.Development = true
	}
	a.cfg = cfg
	a.logger = logging.FromEnv(cfg.Logging.Level, cfg.Logging.Development)

	a.registry = prometheus.NewRegistry()
	a.metrics = monitoring.NewMetrics(a.registry)
	a.reaper = process.NewReaper(a.logger).WithMetrics(a.metrics)

	spawner, err := process.NewSpawner(a.reaper, a.logger)
	if err != nil {
		return err
	}
	a.spawner = spawner.WithMetrics(a.metrics)
	return nil
}

func (a *app) env(out io.Writer) *fixtures.Env {
	return &fixtures.Env{
		Spawner: a.spawner,
		Reaper:  a.reaper,
		Logger:  a.logger,
		Metrics: a.metrics,
		Config:  a.cfg.Fixture,
		Out:     out,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "procfixture",
		Short: "Process and pipe fixtures for descriptor inspection",
		Long: `procfixture runs small programs that put child processes and pipes
into well-known states, and inspects the descriptor tables of live
processes.

Example:
  procfixture list
  procfixture run echo-line
  procfixture run multi-pipe &
  procfixture inspect procfixture
  procfixture serve zombie`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	root.PersistentFlags().BoolVar(&a.dev, "dev", false, "Development logging (overrides LOG_DEV)")

	root.AddCommand(
		newRunCmd(a),
		newListCmd(),
		newInspectCmd(a),
		newServeCmd(a),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if a.logger != nil {
		_ = a.logger.Sync()
	}

	var (
		code  exitCode
		usage *fixtures.UsageError
	)
	switch {
	case err == nil:
		return 0
	case errors.As(err, &code):
		return int(code)
	case errors.As(err, &usage):
		fmt.Fprintf(stderr, "Usage: procfixture run %s\n", usage.Usage)
		return 1
	default:
		if a.logger != nil {
			a.logger.Debug("Command failed", zap.Error(err))
		}
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
}
