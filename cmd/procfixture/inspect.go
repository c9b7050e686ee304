package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/procfixture/internal/inspect"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <pid|command>",
		Short: "Show the descriptor tables of a process and its children",
		Long: `Show the open descriptors of a process and of each of its direct
children: target, file cursor and access mode. A command name owned by
the current user takes precedence over a pid.

Example:
  procfixture run multi-pipe &
  procfixture inspect procfixture`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := inspect.New(a.logger)
			if err != nil {
				return err
			}

			p, err := in.Find(args[0])
			if errors.Is(err, inspect.ErrNotFound) {
				return fmt.Errorf("target %q did not match any running pids or executables", args[0])
			}
			if err != nil {
				return err
			}
			return in.Report(cmd.OutOrStdout(), p)
		},
	}
}
