package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/procfixture/internal/fixtures"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the fixture programs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USAGE\tDESCRIPTION")
			for _, f := range fixtures.All() {
				fmt.Fprintf(w, "%s\t%s\n", f.Usage, f.Summary)
			}
			return w.Flush()
		},
	}
}
