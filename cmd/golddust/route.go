package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/golddust/internal/report"
)

// NewRouteCmd creates the route command.
func NewRouteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "route <target>",
		Short: "Show which backend the routing policy picks for a target",
		Long: `Route asks the routing policy for a backend: the lowest-latency Oxen node
under the failure-rate ceiling, otherwise the best Tor exit, otherwise an
explicit "no backend" answer.

The answer is advisory. The dispatcher follows the egress flag, not this
decision. Answers are recorded in the history database when enabled.

Examples:
  golddust route example.com:443
  golddust route example.com:443 --markdown`,
		Args: cobra.ExactArgs(1),
		RunE: runRouteCmd,
	}

	addFormatFlags(cmd)

	return cmd
}

func runRouteCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	w, err := newReportWriter(cmd, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	target := args[0]
	rep := &report.RouteReport{
		GeneratedAt: time.Now(),
		Target:      target,
		Choice:      a.newRouter().Choose(target),
	}

	if db := a.openHistory(); db != nil {
		defer db.Close()
		if _, err := db.InsertDecision(context.Background(), rep.GeneratedAt, target, rep.Choice); err != nil {
			a.logger.Warn("failed to record route decision", "error", err)
		}
	}

	_, err = w.WriteRoute(rep)
	return err
}
