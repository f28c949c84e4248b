package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/nao1215/golddust/internal/database"
	"github.com/nao1215/golddust/internal/report"
)

// errHistoryDisabled is returned when history.enabled is false.
var errHistoryDisabled = errors.New("history is disabled (set history.enabled in golddust.yaml)")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded route decisions and dispatcher connections",
		Long: `History lists the newest entries of the SQLite history database: route
decisions made by 'golddust route', or with --events the connections handled
by the dispatcher.

Examples:
  golddust history
  golddust history --events --limit 50
  golddust history --events --markdown`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	addFormatFlags(cmd)
	cmd.Flags().Bool("events", false, "Show dispatcher connections instead of route decisions")
	cmd.Flags().IntP("limit", "n", database.DefaultListLimit, "Maximum number of entries")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	w, err := newReportWriter(cmd, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	events, err := cmd.Flags().GetBool("events")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	if !a.cfg.History.Enabled {
		return errHistoryDisabled
	}
	db, err := database.Open(a.cfg.HistoryDir(), database.DefaultOptions())
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	rep := &report.HistoryReport{}
	if events {
		rep.Events, err = db.ListEvents(ctx, limit)
		if rep.Events == nil {
			rep.Events = []database.ConnectionEvent{}
		}
		if err == nil {
			rep.Totals, err = db.CountEvents(ctx)
		}
	} else {
		rep.Decisions, err = db.ListDecisions(ctx, limit)
		if rep.Decisions == nil {
			rep.Decisions = []database.Decision{}
		}
	}
	if err != nil {
		return err
	}

	_, err = w.WriteHistory(rep)
	return err
}
