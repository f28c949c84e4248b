package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/golddust/internal/dashboard"
	"github.com/nao1215/golddust/internal/egress"
)

// NewDashboardCmd creates the dashboard command.
func NewDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Run the web dashboard",
		Long: `Dashboard serves the control panel on dashboard.listen. Its button writes
the egress flag file that a separately running 'golddust dispatch' reads.

Examples:
  golddust dashboard
  open http://127.0.0.1:3000/`,
		Args: cobra.NoArgs,
		RunE: runDashboardCmd,
	}
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(a.logger)
	defer cancel()

	store := a.flagStore()
	return a.newDashboard(store, store.Path()).ListenAndServe(ctx, a.cfg.Dashboard.Listen)
}

// newDashboard builds the dashboard over store.
func (a *app) newDashboard(store egress.Store, flagFile string) *dashboard.Server {
	return dashboard.New(store,
		dashboard.WithHealth(a.newRouter()),
		dashboard.WithProxyAddress(a.cfg.Dispatcher.Listen),
		dashboard.WithFlagFile(flagFile),
		dashboard.WithLogger(a.logger),
	)
}
