package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/golddust/internal/dispatcher"
	"github.com/nao1215/golddust/internal/egress"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dispatcher and the dashboard in one process",
		Long: `Serve runs the CONNECT dispatcher and the web dashboard together. They
share the egress flag in memory, so a toggle reaches the very next
connection. Every toggle is also written to the flag file, and the flag file
seeds the initial value.

Examples:
  golddust serve
  golddust serve --embedded-tor`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().Bool("embedded-tor", false, "Start a private tor daemon instead of using dispatcher.tor_proxy")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	embedded, err := cmd.Flags().GetBool("embedded-tor")
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(a.logger)
	defer cancel()

	client, stopTor, err := a.torClient(ctx, a.embeddedTorEnabled(embedded, cmd.Flags().Changed("embedded-tor")))
	if err != nil {
		return err
	}
	defer stopTor()
	a.warnIfTorDown(ctx, client)

	var recorder dispatcher.Recorder
	if db := a.openHistory(); db != nil {
		defer db.Close()
		recorder = db
	}

	store := a.sharedFlag()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.newDispatcher(store, client, recorder).ListenAndServe(gctx, a.cfg.Dispatcher.Listen)
	})
	g.Go(func() error {
		return a.newDashboard(store, a.cfg.Egress.FlagFile).ListenAndServe(gctx, a.cfg.Dashboard.Listen)
	})
	return g.Wait()
}

// sharedFlag returns the egress flag shared by the dispatcher and the
// dashboard in one process. The flag file seeds it and receives every toggle.
func (a *app) sharedFlag() *egress.MemoryStore {
	fileStore := a.flagStore()
	on, _, err := fileStore.Read()
	if err != nil {
		a.logger.Warn("cannot read egress flag file, starting with tor on", "file", fileStore.Path(), "error", err)
	}
	return egress.NewMemoryStore(on, egress.WithMirror(fileStore))
}
