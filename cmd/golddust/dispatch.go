package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/golddust/internal/dispatcher"
)

// NewDispatchCmd creates the dispatch command.
func NewDispatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Run the HTTP CONNECT dispatcher",
		Long: `Dispatch accepts HTTP CONNECT requests on dispatcher.listen and relays each
tunnel through the Tor SOCKS5 relay while the egress flag is on, or directly
while it is off. The flag file is read for every new connection, so toggles
from the dashboard or 'golddust egress' apply without a restart.

Examples:
  golddust dispatch
  golddust dispatch --embedded-tor
  curl -x http://127.0.0.1:7777 https://example.com/`,
		Args: cobra.NoArgs,
		RunE: runDispatchCmd,
	}

	cmd.Flags().Bool("embedded-tor", false, "Start a private tor daemon instead of using dispatcher.tor_proxy")

	return cmd
}

func runDispatchCmd(cmd *cobra.Command, _ []string) error {
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

	store := a.flagStore()
	a.logger.Info("egress flag", "file", store.Path(), "tor", store.TorEnabled())
	return a.newDispatcher(store, client, recorder).ListenAndServe(ctx, a.cfg.Dispatcher.Listen)
}
