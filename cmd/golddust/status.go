package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/golddust/internal/model"
	"github.com/nao1215/golddust/internal/report"
	"github.com/nao1215/golddust/internal/tor"
)

// torProbeTimeout bounds --check-tor.
const torProbeTimeout = 30 * time.Second

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show backend health and the current egress mode",
		Long: `Status samples every registered backend and prints its latency and failure
rate, the egress flag read by the dispatcher, and the backend the routing
policy would pick right now.

Examples:
  golddust status
  golddust status --json
  golddust status --check-tor`,
		Args: cobra.NoArgs,
		RunE: runStatusCmd,
	}

	addFormatFlags(cmd)
	cmd.Flags().Bool("check-tor", false, "Probe the Tor SOCKS5 relay")

	return cmd
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	w, err := newReportWriter(cmd, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	checkTor, err := cmd.Flags().GetBool("check-tor")
	if err != nil {
		return err
	}

	health, choice := a.newRouter().Evaluate()
	store := a.flagStore()
	rep := &report.StatusReport{
		GeneratedAt: time.Now(),
		Egress:      model.EgressModeFromFlag(store.TorEnabled()),
		FlagFile:    store.Path(),
		Backends:    health,
		Choice:      choice,
	}

	if checkTor {
		rep.Tor = probeTor(cmd.Context(), a.cfg.Dispatcher.TorProxy)
	}

	_, err = w.WriteStatus(rep)
	return err
}

// probeTor runs a SOCKS5 handshake against proxyAddr.
func probeTor(ctx context.Context, proxyAddr string) *report.TorProbe {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, torProbeTimeout)
	defer cancel()

	client, err := tor.NewClient(proxyAddr)
	if err != nil {
		return &report.TorProbe{Proxy: proxyAddr, Status: err.Error()}
	}
	status := client.CheckConnection(ctx)
	return &report.TorProbe{Proxy: proxyAddr, Status: status.String(), OK: status == tor.ProxyStatusOK}
}
