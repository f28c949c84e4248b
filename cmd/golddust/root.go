package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "golddust",
		Short: "Oxen/Tor egress router with an HTTP CONNECT dispatcher",
		Long: `Gold Dust routes outbound TCP connections through Oxen nodes or Tor exits.

The routing policy picks the healthiest, lowest-latency Oxen backend and falls
back to Tor. The dispatcher accepts HTTP CONNECT tunnels and sends them through
the Tor SOCKS5 relay or directly, depending on the egress flag that the
dashboard and the egress command toggle.

Every command except init and version reads golddust.yaml. Create one with
'golddust init'.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to golddust.yaml")
	cmd.PersistentFlags().String("log-format", "text", "Log format: text or json")

	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewRouteCmd())
	cmd.AddCommand(NewProxyCmd())
	cmd.AddCommand(NewDispatchCmd())
	cmd.AddCommand(NewDashboardCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewEgressCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
