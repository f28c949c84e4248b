package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/golddust/internal/model"
)

// errInvalidEgressArg is returned for an egress argument other than on or off.
var errInvalidEgressArg = errors.New("egress must be 'on' or 'off'")

// NewEgressCmd creates the egress command.
func NewEgressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "egress [on|off]",
		Short: "Show or set the egress flag",
		Long: `Egress prints the dispatcher's egress mode, or sets it.

  on   tunnel through the Tor SOCKS5 relay
  off  connect to targets directly

A missing flag file means on. A running 'golddust dispatch' picks the change
up on its next connection; 'golddust serve' only reads the file at startup,
so use its dashboard instead.

Examples:
  golddust egress
  golddust egress off`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE:      runEgressCmd,
	}
}

func runEgressCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	store := a.flagStore()
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		on, exists, err := store.Read()
		if err != nil {
			return err
		}
		suffix := ""
		if !exists {
			suffix = ", no flag file"
		}
		fmt.Fprintf(out, "egress: %s (%s%s)\n", model.EgressModeFromFlag(on), store.Path(), suffix)
		return nil
	}

	var on bool
	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "on":
		on = true
	case "off":
		on = false
	default:
		return fmt.Errorf("%w: %q", errInvalidEgressArg, args[0])
	}

	if err := store.SetTorEnabled(on); err != nil {
		return err
	}
	a.logger.Info("egress flag updated", "file", store.Path(), "tor", on)
	fmt.Fprintf(out, "egress: %s (%s)\n", model.EgressModeFromFlag(on), store.Path())
	return nil
}
