package main

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/spf13/cobra"

	"github.com/nao1215/golddust/internal/model"
)

// NewProxyCmd creates the proxy command.
func NewProxyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "proxy <target>",
		Short: "Pipe stdin/stdout to a target through the current egress",
		Long: `Proxy prints the advisory route for target, then connects to it the same
way the dispatcher would (through the Tor relay while the egress flag is on,
directly otherwise) and pipes stdin to the remote and the remote to stdout.

Status messages go to stderr so stdout carries only remote data. Nothing is
connected when the routing policy has no healthy backend.

Examples:
  printf 'GET / HTTP/1.0\r\nHost: example.com\r\n\r\n' | golddust proxy example.com:80`,
		Args: cobra.ExactArgs(1),
		RunE: runProxyCmd,
	}
}

func runProxyCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	target := args[0]
	status := cmd.ErrOrStderr()

	fmt.Fprintln(status, "=== Gold Dust VPN proxy ===")
	fmt.Fprintf(status, "Target:   %s\n", target)

	choice := a.newRouter().Choose(target)
	if !choice.Found() {
		fmt.Fprintf(status, "No backend available: %s\n", choice.Message)
		return nil
	}
	fmt.Fprintf(status, "Backend:  %s [%s]\n", choice.Backend.Name, choice.Backend.Kind)
	fmt.Fprintf(status, "Latency:  %.1f ms\n", choice.Health.LatencyMS)
	fmt.Fprintf(status, "Failure:  %.3f\n", choice.Health.FailureRate)

	ctx, cancel := signalContext(a.logger)
	defer cancel()

	mode := model.EgressModeFromFlag(a.flagStore().TorEnabled())
	fmt.Fprintf(status, "\nConnecting to %s (egress %s) ...\n", target, mode)

	conn, err := a.dialEgress(ctx, mode, target)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", target, err)
	}
	fmt.Fprintln(status, "Connected. Piping stdin -> remote and remote -> stdout.")

	return pipe(ctx, conn, cmd.InOrStdin(), cmd.OutOrStdout())
}

// dialEgress connects to target over the given egress path.
func (a *app) dialEgress(ctx context.Context, mode model.EgressMode, target string) (net.Conn, error) {
	if mode == model.EgressDirect {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", target)
	}
	client, _, err := a.torClient(ctx, false)
	if err != nil {
		return nil, err
	}
	return client.DialContext(ctx, "tcp", target)
}

// pipe copies in to conn and conn to out. End of input half-closes the
// connection; the pipe ends when the remote side closes or ctx is cancelled.
func pipe(ctx context.Context, conn net.Conn, in io.Reader, out io.Writer) error {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()
	defer conn.Close()

	go func() {
		_, _ = io.Copy(conn, in)
		if cw, ok := conn.(interface{ CloseWrite() error }); ok {
			_ = cw.CloseWrite()
		}
	}()

	_, err := io.Copy(out, conn)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
