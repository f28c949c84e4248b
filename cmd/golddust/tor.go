package main

import (
	"context"
	"fmt"

	"github.com/nao1215/golddust/internal/dispatcher"
	"github.com/nao1215/golddust/internal/egress"
	"github.com/nao1215/golddust/internal/tor"
)

// torClient returns the Tor relay dialer and a cleanup function. With
// embedded set, a private tor daemon is started first; otherwise the
// configured relay address is used as is. A relay that is down is not an
// error here: the dispatcher reports failures per connection.
func (a *app) torClient(ctx context.Context, embedded bool) (*tor.Client, func(), error) {
	if !embedded {
		client, err := tor.NewClient(a.cfg.Dispatcher.TorProxy)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Tor client: %w", err)
		}
		return client, func() {}, nil
	}

	a.logger.Info("starting embedded Tor daemon, this can take a few minutes...")
	daemon := tor.NewEmbeddedTor(tor.WithStartupTimeout(a.cfg.Dispatcher.TorStartupTimeout))
	if err := daemon.Start(ctx); err != nil {
		return nil, nil, err
	}
	a.logger.Info("embedded Tor daemon started",
		"socksAddr", daemon.SocksAddr(),
		"controlAddr", daemon.ControlAddr(),
	)

	stop := func() {
		a.logger.Info("stopping embedded Tor daemon...")
		if err := daemon.Stop(); err != nil {
			a.logger.Error("failed to stop embedded Tor", "error", err)
		}
	}

	client, err := daemon.NewClient()
	if err != nil {
		stop()
		return nil, nil, err
	}
	return client, stop, nil
}

// embeddedTorEnabled lets --embedded-tor override the configuration.
func (a *app) embeddedTorEnabled(flagValue, flagSet bool) bool {
	if flagSet {
		return flagValue
	}
	return a.cfg.Dispatcher.EmbeddedTor
}

// newDispatcher builds the CONNECT dispatcher. recorder may be nil.
func (a *app) newDispatcher(flag egress.Flag, client *tor.Client, recorder dispatcher.Recorder) *dispatcher.Server {
	opts := []dispatcher.Option{
		dispatcher.WithLogger(a.logger),
		dispatcher.WithAdvisor(a.newRouter()),
	}
	if recorder != nil {
		opts = append(opts, dispatcher.WithRecorder(recorder))
	}
	return dispatcher.NewServer(flag, client, opts...)
}

// warnIfTorDown logs a warning when the relay does not answer a SOCKS5
// handshake. It never blocks startup.
func (a *app) warnIfTorDown(ctx context.Context, client *tor.Client) {
	go func() {
		if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
			a.logger.Warn("tor relay check failed; tunnels will fail while the egress flag is on",
				"relay", client.ProxyAddress(), "status", status.String())
		}
	}()
}
