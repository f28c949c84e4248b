package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/nao1215/golddust/internal/egress"
	"github.com/nao1215/golddust/internal/model"
)

// DefaultListenAddress is where the dispatcher listens unless configured otherwise.
const DefaultListenAddress = "127.0.0.1:7777"

// Status lines written to the client.
const (
	responseEstablished      = "HTTP/1.1 200 Connection Established\r\n\r\n"
	responseMethodNotAllowed = "HTTP/1.1 405 Method Not Allowed\r\n\r\n"
)

// maxAcceptDelay bounds the backoff after a failed Accept.
const maxAcceptDelay = time.Second

// Dialer opens upstream connections. *tor.Client and *net.Dialer satisfy it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Server is the CONNECT dispatcher.
type Server struct {
	flag     egress.Flag
	tor      Dialer
	direct   Dialer
	logger   *slog.Logger
	recorder Recorder
	advisor  Advisor
	now      func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRecorder hands every finished connection to recorder.
func WithRecorder(recorder Recorder) Option {
	return func(s *Server) {
		s.recorder = recorder
	}
}

// WithAdvisor attaches a routing policy whose decision is logged and
// recorded. It does not influence the egress choice.
func WithAdvisor(advisor Advisor) Option {
	return func(s *Server) {
		s.advisor = advisor
	}
}

// WithDirectDialer replaces the dialer used when the egress flag is off.
func WithDirectDialer(direct Dialer) Option {
	return func(s *Server) {
		s.direct = direct
	}
}

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// NewServer returns a dispatcher that reads flag before every connection
// and dials through tor when it is on.
func NewServer(flag egress.Flag, tor Dialer, opts ...Option) *Server {
	s := &Server{
		flag:   flag,
		tor:    tor,
		direct: &net.Dialer{},
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe binds addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.logger.Info("dispatcher listening", "addr", ln.Addr().String())
	return s.Serve(ctx, ln)
}

// Serve accepts connections from ln until ctx is cancelled, handling each
// one in its own goroutine. Cancelling ctx closes ln; connections already
// accepted keep running. Serve returns nil after a cancellation and the
// Accept error otherwise.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close() // unblocks Accept
	})
	defer stop()

	// In-flight connections outlive Serve's context.
	connCtx := context.WithoutCancel(ctx)

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			delay = nextAcceptDelay(delay)
			s.logger.Warn("accept failed", "error", err, "retry_in", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		delay = 0

		go s.handle(connCtx, conn)
	}
}

func nextAcceptDelay(prev time.Duration) time.Duration {
	if prev == 0 {
		return 5 * time.Millisecond
	}
	return min(prev*2, maxAcceptDelay)
}

// handle runs one connection through the dispatcher state machine.
// Errors never escape; they are logged and recorded.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	ev := Event{Peer: conn.RemoteAddr().String()}
	defer func() {
		ev.Time = s.now()
		s.record(ctx, ev)
	}()

	header, err := readHeader(conn)
	if err != nil {
		_ = conn.Close()
		ev.Outcome, ev.Err = OutcomeRejected, err
		s.logProtocolError(ev.Peer, err)
		return
	}

	req, err := parseRequest(header)
	if err != nil {
		_ = conn.Close()
		ev.Outcome, ev.Err = OutcomeRejected, err
		s.logProtocolError(ev.Peer, err)
		return
	}
	ev.Method, ev.Target = req.Method, req.Target

	if !req.IsConnect() {
		_, _ = io.WriteString(conn, responseMethodNotAllowed)
		_ = conn.Close()
		ev.Outcome = OutcomeMethodNotAllowed
		s.logger.Debug("method not allowed", "peer", ev.Peer, "method", req.Method)
		return
	}
	if req.Target == "" {
		_ = conn.Close()
		ev.Outcome, ev.Err = OutcomeRejected, ErrMissingTarget
		s.logProtocolError(ev.Peer, ErrMissingTarget)
		return
	}

	if s.advisor != nil {
		choice := s.advisor.Choose(req.Target)
		if choice.Found() {
			ev.Advisory = choice.Backend.Name
		}
		s.logger.Debug("advisory route", "target", req.Target, "backend", ev.Advisory, "message", choice.Message)
	}

	ev.Egress = model.EgressModeFromFlag(s.flag.TorEnabled())
	upstream, err := s.dial(ctx, ev.Egress, req.Target)
	if err != nil {
		_ = conn.Close()
		ev.Outcome, ev.Err = OutcomeUpstreamFailed, err
		s.logger.Error("upstream connect failed",
			"peer", ev.Peer, "target", req.Target, "egress", ev.Egress.String(), "error", err)
		return
	}

	if _, err := io.WriteString(conn, responseEstablished); err != nil {
		_ = conn.Close()
		_ = upstream.Close()
		ev.Outcome, ev.Err = OutcomeRejected, err
		s.logProtocolError(ev.Peer, err)
		return
	}

	s.logger.Info("tunnel established", "peer", ev.Peer, "target", req.Target, "egress", ev.Egress.String())
	relay(conn, upstream)
	ev.Outcome = OutcomeRelayed
	s.logger.Debug("tunnel closed", "peer", ev.Peer, "target", req.Target)
}

func (s *Server) dial(ctx context.Context, mode model.EgressMode, target string) (net.Conn, error) {
	if mode == model.EgressTor {
		return s.tor.DialContext(ctx, "tcp", target)
	}
	return s.direct.DialContext(ctx, "tcp", target)
}

func (s *Server) logProtocolError(peer string, err error) {
	s.logger.Warn("connection rejected", "peer", peer, "error", err)
}

func (s *Server) record(ctx context.Context, ev Event) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, ev); err != nil {
		s.logger.Warn("failed to record connection", "peer", ev.Peer, "error", err)
	}
}
