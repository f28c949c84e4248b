package dashboard

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nao1215/golddust/internal/egress"
	"github.com/nao1215/golddust/internal/model"
	"github.com/nao1215/golddust/internal/report"
)

// DefaultListenAddress is where the dashboard listens unless configured otherwise.
const DefaultListenAddress = "127.0.0.1:3000"

// shutdownTimeout bounds graceful shutdown after the context is cancelled.
const shutdownTimeout = 5 * time.Second

//go:embed templates/index.html
var templateFS embed.FS

// Health is the routing policy seen from the dashboard. *router.Router satisfies it.
type Health interface {
	Evaluate() ([]model.BackendHealth, model.BackendChoice)
}

// Server is the dashboard HTTP server.
type Server struct {
	store        egress.Store
	health       Health
	proxyAddress string
	flagFile     string
	logger       *slog.Logger
	now          func() time.Time
	echo         *echo.Echo
}

// Option configures a Server.
type Option func(*Server)

// WithHealth shows backend health and the advisory route.
func WithHealth(health Health) Option {
	return func(s *Server) {
		s.health = health
	}
}

// WithProxyAddress sets the dispatcher address shown to the user.
func WithProxyAddress(addr string) Option {
	return func(s *Server) {
		s.proxyAddress = addr
	}
}

// WithFlagFile reports the flag file location in /api/status.
func WithFlagFile(path string) Option {
	return func(s *Server) {
		s.flagFile = path
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New returns a dashboard that toggles store.
func New(store egress.Store, opts ...Option) *Server {
	s := &Server{
		store:        store,
		proxyAddress: "127.0.0.1:7777",
		logger:       slog.New(slog.DiscardHandler),
		now:          time.Now,
		echo:         echo.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// ListenAndServe binds addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.echo.Listener = ln
	s.logger.Info("dashboard listening", "url", "http://"+ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start("")
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dashboard shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) setupRoutes() {
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Renderer = newRenderer()

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("dashboard request",
				"method", v.Method, "uri", v.URI, "status", v.Status,
				"latency", v.Latency, "remote_ip", v.RemoteIP)
			return nil
		},
	}))
	s.echo.Use(middleware.Recover())

	s.echo.GET("/", s.index)
	s.echo.GET("/on", s.setOn)
	s.echo.POST("/on", s.setOn)
	s.echo.GET("/off", s.setOff)
	s.echo.POST("/off", s.setOff)
	s.echo.GET("/api/status", s.status)
}

// pageData feeds templates/index.html.
type pageData struct {
	TorEnabled   bool
	ProxyAddress string
	Backends     []model.BackendHealth
	Chosen       string
	Advice       string
}

func (s *Server) index(c echo.Context) error {
	data := pageData{
		TorEnabled:   s.store.TorEnabled(),
		ProxyAddress: s.proxyAddress,
	}
	if s.health != nil {
		var choice model.BackendChoice
		data.Backends, choice = s.health.Evaluate()
		if choice.Found() {
			data.Chosen = choice.Backend.Name
			data.Advice = choice.Backend.Name
		} else {
			data.Advice = choice.Message
		}
	}
	return c.Render(http.StatusOK, "index.html", data)
}

func (s *Server) setOn(c echo.Context) error {
	return s.set(c, true)
}

func (s *Server) setOff(c echo.Context) error {
	return s.set(c, false)
}

func (s *Server) set(c echo.Context, on bool) error {
	if err := s.store.SetTorEnabled(on); err != nil {
		s.logger.Error("failed to update egress flag", "on", on, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update egress flag")
	}
	s.logger.Info("egress flag updated", "egress", model.EgressModeFromFlag(on).String())
	return c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) status(c echo.Context) error {
	rep := &report.StatusReport{
		GeneratedAt: s.now(),
		Egress:      model.EgressModeFromFlag(s.store.TorEnabled()),
		FlagFile:    s.flagFile,
	}
	if s.health != nil {
		rep.Backends, rep.Choice = s.health.Evaluate()
	} else {
		rep.Choice = model.NoBackend("routing policy not attached")
	}
	return c.JSON(http.StatusOK, report.NewStatusJSON(rep))
}

// renderer adapts html/template to echo.Renderer.
type renderer struct {
	templates *template.Template
}

func newRenderer() *renderer {
	return &renderer{
		templates: template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

// Render implements echo.Renderer.
func (r *renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}
