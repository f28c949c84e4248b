package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/golddust/internal/config"
	"github.com/nao1215/golddust/internal/database"
	"github.com/nao1215/golddust/internal/egress"
	"github.com/nao1215/golddust/internal/log"
	"github.com/nao1215/golddust/internal/report"
	"github.com/nao1215/golddust/internal/router"
)

// errConflictingFormats is returned when --json and --markdown are both set.
var errConflictingFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

// app bundles what every config-driven command needs.
type app struct {
	cfg        *config.Config
	configPath string
	logger     *slog.Logger
}

// newApp loads the configuration and builds the logger. longRunning selects
// the Info default level used by servers.
func newApp(cmd *cobra.Command, longRunning bool) (*app, error) {
	logger, err := setupLogger(cmd, longRunning)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	cfg, path, err := config.Load(getStringFlag(cmd, "config", ""))
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded", "path", path)

	return &app{cfg: cfg, configPath: path, logger: logger}, nil
}

// setupLogger builds the secure logger from the persistent flags.
func setupLogger(cmd *cobra.Command, longRunning bool) (*slog.Logger, error) {
	format := getStringFlag(cmd, "log-format", log.FormatText)
	return log.New(cmd.ErrOrStderr(), format, log.LevelFor(getVerboseFlag(cmd), longRunning))
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getStringFlag retrieves a string flag from the command or its parent,
// falling back to def when neither defines it.
func getStringFlag(cmd *cobra.Command, name, def string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetString(name)
		if err != nil {
			return def
		}
	}
	return v
}

// newRouter builds the routing policy from the configuration.
func (a *app) newRouter() *router.Router {
	registry := router.NewRegistry(a.cfg.Backends.OxenEnabled, a.cfg.Backends.TorEnabled)

	var sampler router.Sampler = router.NewSeededSampler(a.cfg.Health.Seed)
	if a.cfg.Health.Random {
		sampler = router.NewRandomSampler()
	}
	return router.New(registry, sampler)
}

// flagStore returns the file-backed egress flag.
func (a *app) flagStore() *egress.FileStore {
	return egress.NewFileStore(a.cfg.Egress.FlagFile)
}

// openHistory opens the history database, or returns nil when history is
// disabled. Failures are logged and also yield nil: history never blocks
// routing or dispatching.
func (a *app) openHistory() *database.HistoryDB {
	if !a.cfg.History.Enabled {
		return nil
	}
	db, err := database.Open(a.cfg.HistoryDir(), database.DefaultOptions())
	if err != nil {
		a.logger.Warn("history disabled", "error", err)
		return nil
	}
	a.logger.Debug("history database opened", "path", db.Path())
	return db
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, stopping...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// addFormatFlags registers --json and --markdown.
func addFormatFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "Output in JSON format")
	cmd.Flags().Bool("markdown", false, "Output in Markdown format")
}

// newReportWriter picks the writer selected by the format flags.
func newReportWriter(cmd *cobra.Command, out io.Writer) (report.Writer, error) {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	asMarkdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}
	switch {
	case asJSON && asMarkdown:
		return nil, errConflictingFormats
	case asJSON:
		return report.NewJSONWriter(out, report.WithPrettyPrint()), nil
	case asMarkdown:
		return report.NewMarkdownWriter(out), nil
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(getVerboseFlag(cmd))), nil
	}
}
