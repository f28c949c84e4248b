package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// AppName names the XDG directories.
const AppName = "golddust"

// Default values.
const (
	DefaultDispatcherListen  = "127.0.0.1:7777"
	DefaultDashboardListen   = "127.0.0.1:3000"
	DefaultTorProxyAddress   = "127.0.0.1:9050"
	DefaultFlagFile          = "gold-dust-tor.flag"
	DefaultHealthSeed        = 1
	DefaultTorStartupTimeout = 3 * time.Minute
)

// Config is the whole golddust.yaml document.
type Config struct {
	Backends   Backends   `yaml:"backends"`
	Dispatcher Dispatcher `yaml:"dispatcher"`
	Dashboard  Dashboard  `yaml:"dashboard"`
	Egress     Egress     `yaml:"egress"`
	Health     Health     `yaml:"health"`
	History    History    `yaml:"history"`
}

// Backends selects which backend families are registered.
type Backends struct {
	OxenEnabled bool `yaml:"oxen_enabled"`
	TorEnabled  bool `yaml:"tor_enabled"`
}

// Dispatcher configures the CONNECT dispatcher.
type Dispatcher struct {
	Listen   string `yaml:"listen"`
	TorProxy string `yaml:"tor_proxy"`

	// EmbeddedTor starts a tor daemon instead of using TorProxy.
	EmbeddedTor       bool          `yaml:"embedded_tor"`
	TorStartupTimeout time.Duration `yaml:"tor_startup_timeout"`
}

// Dashboard configures the web dashboard.
type Dashboard struct {
	Listen string `yaml:"listen"`
}

// Egress locates the egress flag file. A relative path is resolved against
// the working directory of each process.
type Egress struct {
	FlagFile string `yaml:"flag_file"`
}

// Health configures synthetic health sampling.
type Health struct {
	Seed   uint64 `yaml:"seed"`
	Random bool   `yaml:"random"`
}

// History configures the SQLite history store.
type History struct {
	Enabled bool `yaml:"enabled"`

	// Dir holds the database file. Empty means XDGDataDir.
	Dir string `yaml:"dir"`
}

// NewConfig returns a Config holding the defaults.
func NewConfig() *Config {
	return &Config{
		Backends: Backends{OxenEnabled: true, TorEnabled: true},
		Dispatcher: Dispatcher{
			Listen:            DefaultDispatcherListen,
			TorProxy:          DefaultTorProxyAddress,
			TorStartupTimeout: DefaultTorStartupTimeout,
		},
		Dashboard: Dashboard{Listen: DefaultDashboardListen},
		Egress:    Egress{FlagFile: DefaultFlagFile},
		Health:    Health{Seed: DefaultHealthSeed},
		History:   History{Enabled: true},
	}
}

// XDGDataDir returns the default history directory,
// e.g. ~/.local/share/golddust on Linux.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the per-user configuration directory,
// e.g. ~/.config/golddust on Linux.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// HistoryDir returns where the history database lives.
func (c *Config) HistoryDir() string {
	if c.History.Dir != "" {
		return c.History.Dir
	}
	return XDGDataDir()
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if !isHostPort(c.Dispatcher.Listen) {
		return fmt.Errorf("%w: dispatcher.listen %q", ErrInvalidListenAddress, c.Dispatcher.Listen)
	}
	if !isHostPort(c.Dashboard.Listen) {
		return fmt.Errorf("%w: dashboard.listen %q", ErrInvalidListenAddress, c.Dashboard.Listen)
	}
	if !c.Dispatcher.EmbeddedTor && !isHostPort(c.Dispatcher.TorProxy) {
		return fmt.Errorf("%w: %q", ErrInvalidTorProxy, c.Dispatcher.TorProxy)
	}
	if c.Dispatcher.EmbeddedTor && c.Dispatcher.TorStartupTimeout <= 0 {
		return ErrInvalidStartupTimeout
	}
	if strings.TrimSpace(c.Egress.FlagFile) == "" {
		return ErrEmptyFlagFile
	}
	return nil
}

// isHostPort accepts host:port with a port in 0-65535. Port 0 asks the
// kernel for a free port when listening.
func isHostPort(addr string) bool {
	_, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 0 && n <= 65535
}
