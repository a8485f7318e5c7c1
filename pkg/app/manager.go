// Package app owns the application lifecycle: configuration loading,
// logger setup, and the base context commands run under. The CLI
// creates one Manager per invocation and threads it through context.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/folioscan/folio/pkg/config"
)

type contextKey string

// ManagerKey is the context key under which the Manager travels.
const ManagerKey contextKey = "folio.app.manager"

// Manager exposes the application-scoped services commands depend on.
type Manager interface {
	// Config returns the configuration manager for this process.
	Config() *config.Manager

	// Context returns the base context that outlives individual commands.
	Context() context.Context

	// Shutdown releases resources held by the manager.
	Shutdown()
}

// AppManager is the default Manager implementation.
type AppManager struct {
	cfgMgr  *config.Manager
	ctx     context.Context
	cancel  context.CancelFunc
	logFile *os.File
}

// DefaultAppManagerFactory builds AppManagers from CLI inputs.
type DefaultAppManagerFactory struct{}

// Create loads configuration from flags, environment, and the optional
// config file, then wires the global logger accordingly.
func (f *DefaultAppManagerFactory) Create(flags *pflag.FlagSet, configFile string) (Manager, error) {
	config.InitGlobalConfig()
	cfgMgr := config.NewManager()
	if err := cfgMgr.Load(flags, configFile); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return newAppManager(cfgMgr)
}

// CreateWithNoConfig builds a manager on defaults only. Used by tests
// that need a functioning manager without touching files or env.
func (f *DefaultAppManagerFactory) CreateWithNoConfig() (Manager, error) {
	config.InitGlobalConfig()
	cfgMgr := config.NewManager()
	if err := cfgMgr.LoadWithSources([]config.ConfigSource{&config.DefaultsSource{}}); err != nil {
		return nil, fmt.Errorf("load default config: %w", err)
	}
	return newAppManager(cfgMgr)
}

func newAppManager(cfgMgr *config.Manager) (*AppManager, error) {
	ctx, cancel := context.WithCancel(context.Background())
	m := &AppManager{
		cfgMgr: cfgMgr,
		ctx:    ctx,
		cancel: cancel,
	}
	if err := m.setupLogging(); err != nil {
		cancel()
		return nil, err
	}
	return m, nil
}

// setupLogging configures the global zerolog logger from the loaded
// config. The CLI may later tighten or relax the global level based on
// verbosity flags.
func (m *AppManager) setupLogging() error {
	cfg := m.cfgMgr.Get()

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer = os.Stderr
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		m.logFile = f
		w = f
	}
	if cfg.Log.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()

	return nil
}

func (m *AppManager) Config() *config.Manager {
	return m.cfgMgr
}

func (m *AppManager) Context() context.Context {
	return m.ctx
}

// Shutdown cancels the base context and closes the log file if one was
// opened. Safe to call more than once.
func (m *AppManager) Shutdown() {
	m.cancel()
	if m.logFile != nil {
		_ = m.logFile.Close()
		m.logFile = nil
	}
}

// FromContext extracts the Manager placed in the context by the CLI.
func FromContext(ctx context.Context) (Manager, bool) {
	mgr, ok := ctx.Value(ManagerKey).(Manager)
	return mgr, ok
}
