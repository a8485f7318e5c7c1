// Package workspace resolves and prepares folio's on-disk layout: the
// directory holding checkpoint state and, unless configured otherwise,
// the output sheet.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

type contextKey string

const configKey contextKey = "folio.workspace"

// Config locates the workspace directory.
type Config struct {
	// Root is the workspace directory. Everything folio persists lives
	// under it.
	Root string
}

// DefaultConfig resolves the workspace root: $FOLIO_WORKSPACE when set,
// otherwise ~/.folio.
func DefaultConfig() (*Config, error) {
	if root := os.Getenv("FOLIO_WORKSPACE"); root != "" {
		return &Config{Root: root}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return &Config{Root: filepath.Join(home, ".folio")}, nil
}

// StateDir is where the key-value store keeps its files.
func (c *Config) StateDir() string {
	return filepath.Join(c.Root, "state")
}

// DefaultSheetPath is the sheet location used when sheet.path is not
// configured.
func (c *Config) DefaultSheetPath() string {
	return filepath.Join(c.Root, "folders.csv")
}

// EnsureLayout creates the workspace directories.
func (c *Config) EnsureLayout() error {
	for _, dir := range []string{c.Root, c.StateDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create workspace directory %s: %w", dir, err)
		}
	}
	return nil
}

// WithConfig attaches the workspace config to ctx.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext returns the workspace config attached to ctx.
func FromContext(ctx context.Context) (*Config, bool) {
	cfg, ok := ctx.Value(configKey).(*Config)
	return cfg, ok
}
