// pkg/config/sources.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix for configuration environment variables.
const EnvPrefix = "FOLIO_"

// ConfigSource is one layer in the configuration loading chain.
type ConfigSource interface {
	// Load merges this source's values into k.
	Load(k *koanf.Koanf) error

	// Name identifies the source in error messages.
	Name() string

	// Priority orders loading; higher priority sources override lower.
	Priority() int
}

// DefaultSources returns the standard loading chain: defaults, config
// file, .env file, environment variables, command-line flags, and the
// debug override.
func DefaultSources(configFilePath string, flags *pflag.FlagSet, debug bool) []ConfigSource {
	sources := []ConfigSource{
		&DefaultsSource{},
		&FileSource{Path: configFilePath},
		&DotenvSource{},
		&EnvSource{},
	}
	if flags != nil {
		sources = append(sources, &FlagsSource{Flags: flags})
	}
	if debug {
		sources = append(sources, &DebugSource{})
	}
	return sources
}

// DefaultsSource seeds koanf with the hardcoded defaults.
type DefaultsSource struct{}

func (s *DefaultsSource) Load(k *koanf.Koanf) error {
	return k.Load(confmap.Provider(DefaultConfigAsMap(), "."), nil)
}

func (s *DefaultsSource) Name() string  { return "defaults" }
func (s *DefaultsSource) Priority() int { return 0 }

// FileSource loads an optional YAML config file. An explicitly given path
// must exist; the conventional locations are skipped silently when absent.
type FileSource struct {
	Path string
}

func (s *FileSource) Load(k *koanf.Koanf) error {
	path := s.Path
	if path == "" {
		path = findDefaultConfigFile()
		if path == "" {
			return nil
		}
	} else if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return k.Load(file.Provider(path), yaml.Parser())
}

func (s *FileSource) Name() string  { return "file" }
func (s *FileSource) Priority() int { return 10 }

// findDefaultConfigFile checks the conventional config file locations.
func findDefaultConfigFile() string {
	candidates := []string{"folio.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".folio", "config.yaml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// DotenvSource loads a .env file from the working directory into the
// process environment so EnvSource picks the values up. Existing
// environment variables are never overridden; a missing file is skipped.
type DotenvSource struct{}

func (s *DotenvSource) Load(k *koanf.Koanf) error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

func (s *DotenvSource) Name() string  { return "dotenv" }
func (s *DotenvSource) Priority() int { return 15 }

// EnvSource maps FOLIO_* environment variables onto config keys:
//
//	FOLIO_LOG_LEVEL  -> log.level
//	FOLIO_SCAN_BATCH -> scan.batch
type EnvSource struct{}

func (s *EnvSource) Load(k *koanf.Koanf) error {
	return k.Load(env.Provider(EnvPrefix, ".", func(key string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "_", ".")
	}), nil)
}

func (s *EnvSource) Name() string  { return "env" }
func (s *EnvSource) Priority() int { return 20 }

// FlagsSource merges command-line flags. Defaults of flags that were not
// explicitly set never mask values already loaded from lower-priority
// sources; posflag skips them when the key is present in k.
type FlagsSource struct {
	Flags *pflag.FlagSet
}

func (s *FlagsSource) Load(k *koanf.Koanf) error {
	return k.Load(posflag.Provider(s.Flags, ".", k), nil)
}

func (s *FlagsSource) Name() string  { return "flags" }
func (s *FlagsSource) Priority() int { return 30 }

// DebugSource forces debug logging when --debug is set.
type DebugSource struct{}

func (s *DebugSource) Load(k *koanf.Koanf) error {
	return k.Load(confmap.Provider(map[string]any{"log.level": "debug"}, "."), nil)
}

func (s *DebugSource) Name() string  { return "debug" }
func (s *DebugSource) Priority() int { return 40 }
