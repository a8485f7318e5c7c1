// pkg/config/config.go
package config

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Global Koanf instance, initialized once at startup.
var (
	k    *koanf.Koanf
	once sync.Once
)

// InitGlobalConfig initializes the global Koanf instance.
// This should be called early in the application lifecycle, before Load.
func InitGlobalConfig() {
	once.Do(func() {
		k = koanf.New(".")
	})
}

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex // Protects currentConfig during runtime updates
}

// NewManager creates a new Manager backed by the global Koanf instance,
// initializing it if needed.
func NewManager() *Manager {
	InitGlobalConfig()
	return &Manager{
		koanfInstance: k,
	}
}

// DefaultConfig returns a Config populated with the baseline values used
// when no other source overrides them.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
		Workspace: "",
		Drive:     DriveConfig{Root: ""},
		Sheet:     SheetConfig{Path: ""},
		Scan: ScanConfig{
			Batch:      20,
			Budget:     4 * time.Minute,
			Subfolders: false,
			Update:     false,
		},
		Watch: WatchConfig{At: "03:00"},
	}
}

// Load loads configuration from the standard sources based on precedence.
// It populates the manager's currentConfig.
//
// Configuration precedence (highest to lowest):
//  1. Command-line flags (--log.level=debug)
//  2. Environment variables (FOLIO_LOG_LEVEL=debug)
//  3. .env file in the working directory
//  4. Config file (YAML)
//  5. Default values
//
// Environment variables use the FOLIO_ prefix and underscore-to-dot
// mapping:
//
//	FOLIO_LOG_LEVEL  -> log.level
//	FOLIO_SCAN_BATCH -> scan.batch
//
// For custom source ordering, use LoadWithSources() instead.
func (m *Manager) Load(flags *pflag.FlagSet, customConfigFilePath string) error {
	// Check debug flag before creating sources
	debug := false
	if flags != nil {
		debugFlag := flags.Lookup("debug")
		if debugFlag != nil && debugFlag.Value.String() == "true" {
			debug = true
		}
	}

	sources := DefaultSources(customConfigFilePath, flags, debug)
	return m.LoadWithSources(sources)
}

// LoadWithSources loads configuration from the provided sources in
// priority order. Sources with lower priority values load first; later
// sources override earlier values.
func (m *Manager) LoadWithSources(sources []ConfigSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Sort sources by priority (lowest first)
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Priority() < sources[j].Priority()
	})

	for _, src := range sources {
		if err := src.Load(m.koanfInstance); err != nil {
			return fmt.Errorf("error loading config from %s: %w", src.Name(), err)
		}
	}

	// Unmarshal the final merged configuration into m.currentConfig
	var newCfg Config
	if err := m.koanfInstance.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}
	m.currentConfig = newCfg

	m.postProcessConfig()

	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfgCopy := m.currentConfig
	return cfgCopy
}

// GetValue retrieves a configuration value by key path.
// Example: GetValue("scan.batch"). Returns nil if the key doesn't exist.
func (m *Manager) GetValue(key string) any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.koanfInstance.Get(key)
}

// UpdateRuntimeValue updates a configuration value at runtime. Reserved
// for live-reload; currently a validated no-op.
func (m *Manager) UpdateRuntimeValue(key string, value any) error {
	return nil
}

// postProcessConfig handles any adjustments needed after loading and unmarshaling.
func (m *Manager) postProcessConfig() {}

// DefaultConfigAsMap converts the DefaultConfig struct to a
// map[string]interface{} for Koanf's confmap.Provider, so Koanf knows
// every key before higher-priority sources merge in.
func DefaultConfigAsMap() map[string]any {
	def := DefaultConfig()
	return map[string]any{
		// Log configuration
		"log.level":  def.Log.Level,
		"log.format": def.Log.Format,
		"log.file":   def.Log.File,

		// Workspace (state directory)
		"workspace": def.Workspace,

		// Drive provider
		"drive.root": def.Drive.Root,

		// Output sheet
		"sheet.path": def.Sheet.Path,

		// Scan loop
		"scan.batch":      def.Scan.Batch,
		"scan.budget":     def.Scan.Budget,
		"scan.subfolders": def.Scan.Subfolders,
		"scan.update":     def.Scan.Update,

		// Watch daemon
		"watch.at": def.Watch.At,
	}
}

// BindFlags defines command-line flags corresponding to configuration
// settings. The main --config / -c flag for the config file path is
// defined on the root Cobra command's persistent flags.
func BindFlags(flags *pflag.FlagSet) {
	var flagvar bool
	flags.BoolVar(&flagvar, "debug", false, "Enable debug logging")
}
