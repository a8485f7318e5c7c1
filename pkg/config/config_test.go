package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
)

// Helper to reset global variables for testing
func resetGlobalConfig() {
	k = nil
	once = sync.Once{}
}

func TestInitGlobalConfig_InitializesKoanfOnce(t *testing.T) {
	resetGlobalConfig()
	InitGlobalConfig()
	assert.NotNil(t, k, "Global koanf instance should be initialized")
}

func TestInitGlobalConfig_IsIdempotent(t *testing.T) {
	resetGlobalConfig()
	InitGlobalConfig()
	firstInstance := k
	InitGlobalConfig()
	secondInstance := k
	assert.Equal(t, firstInstance, secondInstance, "Koanf instance should not change on repeated InitGlobalConfig calls")
}

func TestInitGlobalConfig_KoanfUsesDotDelimiter(t *testing.T) {
	resetGlobalConfig()
	InitGlobalConfig()
	assert.Equal(t, ".", k.Delim(), "Koanf delimiter should be '.'")
}

func TestNewManager_InitializesManagerWithGlobalKoanf(t *testing.T) {
	resetGlobalConfig()
	manager := NewManager()
	assert.NotNil(t, manager, "Manager should not be nil")
	assert.NotNil(t, manager.koanfInstance, "Manager's koanfInstance should not be nil")
	assert.Equal(t, k, manager.koanfInstance, "Manager's koanfInstance should use the global Koanf instance")
}

func TestNewManager_MultipleManagersShareGlobalKoanf(t *testing.T) {
	resetGlobalConfig()
	manager1 := NewManager()
	manager2 := NewManager()
	assert.Equal(t, manager1.koanfInstance, manager2.koanfInstance, "All managers should share the same global Koanf instance")
}

func TestDefaultConfig_ReturnsExpectedDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Log.Level, "Default log level should be 'info'")
	assert.Equal(t, "text", cfg.Log.Format, "Default log format should be 'text'")
	assert.Equal(t, "", cfg.Log.File, "Default log file should be empty")
	assert.Equal(t, 20, cfg.Scan.Batch, "Default batch size should be 20")
	assert.Equal(t, 4*time.Minute, cfg.Scan.Budget, "Default time budget should be 4 minutes")
	assert.False(t, cfg.Scan.Subfolders, "Subfolder recursion should default to off")
	assert.False(t, cfg.Scan.Update, "Update mode should default to off")
	assert.Equal(t, "03:00", cfg.Watch.At, "Default watch time should be 03:00")
	assert.Equal(t, "", cfg.Drive.Root, "Drive root should default to empty")
	assert.Equal(t, "", cfg.Sheet.Path, "Sheet path should default to empty")
}

func TestDefaultConfigAsMap_ContainsAllKeys(t *testing.T) {
	m := DefaultConfigAsMap()
	keys := []string{
		"log.level", "log.format", "log.file",
		"workspace",
		"drive.root",
		"sheet.path",
		"scan.batch", "scan.budget", "scan.subfolders", "scan.update",
		"watch.at",
	}
	for _, key := range keys {
		assert.Contains(t, m, key, "Default map should contain key %q", key)
	}
	assert.Equal(t, 20, m["scan.batch"], "Default map should carry the default batch size")
}

func TestManager_Load_LoadsDefaultsWhenNoFlags(t *testing.T) {
	resetGlobalConfig()
	manager := NewManager()
	err := manager.Load(nil, "")
	assert.NoError(t, err, "Load should not return error when loading defaults")
	cfg := manager.Get()
	assert.Equal(t, "info", cfg.Log.Level, "Default log level should be 'info'")
	assert.Equal(t, 20, cfg.Scan.Batch, "Default batch size should be 20")
	assert.Equal(t, 4*time.Minute, cfg.Scan.Budget, "Default time budget should be 4 minutes")
}

func TestManager_Load_OverridesWithFlags(t *testing.T) {
	resetGlobalConfig()
	manager := NewManager()
	flags := newTestFlagSet()
	_ = flags.Set("log.level", "error")
	_ = flags.Set("scan.batch", "50")
	_ = flags.Set("scan.budget", "90s")
	_ = flags.Set("drive.root", "/srv/team-drive")
	err := manager.Load(flags, "")
	assert.NoError(t, err, "Load should not return error when loading with flags")
	cfg := manager.Get()
	assert.Equal(t, "error", cfg.Log.Level, "Flag should override log level")
	assert.Equal(t, 50, cfg.Scan.Batch, "Flag should override batch size")
	assert.Equal(t, 90*time.Second, cfg.Scan.Budget, "Flag should override time budget")
	assert.Equal(t, "/srv/team-drive", cfg.Drive.Root, "Flag should override drive root")
	assert.Equal(t, "text", cfg.Log.Format, "Unset flags should leave defaults untouched")
}

func TestManager_Load_DebugFlagSetsLogLevelToDebug(t *testing.T) {
	resetGlobalConfig()
	manager := NewManager()
	flags := newTestFlagSet()
	_ = flags.Set("debug", "true")
	err := manager.Load(flags, "")
	assert.NoError(t, err, "Load should not return error when loading with debug flag")
	cfg := manager.Get()
	assert.Equal(t, "debug", cfg.Log.Level, "Debug flag should set log level to debug")
}

func TestManager_Load_ConfigFileOverridesDefaults(t *testing.T) {
	resetGlobalConfig()

	path := filepath.Join(t.TempDir(), "folio.yaml")
	content := "scan:\n  batch: 50\n  subfolders: true\nwatch:\n  at: \"06:30\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	manager := NewManager()
	err := manager.Load(nil, path)
	assert.NoError(t, err, "Load should not return error with a valid config file")

	cfg := manager.Get()
	assert.Equal(t, 50, cfg.Scan.Batch, "Config file should override batch size")
	assert.True(t, cfg.Scan.Subfolders, "Config file should override subfolder recursion")
	assert.Equal(t, "06:30", cfg.Watch.At, "Config file should override watch time")
	assert.Equal(t, "info", cfg.Log.Level, "Keys absent from file should keep defaults")
}

func TestManager_Load_MissingExplicitConfigFileErrors(t *testing.T) {
	resetGlobalConfig()
	manager := NewManager()
	err := manager.Load(nil, filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err, "An explicitly requested config file must exist")
	assert.Contains(t, err.Error(), "config file", "Error should name the missing config file")
}

func TestBindFlags_AddsDebugFlag(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags)
	debugFlag := flags.Lookup("debug")
	assert.NotNil(t, debugFlag, "BindFlags should add a 'debug' flag")
	assert.Equal(t, "Enable debug logging", debugFlag.Usage, "Debug flag should have correct usage")
	assert.Equal(t, "false", debugFlag.DefValue, "Debug flag should default to false")
}

func TestBindFlags_DebugFlagCanBeSet(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags)
	err := flags.Set("debug", "true")
	assert.NoError(t, err, "Should be able to set 'debug' flag")
	val, err := flags.GetBool("debug")
	assert.NoError(t, err, "Should be able to get 'debug' flag value after setting")
	assert.True(t, val, "Value of 'debug' flag should be true after setting")
}

func TestManager_GetValue_ReturnsLoadedValue(t *testing.T) {
	resetGlobalConfig()
	manager := NewManager()
	_ = manager.Load(nil, "")
	assert.Equal(t, "info", manager.GetValue("log.level"), "GetValue should return the loaded value")
	assert.Nil(t, manager.GetValue("no.such.key"), "GetValue should return nil for unknown keys")
}

func TestManager_UpdateRuntimeValue_NoOpReturnsNil(t *testing.T) {
	resetGlobalConfig()
	manager := NewManager()
	err := manager.UpdateRuntimeValue("log.level", "warn")
	assert.NoError(t, err, "UpdateRuntimeValue should return nil (no error) for any input")
}

func TestManager_UpdateRuntimeValue_DoesNotChangeConfig(t *testing.T) {
	resetGlobalConfig()
	manager := NewManager()
	_ = manager.Load(nil, "")
	originalCfg := manager.Get()

	_ = manager.UpdateRuntimeValue("log.level", "warn")
	afterCfg := manager.Get()

	assert.Equal(t, originalCfg, afterCfg, "UpdateRuntimeValue should not modify config (no-op)")
}

func TestManager_LoadWithSources_SortsByPriority(t *testing.T) {
	resetGlobalConfig()
	manager := NewManager()

	// Deliberately out of order; LoadWithSources must sort before loading.
	high := &fakeSource{name: "high", priority: 50, values: map[string]any{"log.level": "trace"}}
	low := &fakeSource{name: "low", priority: 1, values: map[string]any{"log.level": "warn", "log.format": "json"}}

	err := manager.LoadWithSources([]ConfigSource{high, low})
	assert.NoError(t, err, "LoadWithSources should not return error")

	cfg := manager.Get()
	assert.Equal(t, "trace", cfg.Log.Level, "Higher-priority source should win")
	assert.Equal(t, "json", cfg.Log.Format, "Lower-priority values should survive where not overridden")
}

func TestManager_Load_EnvVarsOverrideDefaults(t *testing.T) {
	resetGlobalConfig()

	// Set environment variables
	t.Setenv("FOLIO_LOG_LEVEL", "warn")
	t.Setenv("FOLIO_LOG_FORMAT", "json")
	t.Setenv("FOLIO_SCAN_BATCH", "7")

	manager := NewManager()
	err := manager.Load(nil, "")
	assert.NoError(t, err, "Load should not return error when loading with env vars")

	cfg := manager.Get()
	assert.Equal(t, "warn", cfg.Log.Level, "ENV var should override log level")
	assert.Equal(t, "json", cfg.Log.Format, "ENV var should override log format")
	assert.Equal(t, 7, cfg.Scan.Batch, "ENV var should override batch size")
}

func TestManager_Load_EnvVarsOverrideConfigFile(t *testing.T) {
	resetGlobalConfig()

	path := filepath.Join(t.TempDir(), "folio.yaml")
	if err := os.WriteFile(path, []byte("scan:\n  batch: 50\n"), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv("FOLIO_SCAN_BATCH", "3")

	manager := NewManager()
	err := manager.Load(nil, path)
	assert.NoError(t, err, "Load should not return error")

	cfg := manager.Get()
	assert.Equal(t, 3, cfg.Scan.Batch, "ENV var should override config file value")
}

func TestManager_Load_FlagsOverrideEnvVars(t *testing.T) {
	resetGlobalConfig()

	// Set environment variable
	t.Setenv("FOLIO_LOG_LEVEL", "warn")

	manager := NewManager()
	flags := newTestFlagSet()
	_ = flags.Set("log.level", "error") // Flag should win over env var

	err := manager.Load(flags, "")
	assert.NoError(t, err, "Load should not return error")

	cfg := manager.Get()
	assert.Equal(t, "error", cfg.Log.Level, "CLI flag should override ENV var")
}

func TestManager_Load_UnsetFlagsDoNotMaskEnvVars(t *testing.T) {
	resetGlobalConfig()

	t.Setenv("FOLIO_SCAN_BATCH", "7")

	manager := NewManager()
	flags := newTestFlagSet()
	_ = flags.Set("log.level", "error")

	err := manager.Load(flags, "")
	assert.NoError(t, err, "Load should not return error")

	cfg := manager.Get()
	assert.Equal(t, 7, cfg.Scan.Batch, "Flag left at its default should not mask the env var")
}

func TestManager_Load_EnvVarNamingConvention(t *testing.T) {
	resetGlobalConfig()

	// Test nested key mapping: FOLIO_DRIVE_ROOT -> drive.root
	t.Setenv("FOLIO_DRIVE_ROOT", "/data/team-drive")
	t.Setenv("FOLIO_WATCH_AT", "05:15")

	manager := NewManager()
	err := manager.Load(nil, "")
	assert.NoError(t, err, "Load should not return error")

	cfg := manager.Get()
	assert.Equal(t, "/data/team-drive", cfg.Drive.Root, "ENV var should map to nested config key")
	assert.Equal(t, "05:15", cfg.Watch.At, "ENV var should map to nested config key")
}

// fakeSource is a minimal ConfigSource for priority-ordering tests.
type fakeSource struct {
	name     string
	priority int
	values   map[string]any
}

func (s *fakeSource) Name() string  { return s.name }
func (s *fakeSource) Priority() int { return s.priority }
func (s *fakeSource) Load(k *koanf.Koanf) error {
	return k.Load(confmap.Provider(s.values, "."), nil)
}

func newTestFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log.level", "info", "")
	flags.String("log.format", "text", "")
	flags.String("log.file", "", "")
	flags.String("drive.root", "", "")
	flags.String("sheet.path", "", "")
	flags.Int("scan.batch", 20, "")
	flags.String("scan.budget", "4m", "")
	flags.Bool("debug", false, "")
	return flags
}
