package config

import "time"

// Config is the root configuration for folio.
type Config struct {
	Log       LogConfig   `koanf:"log"`
	Workspace string      `koanf:"workspace"`
	Drive     DriveConfig `koanf:"drive"`
	Sheet     SheetConfig `koanf:"sheet"`
	Scan      ScanConfig  `koanf:"scan"`
	Watch     WatchConfig `koanf:"watch"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text, json
	File   string `koanf:"file"`   // empty for stderr
}

// DriveConfig selects the folder tree the provider serves.
type DriveConfig struct {
	Root string `koanf:"root"`
}

// SheetConfig selects the output sheet. An empty path resolves to
// folders.csv under the workspace directory.
type SheetConfig struct {
	Path string `koanf:"path"`
}

// ScanConfig holds the scan loop knobs.
type ScanConfig struct {
	// Batch is the number of processed entries between sink flushes.
	Batch int `koanf:"batch"`

	// Budget is the wall-clock time one invocation may spend in the
	// scan loop before pausing.
	Budget time.Duration `koanf:"budget"`

	// Subfolders lists one row per immediate subfolder instead of one
	// row per folder.
	Subfolders bool `koanf:"subfolders"`

	// Update appends only folders whose URL is not already in the sheet.
	Update bool `koanf:"update"`
}

// WatchConfig configures the daily trigger daemon.
type WatchConfig struct {
	At string `koanf:"at"` // HH:MM, local time
}
