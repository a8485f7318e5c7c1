package drive

import "errors"

// Config holds backend configuration for NewProvider.
type Config struct {
	// Root is the directory the provider serves. Folder IDs are resolved
	// relative to it.
	Root string `koanf:"root" json:"root"`
}

// Validate checks the configuration for required fields.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Root == "" {
		return errors.New("drive root is required")
	}
	return nil
}
