// Package appctx carries application-scoped values through context
// without creating import cycles between the CLI layer and services.
package appctx

import "context"

type contextKey string

const configKey contextKey = "folio.config"

// ConfigReader is the narrow view of configuration that services need.
// *config.Manager satisfies it.
type ConfigReader interface {
	GetValue(key string) any
}

// WithConfig returns a context carrying the configuration reader.
func WithConfig(ctx context.Context, cfg ConfigReader) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// ConfigFrom extracts the configuration reader from the context, if present.
func ConfigFrom(ctx context.Context) (ConfigReader, bool) {
	cfg, ok := ctx.Value(configKey).(ConfigReader)
	return cfg, ok
}
