// Package drive provides a hierarchical folder provider abstraction for folio.
//
// The drive package defines the Provider interface that abstracts access to
// a tree of folders and files. The shipped implementation is LocalProvider
// (billy filesystem over a local directory); remote backends can register
// through the same factory without modifying callers.
//
// All handles returned by a Provider are plain values; holding a *Folder
// does not pin any resource.
package drive

import (
	"context"
	"errors"
)

// Provider is the storage abstraction the scanner enumerates.
//
// Thread-safety: implementations must be safe for concurrent use, although
// the scanner itself never issues overlapping calls.
type Provider interface {
	// Resolve looks up a folder by its identifier.
	//
	// Returns *NotFoundError if no folder exists under the id, and
	// *AccessError if the folder exists but cannot be read.
	Resolve(ctx context.Context, id string) (*Folder, error)

	// ListChildren returns the immediate subfolders of folder, ordered by
	// name. Non-folder entries are excluded.
	//
	// Returns an empty slice when the folder has no subfolders.
	ListChildren(ctx context.Context, folder *Folder) ([]*Folder, error)

	// ListFiles returns the files directly contained in folder, ordered by
	// name. Subfolder contents are not included.
	ListFiles(ctx context.Context, folder *Folder) ([]*File, error)

	// Trash moves a folder out of the visible tree. The folder and its
	// contents stop appearing in Resolve/ListChildren results.
	//
	// Returns *NotFoundError if the folder no longer exists.
	Trash(ctx context.Context, folder *Folder) error
}

// Factory creates a Provider from configuration.
type Factory func(ctx context.Context, cfg *Config) (Provider, error)

// DefaultFactory is the factory used by NewProvider. The local backend
// registers itself here in its init function.
var DefaultFactory Factory

// NewProvider creates a Provider using the registered default factory.
func NewProvider(ctx context.Context, cfg *Config) (Provider, error) {
	if DefaultFactory == nil {
		return nil, errors.New("no drive backend registered")
	}
	return DefaultFactory(ctx, cfg)
}
