// Package state provides the key-value persistence folio uses for scan
// checkpoints and saved settings.
//
// Values are opaque strings; callers serialize their own records. The
// shipped backends are FileStore (one file per key under a directory,
// flock-guarded) and MemStore (tests).
package state

import "context"

// Store is the persistence contract for checkpoint records.
//
// Thread-safety: implementations must be safe for concurrent use. The
// scanner itself is host-serialized and never issues overlapping calls.
type Store interface {
	// Get returns the value stored under key. The second return is false
	// when the key has never been set or has been deleted.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
