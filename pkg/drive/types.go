package drive

import "time"

// Folder is a handle to one folder in the provider's tree.
//
// ID is the provider-scoped identifier used for Resolve; for the local
// backend it is the slash-separated path relative to the provider root.
type Folder struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// File is a handle to one file directly contained in a folder.
type File struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}
