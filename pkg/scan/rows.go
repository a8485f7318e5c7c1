package scan

import (
	"time"

	"github.com/folioscan/folio/pkg/drive"
)

// Columns is the sheet header. The column order is part of the on-disk
// contract: the annotate and sweep passes address cells by these indexes
// across process restarts.
var Columns = []string{"Parent", "Name", "Link", "Listed At", "Status", "Action"}

// Column indexes into Columns.
const (
	ColParent = iota
	ColName
	ColLink
	ColListedAt
	ColStatus
	ColAction
)

const (
	// NoSubfolders is the sentinel Name for a parent listed in subfolder
	// mode that turned out to have none. Keeps one row per visited parent.
	NoSubfolders = "(no subfolders)"

	// ActionRemove marks a row whose folder the sweep should trash.
	ActionRemove = "remove"

	// ActionRemoved replaces ActionRemove once the sweep has trashed the
	// folder, so re-running the sweep skips it.
	ActionRemoved = "removed"
)

func folderRow(parent string, f *drive.Folder, at time.Time) []string {
	return []string{parent, f.Name, f.URL, at.Format(time.RFC3339), "", ""}
}

func sentinelRow(parent string, at time.Time) []string {
	return []string{parent, NoSubfolders, "", at.Format(time.RFC3339), "", ""}
}

// errorRow records an entry that failed to resolve. The id lands in the
// Name column so the row stays identifiable without a link.
func errorRow(parent, id string, err error, at time.Time) []string {
	return []string{parent, id, "", at.Format(time.RFC3339), "error: " + err.Error(), ""}
}
