package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/folioscan/folio/pkg/state"
)

// Keys in the key-value store.
const (
	// stateKey holds the ScanState checkpoint while a scan is in flight.
	stateKey = "scan_state"

	// paramsKey remembers root and mode across scans so an argument-less
	// invocation (the daily trigger) can repeat the last scan.
	paramsKey = "scan_params"
)

// ScanState is the checkpoint record for one scan. It is created when
// the folder snapshot is taken, rewritten at every batch boundary, and
// deleted on completion or reset.
//
// FolderIDs is fixed at snapshot time and never re-derived mid-scan;
// folders created after the snapshot are invisible to the running scan.
type ScanState struct {
	ScanID            string    `json:"scanId"`
	RootID            string    `json:"rootId"`
	RootName          string    `json:"rootName"`
	FolderIDs         []string  `json:"folderIds"`
	CurrentIndex      int       `json:"currentIndex"`
	TotalFolders      int       `json:"totalFolders"`
	ProcessedCount    int       `json:"processedCount"`
	IncludeSubfolders bool      `json:"includeSubfolders"`
	Update            bool      `json:"update"`
	StartedAt         time.Time `json:"startedAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Done reports whether every snapshotted folder has been visited.
func (s *ScanState) Done() bool {
	return s.CurrentIndex >= len(s.FolderIDs)
}

// validate rejects records that violate the cursor invariants, which
// would indicate a corrupted or hand-edited state file.
func (s *ScanState) validate() error {
	if s.CurrentIndex < 0 || s.CurrentIndex > len(s.FolderIDs) {
		return fmt.Errorf("state cursor %d out of range for %d folders", s.CurrentIndex, len(s.FolderIDs))
	}
	if s.TotalFolders != len(s.FolderIDs) {
		return fmt.Errorf("state total %d does not match %d snapshotted folders", s.TotalFolders, len(s.FolderIDs))
	}
	if s.ProcessedCount > s.TotalFolders {
		return fmt.Errorf("state processed %d exceeds total %d", s.ProcessedCount, s.TotalFolders)
	}
	return nil
}

// save writes the record, stamping UpdatedAt.
func (s *ScanState) save(ctx context.Context, store state.Store, now time.Time) error {
	s.UpdatedAt = now
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal scan state: %w", err)
	}
	if err := store.Set(ctx, stateKey, string(data)); err != nil {
		return fmt.Errorf("persist scan state: %w", err)
	}
	return nil
}

// loadState reads the checkpoint record. The second return is false when
// no scan is in flight.
func loadState(ctx context.Context, store state.Store) (*ScanState, bool, error) {
	raw, found, err := store.Get(ctx, stateKey)
	if err != nil {
		return nil, false, fmt.Errorf("read scan state: %w", err)
	}
	if !found {
		return nil, false, nil
	}

	var st ScanState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, false, fmt.Errorf("decode scan state (reset to discard): %w", err)
	}
	if err := st.validate(); err != nil {
		return nil, false, fmt.Errorf("corrupt scan state (reset to discard): %w", err)
	}
	return &st, true, nil
}

// deleteState removes the checkpoint record.
func deleteState(ctx context.Context, store state.Store) error {
	if err := store.Delete(ctx, stateKey); err != nil {
		return fmt.Errorf("delete scan state: %w", err)
	}
	return nil
}

// SavedParams is the root/mode record persisted independently of the
// checkpoint, so the next argument-less invocation repeats the last scan.
type SavedParams struct {
	RootID            string `json:"rootId"`
	IncludeSubfolders bool   `json:"includeSubfolders"`
	Update            bool   `json:"update"`
}

func (p *SavedParams) save(ctx context.Context, store state.Store) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal saved params: %w", err)
	}
	if err := store.Set(ctx, paramsKey, string(data)); err != nil {
		return fmt.Errorf("persist saved params: %w", err)
	}
	return nil
}

func loadSavedParams(ctx context.Context, store state.Store) (*SavedParams, bool, error) {
	raw, found, err := store.Get(ctx, paramsKey)
	if err != nil {
		return nil, false, fmt.Errorf("read saved params: %w", err)
	}
	if !found {
		return nil, false, nil
	}

	var p SavedParams
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, false, fmt.Errorf("decode saved params: %w", err)
	}
	return &p, true, nil
}
