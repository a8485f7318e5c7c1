// Package scan implements the checkpointed folder scan: snapshot the
// root's children once, visit them under a per-invocation time budget,
// write rows to the sheet in batches, and persist a cursor so the next
// invocation continues where this one stopped.
package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/folioscan/folio/pkg/drive"
	"github.com/folioscan/folio/pkg/output"
	"github.com/folioscan/folio/pkg/sheet"
	"github.com/folioscan/folio/pkg/state"
)

// ProgressSink receives progress notifications during a scan.
type ProgressSink interface {
	OnEvent(ProgressEvent)
}

// ProgressEvent describes one step of a running scan.
type ProgressEvent struct {
	Phase     string // snapshot, folder, checkpoint, finish
	Folder    string
	Status    string // started, listed, error, paused, completed
	Current   int
	Total     int
	Message   string
	Timestamp time.Time
}

// Service runs scans against a folder provider, writing rows to a sheet
// and checkpoints to a state store. Collaborators are attached with the
// WithX builders; Run fails fast when one is missing.
type Service struct {
	provider     drive.Provider
	sink         sheet.Sink
	store        state.Store
	out          output.Output
	progressSink ProgressSink
	now          func() time.Time
}

// NewService builds a Service with the real clock.
func NewService() *Service {
	return &Service{now: time.Now}
}

// WithProvider attaches the folder provider.
func (s *Service) WithProvider(p drive.Provider) *Service {
	s.provider = p
	return s
}

// WithSheet attaches the output sheet.
func (s *Service) WithSheet(sink sheet.Sink) *Service {
	s.sink = sink
	return s
}

// WithStore attaches the checkpoint store.
func (s *Service) WithStore(st state.Store) *Service {
	s.store = st
	return s
}

// WithOutput attaches the user-facing output bus.
func (s *Service) WithOutput(out output.Output) *Service {
	s.out = out
	return s
}

// WithProgressSink attaches a sink for progress notifications.
func (s *Service) WithProgressSink(sink ProgressSink) *Service {
	s.progressSink = sink
	return s
}

// WithNow overrides the clock. Tests use this to drive the time budget.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) requireDeps() error {
	switch {
	case s.provider == nil:
		return NewValidationError("provider", "not configured")
	case s.sink == nil:
		return NewValidationError("sheet", "not configured")
	case s.store == nil:
		return NewValidationError("store", "not configured")
	}
	return nil
}

// Run starts a new scan or resumes a checkpointed one.
//
// With a checkpoint present, params.RootID and the mode flags are
// ignored; root and mode come from the checkpoint. Without one, an empty
// RootID falls back to the params saved by the previous scan, and
// ErrNoRoot is returned when there are none.
//
// An exhausted time budget or a cancelled context ends the invocation
// with StatusPaused after flushing buffered rows and persisting the
// cursor. Pause is a normal result, not an error.
func (s *Service) Run(ctx context.Context, params Params) (*Result, error) {
	if err := s.requireDeps(); err != nil {
		return nil, err
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	logger := log.With().Str("component", "scan").Logger()
	start := s.now()

	st, resumed, err := s.openState(ctx, params, logger)
	if err != nil {
		return nil, err
	}

	// Update mode reads the link column fresh on every invocation.
	existing := make(map[string]struct{})
	if st.Update {
		links, err := s.sink.ReadColumn(ColLink)
		if err != nil {
			return nil, fmt.Errorf("read existing links: %w", err)
		}
		for _, l := range links {
			existing[l] = struct{}{}
		}
	}

	res := &Result{
		ScanID:    st.ScanID,
		RootName:  st.RootName,
		Resumed:   resumed,
		StartTime: start.Format(time.RFC3339),
	}

	var buffered [][]string
	visitedThisSlice := 0
	paused := false
	pauseReason := ""

	for !st.Done() {
		if ctx.Err() != nil {
			paused, pauseReason = true, "cancelled"
			break
		}
		if s.now().Sub(start) >= params.TimeBudget {
			paused, pauseReason = true, "time budget exhausted"
			break
		}

		id := st.FolderIDs[st.CurrentIndex]
		rows, errRow := s.visit(ctx, st, id, logger)
		if errRow {
			res.ErrorRows++
		}
		for _, row := range rows {
			if st.Update && row[ColLink] != "" {
				if _, dup := existing[row[ColLink]]; dup {
					res.SkippedRows++
					continue
				}
				existing[row[ColLink]] = struct{}{}
			}
			buffered = append(buffered, row)
			res.RowsWritten++
		}

		st.CurrentIndex++
		st.ProcessedCount++
		visitedThisSlice++
		s.emit(ProgressEvent{
			Phase:   "folder",
			Folder:  id,
			Status:  visitStatus(errRow),
			Current: st.ProcessedCount,
			Total:   st.TotalFolders,
		})

		if visitedThisSlice%params.BatchSize == 0 {
			if err := s.checkpoint(ctx, st, &buffered); err != nil {
				return nil, err
			}
		}
	}

	res.Processed = st.ProcessedCount
	res.Total = st.TotalFolders

	if paused {
		if err := s.checkpoint(ctx, st, &buffered); err != nil {
			return nil, err
		}
		logger.Info().
			Str("scan_id", st.ScanID).
			Str("reason", pauseReason).
			Int("processed", st.ProcessedCount).
			Int("total", st.TotalFolders).
			Msg("Scan paused")
		s.emit(ProgressEvent{
			Phase:   "finish",
			Status:  StatusPaused,
			Current: st.ProcessedCount,
			Total:   st.TotalFolders,
			Message: pauseReason,
		})
		res.Status = StatusPaused
		res.EndTime = s.now().Format(time.RFC3339)
		return res, nil
	}

	if err := s.flushRows(&buffered); err != nil {
		return nil, err
	}
	if err := deleteState(ctx, s.store); err != nil {
		return nil, err
	}
	s.progress(st.ProcessedCount, st.TotalFolders, "Scan complete")
	s.emit(ProgressEvent{
		Phase:   "finish",
		Status:  StatusCompleted,
		Current: st.ProcessedCount,
		Total:   st.TotalFolders,
	})
	logger.Info().
		Str("scan_id", st.ScanID).
		Int("folders", st.TotalFolders).
		Int("rows", res.RowsWritten).
		Int("errors", res.ErrorRows).
		Msg("Scan completed")

	res.Status = StatusCompleted
	res.EndTime = s.now().Format(time.RFC3339)
	return res, nil
}

// openState loads the checkpoint or builds a fresh one by snapshotting
// the root's children. A root that fails to resolve aborts with nothing
// persisted.
func (s *Service) openState(ctx context.Context, params Params, logger zerolog.Logger) (*ScanState, bool, error) {
	st, found, err := loadState(ctx, s.store)
	if err != nil {
		return nil, false, err
	}
	if found {
		if params.RootID != "" {
			msg := fmt.Sprintf("Scan in progress (%d/%d folders); ignoring new arguments and resuming", st.ProcessedCount, st.TotalFolders)
			logger.Warn().Str("scan_id", st.ScanID).Str("ignored_root", params.RootID).Msg("Resuming; new arguments ignored")
			s.warning(msg)
		}
		s.diag(output.LevelVerbose, "Resuming from checkpoint", map[string]any{
			"scan_id": st.ScanID,
			"index":   st.CurrentIndex,
			"total":   st.TotalFolders,
		})
		return st, true, nil
	}

	rootID := params.RootID
	includeSubfolders := params.IncludeSubfolders
	update := params.Update
	if rootID == "" {
		saved, ok, err := loadSavedParams(ctx, s.store)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, ErrNoRoot
		}
		rootID = saved.RootID
		includeSubfolders = saved.IncludeSubfolders
		update = saved.Update
		logger.Info().Str("root", rootID).Msg("Using saved scan settings")
	}

	root, err := s.provider.Resolve(ctx, rootID)
	if err != nil {
		return nil, false, fmt.Errorf("resolve root %s: %w", rootID, err)
	}
	children, err := s.provider.ListChildren(ctx, root)
	if err != nil {
		return nil, false, fmt.Errorf("list children of root %s: %w", rootID, err)
	}

	ids := make([]string, len(children))
	for i, c := range children {
		ids[i] = c.ID
	}

	st = &ScanState{
		ScanID:            uuid.New().String(),
		RootID:            root.ID,
		RootName:          root.Name,
		FolderIDs:         ids,
		TotalFolders:      len(ids),
		IncludeSubfolders: includeSubfolders,
		Update:            update,
		StartedAt:         s.now(),
	}

	if err := s.prepareSheet(update); err != nil {
		return nil, false, err
	}

	sp := &SavedParams{RootID: root.ID, IncludeSubfolders: includeSubfolders, Update: update}
	if err := sp.save(ctx, s.store); err != nil {
		return nil, false, err
	}
	if err := st.save(ctx, s.store, s.now()); err != nil {
		return nil, false, err
	}

	logger.Info().
		Str("scan_id", st.ScanID).
		Str("root", root.Name).
		Int("folders", st.TotalFolders).
		Bool("subfolders", includeSubfolders).
		Bool("update", update).
		Msg("Snapshot taken")
	s.emit(ProgressEvent{Phase: "snapshot", Folder: root.Name, Status: "started", Total: st.TotalFolders})
	s.diag(output.LevelVerbose, "Snapshot taken", map[string]any{
		"scan_id": st.ScanID,
		"folders": st.TotalFolders,
	})

	return st, false, nil
}

// prepareSheet sets up the sheet for a fresh scan. A normal scan starts
// from a clean sheet; update mode keeps existing rows and only ensures
// the header exists.
func (s *Service) prepareSheet(update bool) error {
	if !update {
		if err := s.sink.Clear(); err != nil {
			return fmt.Errorf("clear sheet: %w", err)
		}
		if err := s.sink.WriteHeader(Columns); err != nil {
			return fmt.Errorf("write sheet header: %w", err)
		}
		return nil
	}

	col, err := s.sink.ReadColumn(0)
	if err != nil {
		return fmt.Errorf("inspect sheet: %w", err)
	}
	if len(col) == 0 {
		if err := s.sink.WriteHeader(Columns); err != nil {
			return fmt.Errorf("write sheet header: %w", err)
		}
	}
	return nil
}

// visit resolves one snapshotted entry and builds its rows. Failures
// degrade to a single error row; they never stop the scan.
func (s *Service) visit(ctx context.Context, st *ScanState, id string, logger zerolog.Logger) ([][]string, bool) {
	at := s.now()

	folder, err := s.provider.Resolve(ctx, id)
	if err != nil {
		logger.Warn().Str("folder", id).Err(err).Msg("Folder failed to resolve; recording error row")
		s.diag(output.LevelVerbose, "Folder failed to resolve", map[string]any{"folder": id, "error": err.Error()})
		return [][]string{errorRow(st.RootName, id, err, at)}, true
	}

	if !st.IncludeSubfolders {
		return [][]string{folderRow(st.RootName, folder, at)}, false
	}

	children, err := s.provider.ListChildren(ctx, folder)
	if err != nil {
		logger.Warn().Str("folder", id).Err(err).Msg("Folder listing failed; recording error row")
		s.diag(output.LevelVerbose, "Folder listing failed", map[string]any{"folder": id, "error": err.Error()})
		return [][]string{errorRow(st.RootName, id, err, at)}, true
	}
	if len(children) == 0 {
		return [][]string{sentinelRow(folder.Name, at)}, false
	}

	rows := make([][]string, 0, len(children))
	for _, child := range children {
		rows = append(rows, folderRow(folder.Name, child, at))
	}
	return rows, false
}

// checkpoint flushes buffered rows and persists the cursor. Rows land
// before the cursor moves, so a failure between the two re-visits
// entries rather than losing them.
func (s *Service) checkpoint(ctx context.Context, st *ScanState, buffered *[][]string) error {
	if err := s.flushRows(buffered); err != nil {
		return err
	}
	if err := st.save(ctx, s.store, s.now()); err != nil {
		return err
	}
	s.progress(st.ProcessedCount, st.TotalFolders, "")
	s.emit(ProgressEvent{
		Phase:   "checkpoint",
		Status:  "listed",
		Current: st.ProcessedCount,
		Total:   st.TotalFolders,
	})
	s.diag(output.LevelDebug, "Checkpoint written", map[string]any{
		"index": st.CurrentIndex,
		"total": st.TotalFolders,
	})
	return nil
}

func (s *Service) flushRows(buffered *[][]string) error {
	if len(*buffered) == 0 {
		return nil
	}
	if err := s.sink.AppendRows(*buffered); err != nil {
		return fmt.Errorf("flush rows: %w", err)
	}
	*buffered = (*buffered)[:0]
	return nil
}

// Reset discards the checkpoint. Sheet rows are left untouched, and the
// saved root/mode survive so an argument-less scan still works.
func (s *Service) Reset(ctx context.Context) error {
	if s.store == nil {
		return NewValidationError("store", "not configured")
	}
	if err := deleteState(ctx, s.store); err != nil {
		return err
	}
	log.Info().Str("component", "scan").Msg("Checkpoint discarded")
	return nil
}

// Status returns the checkpoint record, if a scan is in flight.
func (s *Service) Status(ctx context.Context) (*ScanState, bool, error) {
	if s.store == nil {
		return nil, false, NewValidationError("store", "not configured")
	}
	return loadState(ctx, s.store)
}

// SavedSettings returns the persisted root/mode from the last scan.
func (s *Service) SavedSettings(ctx context.Context) (*SavedParams, bool, error) {
	if s.store == nil {
		return nil, false, NewValidationError("store", "not configured")
	}
	return loadSavedParams(ctx, s.store)
}

func visitStatus(errRow bool) string {
	if errRow {
		return "error"
	}
	return "listed"
}

func (s *Service) emit(ev ProgressEvent) {
	if s.progressSink == nil {
		return
	}
	ev.Timestamp = s.now()
	s.progressSink.OnEvent(ev)
}

func (s *Service) warning(msg string) {
	if s.out != nil {
		s.out.Warning(msg)
	}
}

func (s *Service) progress(current, total int, msg string) {
	if s.out != nil {
		s.out.Progress(current, total, msg)
	}
}

func (s *Service) diag(level output.OutputLevel, msg string, meta map[string]any) {
	if s.out != nil {
		s.out.Diag(level, msg, meta)
	}
}
