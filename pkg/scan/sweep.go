package scan

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"

	"github.com/folioscan/folio/pkg/output"
)

// SweepOptions controls the sweep pass.
type SweepOptions struct {
	// DryRun reports what would be trashed without touching anything.
	DryRun bool
}

// SweepResult summarizes a sweep pass.
type SweepResult struct {
	RowsMarked     int  `json:"rowsMarked"`
	FoldersTrashed int  `json:"foldersTrashed"`
	Errors         int  `json:"errors"`
	DryRun         bool `json:"dryRun,omitempty"`
}

// Sweep trashes every folder whose row carries ActionRemove, rewriting
// the marker to ActionRemoved on success so a re-run skips it. One
// folder failing to trash never stops the pass; failures are collected
// and returned alongside the counts.
func (s *Service) Sweep(ctx context.Context, opts SweepOptions) (*SweepResult, error) {
	if s.provider == nil {
		return nil, NewValidationError("provider", "not configured")
	}
	if s.sink == nil {
		return nil, NewValidationError("sheet", "not configured")
	}

	actions, err := s.sink.ReadColumn(ColAction)
	if err != nil {
		return nil, fmt.Errorf("read action column: %w", err)
	}
	links, err := s.sink.ReadColumn(ColLink)
	if err != nil {
		return nil, fmt.Errorf("read link column: %w", err)
	}

	logger := log.With().Str("component", "scan").Logger()
	res := &SweepResult{DryRun: opts.DryRun}
	var merr *multierror.Error

	// Row 0 is the header.
	for i := 1; i < len(actions); i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if actions[i] != ActionRemove {
			continue
		}
		res.RowsMarked++

		if opts.DryRun {
			continue
		}

		if i >= len(links) || links[i] == "" {
			res.Errors++
			merr = multierror.Append(merr, fmt.Errorf("row %d: marked for removal but has no link", i))
			continue
		}

		folder, err := s.provider.Resolve(ctx, links[i])
		if err != nil {
			res.Errors++
			merr = multierror.Append(merr, fmt.Errorf("row %d: %w", i, err))
			logger.Warn().Int("row", i).Str("link", links[i]).Err(err).Msg("Marked folder failed to resolve")
			continue
		}
		if err := s.provider.Trash(ctx, folder); err != nil {
			res.Errors++
			merr = multierror.Append(merr, fmt.Errorf("row %d: trash %s: %w", i, folder.Name, err))
			logger.Warn().Int("row", i).Str("folder", folder.Name).Err(err).Msg("Trash failed")
			continue
		}

		res.FoldersTrashed++
		logger.Info().Int("row", i).Str("folder", folder.Name).Msg("Folder trashed")
		if err := s.sink.SetCell(i, ColAction, ActionRemoved); err != nil {
			res.Errors++
			merr = multierror.Append(merr, fmt.Errorf("row %d: rewrite marker: %w", i, err))
		}
	}

	s.diag(output.LevelVerbose, "Sweep finished", map[string]any{
		"marked":  res.RowsMarked,
		"trashed": res.FoldersTrashed,
		"errors":  res.Errors,
		"dry_run": opts.DryRun,
	})

	return res, merr.ErrorOrNil()
}
