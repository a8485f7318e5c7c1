package scan

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/folioscan/folio/pkg/output"
)

// EmptyResult summarizes a markEmpty pass.
type EmptyResult struct {
	RowsChecked int `json:"rowsChecked"`
	Marked      int `json:"marked"`
	Errors      int `json:"errors"`
}

// MarkEmpty classifies every linked row in the sheet and writes the
// verdict into the Status column. Rows whose folder resolves to an empty
// leaf or empty subtree get ActionRemove in the Action column; a verdict
// that changed back clears a stale mark.
//
// This is a pure annotation pass over rows the scan already wrote. It
// runs outside the scan's time budget and keeps no checkpoint; cancel
// and re-run to start over.
func (s *Service) MarkEmpty(ctx context.Context) (*EmptyResult, error) {
	if s.provider == nil {
		return nil, NewValidationError("provider", "not configured")
	}
	if s.sink == nil {
		return nil, NewValidationError("sheet", "not configured")
	}

	links, err := s.sink.ReadColumn(ColLink)
	if err != nil {
		return nil, fmt.Errorf("read link column: %w", err)
	}
	actions, err := s.sink.ReadColumn(ColAction)
	if err != nil {
		return nil, fmt.Errorf("read action column: %w", err)
	}

	logger := log.With().Str("component", "scan").Logger()
	res := &EmptyResult{}
	totalRows := len(links) - 1

	// Row 0 is the header.
	for i := 1; i < len(links); i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		url := links[i]
		if url == "" {
			// Sentinel and error rows carry no link.
			continue
		}
		res.RowsChecked++

		verdict, err := s.Classify(ctx, url)
		if err != nil {
			res.Errors++
			logger.Warn().Int("row", i).Str("link", url).Err(err).Msg("Classification failed")
			if cellErr := s.sink.SetCell(i, ColStatus, "error: "+err.Error()); cellErr != nil {
				return res, fmt.Errorf("write status cell: %w", cellErr)
			}
			continue
		}

		if err := s.sink.SetCell(i, ColStatus, string(verdict)); err != nil {
			return res, fmt.Errorf("write status cell: %w", err)
		}

		switch verdict {
		case ClassEmptyLeaf, ClassEmptySubtree:
			if err := s.sink.SetCell(i, ColAction, ActionRemove); err != nil {
				return res, fmt.Errorf("write action cell: %w", err)
			}
			res.Marked++
		default:
			if i < len(actions) && actions[i] == ActionRemove {
				if err := s.sink.SetCell(i, ColAction, ""); err != nil {
					return res, fmt.Errorf("clear action cell: %w", err)
				}
			}
		}

		s.progress(i, totalRows, "Classifying folders")
		s.emit(ProgressEvent{Phase: "classify", Folder: url, Status: string(verdict), Current: i, Total: totalRows})
	}

	logger.Info().
		Int("checked", res.RowsChecked).
		Int("marked", res.Marked).
		Int("errors", res.Errors).
		Msg("Empty-folder pass finished")
	s.diag(output.LevelVerbose, "Empty-folder pass finished", map[string]any{
		"checked": res.RowsChecked,
		"marked":  res.Marked,
		"errors":  res.Errors,
	})

	return res, nil
}
