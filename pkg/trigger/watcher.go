// Package trigger schedules the daily scan. A Watcher fires one scan
// invocation per day at a fixed wall-clock time; each firing runs with
// an empty root, so the scan resumes its checkpoint or repeats the
// saved settings.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/folioscan/folio/pkg/output"
	"github.com/folioscan/folio/pkg/scan"
)

// ScanRunner is the slice of the scan service the watcher invokes.
type ScanRunner interface {
	Run(ctx context.Context, params scan.Params) (*scan.Result, error)
}

// Watcher owns the cron schedule for unattended scans.
type Watcher struct {
	runner ScanRunner
	params scan.Params
	at     string
	out    output.Output

	cron  *cron.Cron
	entry cron.EntryID
}

// NewWatcher builds a watcher with the default 03:00 schedule.
func NewWatcher(runner ScanRunner) *Watcher {
	return &Watcher{runner: runner, at: "03:00"}
}

// WithSchedule sets the daily firing time, as HH:MM on the local clock.
func (w *Watcher) WithSchedule(at string) *Watcher {
	w.at = at
	return w
}

// WithParams sets the batch size and time budget each firing runs with.
// The root is always left empty; scheduled runs follow the saved scan.
func (w *Watcher) WithParams(p scan.Params) *Watcher {
	w.params = p
	return w
}

// WithOutput attaches the user-facing output bus.
func (w *Watcher) WithOutput(out output.Output) *Watcher {
	w.out = out
	return w
}

// Start registers the schedule and returns immediately; firings run on
// the cron goroutine with ctx until Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if w.runner == nil {
		return errors.New("trigger: no scan runner configured")
	}
	spec, err := cronSpec(w.at)
	if err != nil {
		return err
	}

	w.cron = cron.New()
	entry, err := w.cron.AddFunc(spec, func() { w.fire(ctx) })
	if err != nil {
		return fmt.Errorf("register schedule %q: %w", spec, err)
	}
	w.entry = entry
	w.cron.Start()

	log.Info().
		Str("component", "trigger").
		Str("at", w.at).
		Time("next", w.NextRun()).
		Msg("Daily scan scheduled")
	return nil
}

// Stop halts the schedule and waits for an in-flight firing to finish,
// honoring the context deadline.
func (w *Watcher) Stop(ctx context.Context) error {
	if w.cron == nil {
		return nil
	}
	done := w.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextRun returns the next scheduled firing time, zero before Start.
func (w *Watcher) NextRun() time.Time {
	if w.cron == nil {
		return time.Time{}
	}
	return w.cron.Entry(w.entry).Next
}

// fire runs one scheduled scan invocation. Failures are reported and
// swallowed; the schedule keeps running either way.
func (w *Watcher) fire(ctx context.Context) {
	logger := log.With().Str("component", "trigger").Logger()

	params := w.params
	params.RootID = ""

	res, err := w.runner.Run(ctx, params)
	if err != nil {
		if errors.Is(err, scan.ErrNoRoot) {
			logger.Warn().Msg("No saved scan to repeat; run a scan with a root folder first")
			w.warning("No saved scan to repeat; run a scan with a root folder first")
			return
		}
		logger.Error().Err(err).Msg("Scheduled scan failed")
		if w.out != nil {
			w.out.Error(err)
		}
		return
	}

	if res.Status == scan.StatusPaused {
		logger.Info().
			Int("processed", res.Processed).
			Int("total", res.Total).
			Msg("Scheduled scan paused; continuing at the next firing")
		w.info(fmt.Sprintf("Scan paused at %d/%d folders; continuing at the next firing", res.Processed, res.Total))
		return
	}

	logger.Info().
		Int("processed", res.Processed).
		Int("rows", res.RowsWritten).
		Int("errors", res.ErrorRows).
		Msg("Scheduled scan completed")
	w.info(fmt.Sprintf("Scan completed: %d folders, %d rows", res.Processed, res.RowsWritten))
}

func (w *Watcher) warning(msg string) {
	if w.out != nil {
		w.out.Warning(msg)
	}
}

func (w *Watcher) info(msg string) {
	if w.out != nil {
		w.out.Info(msg)
	}
}

// cronSpec converts a wall-clock HH:MM into a five-field cron spec.
func cronSpec(at string) (string, error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return "", fmt.Errorf("invalid watch time %q: expected HH:MM", at)
	}
	return fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), nil
}
