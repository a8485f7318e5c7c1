package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/folioscan/folio/cmd/folio/internal/format"
	"github.com/folioscan/folio/pkg/scan"
	"github.com/folioscan/folio/pkg/trigger"
)

// NewWatchCommand runs the daily scheduler in the foreground. Each firing
// invokes the scan with an empty root, so it either continues a paused
// scan or repeats the saved one.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Re-run the saved scan on a daily schedule",
		GroupID: "scan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter := format.FromCommand(cmd)
			out := setupOutputPipeline(cmd)

			logger := log.With().Str("command", "watch").Logger()

			deps, err := resolveDeps(cmd)
			if err != nil {
				return formatter.PrintTotalFailureSummary("watch", err, scan.ErrorCode(err))
			}
			svc, err := deps.scanService(cmd, out)
			if err != nil {
				return formatter.PrintTotalFailureSummary("watch", err, scan.ErrorCode(err))
			}

			at, _ := cmd.Flags().GetString("at")
			if at == "" {
				at = deps.cfg.Watch.At
			}

			params := scan.Params{
				BatchSize:  deps.cfg.Scan.Batch,
				TimeBudget: deps.cfg.Scan.Budget,
			}

			watcher := trigger.NewWatcher(svc).WithParams(params).WithOutput(out)
			if at != "" {
				watcher = watcher.WithSchedule(at)
			}

			if err := watcher.Start(cmd.Context()); err != nil {
				logger.Error().Err(err).Msg("Failed to start watcher")
				return formatter.PrintTotalFailureSummary("watch", err, scan.ErrorCode(err))
			}

			out.Info(fmt.Sprintf("Watching. Next scan at %s. Press Ctrl+C to stop.",
				watcher.NextRun().Format("2006-01-02 15:04")))

			<-cmd.Context().Done()

			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := watcher.Stop(stopCtx); err != nil {
				logger.Warn().Err(err).Msg("Watcher did not stop cleanly")
				return err
			}
			out.Info("Watcher stopped.")
			return nil
		},
	}

	cmd.Flags().String("at", "", "Daily run time as HH:MM (default from watch.at config)")
	cmd.Flags().String("sheet", "", "CSV sheet path (default: folders.csv in the workspace)")

	return cmd
}
