package commands

import (
	"github.com/spf13/cobra"

	"github.com/folioscan/folio/cmd/folio/internal/format"
	"github.com/folioscan/folio/pkg/scan"
)

// NewResetCommand discards the saved checkpoint so the next scan starts
// from scratch. Rows already written to the sheet are left alone.
func NewResetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reset",
		Short:   "Discard the paused scan checkpoint",
		GroupID: "scan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter := format.FromCommand(cmd)
			out := setupOutputPipeline(cmd)

			deps, err := resolveDeps(cmd)
			if err != nil {
				return formatter.PrintTotalFailureSummary("reset", err, scan.ErrorCode(err))
			}
			store, err := deps.store()
			if err != nil {
				return formatter.PrintTotalFailureSummary("reset", err, scan.ErrorCode(err))
			}

			svc := scan.NewService().WithStore(store)
			if err := svc.Reset(cmd.Context()); err != nil {
				return formatter.PrintTotalFailureSummary("reset", err, scan.ErrorCode(err))
			}

			out.Info("Checkpoint discarded. The next scan starts fresh.")
			return nil
		},
	}
	return cmd
}
