package commands

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/folioscan/folio/cmd/folio/internal/format"
	"github.com/folioscan/folio/pkg/output"
	"github.com/folioscan/folio/pkg/scan"
)

// NewSweepCommand trashes the folders 'folio empty' marked for removal.
func NewSweepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sweep",
		Short:   "Trash folders marked for removal",
		Long: `Trashes every folder whose sheet row carries a removal mark from
'folio empty'. A folder that fails to trash is reported and left marked;
the rest of the pass continues. Use --dry-run to list the marked folders
without touching anything.`,
		GroupID: "scan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter := format.FromCommand(cmd)
			out := setupOutputPipeline(cmd)

			logger := log.With().Str("command", "sweep").Logger()

			dryRun, _ := cmd.Flags().GetBool("dry-run")
			outputFormat, _ := cmd.Flags().GetString("output")

			deps, err := resolveDeps(cmd)
			if err != nil {
				return formatter.PrintTotalFailureSummary("sweep", err, scan.ErrorCode(err))
			}
			provider, err := deps.provider(cmd)
			if err != nil {
				return formatter.PrintTotalFailureSummary("sweep", err, scan.ErrorCode(err))
			}
			sink, err := deps.sink(cmd)
			if err != nil {
				return formatter.PrintTotalFailureSummary("sweep", err, scan.ErrorCode(err))
			}

			svc := scan.NewService().WithProvider(provider).WithSheet(sink).WithOutput(out)
			res, sweepErr := svc.Sweep(cmd.Context(), scan.SweepOptions{DryRun: dryRun})

			// A partial failure still carries counts; show them in text mode
			// before reporting the error.
			if sweepErr != nil {
				logger.Error().Err(sweepErr).Msg("Sweep finished with failures")
				if res != nil && strings.ToLower(outputFormat) == "text" {
					printSweepSummary(out, res)
				}
				out.Error(sweepErr)
				return formatter.PrintTotalFailureSummary("sweep", sweepErr, scan.ErrorCode(sweepErr))
			}

			switch strings.ToLower(outputFormat) {
			case "json", "yaml":
				return formatter.PrintResult("sweep", res)
			default:
				printSweepSummary(out, res)
				if res.DryRun && res.RowsMarked > 0 {
					out.Info("Dry run: nothing was trashed. Re-run without --dry-run to act.")
				}
				return nil
			}
		},
	}

	cmd.Flags().Bool("dry-run", false, "Report what would be trashed without touching anything")
	cmd.Flags().StringP("output", "o", "text", "Output format: text, json, yaml")
	cmd.Flags().String("sheet", "", "CSV sheet path (default: folders.csv in the workspace)")

	return cmd
}

func printSweepSummary(out output.Output, res *scan.SweepResult) {
	headers := []string{"Metric", "Value"}
	rows := [][]string{
		{"Rows Marked", fmt.Sprintf("%d", res.RowsMarked)},
		{"Folders Trashed", fmt.Sprintf("%d", res.FoldersTrashed)},
	}
	if res.Errors > 0 {
		rows = append(rows, []string{"Errors", fmt.Sprintf("%d", res.Errors)})
	}
	out.Table(headers, rows)
}
