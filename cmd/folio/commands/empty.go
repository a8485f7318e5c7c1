package commands

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/folioscan/folio/cmd/folio/internal/format"
	"github.com/folioscan/folio/pkg/scan"
)

// NewEmptyCommand classifies every scanned folder and marks the empty
// ones for removal.
func NewEmptyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "empty",
		Short:   "Mark scanned folders that are empty for removal",
		Long: `Re-resolves every folder the scan wrote to the sheet and records a verdict
in the Status column. Folders that are empty, or contain only chains of empty
subfolders, get a removal mark in the Action column; 'folio sweep' acts on
those marks.`,
		GroupID: "scan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter := format.FromCommand(cmd)
			out := setupOutputPipeline(cmd)

			logger := log.With().Str("command", "empty").Logger()

			deps, err := resolveDeps(cmd)
			if err != nil {
				return formatter.PrintTotalFailureSummary("empty", err, scan.ErrorCode(err))
			}
			provider, err := deps.provider(cmd)
			if err != nil {
				return formatter.PrintTotalFailureSummary("empty", err, scan.ErrorCode(err))
			}
			sink, err := deps.sink(cmd)
			if err != nil {
				return formatter.PrintTotalFailureSummary("empty", err, scan.ErrorCode(err))
			}

			svc := scan.NewService().WithProvider(provider).WithSheet(sink).WithOutput(out)
			res, err := svc.MarkEmpty(cmd.Context())
			if err != nil {
				logger.Error().Err(err).Msg("Empty classification failed")
				return formatter.PrintTotalFailureSummary("empty", err, scan.ErrorCode(err))
			}

			outputFormat, _ := cmd.Flags().GetString("output")
			switch strings.ToLower(outputFormat) {
			case "json", "yaml":
				return formatter.PrintResult("empty", res)
			default:
				headers := []string{"Metric", "Value"}
				rows := [][]string{
					{"Rows Checked", fmt.Sprintf("%d", res.RowsChecked)},
					{"Marked For Removal", fmt.Sprintf("%d", res.Marked)},
				}
				if res.Errors > 0 {
					rows = append(rows, []string{"Errors", fmt.Sprintf("%d", res.Errors)})
				}
				out.Table(headers, rows)
				if res.Marked > 0 {
					out.Info("Run 'folio sweep --dry-run' to review before trashing.")
				}
				return nil
			}
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format: text, json, yaml")
	cmd.Flags().String("sheet", "", "CSV sheet path (default: folders.csv in the workspace)")

	return cmd
}
