package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/folioscan/folio/cmd/folio/internal/format"
	"github.com/folioscan/folio/pkg/output"
	"github.com/folioscan/folio/pkg/scan"
)

// NewStatusCommand reports the paused scan checkpoint, if one exists.
func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Show the paused scan checkpoint, if any",
		GroupID: "scan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter := format.FromCommand(cmd)
			out := setupOutputPipeline(cmd)

			deps, err := resolveDeps(cmd)
			if err != nil {
				return formatter.PrintTotalFailureSummary("status", err, scan.ErrorCode(err))
			}
			store, err := deps.store()
			if err != nil {
				return formatter.PrintTotalFailureSummary("status", err, scan.ErrorCode(err))
			}

			svc := scan.NewService().WithStore(store)
			st, found, err := svc.Status(cmd.Context())
			if err != nil {
				return formatter.PrintTotalFailureSummary("status", err, scan.ErrorCode(err))
			}

			outputFormat, _ := cmd.Flags().GetString("output")
			switch strings.ToLower(outputFormat) {
			case "json", "yaml":
				if !found {
					return formatter.PrintResult("status", map[string]any{"inProgress": false})
				}
				return formatter.PrintResult("status", st)
			default:
				if !found {
					out.Info("No scan in progress.")
					return nil
				}
				printStatusSummary(out, st)
				return nil
			}
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format: text, json, yaml")

	return cmd
}

func printStatusSummary(out output.Output, st *scan.ScanState) {
	mode := "folders"
	if st.IncludeSubfolders {
		mode = "subfolders"
	}
	if st.Update {
		mode += " (update)"
	}

	headers := []string{"Metric", "Value"}
	rows := [][]string{
		{"Scan ID", st.ScanID},
		{"Root", st.RootName},
		{"Folders", fmt.Sprintf("%d/%d", st.CurrentIndex, st.TotalFolders)},
		{"Processed", fmt.Sprintf("%d", st.ProcessedCount)},
		{"Mode", mode},
		{"Started", st.StartedAt.Format(time.RFC3339)},
		{"Updated", st.UpdatedAt.Format(time.RFC3339)},
	}
	out.Table(headers, rows)
	out.Info("Run 'folio scan' to continue.")
}
