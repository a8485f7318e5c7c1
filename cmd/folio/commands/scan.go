package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/folioscan/folio/cmd/folio/internal/bind"
	"github.com/folioscan/folio/cmd/folio/internal/format"
	"github.com/folioscan/folio/pkg/output"
	"github.com/folioscan/folio/pkg/scan"
	"github.com/folioscan/folio/pkg/stringutil"
)

// ScanCmd defines the 'scan' command.
var ScanCmd = &cobra.Command{
	Use:   "scan [root-id]",
	Short: "Scan a folder tree into the sheet, pausing at the time budget",
	Long: `Takes a snapshot of the folders under the given root and writes one row per
folder to the sheet. When the time budget runs out the scan checkpoints and
pauses; running 'folio scan' again with no arguments continues it.`,
	GroupID: "scan",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runScanCommand,
}

func runScanCommand(cmd *cobra.Command, args []string) error {
	formatter := format.FromCommand(cmd)
	out := setupOutputPipeline(cmd)

	rootID := ""
	if len(args) > 0 {
		rootID = args[0]
	}

	logger := log.With().Str("command", "scan").Logger()
	logger.Info().Str("root", rootID).Msg("Initializing scan command")

	out.Diag(output.LevelVerbose, "Initializing scan command", map[string]any{
		"root": rootID,
	})

	// Bind flags to options using centralized binder
	params, err := bind.BindScanOptions(cmd, rootID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to bind scan options")
		return formatter.PrintTotalFailureSummary("scan", err, scan.ErrorCode(err))
	}

	deps, err := resolveDeps(cmd)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to resolve command dependencies")
		return formatter.PrintTotalFailureSummary("scan", err, scan.ErrorCode(err))
	}

	svc, err := deps.scanService(cmd, out)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to build scan service")
		return formatter.PrintTotalFailureSummary("scan", err, scan.ErrorCode(err))
	}

	// Enable progress reporting if the progress flag is set. Text mode gets
	// a live bar; structured modes log progress instead so stdout stays
	// machine-readable.
	if wantProgress(params) {
		if strings.ToLower(params.OutputFormat) == "text" {
			svc = svc.WithProgressSink(newProgressBarSink(os.Stderr))
		} else {
			svc = svc.WithProgressSink(&progressLogger{logger: logger})
		}
	}

	if params.OutputFormat == "text" {
		verbosityCount, _ := cmd.Flags().GetCount("verbosity")
		if verbosityCount == 0 {
			if rootID == "" {
				out.Info("Continuing paused scan...")
			} else {
				out.Info("Starting folder scan...")
			}
		}
	}

	res, runErr := svc.Run(cmd.Context(), params)
	if runErr != nil {
		logger.Error().Err(runErr).Msg("Scan failed")
		out.Error(runErr)
		return formatter.PrintTotalFailureSummary("scan", runErr, scan.ErrorCode(runErr))
	}

	return renderScanResult(out, formatter, params, res)
}

func wantProgress(params scan.Params) bool {
	v, _ := params.RawInputs["progress"].(bool)
	return v
}

func renderScanResult(out output.Output, formatter format.Formatter, params scan.Params, res *scan.Result) error {
	switch strings.ToLower(params.OutputFormat) {
	case "json", "yaml":
		return formatter.PrintResult("scan", res)
	default:
		printScanSummary(out, res)
		if res != nil && res.Status == scan.StatusPaused {
			out.Info(fmt.Sprintf("Scan paused at %d of %d folders. Run 'folio scan' to continue.", res.Processed, res.Total))
		}
		return nil
	}
}

// printScanSummary displays a human-readable summary table of scan results
func printScanSummary(out output.Output, res *scan.Result) {
	if res == nil {
		return
	}

	duration := "N/A"
	if res.StartTime != "" && res.EndTime != "" {
		startTime, errStart := time.Parse(time.RFC3339, res.StartTime)
		endTime, errEnd := time.Parse(time.RFC3339, res.EndTime)
		if errStart == nil && errEnd == nil {
			duration = fmt.Sprintf("%.1fs", endTime.Sub(startTime).Seconds())
		}
	}

	headers := []string{"Metric", "Value"}
	rows := [][]string{
		{"Root", res.RootName},
		{"Status", res.Status},
		{"Folders", fmt.Sprintf("%d/%d", res.Processed, res.Total)},
		{"Rows Written", fmt.Sprintf("%d", res.RowsWritten)},
	}
	if res.SkippedRows > 0 {
		rows = append(rows, []string{"Rows Skipped", fmt.Sprintf("%d", res.SkippedRows)})
	}
	if res.ErrorRows > 0 {
		rows = append(rows, []string{"Error Rows", fmt.Sprintf("%d", res.ErrorRows)})
	}
	rows = append(rows, []string{"Duration", duration})

	out.Table(headers, rows)
}

// progressBarSink renders scan progress as a terminal bar.
type progressBarSink struct {
	bar *progressbar.ProgressBar
}

func newProgressBarSink(w io.Writer) *progressBarSink {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("scanning"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)
	return &progressBarSink{bar: bar}
}

func (p *progressBarSink) OnEvent(ev scan.ProgressEvent) {
	switch ev.Phase {
	case "snapshot":
		if ev.Total > 0 {
			p.bar.ChangeMax(ev.Total)
		}
	case "folder":
		if ev.Total > 0 && p.bar.GetMax() != ev.Total {
			p.bar.ChangeMax(ev.Total)
		}
		if ev.Folder != "" {
			p.bar.Describe(stringutil.Ellipsis(ev.Folder, 40))
		}
		_ = p.bar.Set(ev.Current)
	case "finish":
		_ = p.bar.Finish()
	}
}

// progressLogger reports scan progress through the structured logger.
type progressLogger struct {
	logger zerolog.Logger
}

func (p *progressLogger) OnEvent(ev scan.ProgressEvent) {
	entry := p.logger.Info().
		Str("phase", ev.Phase).
		Str("status", ev.Status).
		Int("current", ev.Current).
		Int("total", ev.Total)
	if ev.Folder != "" {
		entry = entry.Str("folder", ev.Folder)
	}
	if ev.Message != "" {
		entry = entry.Str("message", ev.Message)
	}
	entry.Msg("scan progress")
}

func init() {
	ScanCmd.Flags().Bool("subfolders", false, "Write one row per immediate subfolder of each folder under the root")
	ScanCmd.Flags().Bool("update", false, "Append only folders whose link is not already in the sheet")
	ScanCmd.Flags().Int("batch-size", 20, "Processed folders between sheet flushes")
	ScanCmd.Flags().String("time-budget", "4m", "Wall-clock budget before the scan pauses (e.g. 90s, 4m)")
	ScanCmd.Flags().StringP("output", "o", "text", "Output format: text, json, yaml")
	ScanCmd.Flags().Bool("progress", false, "Print a live progress bar during the scan")
	ScanCmd.Flags().String("sheet", "", "CSV sheet path (default: folders.csv in the workspace)")
}
