package bind

import (
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/folioscan/folio/pkg/appctx"
	"github.com/folioscan/folio/pkg/scan"
)

// BindScanOptions extracts scan command flags and merges them with
// configured defaults.
//
// Flags read:
//   - --subfolders: list one row per immediate subfolder
//   - --update: append only folders whose link is missing from the sheet
//   - --batch-size: processed entries between sheet flushes
//   - --time-budget: wall-clock budget for this invocation (e.g. 4m)
//   - --output: output format (text, json, yaml)
//   - --sheet: CSV sheet path override
//   - --progress: live progress bar
//
// A flag the user left unset falls back to its scan.* config key, so a
// value set via FOLIO_SCAN_BATCH or the config file applies without
// repeating it on the command line.
func BindScanOptions(cmd *cobra.Command, rootID string) (scan.Params, error) {
	includeSubfolders, _ := cmd.Flags().GetBool("subfolders")
	update, _ := cmd.Flags().GetBool("update")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	budget, _ := cmd.Flags().GetString("time-budget")
	outputFormat, _ := cmd.Flags().GetString("output")
	progress, _ := cmd.Flags().GetBool("progress")
	sheetPath, _ := cmd.Flags().GetString("sheet")

	params := scan.Params{
		RootID:            rootID,
		IncludeSubfolders: includeSubfolders,
		Update:            update,
		BatchSize:         batchSize,
		OutputFormat:      outputFormat,
	}

	if budget != "" {
		d, err := time.ParseDuration(budget)
		if err != nil {
			return scan.Params{}, scan.NewValidationError("time budget", "not a duration (try 4m or 90s)")
		}
		params.TimeBudget = d
	}

	applyConfigDefaults(cmd, &params)

	params.RawInputs = map[string]any{
		"progress": progress,
		"sheet":    sheetPath,
	}

	return params, nil
}

// applyConfigDefaults fills fields whose flags the user did not set from
// the configuration carried in the command context.
func applyConfigDefaults(cmd *cobra.Command, params *scan.Params) {
	ctx := cmd.Context()
	if ctx == nil {
		return
	}
	cfg, ok := appctx.ConfigFrom(ctx)
	if !ok {
		return
	}

	if !cmd.Flags().Changed("subfolders") {
		params.IncludeSubfolders = cast.ToBool(cfg.GetValue("scan.subfolders"))
	}
	if !cmd.Flags().Changed("update") {
		params.Update = cast.ToBool(cfg.GetValue("scan.update"))
	}
	if !cmd.Flags().Changed("batch-size") {
		if v := cast.ToInt(cfg.GetValue("scan.batch")); v > 0 {
			params.BatchSize = v
		}
	}
	if !cmd.Flags().Changed("time-budget") {
		if v := cast.ToDuration(cfg.GetValue("scan.budget")); v > 0 {
			params.TimeBudget = v
		}
	}
}
