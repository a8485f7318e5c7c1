package scan

import "time"

// Params defines the input required to start or resume a scan.
//
// RootID and the mode flags only matter for a fresh scan; when a
// checkpoint exists they are ignored and the persisted values win. An
// empty RootID on a fresh scan falls back to the saved params from the
// previous scan.
type Params struct {
	RootID            string
	IncludeSubfolders bool
	Update            bool
	BatchSize         int
	TimeBudget        time.Duration
	OutputFormat      string
	RawInputs         map[string]any
}

func (p Params) validate() error {
	if p.BatchSize <= 0 {
		return NewValidationError("batch size", "must be positive")
	}
	if p.TimeBudget <= 0 {
		return NewValidationError("time budget", "must be positive")
	}
	return nil
}

// Result statuses. A paused scan is a normal outcome, not a failure;
// the next invocation picks up from the checkpoint.
const (
	StatusCompleted = "completed"
	StatusPaused    = "paused"
	StatusFailed    = "failed"
)

// Result summarizes one scan invocation.
type Result struct {
	ScanID      string `json:"scanId"`
	Status      string `json:"status"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	RootName    string `json:"rootName"`
	Resumed     bool   `json:"resumed"`
	Processed   int    `json:"processed"`
	Total       int    `json:"total"`
	RowsWritten int    `json:"rowsWritten"`
	ErrorRows   int    `json:"errorRows"`
	SkippedRows int    `json:"skippedRows,omitempty"`
}
