// Package sheet provides the tabular sink scan results are written to.
//
// A sink is a spreadsheet-like grid of string cells. Row 0 is the header
// row once one has been written; data rows follow in append order. The
// shipped backends are CSVSink (one CSV file, flock-guarded) and MemSink
// (tests and dry runs).
package sheet

import "fmt"

// Sink is the destination for scan output rows.
//
// Thread-safety: implementations must be safe for concurrent use, although
// folio itself writes from a single invocation at a time.
type Sink interface {
	// Clear removes every row, header included.
	Clear() error

	// WriteHeader appends the header row. Callers write it once per sheet
	// lifetime, immediately after Clear.
	WriteHeader(columns []string) error

	// AppendRows appends data rows in order. Rows are never reordered or
	// deduplicated by the sink.
	AppendRows(rows [][]string) error

	// ReadColumn returns the cell at index for every row, header included.
	// Rows too short for the index contribute an empty string.
	ReadColumn(index int) ([]string, error)

	// SetCell overwrites one cell. Row and column are zero-based with the
	// header at row 0. Fails if the cell does not exist.
	SetCell(row, col int, value string) error
}

// cellRangeError reports a SetCell target outside the current grid.
func cellRangeError(row, col int) error {
	return fmt.Errorf("cell out of range: row %d col %d", row, col)
}
