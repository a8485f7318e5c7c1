package sheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// CSVSink implements Sink over a single CSV file.
//
// The file is the only state; reopening the same path resumes the same
// sheet. A flock on the sibling .lock file guards every operation against
// external processes.
type CSVSink struct {
	path string
}

// NewCSVSink creates the parent directory if needed and returns a sink
// over path. The file itself is created lazily on first write.
func NewCSVSink(path string) (*CSVSink, error) {
	if path == "" {
		return nil, fmt.Errorf("sheet path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sheet directory: %w", err)
		}
	}
	return &CSVSink{path: path}, nil
}

// Path returns the CSV file location.
func (s *CSVSink) Path() string {
	return s.path
}

// Clear removes every row.
func (s *CSVSink) Clear() error {
	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire write lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	if err := os.WriteFile(s.path, nil, 0o644); err != nil {
		return fmt.Errorf("failed to clear sheet: %w", err)
	}
	return nil
}

// WriteHeader appends the header row.
func (s *CSVSink) WriteHeader(columns []string) error {
	return s.AppendRows([][]string{columns})
}

// AppendRows appends data rows in order.
func (s *CSVSink) AppendRows(rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire write lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open sheet: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to append rows: %w", err)
	}
	return nil
}

// ReadColumn returns the cell at index for every row.
func (s *CSVSink) ReadColumn(index int) ([]string, error) {
	if index < 0 {
		return nil, fmt.Errorf("column index must be non-negative")
	}

	records, err := s.readAll()
	if err != nil {
		return nil, err
	}

	column := make([]string, 0, len(records))
	for _, rec := range records {
		if index < len(rec) {
			column = append(column, rec[index])
		} else {
			column = append(column, "")
		}
	}
	return column, nil
}

// SetCell overwrites one cell, rewriting the file.
func (s *CSVSink) SetCell(row, col int, value string) error {
	if row < 0 || col < 0 {
		return cellRangeError(row, col)
	}

	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire write lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	records, err := s.readAllLocked()
	if err != nil {
		return err
	}
	if row >= len(records) || col >= len(records[row]) {
		return cellRangeError(row, col)
	}
	records[row][col] = value

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to rewrite sheet: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to rewrite sheet: %w", err)
	}
	return nil
}

func (s *CSVSink) readAll() ([][]string, error) {
	lock := flock.New(s.path + ".lock")
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("failed to acquire read lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	return s.readAllLocked()
}

func (s *CSVSink) readAllLocked() ([][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open sheet: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // Rows may be ragged
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	return records, nil
}
