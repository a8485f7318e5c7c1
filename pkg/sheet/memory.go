package sheet

import "sync"

// MemSink is an in-memory Sink for tests and dry runs.
type MemSink struct {
	mu   sync.RWMutex
	rows [][]string
}

// NewMemSink creates an empty in-memory sink.
func NewMemSink() *MemSink {
	return &MemSink{}
}

// Clear removes every row.
func (s *MemSink) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
	return nil
}

// WriteHeader appends the header row.
func (s *MemSink) WriteHeader(columns []string) error {
	return s.AppendRows([][]string{columns})
}

// AppendRows appends data rows in order.
func (s *MemSink) AppendRows(rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		s.rows = append(s.rows, append([]string(nil), row...))
	}
	return nil
}

// ReadColumn returns the cell at index for every row.
func (s *MemSink) ReadColumn(index int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	column := make([]string, 0, len(s.rows))
	for _, row := range s.rows {
		if index < len(row) {
			column = append(column, row[index])
		} else {
			column = append(column, "")
		}
	}
	return column, nil
}

// SetCell overwrites one cell.
func (s *MemSink) SetCell(row, col int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row < 0 || col < 0 || row >= len(s.rows) || col >= len(s.rows[row]) {
		return cellRangeError(row, col)
	}
	s.rows[row][col] = value
	return nil
}

// Rows returns a copy of the grid, header row included.
func (s *MemSink) Rows() [][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([][]string, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, append([]string(nil), row...))
	}
	return out
}
