// Package memory is an in-memory shift writer for tests and local runs
// without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"kakeibo/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []sheets.ShiftRow
}

func New() *Store {
	return &Store{}
}

// Append stores the row and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, row sheets.ShiftRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []sheets.ShiftRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.ShiftRow(nil), s.rows...)
}
