// Package memstore is an in-memory Store backend. It is the dev-mode
// backend (STORE_BACKEND=memory) and the fixture the engine tests run
// against; nothing is persisted across restarts.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"BizBooks/internal/store"
)

type Store struct {
	mu     sync.Mutex
	order  []string
	tables map[string][]store.Row
}

func New() *Store {
	return &Store{tables: make(map[string][]store.Row)}
}

func (s *Store) ListRows(ctx context.Context, partition string) ([]store.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[partition]
	if !ok {
		return nil, fmt.Errorf("%q: %w", partition, store.ErrPartitionNotFound)
	}
	out := make([]store.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out, nil
}

func (s *Store) AppendRow(ctx context.Context, partition string, row store.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[partition]
	if !ok {
		return fmt.Errorf("%q: %w", partition, store.ErrPartitionNotFound)
	}
	s.tables[partition] = append(rows, row.Clone())
	return nil
}

func (s *Store) UpdateRange(ctx context.Context, partition string, rowPos, startCol int, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[partition]
	if !ok {
		return fmt.Errorf("%q: %w", partition, store.ErrPartitionNotFound)
	}
	if rowPos < 1 || rowPos > len(rows) {
		return fmt.Errorf("row %d in %q: %w", rowPos, partition, store.ErrNotFound)
	}
	if startCol < 1 {
		return fmt.Errorf("invalid start column %d", startCol)
	}
	row := rows[rowPos-1]
	// Grow the row when the range extends past its current width.
	for len(row) < startCol-1+len(values) {
		row = append(row, "")
	}
	copy(row[startCol-1:], values)
	rows[rowPos-1] = row
	return nil
}

func (s *Store) DeleteRow(ctx context.Context, partition string, rowPos int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[partition]
	if !ok {
		return fmt.Errorf("%q: %w", partition, store.ErrPartitionNotFound)
	}
	if rowPos < 1 || rowPos > len(rows) {
		return fmt.Errorf("row %d in %q: %w", rowPos, partition, store.ErrNotFound)
	}
	s.tables[partition] = append(rows[:rowPos-1], rows[rowPos:]...)
	return nil
}

func (s *Store) ListPartitions(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out, nil
}

func (s *Store) CreatePartition(ctx context.Context, name string, header store.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[name]; ok {
		return fmt.Errorf("%q: %w", name, store.ErrPartitionExists)
	}
	s.tables[name] = []store.Row{header.Clone()}
	s.order = append(s.order, name)
	return nil
}

func (s *Store) DeletePartition(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[name]; !ok {
		return fmt.Errorf("%q: %w", name, store.ErrPartitionNotFound)
	}
	delete(s.tables, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
