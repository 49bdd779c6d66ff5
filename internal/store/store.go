package store

import (
	"context"
	"strings"
)

// Row is a single backend table row. Cells are strings in positional order;
// every backend keeps the partition header in row 1.
type Row []string

// Get returns the trimmed cell at column i (0-based), or "" when the row is
// shorter than i+1 cells. Backends are allowed to drop trailing empty cells.
func (r Row) Get(i int) string {
	if i >= 0 && i < len(r) {
		return strings.TrimSpace(r[i])
	}
	return ""
}

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Store is the row-oriented table contract the ledger and stock engines are
// written against. Partitions are independent named tables. Row positions are
// 1-based backend coordinates with the header at position 1, so the first
// data row is position 2 and positions shift after a delete.
type Store interface {
	// ListRows returns the full ordered snapshot of a partition, header
	// included. The returned rows are safe for the caller to retain.
	ListRows(ctx context.Context, partition string) ([]Row, error)

	// AppendRow appends one row after the current last row.
	AppendRow(ctx context.Context, partition string, row Row) error

	// UpdateRange overwrites len(values) consecutive cells of one row,
	// starting at startCol (1-based). Cells outside the range are untouched.
	UpdateRange(ctx context.Context, partition string, rowPos, startCol int, values []string) error

	// DeleteRow removes the row at rowPos. Rows below shift up by one.
	DeleteRow(ctx context.Context, partition string, rowPos int) error

	// ListPartitions returns all partition names in backend order.
	ListPartitions(ctx context.Context) ([]string, error)

	// CreatePartition creates a new partition with the given header row.
	CreatePartition(ctx context.Context, name string, header Row) error

	// DeletePartition removes a partition and all of its rows.
	DeletePartition(ctx context.Context, name string) error
}

// EnsurePartition creates the partition when it does not exist yet.
func EnsurePartition(ctx context.Context, s Store, name string, header Row) error {
	names, err := s.ListPartitions(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		if n == name {
			return nil
		}
	}
	return s.CreatePartition(ctx, name, header)
}
