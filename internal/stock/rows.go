package stock

import (
	"fmt"
	"strconv"
	"strings"

	"BizBooks/internal/store"
)

// parseCount reads an integer quantity cell. Empty cells count as zero and
// spreadsheet-style float renderings ("12.0") are accepted.
func parseCount(cell string) (int, error) {
	if cell == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(cell); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", cell)
	}
	return int(f), nil
}

func checkHeader(partition string, rows []store.Row, want store.Row) error {
	if len(rows) == 0 {
		return fmt.Errorf("%q has no header row: %w", partition, store.ErrSchemaMismatch)
	}
	header := rows[0]
	for i, col := range want {
		if !strings.EqualFold(header.Get(i), col) {
			return fmt.Errorf("%q column %d is %q, want %q: %w",
				partition, i+1, header.Get(i), col, store.ErrSchemaMismatch)
		}
	}
	return nil
}
