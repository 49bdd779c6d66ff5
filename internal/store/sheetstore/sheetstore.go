// Package sheetstore backs the row store with an xlsx workbook on disk.
// Partitions are worksheets, the header lives in row 1 and row positions
// map one to one onto worksheet rows. This is the drop-in analogue of the
// hosted spreadsheet the system grew up on.
package sheetstore

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"

	"BizBooks/internal/store"
)

const scratchSheet = "Sheet1" // excelize's default sheet in a fresh workbook

type Store struct {
	path string
	mu   sync.Mutex
}

// New returns a workbook store for path. The file is created lazily on the
// first mutating call.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the workbook location on disk (used by the backup job).
func (s *Store) Path() string { return s.path }

func (s *Store) load() (*excelize.File, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return excelize.NewFile(), nil
	}
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", s.path, err)
	}
	return f, nil
}

func (s *Store) save(f *excelize.File, op string) error {
	// Another process holding the workbook open is the usual failure here,
	// so the save is reported as transient and left to the retry layer.
	if err := f.SaveAs(s.path); err != nil {
		return store.Transient(op, err)
	}
	return nil
}

func (s *Store) sheetExists(f *excelize.File, name string) bool {
	idx, err := f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

func (s *Store) ListRows(ctx context.Context, partition string) ([]store.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if !s.sheetExists(f, partition) {
		return nil, fmt.Errorf("%q: %w", partition, store.ErrPartitionNotFound)
	}
	raw, err := f.GetRows(partition)
	if err != nil {
		return nil, fmt.Errorf("read partition %q: %w", partition, err)
	}
	rows := make([]store.Row, len(raw))
	for i, r := range raw {
		rows[i] = store.Row(r)
	}
	return rows, nil
}

func (s *Store) AppendRow(ctx context.Context, partition string, row store.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return err
	}
	defer f.Close()
	if !s.sheetExists(f, partition) {
		return fmt.Errorf("%q: %w", partition, store.ErrPartitionNotFound)
	}
	existing, err := f.GetRows(partition)
	if err != nil {
		return fmt.Errorf("read partition %q: %w", partition, err)
	}
	if err := writeRow(f, partition, len(existing)+1, 1, row); err != nil {
		return err
	}
	return s.save(f, "append row")
}

func (s *Store) UpdateRange(ctx context.Context, partition string, rowPos, startCol int, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return err
	}
	defer f.Close()
	if !s.sheetExists(f, partition) {
		return fmt.Errorf("%q: %w", partition, store.ErrPartitionNotFound)
	}
	existing, err := f.GetRows(partition)
	if err != nil {
		return fmt.Errorf("read partition %q: %w", partition, err)
	}
	if rowPos < 1 || rowPos > len(existing) {
		return fmt.Errorf("row %d in %q: %w", rowPos, partition, store.ErrNotFound)
	}
	if err := writeRow(f, partition, rowPos, startCol, values); err != nil {
		return err
	}
	return s.save(f, "update range")
}

func (s *Store) DeleteRow(ctx context.Context, partition string, rowPos int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return err
	}
	defer f.Close()
	if !s.sheetExists(f, partition) {
		return fmt.Errorf("%q: %w", partition, store.ErrPartitionNotFound)
	}
	existing, err := f.GetRows(partition)
	if err != nil {
		return fmt.Errorf("read partition %q: %w", partition, err)
	}
	if rowPos < 1 || rowPos > len(existing) {
		return fmt.Errorf("row %d in %q: %w", rowPos, partition, store.ErrNotFound)
	}
	if err := f.RemoveRow(partition, rowPos); err != nil {
		return fmt.Errorf("delete row %d in %q: %w", rowPos, partition, err)
	}
	return s.save(f, "delete row")
}

func (s *Store) ListPartitions(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, nil
	}
	f, err := s.load()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

func (s *Store) CreatePartition(ctx context.Context, name string, header store.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return err
	}
	defer f.Close()
	if s.sheetExists(f, name) {
		return fmt.Errorf("%q: %w", name, store.ErrPartitionExists)
	}
	// A fresh workbook carries an empty default sheet; claim it for the
	// first partition instead of leaving it behind.
	if claimed, _ := s.claimScratchSheet(f, name); !claimed {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create partition %q: %w", name, err)
		}
	}
	if err := writeRow(f, name, 1, 1, header); err != nil {
		return err
	}
	return s.save(f, "create partition")
}

func (s *Store) claimScratchSheet(f *excelize.File, name string) (bool, error) {
	if !s.sheetExists(f, scratchSheet) || name == scratchSheet {
		return false, nil
	}
	rows, err := f.GetRows(scratchSheet)
	if err != nil || len(rows) > 0 {
		return false, err
	}
	if err := f.SetSheetName(scratchSheet, name); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) DeletePartition(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return err
	}
	defer f.Close()
	if !s.sheetExists(f, name) {
		return fmt.Errorf("%q: %w", name, store.ErrPartitionNotFound)
	}
	if len(f.GetSheetList()) == 1 {
		return fmt.Errorf("cannot delete the last partition %q", name)
	}
	if err := f.DeleteSheet(name); err != nil {
		return fmt.Errorf("delete partition %q: %w", name, err)
	}
	return s.save(f, "delete partition")
}

func writeRow(f *excelize.File, sheet string, rowPos, startCol int, values []string) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(startCol+i, rowPos)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("write cell %s in %q: %w", cell, sheet, err)
		}
	}
	return nil
}
