package stock

import (
	"context"
	"fmt"

	"BizBooks/internal/store"
	"BizBooks/internal/validation"
)

// WeeklyHeader is the rolling-week schema: opening stock, new stock, one
// sold counter per weekday Monday through Sunday, and the closing stock.
var WeeklyHeader = store.Row{"item", "stock", "new", "m", "t", "w", "th", "fr", "sa", "s", "final"}

var weekdayFields = [7]string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// WeeklyEntry is one rolling-week stock row. Saves are append-only: a new
// count for an item is a brand-new row, never an update of an old one.
type WeeklyEntry struct {
	Item    string `json:"item"`
	Opening int    `json:"opening_stock"`
	New     int    `json:"new_stock"`
	Sold    [7]int `json:"sold"` // Monday first
	Final   int    `json:"final_stock"`
}

// WeeklyEngine owns rolling-week stock partitions.
type WeeklyEngine struct {
	store       store.Store
	locks       *store.PartitionLocks
	uniqueItems bool
}

type WeeklyOption func(*WeeklyEngine)

// WithUniqueItems makes SaveEntry reject a second row for an item that
// already has one, trading the append-only log for current-state rows and
// removing the first-match ambiguity on delete.
func WithUniqueItems() WeeklyOption {
	return func(e *WeeklyEngine) { e.uniqueItems = true }
}

func NewWeeklyEngine(st store.Store, opts ...WeeklyOption) *WeeklyEngine {
	e := &WeeklyEngine{store: st, locks: store.NewPartitionLocks()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SaveEntry computes final = opening + new - sum(sold) and appends a full
// row. Repeated saves for the same item stack up as independent rows unless
// the engine was built with WithUniqueItems.
func (e *WeeklyEngine) SaveEntry(ctx context.Context, partition, item string, opening, newStock int, sold [7]int) (WeeklyEntry, error) {
	if err := validation.NonEmpty("item", item); err != nil {
		return WeeklyEntry{}, err
	}
	if err := validation.NonNegative("opening_stock", opening); err != nil {
		return WeeklyEntry{}, err
	}
	if err := validation.NonNegative("new_stock", newStock); err != nil {
		return WeeklyEntry{}, err
	}
	totalOut := 0
	for i, qty := range sold {
		if err := validation.NonNegative("sold_"+weekdayFields[i], qty); err != nil {
			return WeeklyEntry{}, err
		}
		totalOut += qty
	}

	mu := e.locks.Get(partition)
	mu.Lock()
	defer mu.Unlock()

	rows, err := e.store.ListRows(ctx, partition)
	if err != nil {
		return WeeklyEntry{}, err
	}
	if err := checkHeader(partition, rows, WeeklyHeader); err != nil {
		return WeeklyEntry{}, err
	}
	if e.uniqueItems {
		for _, row := range rows[1:] {
			if row.Get(0) == item {
				return WeeklyEntry{}, validation.Errorf("item", "%q already has an entry", item)
			}
		}
	}

	entry := WeeklyEntry{
		Item:    item,
		Opening: opening,
		New:     newStock,
		Sold:    sold,
		Final:   opening + newStock - totalOut,
	}
	row := store.Row{
		item,
		fmt.Sprint(opening),
		fmt.Sprint(newStock),
		fmt.Sprint(sold[0]), fmt.Sprint(sold[1]), fmt.Sprint(sold[2]), fmt.Sprint(sold[3]),
		fmt.Sprint(sold[4]), fmt.Sprint(sold[5]), fmt.Sprint(sold[6]),
		fmt.Sprint(entry.Final),
	}
	if err := e.store.AppendRow(ctx, partition, row); err != nil {
		return WeeklyEntry{}, err
	}
	return entry, nil
}

// DeleteEntry removes the FIRST row matching item in table order. With
// duplicate item rows (the append-only default) the earliest row wins.
func (e *WeeklyEngine) DeleteEntry(ctx context.Context, partition, item string) error {
	mu := e.locks.Get(partition)
	mu.Lock()
	defer mu.Unlock()

	rows, err := e.store.ListRows(ctx, partition)
	if err != nil {
		return err
	}
	if err := checkHeader(partition, rows, WeeklyHeader); err != nil {
		return err
	}
	for i, row := range rows[1:] {
		if row.Get(0) == item {
			return e.store.DeleteRow(ctx, partition, i+2)
		}
	}
	return fmt.Errorf("item %q: %w", item, store.ErrNotFound)
}

// ListEntries returns every rolling-week row in table order.
func (e *WeeklyEngine) ListEntries(ctx context.Context, partition string) ([]WeeklyEntry, error) {
	rows, err := e.store.ListRows(ctx, partition)
	if err != nil {
		return nil, err
	}
	if err := checkHeader(partition, rows, WeeklyHeader); err != nil {
		return nil, err
	}
	var entries []WeeklyEntry
	for i, row := range rows[1:] {
		entry, err := parseWeeklyEntry(row)
		if err != nil {
			return nil, fmt.Errorf("%q row %d: %w", partition, i, store.ErrSchemaMismatch)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseWeeklyEntry(row store.Row) (WeeklyEntry, error) {
	entry := WeeklyEntry{Item: row.Get(0)}
	var err error
	if entry.Opening, err = parseCount(row.Get(1)); err != nil {
		return WeeklyEntry{}, err
	}
	if entry.New, err = parseCount(row.Get(2)); err != nil {
		return WeeklyEntry{}, err
	}
	for i := 0; i < 7; i++ {
		if entry.Sold[i], err = parseCount(row.Get(3 + i)); err != nil {
			return WeeklyEntry{}, err
		}
	}
	if entry.Final, err = parseCount(row.Get(10)); err != nil {
		return WeeklyEntry{}, err
	}
	return entry, nil
}
