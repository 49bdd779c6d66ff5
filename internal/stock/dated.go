// Package stock tracks per-item stock levels across named companies, in two
// models: date-indexed rows (one row per item per calendar date, upsertable)
// and rolling-week rows (append-only Mon-Sun counters). Companies are
// partitions of the row store; the engines hold no state between calls.
package stock

import (
	"context"
	"fmt"
	"sort"
	"time"

	"BizBooks/internal/store"
	"BizBooks/internal/validation"
)

// DatedHeader is the date-indexed schema. Dates are stored as YYYY-MM-DD,
// which makes string order and date order agree.
var DatedHeader = store.Row{"item", "date", "current_stock", "new_stock", "sold_qty", "final_stock"}

// Entry is one date-indexed stock row, unique per (item, date). Index is
// the logical 0-based position within the table at read time.
type Entry struct {
	Item    string `json:"item"`
	Date    string `json:"date"`
	Current int    `json:"current_stock"`
	New     int    `json:"new_stock"`
	Sold    int    `json:"sold_qty"`
	Final   int    `json:"final_stock"`
	Index   int    `json:"index"`
}

// Sale is one date's sold quantity inside a batch save.
type Sale struct {
	Date string `json:"date"`
	Qty  int    `json:"qty"`
}

// DatedEngine owns date-indexed stock partitions.
type DatedEngine struct {
	store store.Store
	locks *store.PartitionLocks
}

func NewDatedEngine(st store.Store) *DatedEngine {
	return &DatedEngine{store: st, locks: store.NewPartitionLocks()}
}

// AutofillOpeningStock returns the final_stock of the item's latest-dated
// row, or 0 when the item has no rows yet. The value seeds the current
// stock input for the next entry; it is a convenience, not a constraint the
// engine enforces retroactively.
func (e *DatedEngine) AutofillOpeningStock(ctx context.Context, partition, item string) (int, error) {
	rows, err := e.store.ListRows(ctx, partition)
	if err != nil {
		return 0, err
	}
	if err := checkHeader(partition, rows, DatedHeader); err != nil {
		return 0, err
	}
	latest := ""
	final := 0
	for _, row := range rows[1:] {
		if row.Get(0) != item {
			continue
		}
		if d := row.Get(1); d >= latest {
			latest = d
			if final, err = parseCount(row.Get(5)); err != nil {
				return 0, fmt.Errorf("%q final_stock: %w", partition, store.ErrSchemaMismatch)
			}
		}
	}
	return final, nil
}

// SaveEntries upserts one row per sale date, in ascending date order. An
// existing (item, date) row gets a ranged update of its quantity cells only
// and its sold count accumulates; a missing one is appended. After each
// date the computed final becomes the next date's current stock, and new
// stock is applied only to the first date. Entries already written stay
// written if a later date in the batch fails; the error reports where the
// batch stopped.
func (e *DatedEngine) SaveEntries(ctx context.Context, partition, item string, current, newStock int, sales []Sale) ([]Entry, error) {
	if err := validation.NonEmpty("item", item); err != nil {
		return nil, err
	}
	if err := validation.NonNegative("current_stock", current); err != nil {
		return nil, err
	}
	if err := validation.NonNegative("new_stock", newStock); err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return nil, validation.Errorf("sales", "at least one date is required")
	}
	batch := make([]Sale, len(sales))
	seen := make(map[string]bool, len(sales))
	for i, sale := range sales {
		day, err := validation.Date("date", sale.Date)
		if err != nil {
			return nil, err
		}
		if seen[day] {
			return nil, validation.Errorf("date", "%s appears twice in one save", day)
		}
		seen[day] = true
		if err := validation.NonNegative("sold_qty", sale.Qty); err != nil {
			return nil, err
		}
		batch[i] = Sale{Date: day, Qty: sale.Qty}
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Date < batch[j].Date })

	mu := e.locks.Get(partition)
	mu.Lock()
	defer mu.Unlock()

	rows, err := e.store.ListRows(ctx, partition)
	if err != nil {
		return nil, err
	}
	if err := checkHeader(partition, rows, DatedHeader); err != nil {
		return nil, err
	}

	// Existing (item, date) -> backend row position. Appends made during
	// the batch never collide with these because each date appears once.
	positions := make(map[string]int)
	oldSold := make(map[string]int)
	for i, row := range rows[1:] {
		if row.Get(0) != item {
			continue
		}
		date := row.Get(1)
		if _, ok := positions[date]; ok {
			continue // first match wins, like every positional lookup here
		}
		positions[date] = i + 2
		sold, err := parseCount(row.Get(4))
		if err != nil {
			return nil, fmt.Errorf("%q sold_qty: %w", partition, store.ErrSchemaMismatch)
		}
		oldSold[date] = sold
	}

	var saved []Entry
	for _, sale := range batch {
		final := current + newStock - sale.Qty
		entry := Entry{Item: item, Date: sale.Date, Current: current, New: newStock, Sold: sale.Qty, Final: final}
		if pos, ok := positions[sale.Date]; ok {
			entry.Sold = oldSold[sale.Date] + sale.Qty
			values := []string{
				fmt.Sprint(current), fmt.Sprint(newStock), fmt.Sprint(entry.Sold), fmt.Sprint(final),
			}
			// Columns C..F only; item and date cells stay untouched.
			if err := e.store.UpdateRange(ctx, partition, pos, 3, values); err != nil {
				return saved, fmt.Errorf("save for %s: %w", sale.Date, err)
			}
			entry.Index = pos - 2
		} else {
			row := store.Row{
				item, sale.Date,
				fmt.Sprint(current), fmt.Sprint(newStock), fmt.Sprint(sale.Qty), fmt.Sprint(final),
			}
			if err := e.store.AppendRow(ctx, partition, row); err != nil {
				return saved, fmt.Errorf("save for %s: %w", sale.Date, err)
			}
			entry.Index = len(rows) - 1 + len(saved)
		}
		saved = append(saved, entry)
		// Chain the closing stock into the next day's opening stock; new
		// arrivals count only once.
		current, newStock = final, 0
	}
	return saved, nil
}

// DeleteEntry removes the unique (item, date) row.
func (e *DatedEngine) DeleteEntry(ctx context.Context, partition, item, date string) error {
	day, err := validation.Date("date", date)
	if err != nil {
		return err
	}
	mu := e.locks.Get(partition)
	mu.Lock()
	defer mu.Unlock()

	rows, err := e.store.ListRows(ctx, partition)
	if err != nil {
		return err
	}
	if err := checkHeader(partition, rows, DatedHeader); err != nil {
		return err
	}
	for i, row := range rows[1:] {
		if row.Get(0) == item && row.Get(1) == day {
			return e.store.DeleteRow(ctx, partition, i+2)
		}
	}
	return fmt.Errorf("entry %q on %s: %w", item, day, store.ErrNotFound)
}

// ListEntries returns every date-indexed row in table order.
func (e *DatedEngine) ListEntries(ctx context.Context, partition string) ([]Entry, error) {
	rows, err := e.store.ListRows(ctx, partition)
	if err != nil {
		return nil, err
	}
	if err := checkHeader(partition, rows, DatedHeader); err != nil {
		return nil, err
	}
	return parseEntries(partition, rows)
}

func parseEntries(partition string, rows []store.Row) ([]Entry, error) {
	var entries []Entry
	for i, row := range rows[1:] {
		entry := Entry{Item: row.Get(0), Date: row.Get(1), Index: i}
		var err error
		if entry.Current, err = parseCount(row.Get(2)); err == nil {
			if entry.New, err = parseCount(row.Get(3)); err == nil {
				if entry.Sold, err = parseCount(row.Get(4)); err == nil {
					entry.Final, err = parseCount(row.Get(5))
				}
			}
		}
		if err != nil {
			return nil, fmt.Errorf("%q row %d: %w", partition, i, store.ErrSchemaMismatch)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Summary is the per-item stock picture over a date range.
type Summary struct {
	Dates []string      `json:"dates"`
	Items []ItemSummary `json:"items"`
}

// ItemSummary covers one item. CurrentStock is the latest final_stock over
// ALL dates, not bounded by the range; SoldByDate aligns with Summary.Dates.
type ItemSummary struct {
	Item         string `json:"item"`
	CurrentStock int    `json:"current_stock"`
	NewStock     int    `json:"new_stock"`
	SoldByDate   []int  `json:"sold_by_date"`
	TotalSold    int    `json:"total_sold"`
}

// Summarize reports every distinct item ever seen in the partition, with
// activity aggregated over [from, to] inclusive. Items with no rows in the
// range still appear, with zero sold counts.
func (e *DatedEngine) Summarize(ctx context.Context, partition, from, to string) (*Summary, error) {
	fromDay, err := validation.Date("from", from)
	if err != nil {
		return nil, err
	}
	toDay, err := validation.Date("to", to)
	if err != nil {
		return nil, err
	}
	if fromDay > toDay {
		return nil, validation.Errorf("range", "from %s is after to %s", fromDay, toDay)
	}

	entries, err := e.ListEntries(ctx, partition)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Dates: expandRange(fromDay, toDay)}
	dateIndex := make(map[string]int, len(summary.Dates))
	for i, d := range summary.Dates {
		dateIndex[d] = i
	}

	var items []string
	latestDate := make(map[string]string)
	currentStock := make(map[string]int)
	newStock := make(map[string]int)
	soldByDate := make(map[string][]int)
	for _, entry := range entries {
		if _, ok := latestDate[entry.Item]; !ok {
			items = append(items, entry.Item)
			soldByDate[entry.Item] = make([]int, len(summary.Dates))
		}
		if entry.Date >= latestDate[entry.Item] {
			latestDate[entry.Item] = entry.Date
			currentStock[entry.Item] = entry.Final
		}
		if entry.Date >= fromDay && entry.Date <= toDay {
			newStock[entry.Item] += entry.New
			if i, ok := dateIndex[entry.Date]; ok {
				soldByDate[entry.Item][i] += entry.Sold
			}
		}
	}

	for _, item := range items {
		is := ItemSummary{
			Item:         item,
			CurrentStock: currentStock[item],
			NewStock:     newStock[item],
			SoldByDate:   soldByDate[item],
		}
		for _, qty := range is.SoldByDate {
			is.TotalSold += qty
		}
		summary.Items = append(summary.Items, is)
	}
	return summary, nil
}

func expandRange(from, to string) []string {
	start, _ := time.Parse(validation.DateFormat, from)
	end, _ := time.Parse(validation.DateFormat, to)
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(validation.DateFormat))
	}
	return dates
}
