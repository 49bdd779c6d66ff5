package stock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BizBooks/internal/store"
	"BizBooks/internal/store/memstore"
	"BizBooks/internal/validation"
)

const testCompany = "Sharma Distributors"

func newDatedFixture(t *testing.T) (*DatedEngine, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	require.NoError(t, st.CreatePartition(context.Background(), testCompany, DatedHeader))
	return NewDatedEngine(st), st
}

func TestSaveEntriesSingleDate(t *testing.T) {
	engine, _ := newDatedFixture(t)
	saved, err := engine.SaveEntries(context.Background(), testCompany, "Widget", 10, 5,
		[]Sale{{Date: "2024-01-01", Qty: 2}})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, Entry{Item: "Widget", Date: "2024-01-01", Current: 10, New: 5, Sold: 2, Final: 13}, saved[0])
}

func TestSaveEntriesChainsAcrossDates(t *testing.T) {
	// The first date consumes the new stock; every later date opens with the
	// previous date's closing stock.
	engine, _ := newDatedFixture(t)
	saved, err := engine.SaveEntries(context.Background(), testCompany, "Widget", 10, 5,
		[]Sale{{Date: "2024-01-02", Qty: 2}, {Date: "2024-01-01", Qty: 2}})
	require.NoError(t, err)
	require.Len(t, saved, 2)

	// Out-of-order input is applied in ascending date order.
	assert.Equal(t, "2024-01-01", saved[0].Date)
	assert.Equal(t, 10, saved[0].Current)
	assert.Equal(t, 5, saved[0].New)
	assert.Equal(t, 13, saved[0].Final)

	assert.Equal(t, "2024-01-02", saved[1].Date)
	assert.Equal(t, 13, saved[1].Current)
	assert.Equal(t, 0, saved[1].New)
	assert.Equal(t, 11, saved[1].Final)
}

func TestSaveEntriesRepeatAccumulatesSold(t *testing.T) {
	engine, _ := newDatedFixture(t)
	ctx := context.Background()
	_, err := engine.SaveEntries(ctx, testCompany, "Widget", 10, 5, []Sale{{Date: "2024-01-01", Qty: 2}})
	require.NoError(t, err)

	// Re-saving the same date is not idempotent: sold_qty adds up while the
	// stock columns take the latest values.
	saved, err := engine.SaveEntries(ctx, testCompany, "Widget", 13, 0, []Sale{{Date: "2024-01-01", Qty: 3}})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, 5, saved[0].Sold)
	assert.Equal(t, 10, saved[0].Final)

	entries, err := engine.ListEntries(ctx, testCompany)
	require.NoError(t, err)
	require.Len(t, entries, 1, "upsert must not add a second row for the date")
	assert.Equal(t, 5, entries[0].Sold)
	assert.Equal(t, 13, entries[0].Current)
}

func TestSaveEntriesRejectsBadInput(t *testing.T) {
	engine, _ := newDatedFixture(t)
	ctx := context.Background()
	tests := []struct {
		name    string
		item    string
		current int
		new     int
		sales   []Sale
	}{
		{"empty item", "", 10, 0, []Sale{{Date: "2024-01-01", Qty: 1}}},
		{"negative current", "Widget", -1, 0, []Sale{{Date: "2024-01-01", Qty: 1}}},
		{"negative new", "Widget", 10, -1, []Sale{{Date: "2024-01-01", Qty: 1}}},
		{"no sales", "Widget", 10, 0, nil},
		{"bad date", "Widget", 10, 0, []Sale{{Date: "soon", Qty: 1}}},
		{"negative qty", "Widget", 10, 0, []Sale{{Date: "2024-01-01", Qty: -1}}},
		{"duplicate date", "Widget", 10, 0, []Sale{{Date: "2024-01-01", Qty: 1}, {Date: "2024-1-1", Qty: 2}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.SaveEntries(ctx, testCompany, tc.item, tc.current, tc.new, tc.sales)
			require.Error(t, err)
			assert.True(t, validation.IsValidation(err), "want validation error, got %v", err)
		})
	}

	entries, err := engine.ListEntries(ctx, testCompany)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected batches must not write anything")
}

func TestAutofillOpeningStock(t *testing.T) {
	engine, _ := newDatedFixture(t)
	ctx := context.Background()

	opening, err := engine.AutofillOpeningStock(ctx, testCompany, "Widget")
	require.NoError(t, err)
	assert.Equal(t, 0, opening, "unknown item autofills to zero")

	_, err = engine.SaveEntries(ctx, testCompany, "Widget", 10, 5,
		[]Sale{{Date: "2024-01-01", Qty: 2}, {Date: "2024-01-02", Qty: 2}})
	require.NoError(t, err)

	opening, err = engine.AutofillOpeningStock(ctx, testCompany, "Widget")
	require.NoError(t, err)
	assert.Equal(t, 11, opening, "latest date's final_stock wins")
}

func TestDeleteEntry(t *testing.T) {
	engine, _ := newDatedFixture(t)
	ctx := context.Background()
	_, err := engine.SaveEntries(ctx, testCompany, "Widget", 10, 0, []Sale{{Date: "2024-01-01", Qty: 2}})
	require.NoError(t, err)

	require.NoError(t, engine.DeleteEntry(ctx, testCompany, "Widget", "2024-01-01"))

	entries, err := engine.ListEntries(ctx, testCompany)
	require.NoError(t, err)
	assert.Empty(t, entries)

	err = engine.DeleteEntry(ctx, testCompany, "Widget", "2024-01-01")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSummarize(t *testing.T) {
	engine, _ := newDatedFixture(t)
	ctx := context.Background()
	_, err := engine.SaveEntries(ctx, testCompany, "Widget", 10, 4,
		[]Sale{{Date: "2024-01-01", Qty: 4}})
	require.NoError(t, err)
	_, err = engine.SaveEntries(ctx, testCompany, "Widget", 10, 7,
		[]Sale{{Date: "2024-01-03", Qty: 2}})
	require.NoError(t, err)
	_, err = engine.SaveEntries(ctx, testCompany, "Gasket", 20, 0,
		[]Sale{{Date: "2023-12-30", Qty: 5}})
	require.NoError(t, err)

	summary, err := engine.Summarize(ctx, testCompany, "2024-01-02", "2024-01-03")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-02", "2024-01-03"}, summary.Dates)
	require.Len(t, summary.Items, 2)

	widget := summary.Items[0]
	assert.Equal(t, "Widget", widget.Item)
	// Current stock is the latest final over ALL dates, not just the range.
	assert.Equal(t, 15, widget.CurrentStock)
	assert.Equal(t, 7, widget.NewStock)
	assert.Equal(t, []int{0, 2}, widget.SoldByDate)
	assert.Equal(t, 2, widget.TotalSold)

	// Gasket has no activity in the range but still shows up.
	gasket := summary.Items[1]
	assert.Equal(t, "Gasket", gasket.Item)
	assert.Equal(t, 15, gasket.CurrentStock)
	assert.Equal(t, 0, gasket.NewStock)
	assert.Equal(t, []int{0, 0}, gasket.SoldByDate)
	assert.Equal(t, 0, gasket.TotalSold)
}

func TestSummarizeRejectsInvertedRange(t *testing.T) {
	engine, _ := newDatedFixture(t)
	_, err := engine.Summarize(context.Background(), testCompany, "2024-01-03", "2024-01-01")
	require.Error(t, err)
	assert.True(t, validation.IsValidation(err))
}

func TestDatedSchemaMismatch(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	require.NoError(t, st.CreatePartition(ctx, testCompany, WeeklyHeader))
	engine := NewDatedEngine(st)

	_, err := engine.ListEntries(ctx, testCompany)
	assert.ErrorIs(t, err, store.ErrSchemaMismatch)
}
