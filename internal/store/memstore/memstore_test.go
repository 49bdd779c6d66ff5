package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BizBooks/internal/store"
)

func TestPartitionLifecycle(t *testing.T) {
	st := New()
	ctx := context.Background()
	header := store.Row{"item", "qty"}

	require.NoError(t, st.CreatePartition(ctx, "alpha", header))
	require.NoError(t, st.CreatePartition(ctx, "beta", header))
	assert.ErrorIs(t, st.CreatePartition(ctx, "alpha", header), store.ErrPartitionExists)

	names, err := st.ListPartitions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names)

	require.NoError(t, st.DeletePartition(ctx, "alpha"))
	names, err = st.ListPartitions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"beta"}, names)
	assert.ErrorIs(t, st.DeletePartition(ctx, "alpha"), store.ErrPartitionNotFound)
}

func TestRowOperations(t *testing.T) {
	st := New()
	ctx := context.Background()
	require.NoError(t, st.CreatePartition(ctx, "p", store.Row{"a", "b", "c"}))
	require.NoError(t, st.AppendRow(ctx, "p", store.Row{"1", "2", "3"}))
	require.NoError(t, st.AppendRow(ctx, "p", store.Row{"4", "5", "6"}))

	// Positions are 1-based with the header at row 1.
	require.NoError(t, st.UpdateRange(ctx, "p", 2, 2, []string{"x", "y"}))
	rows, err := st.ListRows(ctx, "p")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, store.Row{"1", "x", "y"}, rows[1])

	require.NoError(t, st.DeleteRow(ctx, "p", 2))
	rows, err = st.ListRows(ctx, "p")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, store.Row{"4", "5", "6"}, rows[1])

	assert.ErrorIs(t, st.DeleteRow(ctx, "p", 9), store.ErrNotFound)
	assert.ErrorIs(t, st.UpdateRange(ctx, "p", 0, 1, []string{"z"}), store.ErrNotFound)
	_, err = st.ListRows(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrPartitionNotFound)
}

func TestUpdateRangeGrowsRow(t *testing.T) {
	st := New()
	ctx := context.Background()
	require.NoError(t, st.CreatePartition(ctx, "p", store.Row{"a"}))
	require.NoError(t, st.AppendRow(ctx, "p", store.Row{"1"}))

	require.NoError(t, st.UpdateRange(ctx, "p", 2, 3, []string{"x"}))
	rows, err := st.ListRows(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, store.Row{"1", "", "x"}, rows[1])
}

func TestListRowsReturnsCopies(t *testing.T) {
	st := New()
	ctx := context.Background()
	require.NoError(t, st.CreatePartition(ctx, "p", store.Row{"a"}))
	require.NoError(t, st.AppendRow(ctx, "p", store.Row{"1"}))

	rows, err := st.ListRows(ctx, "p")
	require.NoError(t, err)
	rows[1][0] = "mutated"

	again, err := st.ListRows(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "1", again[1][0], "callers must not reach the backing rows")
}
