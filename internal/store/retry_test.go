package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails each operation a configured number of times before
// letting it through.
type flakyStore struct {
	failures int
	err      error
	calls    map[string]int
}

func newFlakyStore(failures int, err error) *flakyStore {
	return &flakyStore{failures: failures, err: err, calls: make(map[string]int)}
}

func (f *flakyStore) attempt(op string) error {
	f.calls[op]++
	if f.calls[op] <= f.failures {
		return f.err
	}
	return nil
}

func (f *flakyStore) ListRows(ctx context.Context, partition string) ([]Row, error) {
	return nil, f.attempt("ListRows")
}

func (f *flakyStore) ListPartitions(ctx context.Context) ([]string, error) {
	return nil, f.attempt("ListPartitions")
}

func (f *flakyStore) AppendRow(ctx context.Context, partition string, row Row) error {
	return f.attempt("AppendRow")
}

func (f *flakyStore) UpdateRange(ctx context.Context, partition string, rowPos, startCol int, values []string) error {
	return f.attempt("UpdateRange")
}

func (f *flakyStore) DeleteRow(ctx context.Context, partition string, rowPos int) error {
	return f.attempt("DeleteRow")
}

func (f *flakyStore) CreatePartition(ctx context.Context, name string, header Row) error {
	return f.attempt("CreatePartition")
}

func (f *flakyStore) DeletePartition(ctx context.Context, name string) error {
	return f.attempt("DeletePartition")
}

func TestRetryRecoversFromTransientFailures(t *testing.T) {
	inner := newFlakyStore(2, Transient("append row", errors.New("workbook locked")))
	st := WithRetry(inner, 3, time.Millisecond)

	err := st.AppendRow(context.Background(), "p", Row{"a"})
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls["AppendRow"])
}

func TestRetryExhaustionReturnsLastError(t *testing.T) {
	cause := Transient("append row", errors.New("workbook locked"))
	inner := newFlakyStore(10, cause)
	st := WithRetry(inner, 3, time.Millisecond)

	err := st.AppendRow(context.Background(), "p", Row{"a"})
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Equal(t, 3, inner.calls["AppendRow"], "the budget is a hard cap")
}

func TestRetrySkipsTerminalErrors(t *testing.T) {
	inner := newFlakyStore(10, ErrPartitionNotFound)
	st := WithRetry(inner, 3, time.Millisecond)

	err := st.AppendRow(context.Background(), "p", Row{"a"})
	assert.ErrorIs(t, err, ErrPartitionNotFound)
	assert.Equal(t, 1, inner.calls["AppendRow"], "terminal errors surface immediately")
}

func TestRetryNeverRetriesReads(t *testing.T) {
	inner := newFlakyStore(1, Transient("read", errors.New("workbook locked")))
	st := WithRetry(inner, 3, time.Millisecond)

	_, err := st.ListRows(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls["ListRows"])

	_, err = st.ListPartitions(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls["ListPartitions"])
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	inner := newFlakyStore(10, Transient("append row", errors.New("workbook locked")))
	st := WithRetry(inner, 3, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := st.AppendRow(ctx, "p", Row{"a"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, inner.calls["AppendRow"])
}

func TestTransientWrapping(t *testing.T) {
	cause := errors.New("boom")
	err := Transient("append row", cause)
	assert.True(t, IsTransient(err))
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsTransient(cause))
	assert.False(t, IsTransient(nil))
}
