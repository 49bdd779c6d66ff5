package store

import (
	"context"
	"log"
	"time"
)

// Retrying decorates a Store with the write retry policy: every mutating
// call is attempted up to Attempts times with a fixed Delay between
// attempts, as long as the failure is transient. Reads pass straight
// through, they are never retried. On exhaustion the last error surfaces
// unchanged so the caller sees a terminal failure with no partial write.
type Retrying struct {
	inner    Store
	attempts int
	delay    time.Duration
}

// WithRetry wraps s with the given retry budget. attempts < 1 is treated
// as a single attempt.
func WithRetry(s Store, attempts int, delay time.Duration) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrying{inner: s, attempts: attempts, delay: delay}
}

func (r *Retrying) ListRows(ctx context.Context, partition string) ([]Row, error) {
	return r.inner.ListRows(ctx, partition)
}

func (r *Retrying) ListPartitions(ctx context.Context) ([]string, error) {
	return r.inner.ListPartitions(ctx)
}

func (r *Retrying) AppendRow(ctx context.Context, partition string, row Row) error {
	return r.retry(ctx, "append row", func() error {
		return r.inner.AppendRow(ctx, partition, row)
	})
}

func (r *Retrying) UpdateRange(ctx context.Context, partition string, rowPos, startCol int, values []string) error {
	return r.retry(ctx, "update range", func() error {
		return r.inner.UpdateRange(ctx, partition, rowPos, startCol, values)
	})
}

func (r *Retrying) DeleteRow(ctx context.Context, partition string, rowPos int) error {
	return r.retry(ctx, "delete row", func() error {
		return r.inner.DeleteRow(ctx, partition, rowPos)
	})
}

func (r *Retrying) CreatePartition(ctx context.Context, name string, header Row) error {
	return r.retry(ctx, "create partition", func() error {
		return r.inner.CreatePartition(ctx, name, header)
	})
}

func (r *Retrying) DeletePartition(ctx context.Context, name string) error {
	return r.retry(ctx, "delete partition", func() error {
		return r.inner.DeletePartition(ctx, name)
	})
}

func (r *Retrying) retry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		if attempt == r.attempts {
			break
		}
		log.Printf("[WARN] %s failed (attempt %d/%d), retrying: %v", op, attempt, r.attempts, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.delay):
		}
	}
	return err
}
