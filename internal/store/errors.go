package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a delete/update target row is absent.
	ErrNotFound = errors.New("row not found")

	// ErrPartitionNotFound is returned when the named partition does not exist.
	ErrPartitionNotFound = errors.New("partition not found")

	// ErrPartitionExists is returned by CreatePartition for a duplicate name.
	ErrPartitionExists = errors.New("partition already exists")

	// ErrSchemaMismatch is returned when a partition header does not match
	// the schema an engine expects. Engines fail fast instead of misaligning
	// columns.
	ErrSchemaMismatch = errors.New("partition schema mismatch")
)

// TransientError marks a backend failure that is worth retrying: network
// trouble, rate limits, a concurrently held workbook file. The retry
// decorator only retries errors wrapped in this type.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient backend error during %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientError. Returns nil for a nil err.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Op: op, Err: err}
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
