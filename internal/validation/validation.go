// Package validation holds the input checks shared by the ledger and stock
// engines. The original system relied on its input widgets for numeric
// bounds and accepted everything else silently; here the checks are explicit
// and an engine rejects bad input before touching the backend.
package validation

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the wire format for calendar dates, ISO-8601 day precision.
const DateFormat = "2006-01-02"

// Error is a rejected-input error. It is reported to the caller as a bad
// request, never retried.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Errorf builds a validation Error for field.
func Errorf(field, format string, args ...interface{}) error {
	return &Error{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a validation Error.
func IsValidation(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

// NonEmpty rejects blank strings.
func NonEmpty(field, value string) error {
	if value == "" {
		return Errorf(field, "must not be empty")
	}
	return nil
}

// Date parses value as a calendar date and returns it normalized to
// YYYY-MM-DD. Single-digit month/day input is accepted.
func Date(field, value string) (string, error) {
	if value == "" {
		return "", Errorf(field, "must not be empty")
	}
	t, err := time.Parse(DateFormat, value)
	if err != nil {
		// Permissive fallback for un-padded dates like 2024-1-5.
		t, err = time.Parse("2006-1-2", value)
		if err != nil {
			return "", Errorf(field, "%q is not a valid date (want YYYY-MM-DD)", value)
		}
	}
	return t.Format(DateFormat), nil
}

// NonNegative rejects negative counts.
func NonNegative(field string, n int) error {
	if n < 0 {
		return Errorf(field, "must not be negative (got %d)", n)
	}
	return nil
}

// NonNegativeAmount rejects negative money amounts.
func NonNegativeAmount(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return Errorf(field, "must not be negative (got %s)", d.String())
	}
	return nil
}
