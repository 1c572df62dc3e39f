/*
errors.go - Error types for the vacation engine and its callers

ERROR CATEGORIES:
 1. Validation errors - malformed input, rejected before computation
 2. Balance errors    - requests the ledger cannot cover
 3. Lookup errors     - referenced records that do not exist

The engine itself only ever returns validation errors: insufficiency is a
reported decision, not a failure (see Decision.Shortfall). The service layer
converts shortfalls into ErrInsufficientBalance before touching storage, and
the API layer maps these sentinels onto HTTP status codes with errors.Is/As.
*/
package vacation

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned for a malformed date range (end before
	// start) or a non-positive day count.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrInvalidLabel is returned when a period label does not match the
	// expected "YYYY-YYYY" shape.
	ErrInvalidLabel = errors.New("invalid period label")

	// ErrInsufficientBalance is returned by callers when the total available
	// days cannot cover a request. Nothing is mutated in that case.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrNotFound is returned when a referenced employee, period or
	// movement does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrHireDateLocked is returned when changing a hire date that already
	// anchors existing periods.
	ErrHireDateLocked = errors.New("hire date is immutable once periods exist")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError reports the exact gap between a request and the
// days actually available across periods.
type InsufficientBalanceError struct {
	Requested int
	Available int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: %d days available, %d requested", e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
