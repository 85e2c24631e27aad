package validate

import (
	"errors"
	"fmt"
)

// Sentinel kinds for structural log errors. These allow errors.Is from callers.
var (
	ErrEmptyLog        = errors.New("empty event log")
	ErrMixedGame       = errors.New("event belongs to another game")
	ErrOutOfOrder      = errors.New("events out of order")
	ErrClockRegression = errors.New("clock increases within period")
	ErrPeriodBoundary  = errors.New("inconsistent period boundary")
	ErrInvalidEvent    = errors.New("structurally invalid event")
)

// ValidationError locates a structural error in the log.
type ValidationError struct {
	Kind   error
	GameID string
	Order  int64
	Index  int
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("game %s: %v at index %d (order %d): %s", e.GameID, e.Kind, e.Index, e.Order, e.Detail)
}

func (e *ValidationError) Unwrap() error { return e.Kind }
