package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRange indicates a malformed or inverted date range.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrDataAccess wraps ledger read failures so callers can abort a single
	// analytic without affecting the others.
	ErrDataAccess = errors.New("ledger unavailable")
)
