package sim

import "errors"

// Validation errors: surfaced to the caller synchronously, never retried.
var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrBadIntent            = errors.New("invalid trade intent")
)

// ErrPositionNotFound is returned when a close targets an id with no open
// position.
var ErrPositionNotFound = errors.New("position not found")
