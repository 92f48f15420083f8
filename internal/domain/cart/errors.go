package cart

import "errors"

var (
	ErrInvalidUnit     = errors.New("unit must be positive")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrItemNotFound    = errors.New("cart item not found")
	ErrNoPendingMerge  = errors.New("no pending cart merge")
	ErrMergeInProgress = errors.New("cart merge already in progress")
	ErrMergeRejected   = errors.New("cart merge rejected")
	// ErrSessionChanged reports a mutation that completed after the shopper logged out
	// or switched member.
	ErrSessionChanged = errors.New("cart owner changed during request")
)
