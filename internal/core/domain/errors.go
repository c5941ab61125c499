package domain

import "errors"

var (
	// ErrWriteConflict means the atomic unit observed state that changed
	// underneath it (version moved, unique key taken). The unit is retried.
	ErrWriteConflict = errors.New("write conflict")

	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBalanceOverflow   = errors.New("balance overflow")
	ErrInvalidHandle     = errors.New("handle must be at least 3 characters")
	ErrInvalidAmount     = errors.New("amount must be a positive whole number")

	ErrInvalidIdempotencyKey = errors.New("idempotency key must not contain ':'")
)
