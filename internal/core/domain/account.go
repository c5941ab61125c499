package domain

import (
	"math"
	"time"
)

// Account holds the balance of one principal, in minor units of the
// configured currency. The ID is the principal id issued by the identity
// provider.
type Account struct {
	ID        string    `json:"id"`
	Balance   int64     `json:"balance"`
	Version   int64     `json:"-"` // Optimistic concurrency token
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAccount returns a zero-balance account.
func NewAccount(id string, now time.Time) *Account {
	return &Account{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ApplyDelta adds delta to the balance in place.
// A result below zero returns ErrInsufficientFunds, a result past MaxInt64
// returns ErrBalanceOverflow; the account is left untouched in both cases.
func (a *Account) ApplyDelta(delta int64, now time.Time) error {
	if delta > 0 && a.Balance > math.MaxInt64-delta {
		return ErrBalanceOverflow
	}
	next := a.Balance + delta
	if next < 0 {
		return ErrInsufficientFunds
	}
	a.Balance = next
	a.UpdatedAt = now
	return nil
}
