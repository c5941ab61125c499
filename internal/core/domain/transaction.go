package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionStatus represents the lifecycle state of a transaction.
// Only completed transfers are ever written.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
)

// TransactionEntry is an immutable record of one completed transfer.
type TransactionEntry struct {
	ID            uuid.UUID         `json:"id"`
	FromAccountID string            `json:"from_account_id"`
	ToAccountID   string            `json:"to_account_id"`
	Amount        int64             `json:"amount"` // In minor units
	Currency      string            `json:"currency"`
	Status        TransactionStatus `json:"status"`
	InitiatedBy   string            `json:"initiated_by"`
	CreatedAt     time.Time         `json:"created_at"`
}
