package dto

import "github.com/shopspring/decimal"

// AccountResponse is the balance view of the caller's account.
type AccountResponse struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username,omitempty"`
	Balance   int64  `json:"balance"`
	Currency  string `json:"currency"`
	CreatedAt string `json:"created_at"`
}

// ClaimUsernameRequest is the request body for claiming a handle.
type ClaimUsernameRequest struct {
	Username string `json:"username" binding:"required,handle"`
}

// ClaimUsernameResponse echoes the normalized handle.
type ClaimUsernameResponse struct {
	Username string `json:"username"`
}

// TransferRequest is the request body for a transfer. Amount accepts a JSON
// number or a decimal string; the fractional part is dropped.
type TransferRequest struct {
	ToUsername string           `json:"to_username" binding:"required"`
	Amount     *decimal.Decimal `json:"amount" binding:"required"`
}

// TransferHeaders carries the optional client idempotency key.
type TransferHeaders struct {
	IdempotencyKey string `header:"Idempotency-Key" binding:"omitempty,max=128,safe_id"`
}

// TransactionResponse is one entry of the transaction log.
type TransactionResponse struct {
	ID            string `json:"id"`
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	InitiatedBy   string `json:"initiated_by"`
	CreatedAt     string `json:"created_at"`
}

// TransactionListResponse wraps the admin listing.
type TransactionListResponse struct {
	Items []TransactionResponse `json:"items"`
	Count int                   `json:"count"`
}

// ListTransactionsQuery binds the admin listing query string.
type ListTransactionsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=0"`
}
