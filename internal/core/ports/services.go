package ports

import (
	"context"
	"time"

	"handle-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(principalID string, privileged bool) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	PrincipalID string
	Privileged  bool
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error)
	Set(ctx context.Context, record *domain.IdempotencyRecord, ttl time.Duration) error
}

// AuditService records audit entries without blocking the caller.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// --- Service Ports (Business Logic) ---

// AccountService bootstraps accounts and renders the balance view.
type AccountService interface {
	// EnsureAccount creates the account on first contact. The bool reports
	// whether this call created it.
	EnsureAccount(ctx context.Context, accountID string) (*domain.Account, bool, error)
	GetAccount(ctx context.Context, accountID string) (*AccountView, error)
}

// AccountView is an account together with its handle and currency.
type AccountView struct {
	Account  domain.Account
	Handle   string // Empty until a username is claimed
	Currency string
}

// DirectoryService maps usernames to accounts.
type DirectoryService interface {
	ClaimUsername(ctx context.Context, accountID, handle string) (string, error)
	Resolve(ctx context.Context, handle string) (string, error)
}

// LedgerService moves funds between accounts.
type LedgerService interface {
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
}

// TransferResult is the entry a transfer produced. Replayed is set when an
// idempotency key matched an earlier transfer and nothing new was written.
type TransferResult struct {
	*domain.TransactionEntry
	Replayed bool
}

// TransferRequest holds the input of one transfer.
type TransferRequest struct {
	InitiatorID       string
	DestinationHandle string
	Amount            decimal.Decimal // Truncated toward zero before use
	IdempotencyKey    string          // Optional
}

// TransactionQueryService serves privileged reads of the transaction log.
type TransactionQueryService interface {
	ListTransactions(ctx context.Context, limit int, privileged bool) ([]domain.TransactionEntry, error)
}
