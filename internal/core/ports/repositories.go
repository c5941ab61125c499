package ports

import (
	"context"

	"handle-ledger/internal/core/domain"

	"github.com/google/uuid"
)

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	// Create inserts a zero-balance account. Returns false if it already existed.
	Create(ctx context.Context, account *domain.Account) (bool, error)
	// GetByID returns nil, nil when the account does not exist.
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// UpdateBalance writes the balance if the stored version still equals
	// expectedVersion and bumps the version. A moved version returns
	// domain.ErrWriteConflict.
	UpdateBalance(ctx context.Context, id string, balance int64, expectedVersion int64) error
}

// DirectoryRepository defines persistence for handle bindings.
type DirectoryRepository interface {
	// Resolve returns "" when no account holds the handle.
	Resolve(ctx context.Context, handle string) (string, error)
	// HandleOf returns "" when the account has no handle.
	HandleOf(ctx context.Context, accountID string) (string, error)
	// Bind sets the account's handle, replacing any previous one.
	// A handle held by another account returns domain.ErrWriteConflict.
	Bind(ctx context.Context, h *domain.Handle) error
}

// TransactionRepository defines persistence operations for the transaction log.
type TransactionRepository interface {
	Append(ctx context.Context, entry *domain.TransactionEntry) error
	// GetByID returns nil, nil when the entry does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TransactionEntry, error)
	// List returns at most limit entries, newest first.
	List(ctx context.Context, limit int) ([]domain.TransactionEntry, error)
}

// IdempotencyRepository defines persistence for idempotency records (durable layer).
type IdempotencyRepository interface {
	// Create returns domain.ErrWriteConflict if the key is already recorded.
	Create(ctx context.Context, record *domain.IdempotencyRecord) error
	// Get returns nil, nil when the key is unknown.
	Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error)
}

// AuditRepository defines persistence for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

// UnitOfWork exposes repositories bound to one atomic unit.
type UnitOfWork interface {
	Accounts() AccountRepository
	Directory() DirectoryRepository
	Transactions() TransactionRepository
	Idempotency() IdempotencyRepository
}

// Transactor runs fn as one all-or-nothing unit. When the unit fails with
// domain.ErrWriteConflict, fn is run again from scratch against fresh state
// until the attempt budget is spent; the final error then still wraps
// domain.ErrWriteConflict.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}
