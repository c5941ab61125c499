package postgres

import (
	"context"
	"errors"
	"fmt"

	"handle-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	db DBTX
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(db DBTX) *AccountRepo {
	return &AccountRepo{db: db}
}

// Create inserts the account unless one with the same id exists.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) (bool, error) {
	query := `INSERT INTO accounts (id, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`

	tag, err := r.db.Exec(ctx, query, a.ID, a.Balance, a.Version, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return false, wrapErr("insert account", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT id, balance, version, created_at, updated_at FROM accounts WHERE id = $1`

	a := &domain.Account{}
	err := r.db.QueryRow(ctx, query, id).Scan(&a.ID, &a.Balance, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get account", err)
	}
	return a, nil
}

// UpdateBalance is a compare-and-set on the account version.
func (r *AccountRepo) UpdateBalance(ctx context.Context, id string, balance int64, expectedVersion int64) error {
	query := `UPDATE accounts SET balance = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3`

	tag, err := r.db.Exec(ctx, query, balance, id, expectedVersion)
	if err != nil {
		return wrapErr("update balance", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update balance of %s at version %d: %w", id, expectedVersion, domain.ErrWriteConflict)
	}
	return nil
}
