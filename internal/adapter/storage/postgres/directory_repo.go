package postgres

import (
	"context"
	"errors"

	"handle-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// DirectoryRepo implements ports.DirectoryRepository on account_handles.
// The handle is the primary key and account_id is unique, so the mapping
// stays injective even across concurrent claims.
type DirectoryRepo struct {
	db DBTX
}

// NewDirectoryRepo creates a new DirectoryRepo.
func NewDirectoryRepo(db DBTX) *DirectoryRepo {
	return &DirectoryRepo{db: db}
}

func (r *DirectoryRepo) Resolve(ctx context.Context, handle string) (string, error) {
	var accountID string
	err := r.db.QueryRow(ctx, `SELECT account_id FROM account_handles WHERE handle = $1`, handle).Scan(&accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", wrapErr("resolve handle", err)
	}
	return accountID, nil
}

func (r *DirectoryRepo) HandleOf(ctx context.Context, accountID string) (string, error) {
	var handle string
	err := r.db.QueryRow(ctx, `SELECT handle FROM account_handles WHERE account_id = $1`, accountID).Scan(&handle)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", wrapErr("get handle", err)
	}
	return handle, nil
}

// Bind upserts on account_id; a handle owned by someone else trips the
// primary key and surfaces as a write conflict.
func (r *DirectoryRepo) Bind(ctx context.Context, h *domain.Handle) error {
	query := `INSERT INTO account_handles (handle, account_id, claimed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id) DO UPDATE SET handle = EXCLUDED.handle, claimed_at = EXCLUDED.claimed_at`

	if _, err := r.db.Exec(ctx, query, h.Handle, h.AccountID, h.ClaimedAt); err != nil {
		return wrapErr("bind handle", err)
	}
	return nil
}
