package postgres

import (
	"context"
	"errors"

	"handle-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// IdempotencyRepo implements ports.IdempotencyRepository.
type IdempotencyRepo struct {
	db DBTX
}

// NewIdempotencyRepo creates a new IdempotencyRepo.
func NewIdempotencyRepo(db DBTX) *IdempotencyRepo {
	return &IdempotencyRepo{db: db}
}

// Create inserts an idempotency record. A duplicate key is a write conflict.
func (r *IdempotencyRepo) Create(ctx context.Context, rec *domain.IdempotencyRecord) error {
	query := `INSERT INTO idempotency_logs (key, request_hash, transaction_id, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(ctx, query, rec.Key, rec.RequestHash, rec.TransactionID, rec.CreatedAt)
	if err != nil {
		return wrapErr("insert idempotency log", err)
	}
	return nil
}

// Get fetches an idempotency record by key.
func (r *IdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	query := `SELECT key, request_hash, transaction_id, created_at FROM idempotency_logs WHERE key = $1`

	rec := &domain.IdempotencyRecord{}
	err := r.db.QueryRow(ctx, query, key).Scan(&rec.Key, &rec.RequestHash, &rec.TransactionID, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get idempotency log", err)
	}
	return rec, nil
}
