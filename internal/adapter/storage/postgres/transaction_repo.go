package postgres

import (
	"context"
	"errors"
	"fmt"

	"handle-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, from_account_id, to_account_id, amount, currency, status, initiated_by, created_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	db DBTX
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(db DBTX) *TransactionRepo {
	return &TransactionRepo{db: db}
}

// Append inserts a completed transfer.
func (r *TransactionRepo) Append(ctx context.Context, t *domain.TransactionEntry) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		t.ID, t.FromAccountID, t.ToAccountID, t.Amount,
		t.Currency, t.Status, t.InitiatedBy, t.CreatedAt,
	)
	if err != nil {
		return wrapErr("insert transaction", err)
	}
	return nil
}

// GetByID fetches a transaction by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TransactionEntry, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	t, err := scanTransaction(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get transaction", err)
	}
	return t, nil
}

// List returns the newest transactions first.
func (r *TransactionRepo) List(ctx context.Context, limit int) ([]domain.TransactionEntry, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, wrapErr("list transactions", err)
	}
	defer rows.Close()

	entries := make([]domain.TransactionEntry, 0, limit)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		entries = append(entries, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return entries, nil
}

func scanTransaction(row pgx.Row) (*domain.TransactionEntry, error) {
	t := &domain.TransactionEntry{}
	err := row.Scan(
		&t.ID, &t.FromAccountID, &t.ToAccountID, &t.Amount,
		&t.Currency, &t.Status, &t.InitiatedBy, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}
