package postgres

import (
	"context"
	"testing"
	"time"

	"handle-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)
	rec := &domain.IdempotencyRecord{
		Key:           "uid-a:key-1",
		RequestHash:   "abc123",
		TransactionID: uuid.New(),
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}

	mock.ExpectExec("INSERT INTO idempotency_logs").
		WithArgs(rec.Key, rec.RequestHash, rec.TransactionID, rec.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.Create(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepo_Create_DuplicateKey(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)
	rec := &domain.IdempotencyRecord{Key: "uid-a:key-1", RequestHash: "abc", TransactionID: uuid.New(), CreatedAt: time.Now().UTC()}

	mock.ExpectExec("INSERT INTO idempotency_logs").
		WithArgs(rec.Key, rec.RequestHash, rec.TransactionID, rec.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: codeUniqueViolation})

	err = repo.Create(context.Background(), rec)
	assert.ErrorIs(t, err, domain.ErrWriteConflict)
}

func TestIdempotencyRepo_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)
	txID := uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)

	mock.ExpectQuery("SELECT .+ FROM idempotency_logs WHERE key").
		WithArgs("uid-a:key-1").
		WillReturnRows(pgxmock.NewRows([]string{"key", "request_hash", "transaction_id", "created_at"}).
			AddRow("uid-a:key-1", "abc123", txID, now))

	result, err := repo.Get(context.Background(), "uid-a:key-1")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, txID, result.TransactionID)
	assert.Equal(t, "abc123", result.RequestHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepo_Get_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM idempotency_logs WHERE key").
		WithArgs("nonexistent-key").
		WillReturnRows(pgxmock.NewRows([]string{"key", "request_hash", "transaction_id", "created_at"}))

	result, err := repo.Get(context.Background(), "nonexistent-key")
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}
