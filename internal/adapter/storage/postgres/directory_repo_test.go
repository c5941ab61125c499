package postgres

import (
	"context"
	"testing"
	"time"

	"handle-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryRepo_Resolve(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewDirectoryRepo(mock)

	mock.ExpectQuery("SELECT account_id FROM account_handles WHERE handle").
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows([]string{"account_id"}).AddRow("uid-a"))

	id, err := repo.Resolve(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "uid-a", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectoryRepo_Resolve_Unbound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewDirectoryRepo(mock)

	mock.ExpectQuery("SELECT account_id FROM account_handles").
		WithArgs("nobody").
		WillReturnRows(pgxmock.NewRows([]string{"account_id"}))

	id, err := repo.Resolve(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestDirectoryRepo_HandleOf(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewDirectoryRepo(mock)

	mock.ExpectQuery("SELECT handle FROM account_handles WHERE account_id").
		WithArgs("uid-a").
		WillReturnRows(pgxmock.NewRows([]string{"handle"}).AddRow("alice"))

	h, err := repo.HandleOf(context.Background(), "uid-a")
	require.NoError(t, err)
	assert.Equal(t, "alice", h)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectoryRepo_Bind(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewDirectoryRepo(mock)
	h := &domain.Handle{Handle: "alice", AccountID: "uid-a", ClaimedAt: time.Now().UTC()}

	mock.ExpectExec("INSERT INTO account_handles .+ ON CONFLICT \\(account_id\\) DO UPDATE").
		WithArgs(h.Handle, h.AccountID, h.ClaimedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Bind(context.Background(), h))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectoryRepo_Bind_HandleTaken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewDirectoryRepo(mock)
	h := &domain.Handle{Handle: "alice", AccountID: "uid-b", ClaimedAt: time.Now().UTC()}

	mock.ExpectExec("INSERT INTO account_handles").
		WithArgs(h.Handle, h.AccountID, h.ClaimedAt).
		WillReturnError(&pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "account_handles_pkey"})

	err = repo.Bind(context.Background(), h)
	assert.ErrorIs(t, err, domain.ErrWriteConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
