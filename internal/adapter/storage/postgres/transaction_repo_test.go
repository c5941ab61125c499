package postgres

import (
	"context"
	"testing"
	"time"

	"handle-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txColumns() []string {
	return []string{"id", "from_account_id", "to_account_id", "amount", "currency", "status", "initiated_by", "created_at"}
}

func newTestEntry(createdAt time.Time) *domain.TransactionEntry {
	return &domain.TransactionEntry{
		ID:            uuid.New(),
		FromAccountID: "uid-a",
		ToAccountID:   "uid-b",
		Amount:        100,
		Currency:      "KRW",
		Status:        domain.TransactionStatusCompleted,
		InitiatedBy:   "uid-a",
		CreatedAt:     createdAt,
	}
}

func addEntryRow(rows *pgxmock.Rows, e *domain.TransactionEntry) *pgxmock.Rows {
	return rows.AddRow(e.ID, e.FromAccountID, e.ToAccountID, e.Amount, e.Currency, e.Status, e.InitiatedBy, e.CreatedAt)
}

func TestTransactionRepo_Append(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	e := newTestEntry(time.Now().UTC().Truncate(time.Microsecond))

	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(e.ID, e.FromAccountID, e.ToAccountID, e.Amount, e.Currency, e.Status, e.InitiatedBy, e.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Append(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	e := newTestEntry(time.Now().UTC().Truncate(time.Microsecond))

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE id").
		WithArgs(e.ID).
		WillReturnRows(addEntryRow(pgxmock.NewRows(txColumns()), e))

	got, err := repo.GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *e, *got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(txColumns()))

	got, err := repo.GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestTransactionRepo_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	now := time.Now().UTC().Truncate(time.Microsecond)
	newer := newTestEntry(now)
	older := newTestEntry(now.Add(-time.Minute))

	rows := pgxmock.NewRows(txColumns())
	addEntryRow(rows, newer)
	addEntryRow(rows, older)

	mock.ExpectQuery("SELECT .+ FROM transactions\\s+ORDER BY created_at DESC, id DESC\\s+LIMIT").
		WithArgs(2).
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, older.ID, got[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_List_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM transactions").
		WithArgs(200).
		WillReturnRows(pgxmock.NewRows(txColumns()))

	got, err := repo.List(context.Background(), 200)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
