package service

import (
	"context"
	"testing"

	"handle-ledger/internal/core/domain"
	"handle-ledger/internal/core/ports/mocks"
	"handle-ledger/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestTransactionQueryService_RequiresPrivilege(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transactor := mocks.NewMockTransactor(ctrl) // must not be called
	svc := NewTransactionQueryService(transactor, 200, 500, newTestLogger())

	_, err := svc.ListTransactions(context.Background(), 10, false)
	assert.True(t, apperror.HasCode(err, apperror.CodePermissionDenied))
}

func TestTransactionQueryService_Limits(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		want      int
	}{
		{"default when zero", 0, 200},
		{"default when negative", -5, 200},
		{"pass through", 50, 50},
		{"at cap", 500, 500},
		{"capped", 10_000, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			transactor := mocks.NewMockTransactor(ctrl)
			u := newMockUnit(ctrl)
			svc := NewTransactionQueryService(transactor, 200, 500, newTestLogger())

			passThroughTx(transactor, u.uow)
			u.transactions.EXPECT().List(gomock.Any(), tt.want).Return([]domain.TransactionEntry{}, nil)

			entries, err := svc.ListTransactions(context.Background(), tt.requested, true)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestTransactionQueryService_NewestFirst(t *testing.T) {
	f := newLedgerFixture(t, LedgerConfig{})
	f.open(t, "uid-a", "alice", 100)
	f.open(t, "uid-b", "bob", 0)
	ctx := context.Background()

	first, err := f.ledger.Transfer(ctx, transferReq("uid-a", "bob", "1"))
	require.NoError(t, err)
	second, err := f.ledger.Transfer(ctx, transferReq("uid-a", "bob", "2"))
	require.NoError(t, err)

	entries, err := f.query.ListTransactions(ctx, 0, true)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	if first.CreatedAt.Equal(second.CreatedAt) {
		t.Skip("clock did not advance between transfers")
	}
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, first.ID, entries[1].ID)
}
