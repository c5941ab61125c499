package service

import (
	"context"
	"io"
	"testing"
	"time"

	"handle-ledger/internal/adapter/storage/memory"
	"handle-ledger/internal/core/domain"
	"handle-ledger/internal/core/ports"
	"handle-ledger/internal/core/ports/mocks"
	"handle-ledger/pkg/retry"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newTestStore() *memory.Store {
	return memory.NewStore(retry.Policy{MaxAttempts: 100, BaseDelay: time.Microsecond, MaxDelay: 2 * time.Millisecond}, newTestLogger())
}

// ledgerFixture wires the real services over an in-process store.
type ledgerFixture struct {
	store     *memory.Store
	accounts  *AccountServiceImpl
	directory *DirectoryServiceImpl
	ledger    *LedgerServiceImpl
	query     *TransactionQueryServiceImpl
}

func newLedgerFixture(t *testing.T, cfg LedgerConfig) *ledgerFixture {
	t.Helper()
	if cfg.Currency == "" {
		cfg.Currency = "KRW"
	}
	store := newTestStore()
	dir := NewDirectoryService(store, newTestLogger())
	return &ledgerFixture{
		store:     store,
		accounts:  NewAccountService(store, cfg.Currency, newTestLogger()),
		directory: dir,
		ledger:    NewLedgerService(store, dir, nil, cfg, newTestLogger()),
		query:     NewTransactionQueryService(store, 200, 500, newTestLogger()),
	}
}

// open bootstraps an account with the given balance and handle ("" skips the claim).
func (f *ledgerFixture) open(t *testing.T, id, handle string, balance int64) {
	t.Helper()
	ctx := context.Background()
	_, _, err := f.accounts.EnsureAccount(ctx, id)
	require.NoError(t, err)
	if balance > 0 {
		now := time.Now().UTC()
		f.store.Seed(domain.Account{ID: id, Balance: balance, CreatedAt: now, UpdatedAt: now})
	}
	if handle != "" {
		_, err = f.directory.ClaimUsername(ctx, id, handle)
		require.NoError(t, err)
	}
}

func (f *ledgerFixture) balance(t *testing.T, id string) int64 {
	t.Helper()
	view, err := f.accounts.GetAccount(context.Background(), id)
	require.NoError(t, err)
	return view.Account.Balance
}

// passThroughTx makes a mock transactor run fn once against uow.
func passThroughTx(transactor *mocks.MockTransactor, uow ports.UnitOfWork) *gomock.Call {
	return transactor.EXPECT().WithinTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context, ports.UnitOfWork) error) error {
			return fn(ctx, uow)
		},
	)
}

// mockUnit is a UnitOfWork made of mock repositories.
type mockUnit struct {
	ctrl         *gomock.Controller
	uow          *mocks.MockUnitOfWork
	accounts     *mocks.MockAccountRepository
	directory    *mocks.MockDirectoryRepository
	transactions *mocks.MockTransactionRepository
	idempotency  *mocks.MockIdempotencyRepository
}

func newMockUnit(ctrl *gomock.Controller) *mockUnit {
	m := &mockUnit{
		ctrl:         ctrl,
		uow:          mocks.NewMockUnitOfWork(ctrl),
		accounts:     mocks.NewMockAccountRepository(ctrl),
		directory:    mocks.NewMockDirectoryRepository(ctrl),
		transactions: mocks.NewMockTransactionRepository(ctrl),
		idempotency:  mocks.NewMockIdempotencyRepository(ctrl),
	}
	m.uow.EXPECT().Accounts().Return(m.accounts).AnyTimes()
	m.uow.EXPECT().Directory().Return(m.directory).AnyTimes()
	m.uow.EXPECT().Transactions().Return(m.transactions).AnyTimes()
	m.uow.EXPECT().Idempotency().Return(m.idempotency).AnyTimes()
	return m
}
