package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"handle-ledger/internal/core/domain"
	"handle-ledger/internal/core/ports"
	"handle-ledger/pkg/retry"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return NewStore(retry.Policy{MaxAttempts: 50, BaseDelay: time.Microsecond, MaxDelay: time.Millisecond}, zerolog.Nop())
}

func seed(s *Store, id string, balance int64) {
	s.Seed(domain.Account{ID: id, Balance: balance, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()})
}

func getAccount(t *testing.T, s *Store, id string) *domain.Account {
	t.Helper()
	var acc *domain.Account
	require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context, uow ports.UnitOfWork) error {
		var err error
		acc, err = uow.Accounts().GetByID(ctx, id)
		return err
	}))
	return acc
}

func TestStore_CreateAccount_Idempotent(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	now := time.Now().UTC()

	var first, second bool
	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
		var err error
		first, err = uow.Accounts().Create(ctx, domain.NewAccount("uid-1", now))
		return err
	}))
	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
		var err error
		second, err = uow.Accounts().Create(ctx, domain.NewAccount("uid-1", now))
		return err
	}))

	assert.True(t, first)
	assert.False(t, second)
	assert.Equal(t, int64(0), getAccount(t, s, "uid-1").Balance)
}

func TestStore_ErrorDiscardsWrites(t *testing.T) {
	s := newTestStore()
	seed(s, "a", 100)
	boom := errors.New("rejected")

	err := s.WithinTx(context.Background(), func(ctx context.Context, uow ports.UnitOfWork) error {
		acc, err := uow.Accounts().GetByID(ctx, "a")
		require.NoError(t, err)
		require.NoError(t, uow.Accounts().UpdateBalance(ctx, "a", 0, acc.Version))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(100), getAccount(t, s, "a").Balance)
}

func TestStore_ReadYourWrites(t *testing.T) {
	s := newTestStore()
	seed(s, "a", 100)

	require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context, uow ports.UnitOfWork) error {
		require.NoError(t, uow.Accounts().UpdateBalance(ctx, "a", 60, 0))
		acc, err := uow.Accounts().GetByID(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, int64(60), acc.Balance)
		assert.Equal(t, int64(1), acc.Version)

		// A second write in the same unit builds on the first.
		return uow.Accounts().UpdateBalance(ctx, "a", 90, acc.Version)
	}))

	acc := getAccount(t, s, "a")
	assert.Equal(t, int64(90), acc.Balance)
	assert.Equal(t, int64(2), acc.Version)
}

func TestStore_StaleVersionIsRetried(t *testing.T) {
	s := newTestStore()
	seed(s, "a", 100)

	attempts := 0
	require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context, uow ports.UnitOfWork) error {
		attempts++
		acc, err := uow.Accounts().GetByID(ctx, "a")
		if err != nil {
			return err
		}
		if attempts == 1 {
			// Someone else commits between our read and our commit.
			seed(s, "a", acc.Balance+1)
			s.mu.Lock()
			bumped := s.accounts["a"]
			bumped.Version++
			s.accounts["a"] = bumped
			s.mu.Unlock()
		}
		return uow.Accounts().UpdateBalance(ctx, "a", acc.Balance-10, acc.Version)
	}))

	assert.Equal(t, 2, attempts)
	assert.Equal(t, int64(91), getAccount(t, s, "a").Balance)
}

func TestStore_ConflictExhaustsRetries(t *testing.T) {
	s := NewStore(retry.Policy{MaxAttempts: 3, BaseDelay: time.Microsecond, MaxDelay: time.Millisecond}, zerolog.Nop())
	seed(s, "a", 100)

	attempts := 0
	err := s.WithinTx(context.Background(), func(ctx context.Context, uow ports.UnitOfWork) error {
		attempts++
		return uow.Accounts().UpdateBalance(ctx, "a", 1, 42)
	})

	assert.ErrorIs(t, err, domain.ErrWriteConflict)
	assert.ErrorIs(t, err, retry.ErrExhausted)
	assert.Equal(t, 3, attempts)
}

func TestStore_ConcurrentIncrementsAreNotLost(t *testing.T) {
	s := newTestStore()
	seed(s, "a", 0)

	const workers = 20
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithinTx(context.Background(), func(ctx context.Context, uow ports.UnitOfWork) error {
				acc, err := uow.Accounts().GetByID(ctx, "a")
				if err != nil {
					return err
				}
				return uow.Accounts().UpdateBalance(ctx, "a", acc.Balance+1, acc.Version)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(workers), getAccount(t, s, "a").Balance)
}

func TestStore_BindReplacesAndReleases(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	now := time.Now().UTC()

	bind := func(accountID, handle string) error {
		return s.WithinTx(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
			return uow.Directory().Bind(ctx, &domain.Handle{Handle: handle, AccountID: accountID, ClaimedAt: now})
		})
	}
	resolve := func(handle string) string {
		var id string
		require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
			var err error
			id, err = uow.Directory().Resolve(ctx, handle)
			return err
		}))
		return id
	}

	require.NoError(t, bind("a", "alice"))
	assert.Equal(t, "a", resolve("alice"))

	require.NoError(t, bind("a", "alicia"))
	assert.Equal(t, "a", resolve("alicia"))
	assert.Empty(t, resolve("alice"), "old handle is released")

	require.NoError(t, bind("b", "alice"), "released handle can be claimed by another account")
	assert.Equal(t, "b", resolve("alice"))
}

func TestStore_BindTakenHandleConflicts(t *testing.T) {
	s := NewStore(retry.Policy{MaxAttempts: 1}, zerolog.Nop())
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
		return uow.Directory().Bind(ctx, &domain.Handle{Handle: "alice", AccountID: "a", ClaimedAt: now})
	}))

	err := s.WithinTx(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
		return uow.Directory().Bind(ctx, &domain.Handle{Handle: "alice", AccountID: "b", ClaimedAt: now})
	})
	assert.ErrorIs(t, err, domain.ErrWriteConflict)
}

func TestStore_HandleOf(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
		h, err := uow.Directory().HandleOf(ctx, "a")
		require.NoError(t, err)
		assert.Empty(t, h)

		require.NoError(t, uow.Directory().Bind(ctx, &domain.Handle{Handle: "alice", AccountID: "a"}))
		h, err = uow.Directory().HandleOf(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "alice", h)
		return nil
	}))
}

func TestStore_TransactionsNewestFirst(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	base := time.Now().UTC()

	var ids []uuid.UUID
	for i := range 5 {
		e := domain.TransactionEntry{ID: uuid.New(), Amount: int64(i + 1), CreatedAt: base.Add(time.Duration(i) * time.Second)}
		ids = append(ids, e.ID)
		require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
			return uow.Transactions().Append(ctx, &e)
		}))
	}

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
		list, err := uow.Transactions().List(ctx, 3)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, ids[4], list[0].ID)
		assert.Equal(t, ids[3], list[1].ID)
		assert.Equal(t, ids[2], list[2].ID)

		got, err := uow.Transactions().GetByID(ctx, ids[0])
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(1), got.Amount)

		missing, err := uow.Transactions().GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, missing)
		return nil
	}))
}

func TestStore_IdempotencyKeyIsUnique(t *testing.T) {
	s := NewStore(retry.Policy{MaxAttempts: 1}, zerolog.Nop())
	ctx := context.Background()
	rec := &domain.IdempotencyRecord{Key: "a:k1", RequestHash: "h", TransactionID: uuid.New()}

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
		return uow.Idempotency().Create(ctx, rec)
	}))

	err := s.WithinTx(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
		got, err := uow.Idempotency().Get(ctx, "a:k1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, rec.TransactionID, got.TransactionID)
		return uow.Idempotency().Create(ctx, rec)
	})
	assert.ErrorIs(t, err, domain.ErrWriteConflict)
}

func TestStore_CancelledContextDoesNotCommit(t *testing.T) {
	s := newTestStore()
	seed(s, "a", 100)
	ctx, cancel := context.WithCancel(context.Background())

	err := s.WithinTx(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
		require.NoError(t, uow.Accounts().UpdateBalance(ctx, "a", 0, 0))
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(100), getAccount(t, s, "a").Balance)
}

func TestAuditRepo_Create(t *testing.T) {
	s := newTestStore()
	repo := NewAuditRepo(s)

	require.NoError(t, repo.Create(context.Background(), &domain.AuditLog{ID: uuid.New(), Action: domain.AuditActionTransfer}))

	logs := s.AuditLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, domain.AuditActionTransfer, logs[0].Action)
}
