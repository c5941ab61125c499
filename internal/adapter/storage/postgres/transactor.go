package postgres

import (
	"context"
	"errors"
	"time"

	"handle-ledger/internal/core/domain"
	"handle-ledger/internal/core/ports"
	"handle-ledger/pkg/retry"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// Transactor implements ports.Transactor on top of pgx transactions.
// Units run at READ COMMITTED; correctness comes from the version
// compare-and-set in AccountRepo.UpdateBalance and the unique constraints,
// and every conflict they report re-runs the unit.
type Transactor struct {
	pool   Pool
	policy retry.Policy
	log    zerolog.Logger
}

// NewTransactor creates a new Transactor wrapping the connection pool.
func NewTransactor(pool Pool, policy retry.Policy, log zerolog.Logger) *Transactor {
	policy.OnRetry = func(err error, wait time.Duration) {
		log.Debug().Err(err).Dur("wait", wait).Msg("write conflict, retrying unit")
	}
	return &Transactor{pool: pool, policy: policy, log: log}
}

// WithinTx runs fn in a fresh transaction per attempt.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, uow ports.UnitOfWork) error) error {
	return retry.Do(ctx, t.policy, isWriteConflict, func(ctx context.Context, _ int) error {
		return t.runOnce(ctx, fn)
	})
}

func (t *Transactor) runOnce(ctx context.Context, fn func(ctx context.Context, uow ports.UnitOfWork) error) (err error) {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return wrapErr("begin tx", err)
	}
	defer func() {
		if err != nil {
			// The caller may be gone; the rollback still has to reach the server.
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if err = fn(ctx, newUnitOfWork(tx)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return wrapErr("commit tx", err)
	}
	return nil
}

func isWriteConflict(err error) bool {
	return errors.Is(err, domain.ErrWriteConflict) || isConflict(err)
}

// unitOfWork binds every repository to the same pgx.Tx.
type unitOfWork struct {
	accounts     *AccountRepo
	directory    *DirectoryRepo
	transactions *TransactionRepo
	idempotency  *IdempotencyRepo
}

func newUnitOfWork(tx pgx.Tx) *unitOfWork {
	return &unitOfWork{
		accounts:     NewAccountRepo(tx),
		directory:    NewDirectoryRepo(tx),
		transactions: NewTransactionRepo(tx),
		idempotency:  NewIdempotencyRepo(tx),
	}
}

func (u *unitOfWork) Accounts() ports.AccountRepository         { return u.accounts }
func (u *unitOfWork) Directory() ports.DirectoryRepository      { return u.directory }
func (u *unitOfWork) Transactions() ports.TransactionRepository { return u.transactions }
func (u *unitOfWork) Idempotency() ports.IdempotencyRepository  { return u.idempotency }

