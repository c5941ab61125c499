package memory

import (
	"context"
	"errors"
	"fmt"

	"handle-ledger/internal/core/domain"
	"handle-ledger/internal/core/ports"
	"handle-ledger/pkg/retry"

	"github.com/google/uuid"
)

// WithinTx implements ports.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, uow ports.UnitOfWork) error) error {
	return retry.Do(ctx, s.policy, isWriteConflict, func(ctx context.Context, _ int) error {
		u := newUnit(s)
		if err := fn(ctx, u); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return u.commit()
	})
}

func isWriteConflict(err error) bool {
	return errors.Is(err, domain.ErrWriteConflict)
}

// stagedAccount is a buffered balance write together with the version it
// was based on.
type stagedAccount struct {
	baseVersion int64
	account     domain.Account
}

// unit buffers the writes of one attempt.
type unit struct {
	s *Store

	created     map[string]domain.Account
	updated     map[string]*stagedAccount
	bound       map[string]domain.Handle // account id -> new binding
	appended    []domain.TransactionEntry
	idempotency map[string]domain.IdempotencyRecord
}

func newUnit(s *Store) *unit {
	return &unit{
		s:           s,
		created:     make(map[string]domain.Account),
		updated:     make(map[string]*stagedAccount),
		bound:       make(map[string]domain.Handle),
		idempotency: make(map[string]domain.IdempotencyRecord),
	}
}

func (u *unit) Accounts() ports.AccountRepository         { return accountRepo{u} }
func (u *unit) Directory() ports.DirectoryRepository      { return directoryRepo{u} }
func (u *unit) Transactions() ports.TransactionRepository { return transactionRepo{u} }
func (u *unit) Idempotency() ports.IdempotencyRepository  { return idempotencyRepo{u} }

// commit validates every buffered write against committed state and
// applies them all, or none.
func (u *unit) commit() error {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range u.created {
		if _, ok := s.accounts[id]; ok {
			return fmt.Errorf("account %s created concurrently: %w", id, domain.ErrWriteConflict)
		}
	}
	for id, st := range u.updated {
		cur, ok := s.accounts[id]
		if !ok {
			if _, pending := u.created[id]; pending {
				continue
			}
			return fmt.Errorf("account %s vanished: %w", id, domain.ErrWriteConflict)
		}
		if cur.Version != st.baseVersion {
			return fmt.Errorf("account %s moved from version %d to %d: %w",
				id, st.baseVersion, cur.Version, domain.ErrWriteConflict)
		}
	}
	for accountID, h := range u.bound {
		if owner, ok := s.handles[h.Handle]; ok && owner != accountID {
			return fmt.Errorf("handle %q taken concurrently: %w", h.Handle, domain.ErrWriteConflict)
		}
	}
	for key := range u.idempotency {
		if _, ok := s.idempotency[key]; ok {
			return fmt.Errorf("idempotency key %q recorded concurrently: %w", key, domain.ErrWriteConflict)
		}
	}

	for id, a := range u.created {
		s.accounts[id] = a
	}
	for id, st := range u.updated {
		s.accounts[id] = st.account
	}
	for accountID, h := range u.bound {
		if prev, ok := s.bindings[accountID]; ok {
			delete(s.handles, prev.Handle)
		}
		s.handles[h.Handle] = accountID
		s.bindings[accountID] = h
	}
	for _, e := range u.appended {
		s.transactions[e.ID] = e
	}
	for key, rec := range u.idempotency {
		s.idempotency[key] = rec
	}
	return nil
}

// account returns the unit's view of an account: buffered writes first,
// then committed state.
func (u *unit) account(id string) (domain.Account, bool) {
	if st, ok := u.updated[id]; ok {
		return st.account, true
	}
	if a, ok := u.created[id]; ok {
		return a, true
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	a, ok := u.s.accounts[id]
	return a, ok
}

type accountRepo struct{ u *unit }

func (r accountRepo) Create(_ context.Context, a *domain.Account) (bool, error) {
	if _, ok := r.u.account(a.ID); ok {
		return false, nil
	}
	r.u.created[a.ID] = *a
	return true, nil
}

func (r accountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	a, ok := r.u.account(id)
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r accountRepo) UpdateBalance(_ context.Context, id string, balance int64, expectedVersion int64) error {
	cur, ok := r.u.account(id)
	if !ok || cur.Version != expectedVersion {
		return fmt.Errorf("update balance of %s at version %d: %w", id, expectedVersion, domain.ErrWriteConflict)
	}

	st, staged := r.u.updated[id]
	if !staged {
		st = &stagedAccount{baseVersion: expectedVersion}
		r.u.updated[id] = st
	}
	cur.Balance = balance
	cur.Version = expectedVersion + 1
	st.account = cur
	return nil
}

type directoryRepo struct{ u *unit }

func (r directoryRepo) Resolve(_ context.Context, handle string) (string, error) {
	for accountID, h := range r.u.bound {
		if h.Handle == handle {
			return accountID, nil
		}
	}
	r.u.s.mu.RLock()
	defer r.u.s.mu.RUnlock()
	owner := r.u.s.handles[handle]
	if _, rebound := r.u.bound[owner]; rebound {
		// The owner moved to another handle inside this unit.
		return "", nil
	}
	return owner, nil
}

func (r directoryRepo) HandleOf(_ context.Context, accountID string) (string, error) {
	if h, ok := r.u.bound[accountID]; ok {
		return h.Handle, nil
	}
	r.u.s.mu.RLock()
	defer r.u.s.mu.RUnlock()
	return r.u.s.bindings[accountID].Handle, nil
}

func (r directoryRepo) Bind(ctx context.Context, h *domain.Handle) error {
	owner, err := r.Resolve(ctx, h.Handle)
	if err != nil {
		return err
	}
	if owner != "" && owner != h.AccountID {
		return fmt.Errorf("bind handle %q: %w", h.Handle, domain.ErrWriteConflict)
	}
	r.u.bound[h.AccountID] = *h
	return nil
}

type transactionRepo struct{ u *unit }

func (r transactionRepo) Append(_ context.Context, e *domain.TransactionEntry) error {
	r.u.appended = append(r.u.appended, *e)
	return nil
}

func (r transactionRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.TransactionEntry, error) {
	for _, e := range r.u.appended {
		if e.ID == id {
			return &e, nil
		}
	}
	r.u.s.mu.RLock()
	defer r.u.s.mu.RUnlock()
	e, ok := r.u.s.transactions[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// List only sees committed entries.
func (r transactionRepo) List(_ context.Context, limit int) ([]domain.TransactionEntry, error) {
	return r.u.s.listTransactions(limit), nil
}

type idempotencyRepo struct{ u *unit }

func (r idempotencyRepo) Create(_ context.Context, rec *domain.IdempotencyRecord) error {
	if _, ok := r.u.idempotency[rec.Key]; ok {
		return fmt.Errorf("idempotency key %q: %w", rec.Key, domain.ErrWriteConflict)
	}
	r.u.s.mu.RLock()
	_, exists := r.u.s.idempotency[rec.Key]
	r.u.s.mu.RUnlock()
	if exists {
		return fmt.Errorf("idempotency key %q: %w", rec.Key, domain.ErrWriteConflict)
	}
	r.u.idempotency[rec.Key] = *rec
	return nil
}

func (r idempotencyRepo) Get(_ context.Context, key string) (*domain.IdempotencyRecord, error) {
	if rec, ok := r.u.idempotency[key]; ok {
		return &rec, nil
	}
	r.u.s.mu.RLock()
	defer r.u.s.mu.RUnlock()
	rec, ok := r.u.s.idempotency[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}
