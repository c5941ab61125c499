// Package memory is an in-process storage driver with optimistic
// concurrency. Each unit of work reads committed state, buffers its writes
// and validates them at commit; anything that moved underneath it is
// reported as domain.ErrWriteConflict so the unit is re-run.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"handle-ledger/internal/core/domain"
	"handle-ledger/pkg/retry"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store holds all committed state.
type Store struct {
	mu           sync.RWMutex
	accounts     map[string]domain.Account
	handles      map[string]string        // handle -> account id
	bindings     map[string]domain.Handle // account id -> binding
	transactions map[uuid.UUID]domain.TransactionEntry
	idempotency  map[string]domain.IdempotencyRecord
	audit        []domain.AuditLog

	policy retry.Policy
	log    zerolog.Logger
}

// NewStore creates an empty Store.
func NewStore(policy retry.Policy, log zerolog.Logger) *Store {
	policy.OnRetry = func(err error, wait time.Duration) {
		log.Debug().Err(err).Dur("wait", wait).Msg("write conflict, retrying unit")
	}
	return &Store{
		accounts:     make(map[string]domain.Account),
		handles:      make(map[string]string),
		bindings:     make(map[string]domain.Handle),
		transactions: make(map[uuid.UUID]domain.TransactionEntry),
		idempotency:  make(map[string]domain.IdempotencyRecord),
		policy:       policy,
		log:          log,
	}
}

// Seed writes an account directly, bypassing the ledger. Fixtures only.
func (s *Store) Seed(acc domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[acc.ID] = acc
}

// TotalBalance sums every committed balance.
func (s *Store) TotalBalance() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, a := range s.accounts {
		total += a.Balance
	}
	return total
}

// AuditLogs returns a copy of the committed audit trail.
func (s *Store) AuditLogs() []domain.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.audit)
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string { return "memory" }

// Ping implements ports.HealthChecker.
func (s *Store) Ping(context.Context) error { return nil }

// listTransactions returns committed entries newest first.
func (s *Store) listTransactions(limit int) []domain.TransactionEntry {
	s.mu.RLock()
	entries := make([]domain.TransactionEntry, 0, len(s.transactions))
	for _, e := range s.transactions {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	slices.SortFunc(entries, func(a, b domain.TransactionEntry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID.String(), a.ID.String())
	})
	if limit >= 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// AuditRepo implements ports.AuditRepository on a Store.
type AuditRepo struct {
	s *Store
}

// NewAuditRepo creates an AuditRepo backed by s.
func NewAuditRepo(s *Store) *AuditRepo {
	return &AuditRepo{s: s}
}

func (r *AuditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, *entry)
	return nil
}
