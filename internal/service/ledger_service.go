package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"handle-ledger/internal/core/domain"
	"handle-ledger/internal/core/ports"
	"handle-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LedgerConfig holds the transfer policy.
type LedgerConfig struct {
	Currency          string
	AllowSelfTransfer bool
	IdempotencyTTL    time.Duration
}

// LedgerServiceImpl implements ports.LedgerService.
type LedgerServiceImpl struct {
	transactor ports.Transactor
	directory  ports.DirectoryService
	idempCache ports.IdempotencyCache // nil disables the Redis layer
	cfg        LedgerConfig
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	transactor ports.Transactor,
	directory ports.DirectoryService,
	idempCache ports.IdempotencyCache,
	cfg LedgerConfig,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		transactor: transactor,
		directory:  directory,
		idempCache: idempCache,
		cfg:        cfg,
		log:        log,
	}
}

// Transfer moves funds from the initiator to the account holding the
// destination handle. Debit, credit, log entry and idempotency record are
// committed together or not at all.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*ports.TransferResult, error) {
	// Validate
	amount, err := domain.NormalizeAmount(req.Amount)
	if err != nil {
		return nil, apperror.InvalidArgument("amount must be at least 1 after truncation")
	}
	dest := strings.TrimSpace(req.DestinationHandle)
	if dest == "" {
		return nil, apperror.InvalidArgument("destination username is required")
	}
	if req.InitiatorID == "" {
		return nil, apperror.ErrUnauthenticated()
	}

	var idempKey, reqHash string
	if req.IdempotencyKey != "" {
		if err := domain.ValidateClientKey(req.IdempotencyKey); err != nil {
			return nil, apperror.InvalidArgument(err.Error())
		}
		idempKey = domain.BuildIdempotencyKey(req.InitiatorID, req.IdempotencyKey)
		reqHash, err = domain.TransferRequestHash(req.InitiatorID, dest, amount)
		if err != nil {
			return nil, apperror.InternalError(err)
		}
		replay, err := s.lookupIdempotent(ctx, idempKey, reqHash)
		if err != nil {
			return nil, err
		}
		if replay != nil {
			return &ports.TransferResult{TransactionEntry: replay, Replayed: true}, nil
		}
	}

	// Resolve
	toID, err := s.directory.Resolve(ctx, dest)
	if err != nil {
		if apperror.HasCode(err, apperror.CodeNotFound) {
			return nil, apperror.ErrRecipientNotFound()
		}
		return nil, err
	}
	if toID == req.InitiatorID && !s.cfg.AllowSelfTransfer {
		return nil, apperror.ErrSelfTransfer()
	}

	// Atomic phase
	var (
		entry    *domain.TransactionEntry
		replayed bool
	)
	err = s.transactor.WithinTx(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
		entry, replayed = nil, false

		// A concurrent duplicate may have committed since the fast path.
		if idempKey != "" {
			prior, err := s.replayFromLog(ctx, uow, idempKey, reqHash)
			if err != nil {
				return err
			}
			if prior != nil {
				entry, replayed = prior, true
				return nil
			}
		}

		var err error
		entry, err = s.move(ctx, uow, req.InitiatorID, toID, amount)
		if err != nil {
			return err
		}

		if idempKey != "" {
			return uow.Idempotency().Create(ctx, &domain.IdempotencyRecord{
				Key:           idempKey,
				RequestHash:   reqHash,
				TransactionID: entry.ID,
				CreatedAt:     entry.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrWriteConflict) {
			s.log.Warn().Err(err).Str("from", req.InitiatorID).Str("to", toID).Msg("transfer gave up after repeated conflicts")
		}
		return nil, storeError("transfer", err)
	}

	if idempKey != "" {
		s.cacheIdempotent(ctx, &domain.IdempotencyRecord{
			Key:           idempKey,
			RequestHash:   reqHash,
			TransactionID: entry.ID,
			CreatedAt:     entry.CreatedAt,
		})
	}

	if replayed {
		s.log.Info().Str("tx_id", entry.ID.String()).Str("idempotency_key", idempKey).Msg("transfer replayed")
		return &ports.TransferResult{TransactionEntry: entry, Replayed: true}, nil
	}

	s.log.Info().
		Str("tx_id", entry.ID.String()).
		Str("from", entry.FromAccountID).
		Str("to", entry.ToAccountID).
		Int64("amount", entry.Amount).
		Msg("transfer completed")

	return &ports.TransferResult{TransactionEntry: entry}, nil
}

// move re-reads both accounts, applies debit and credit and appends the
// entry. It must run inside a unit of work.
func (s *LedgerServiceImpl) move(ctx context.Context, uow ports.UnitOfWork, fromID, toID string, amount int64) (*domain.TransactionEntry, error) {
	from, err := uow.Accounts().GetByID(ctx, fromID)
	if err != nil {
		return nil, err
	}
	if from == nil {
		return nil, apperror.ErrNotFound("account")
	}
	to, err := uow.Accounts().GetByID(ctx, toID)
	if err != nil {
		return nil, err
	}
	if to == nil {
		return nil, apperror.ErrRecipientNotFound()
	}

	now := time.Now().UTC()
	if from.ID == to.ID {
		// Net zero, but the sender still has to be able to cover it, and the
		// balance it was checked against must still hold at commit.
		if from.Balance < amount {
			return nil, apperror.ErrInsufficientFunds()
		}
		if err := uow.Accounts().UpdateBalance(ctx, from.ID, from.Balance, from.Version); err != nil {
			return nil, err
		}
	} else {
		fromVersion, toVersion := from.Version, to.Version
		if err := from.ApplyDelta(-amount, now); err != nil {
			return nil, apperror.ErrInsufficientFunds()
		}
		if err := to.ApplyDelta(amount, now); err != nil {
			return nil, apperror.FailedPrecondition("recipient balance would overflow")
		}

		// Lower id first so concurrent opposite transfers lock rows in the same order.
		first, second := from, to
		firstVersion, secondVersion := fromVersion, toVersion
		if to.ID < from.ID {
			first, second = to, from
			firstVersion, secondVersion = toVersion, fromVersion
		}
		if err := uow.Accounts().UpdateBalance(ctx, first.ID, first.Balance, firstVersion); err != nil {
			return nil, err
		}
		if err := uow.Accounts().UpdateBalance(ctx, second.ID, second.Balance, secondVersion); err != nil {
			return nil, err
		}
	}

	entry := &domain.TransactionEntry{
		ID:            uuid.New(),
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        amount,
		Currency:      s.cfg.Currency,
		Status:        domain.TransactionStatusCompleted,
		InitiatedBy:   fromID,
		CreatedAt:     now,
	}
	if err := uow.Transactions().Append(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// lookupIdempotent checks Redis, then the durable log. It returns the
// original entry on a replay and nil, nil on a miss.
func (s *LedgerServiceImpl) lookupIdempotent(ctx context.Context, key, reqHash string) (*domain.TransactionEntry, error) {
	// Layer 1: Redis idempotency check
	if s.idempCache != nil {
		rec, err := s.idempCache.Get(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to store")
		}
		if rec != nil && rec.RequestHash != reqHash {
			return nil, apperror.ErrIdempotencyKeyReuse()
		}
	}

	// Layer 2: durable log; the entry is loaded from the store even on a
	// cache hit so replays always return committed data.
	var entry *domain.TransactionEntry
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
		var err error
		entry, err = s.replayFromLog(ctx, uow, key, reqHash)
		return err
	})
	if err != nil {
		return nil, storeError("idempotency lookup", err)
	}
	return entry, nil
}

func (s *LedgerServiceImpl) replayFromLog(ctx context.Context, uow ports.UnitOfWork, key, reqHash string) (*domain.TransactionEntry, error) {
	rec, err := uow.Idempotency().Get(ctx, key)
	if err != nil || rec == nil {
		return nil, err
	}
	if rec.RequestHash != reqHash {
		return nil, apperror.ErrIdempotencyKeyReuse()
	}
	entry, err := uow.Transactions().GetByID(ctx, rec.TransactionID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("idempotency key %s points at missing transaction %s", key, rec.TransactionID)
	}
	return entry, nil
}

func (s *LedgerServiceImpl) cacheIdempotent(ctx context.Context, rec *domain.IdempotencyRecord) {
	if s.idempCache == nil {
		return
	}
	// Post-process: cache in Redis (best-effort)
	if err := s.idempCache.Set(ctx, rec, s.cfg.IdempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", rec.Key).Msg("failed to cache idempotency in redis")
	}
}
