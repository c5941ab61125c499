package service

import (
	"context"

	"handle-ledger/internal/core/domain"
	"handle-ledger/internal/core/ports"
	"handle-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// TransactionQueryServiceImpl implements ports.TransactionQueryService.
type TransactionQueryServiceImpl struct {
	transactor   ports.Transactor
	defaultLimit int
	maxLimit     int
	log          zerolog.Logger
}

// NewTransactionQueryService creates a new TransactionQueryServiceImpl.
func NewTransactionQueryService(transactor ports.Transactor, defaultLimit, maxLimit int, log zerolog.Logger) *TransactionQueryServiceImpl {
	return &TransactionQueryServiceImpl{
		transactor:   transactor,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		log:          log,
	}
}

// ListTransactions returns the newest entries of the whole log. Only
// privileged callers may read it.
func (s *TransactionQueryServiceImpl) ListTransactions(ctx context.Context, limit int, privileged bool) ([]domain.TransactionEntry, error) {
	if !privileged {
		return nil, apperror.ErrPermissionDenied()
	}
	limit = s.clamp(limit)

	var entries []domain.TransactionEntry
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
		var err error
		entries, err = uow.Transactions().List(ctx, limit)
		return err
	})
	if err != nil {
		return nil, storeError("list transactions", err)
	}

	s.log.Debug().Int("limit", limit).Int("count", len(entries)).Msg("transactions listed")
	return entries, nil
}

func (s *TransactionQueryServiceImpl) clamp(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}
