package service

import (
	"context"
	"strings"
	"time"

	"handle-ledger/internal/core/domain"
	"handle-ledger/internal/core/ports"
	"handle-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// DirectoryServiceImpl implements ports.DirectoryService.
type DirectoryServiceImpl struct {
	transactor ports.Transactor
	log        zerolog.Logger
}

// NewDirectoryService creates a new DirectoryServiceImpl.
func NewDirectoryService(transactor ports.Transactor, log zerolog.Logger) *DirectoryServiceImpl {
	return &DirectoryServiceImpl{transactor: transactor, log: log}
}

// ClaimUsername binds handle to the account, replacing its previous handle.
// Re-claiming the handle the account already holds is a no-op.
func (s *DirectoryServiceImpl) ClaimUsername(ctx context.Context, accountID, raw string) (string, error) {
	handle, err := domain.NormalizeHandle(raw)
	if err != nil {
		return "", apperror.InvalidArgument("username must be at least 3 characters")
	}

	err = s.transactor.WithinTx(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
		account, err := uow.Accounts().GetByID(ctx, accountID)
		if err != nil {
			return err
		}
		if account == nil {
			return apperror.ErrNotFound("account")
		}

		owner, err := uow.Directory().Resolve(ctx, handle)
		if err != nil {
			return err
		}
		switch owner {
		case accountID:
			return nil
		case "":
		default:
			return apperror.ErrHandleTaken()
		}

		// A concurrent claim of the same handle makes Bind report a write
		// conflict; the rerun then sees the winner above.
		return uow.Directory().Bind(ctx, &domain.Handle{
			Handle:    handle,
			AccountID: accountID,
			ClaimedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return "", storeError("claim username", err)
	}

	s.log.Info().Str("account_id", accountID).Str("handle", handle).Msg("username claimed")
	return handle, nil
}

// Resolve returns the account id bound to handle.
func (s *DirectoryServiceImpl) Resolve(ctx context.Context, raw string) (string, error) {
	handle := strings.TrimSpace(raw)
	if handle == "" {
		return "", apperror.InvalidArgument("username is required")
	}

	var accountID string
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
		var err error
		accountID, err = uow.Directory().Resolve(ctx, handle)
		return err
	})
	if err != nil {
		return "", storeError("resolve username", err)
	}
	if accountID == "" {
		return "", apperror.ErrNotFound("username")
	}
	return accountID, nil
}
