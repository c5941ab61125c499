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

// AccountServiceImpl implements ports.AccountService.
type AccountServiceImpl struct {
	transactor ports.Transactor
	currency   string
	log        zerolog.Logger
}

// NewAccountService creates a new AccountServiceImpl.
func NewAccountService(transactor ports.Transactor, currency string, log zerolog.Logger) *AccountServiceImpl {
	return &AccountServiceImpl{
		transactor: transactor,
		currency:   currency,
		log:        log,
	}
}

// EnsureAccount creates a zero-balance account for the principal if it does
// not exist yet. Concurrent first calls create exactly one account.
func (s *AccountServiceImpl) EnsureAccount(ctx context.Context, accountID string) (*domain.Account, bool, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, false, apperror.InvalidArgument("account id is required")
	}

	var (
		account *domain.Account
		created bool
	)
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
		var err error
		created, err = uow.Accounts().Create(ctx, domain.NewAccount(accountID, time.Now().UTC()))
		if err != nil {
			return err
		}
		account, err = uow.Accounts().GetByID(ctx, accountID)
		return err
	})
	if err != nil {
		return nil, false, storeError("ensure account", err)
	}
	if account == nil {
		return nil, false, apperror.ErrNotFound("account")
	}

	if created {
		s.log.Info().Str("account_id", accountID).Msg("account created")
	}
	return account, created, nil
}

// GetAccount returns the account with its handle and currency.
func (s *AccountServiceImpl) GetAccount(ctx context.Context, accountID string) (*ports.AccountView, error) {
	var view *ports.AccountView
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
		account, err := uow.Accounts().GetByID(ctx, accountID)
		if err != nil {
			return err
		}
		if account == nil {
			return apperror.ErrNotFound("account")
		}
		handle, err := uow.Directory().HandleOf(ctx, accountID)
		if err != nil {
			return err
		}
		view = &ports.AccountView{Account: *account, Handle: handle, Currency: s.currency}
		return nil
	})
	if err != nil {
		return nil, storeError("get account", err)
	}
	return view, nil
}
