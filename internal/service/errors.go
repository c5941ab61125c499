package service

import (
	"errors"
	"fmt"

	"handle-ledger/internal/core/domain"
	"handle-ledger/pkg/apperror"
)

// storeError converts an error that escaped a unit of work. Business
// errors raised inside the unit pass through unchanged.
func storeError(op string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, domain.ErrWriteConflict) {
		return apperror.ErrContention(fmt.Errorf("%s: %w", op, err))
	}
	return apperror.InternalError(fmt.Errorf("%s: %w", op, err))
}
