package postgres

import (
	"errors"
	"fmt"

	"handle-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes that mean another transaction got there first.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// isConflict reports whether err carries a PostgreSQL error that the atomic
// unit should answer by re-running against fresh state.
func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeUniqueViolation, codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}

// wrapErr annotates err with op and tags conflicts with domain.ErrWriteConflict.
func wrapErr(op string, err error) error {
	if isConflict(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrWriteConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
