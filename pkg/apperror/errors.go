package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// HasCode reports whether err is (or wraps) an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

const (
	CodeInvalidArgument    = "VAL_001"
	CodeNotFound           = "RES_001"
	CodeAlreadyExists      = "RES_002"
	CodeFailedPrecondition = "BIZ_001"
	CodeInsufficientFunds  = "PAY_001"
	CodeIdempotencyReuse   = "PAY_003"
	CodeUnauthenticated    = "AUTH_001"
	CodePermissionDenied   = "AUTH_002"
	CodeInternal           = "SYS_001"
	CodeContention         = "SYS_002"
)

// ---- Validation (VAL) ----

// InvalidArgument reports a malformed amount, handle or request body.
func InvalidArgument(message string) *AppError {
	return New(CodeInvalidArgument, message, http.StatusBadRequest)
}

// ---- Resources (RES) ----

func ErrNotFound(entity string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrRecipientNotFound() *AppError {
	return New(CodeNotFound, "recipient account does not exist", http.StatusNotFound)
}

func ErrHandleTaken() *AppError {
	return New(CodeAlreadyExists, "username is already taken", http.StatusConflict)
}

// ---- Business rules (BIZ / PAY) ----

// FailedPrecondition reports a business-rule gate such as a self-transfer.
func FailedPrecondition(message string) *AppError {
	return New(CodeFailedPrecondition, message, http.StatusUnprocessableEntity)
}

func ErrSelfTransfer() *AppError {
	return FailedPrecondition("cannot transfer to self")
}

func ErrInsufficientFunds() *AppError {
	return New(CodeInsufficientFunds, "Insufficient balance in account", http.StatusPaymentRequired)
}

func ErrIdempotencyKeyReuse() *AppError {
	return New(CodeIdempotencyReuse, "Idempotency key already used with a different request", http.StatusConflict)
}

// ---- Authentication (AUTH) ----

func ErrUnauthenticated() *AppError {
	return New(CodeUnauthenticated, "Missing or invalid credentials", http.StatusUnauthorized)
}

func ErrPermissionDenied() *AppError {
	return New(CodePermissionDenied, "Privileged access required", http.StatusForbidden)
}

// ---- System & Infrastructure (SYS) ----

// ErrContention is returned when the store kept reporting write conflicts
// after every retry attempt.
func ErrContention(err error) *AppError {
	return Wrap(CodeContention, "Store contention, retry later", http.StatusServiceUnavailable, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(CodeInternal, "Internal server error", http.StatusInternalServerError, err)
}
