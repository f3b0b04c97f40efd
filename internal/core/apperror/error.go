// Package apperror is the error taxonomy of the ledger. Services return
// *AppError for anything the caller can act on; the HTTP layer renders it as
// a problem document and maps Code to a status.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeInternal = "INTERNAL_ERROR"

	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"

	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// currency and rates
	CodeInvalidRate           = "INVALID_RATE"
	CodeUnknownCurrency       = "UNKNOWN_CURRENCY"
	CodeNoRateAvailable       = "NO_RATE_AVAILABLE"
	CodeConversionUnavailable = "CONVERSION_UNAVAILABLE"

	// balances and stock
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeSameRegister        = "SAME_REGISTER"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"

	CodeDerivedEntryImmutable  = "DERIVED_ENTRY_IMMUTABLE"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodePreconditionFailed     = "PRECONDITION_FAILED"

	CodeConflict    = "CONFLICT"
	CodeDuplicate   = "DUPLICATE_ENTRY"
	CodeIdempotency = "IDEMPOTENCY_CONFLICT"
)

// statusOf is the default HTTP status per code. Codes missing here are 422.
var statusOf = map[string]int{
	CodeInternal:               http.StatusInternalServerError,
	CodeValidation:             http.StatusBadRequest,
	CodeNotFound:               http.StatusNotFound,
	CodeUnauthorized:           http.StatusUnauthorized,
	CodeForbidden:              http.StatusForbidden,
	CodeDerivedEntryImmutable:  http.StatusConflict,
	CodeConcurrentModification: http.StatusConflict,
	CodePreconditionFailed:     http.StatusPreconditionFailed,
	CodeConflict:               http.StatusConflict,
	CodeDuplicate:              http.StatusConflict,
	CodeIdempotency:            http.StatusConflict,
}

type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`

	HTTPStatus int `json:"-"`
	// Err is logged, never rendered.
	Err error `json:"-"`
}

func newError(code, message string, kv ...any) *AppError {
	status, ok := statusOf[code]
	if !ok {
		status = http.StatusUnprocessableEntity
	}
	e := &AppError{Code: code, Message: message, HTTPStatus: status}
	for i := 0; i+1 < len(kv); i += 2 {
		e.WithDetail(kv[i].(string), kv[i+1])
	}
	return e
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

func NewValidation(message string) *AppError {
	return newError(CodeValidation, message)
}

// NewNotFound reports a missing aggregate: a register, a document, a
// currency row addressed by id.
func NewNotFound(entity string, id any) *AppError {
	return newError(CodeNotFound, entity+" not found", "entity", entity, "id", id)
}

// NewInvalidRate rejects a non-positive rate, or a rate other than 1 for the
// default currency.
func NewInvalidRate(rate any) *AppError {
	return newError(CodeInvalidRate, "exchange rate must be greater than zero", "rate", rate)
}

func NewUnknownCurrency(currencyID any) *AppError {
	return newError(CodeUnknownCurrency, "unknown currency", "currency_id", currencyID)
}

// NewNoRateAvailable means the currency has no rate at or before the asked
// instant.
func NewNoRateAvailable(currencyID any) *AppError {
	return newError(CodeNoRateAvailable, "no exchange rate available", "currency_id", currencyID)
}

func NewConversionUnavailable(from, to any) *AppError {
	return newError(CodeConversionUnavailable, "currency conversion unavailable", "from", from, "to", to)
}

// NewInsufficientBalance is the overdraft error of a register debit.
func NewInsufficientBalance(registerID string, requested, available any) *AppError {
	return newError(CodeInsufficientBalance, "insufficient register balance",
		"cash_register_id", registerID,
		"requested", requested,
		"available", available,
	)
}

func NewSameRegister(registerID string) *AppError {
	return newError(CodeSameRegister, "source and destination registers must differ",
		"cash_register_id", registerID)
}

func NewInsufficientStock(warehouseID, productID string, requested, available any) *AppError {
	return newError(CodeInsufficientStock, "insufficient stock",
		"warehouse_id", warehouseID,
		"product_id", productID,
		"requested", requested,
		"available", available,
	)
}

// NewDerivedEntryImmutable guards ledger entries owned by a document, a
// transfer or a balance adjustment. They change only through their owner.
func NewDerivedEntryImmutable(entryID string, sourceType string) *AppError {
	return newError(CodeDerivedEntryImmutable,
		"ledger entry is owned by a source document and cannot be changed directly",
		"entry_id", entryID, "source_type", sourceType)
}

func NewPreconditionFailed(message string) *AppError {
	return newError(CodePreconditionFailed, message)
}

// NewConcurrentModification is the optimistic lock failure: the stored
// version differs from the one the caller read.
func NewConcurrentModification(entity string, id any) *AppError {
	return newError(CodeConcurrentModification,
		"record was modified concurrently, reload and retry",
		"entity", entity, "id", id)
}

// NewInternal hides err from the client.
func NewInternal(err error) *AppError {
	return newError(CodeInternal, "internal server error").WithCause(err)
}

func NewUnauthorized(message string) *AppError {
	return newError(CodeUnauthorized, message)
}

func NewForbidden(message string) *AppError {
	return newError(CodeForbidden, message)
}

func NewIdempotencyConflict(key string) *AppError {
	return newError(CodeIdempotency, "operation already in progress or completed", "idempotency_key", key)
}

// NewIdempotencyMismatch is returned when a key is replayed with another body
// or by another user.
func NewIdempotencyMismatch(key string) *AppError {
	return newError(CodeIdempotency, "idempotency key mismatch", "idempotency_key", key)
}

func NewConflict(message string) *AppError {
	return newError(CodeConflict, message)
}

func NewDuplicate(entity, field, value string) *AppError {
	return newError(CodeDuplicate, fmt.Sprintf("%s with this %s already exists", entity, field),
		"entity", entity, "field", field, "value", value)
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// Is reports whether err carries an AppError with code.
func Is(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

func IsNotFound(err error) bool { return Is(err, CodeNotFound) }

func IsConcurrentModification(err error) bool { return Is(err, CodeConcurrentModification) }
