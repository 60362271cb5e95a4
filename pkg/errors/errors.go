package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// 499 is the de-facto "client closed request" status; net/http has no constant for it.
const statusClientClosedRequest = 499

// Predefined errors for common scenarios.
var (
	ErrNotFound      = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrValidation    = New("INVALID_REQUEST", http.StatusBadRequest, "invalid request")
	ErrConflict      = New("CONFLICT", http.StatusConflict, "conflict")
	ErrInternal      = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrBusy          = New("BUSY", http.StatusConflict, "a planning run is already in flight for this key")
	ErrInfeasible    = New("INFEASIBLE", http.StatusUnprocessableEntity, "no feasible assignment exists")
	ErrTimeout       = New("TIMEOUT", http.StatusGatewayTimeout, "solver wall clock exhausted without a feasible incumbent")
	ErrCancelled     = New("CANCELLED", statusClientClosedRequest, "planning run cancelled")
	ErrStoreConflict = New("STORE_CONFLICT", http.StatusConflict, "transactional commit failed")
)

// WrapAs attaches a cause to a catalogue error.
func WrapAs(cat *Error, err error) *Error {
	return Wrap(err, cat.Code, cat.Status, cat.Message)
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// HasCode reports whether err carries the given catalogue code.
func HasCode(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code
}
