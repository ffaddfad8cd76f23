// Package errors maps domain errors onto structured API errors with HTTP
// status codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/wagerworks/towerd/internal/domain"
)

// Type categorizes an error for response formatting and metrics.
type Type string

const (
	TypeValidation Type = "validation"
	TypeNotFound   Type = "not_found"
	TypeConflict   Type = "conflict"
	TypeForbidden  Type = "forbidden"
	TypeInternal   Type = "internal"
)

// Error is a structured error carrying a type, a user-facing message and an
// optional cause.
type Error struct {
	Type    Type
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the status code for the error type.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Response is the JSON error body sent to clients.
type Response struct {
	Error string `json:"error"`
	Type  Type   `json:"type"`
}

// ToResponse converts the error for JSON serialization.
func (e *Error) ToResponse() Response {
	return Response{Error: e.Message, Type: e.Type}
}

// FromDomain converts any error into a structured *Error. Domain sentinels
// map to their taxonomy category; everything else becomes an internal error
// with a generic message.
func FromDomain(err error) *Error {
	if err == nil {
		return nil
	}

	var structured *Error
	if errors.As(err, &structured) {
		return structured
	}

	switch {
	case errors.Is(err, domain.ErrInvalidBet),
		errors.Is(err, domain.ErrBetAboveMax),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInvalidDifficulty),
		errors.Is(err, domain.ErrInvalidMove):
		return &Error{Type: TypeValidation, Message: err.Error(), Cause: err}
	case errors.Is(err, domain.ErrSessionAlreadyActive),
		errors.Is(err, domain.ErrInteractionInProgress):
		return &Error{Type: TypeConflict, Message: err.Error(), Cause: err}
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrReplayUnavailable),
		errors.Is(err, domain.ErrAccountNotFound):
		return &Error{Type: TypeNotFound, Message: err.Error(), Cause: err}
	case errors.Is(err, domain.ErrEligibilityDenied):
		return &Error{Type: TypeForbidden, Message: err.Error(), Cause: err}
	default:
		return &Error{Type: TypeInternal, Message: "internal server error", Cause: err}
	}
}
