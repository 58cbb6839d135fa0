package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// ErrorKind classifies a failure within the closed taxonomy.
type ErrorKind string

const (
	KindValidation   ErrorKind = "VALIDATION"
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindRateLimited  ErrorKind = "RATE_LIMITED"
	KindInternal     ErrorKind = "INTERNAL"
)

// DomainError standardizes application errors.
type DomainError struct {
	Kind        ErrorKind
	Code        string
	Message     string
	HTTPStatus  int
	Details     map[string]any
	Operational bool
	Err         error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs an operational DomainError.
func NewDomainError(kind ErrorKind, code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{
		Kind:        kind,
		Code:        code,
		Message:     message,
		HTTPStatus:  status,
		Details:     details,
		Operational: true,
	}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(KindValidation, "VALIDATION_ERROR", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	return NewDomainError(KindNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError(KindUnauthorized, "UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewRateLimited(message string, details map[string]any) error {
	return NewDomainError(KindRateLimited, "RATE_LIMIT_EXCEEDED", message, http.StatusTooManyRequests, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Kind:        KindInternal,
		Code:        "INTERNAL_SERVER_ERROR",
		Message:     "Internal server error",
		HTTPStatus:  http.StatusInternalServerError,
		Operational: false,
		Err:         err,
	}
}

// IsKind reports whether err resolves to a DomainError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Kind == kind
}

// ToDomainError converts generic errors to DomainError. Anything not already
// classified is wrapped as a non-operational internal error.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}
