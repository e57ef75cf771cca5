// Package apierror provides the error kinds returned by the ledger services and
// the response envelope the API writes for them. Every error that reaches a
// client goes through this package so internal details (SQL, stack traces)
// never leak.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable, machine-checkable class of a failure.
type Kind string

const (
	KindValidation   Kind = "validation_error"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindInsufficient Kind = "insufficient_quantity"
	KindPersistence  Kind = "persistence_error"
)

// Error is the typed error every service operation returns on failure.
// Requested/Available are set only for KindInsufficient.
type Error struct {
	Kind      Kind
	Detail    string
	Requested string
	Available string
	Fields    map[string]string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindPersistence {
		return fmt.Sprintf("%s: %v", e.Detail, e.Err)
	}
	return e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether repeating the same request can succeed.
// Conflicts and insufficient quantities fail identically on retry.
func (e *Error) Retryable() bool {
	return e.Kind == KindNotFound || e.Kind == KindPersistence
}

// HTTPStatus maps the kind to the status code the API responds with.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindInsufficient:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Detail: fmt.Sprintf(format, args...)}
}

// ValidationFields reports per-field failures from request validation.
func ValidationFields(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Detail: "validation failed", Fields: fields}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Detail: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Detail: fmt.Sprintf(format, args...)}
}

// Insufficient reports a draw or shipment larger than what is available.
// requested and available are rendered with %v so callers can pass decimals or ints.
func Insufficient(detail string, requested, available any) *Error {
	return &Error{
		Kind:      KindInsufficient,
		Detail:    detail,
		Requested: fmt.Sprint(requested),
		Available: fmt.Sprint(available),
	}
}

// Persistence wraps a store failure. detail is safe to show; err is not.
func Persistence(detail string, err error) *Error {
	return &Error{Kind: KindPersistence, Detail: detail, Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}

// KindOf returns the kind of err, KindPersistence for unclassified errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindPersistence
}

// ── Response envelope ─────────────────────────────────────────────────────────

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Kind      Kind              `json:"kind"`
	Detail    string            `json:"detail"`
	Requested string            `json:"requested,omitempty"`
	Available string            `json:"available,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

func New(kind Kind, msg string) *APIError {
	return &APIError{Kind: kind, Detail: msg}
}

// Response converts err into its status code and envelope. Persistence
// failures and unclassified errors get a generic message.
func Response(err error) (int, *APIError) {
	e, ok := As(err)
	if !ok || e.Kind == KindPersistence {
		return http.StatusInternalServerError, New(KindPersistence, "internal server error")
	}
	return e.HTTPStatus(), &APIError{
		Kind:      e.Kind,
		Detail:    e.Detail,
		Requested: e.Requested,
		Available: e.Available,
		Fields:    e.Fields,
	}
}
