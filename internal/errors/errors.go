// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages, so commands can decide what to print without parsing
// error strings.
//
// The package supports wrapping underlying errors while maintaining error kind information.
// Kinds compare with errors.Is, so callers can match on a bare New(kind, "") target.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// StorageUnavailable indicates the credential store could not be opened or reached.
	StorageUnavailable Kind = "storage_unavailable"
	// InvalidSession indicates an attempt to establish a session with incomplete data.
	InvalidSession Kind = "invalid_session"
	// InvalidInput indicates a request rejected before it reached the auth API.
	InvalidInput Kind = "invalid_input"
	// Unauthorized indicates the auth API rejected the presented credentials.
	Unauthorized Kind = "unauthorized"
	// ExchangeFailed indicates any other failed credential exchange.
	ExchangeFailed Kind = "exchange_failed"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

// Is reports whether target is an *E of the same kind.
func (e *E) Is(target error) bool {
	var t *E
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of the first *E in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}
