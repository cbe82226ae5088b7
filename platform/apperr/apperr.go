// Package apperr provides standardized error types for the synchronizer.
// Components return these typed errors so the scheduler can decide between
// reconnecting, skipping a window or ending a cycle without string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindTransient indicates a communication link failure worth a reconnect.
	KindTransient
	// KindDatabase indicates a logic or constraint failure in the database.
	KindDatabase
	// KindPartner indicates a partner API could not be fetched or decoded.
	KindPartner
	// KindState indicates the persisted cursor could not be read or written.
	KindState
	// KindValidation indicates invalid configuration or input.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindDatabase:
		return "database"
	case KindPartner:
		return "partner"
	case KindState:
		return "state"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is an error with a typed Kind.
type Error struct {
	Kind    Kind
	Message string
	Op      string // Operation that failed (optional)
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a new error wrapping an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp returns the error with the operation set.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// Transient wraps err as a link failure.
func Transient(message string, err error) *Error {
	return Wrap(KindTransient, message, err)
}

// Database wraps err as a database logic failure.
func Database(message string, err error) *Error {
	return Wrap(KindDatabase, message, err)
}

// Partner wraps err as a partner fetch failure.
func Partner(message string, err error) *Error {
	return Wrap(KindPartner, message, err)
}

// State wraps err as a cursor store failure.
func State(message string, err error) *Error {
	return Wrap(KindState, message, err)
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// GetKind extracts the kind of the outermost *Error in err's chain.
// Returns KindUnknown if there is none.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is checks if err carries an *Error with the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
