// Package apperr provides the error taxonomy handlers use to report failures.
// Handlers return these typed errors, and the request lifecycle wrapper turns
// them into entries of the response envelope's errors list.
package apperr

import (
	"errors"
	"fmt"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is anything that is not an *Error. Its details never reach the client.
	KindUnknown Kind = iota
	// KindExternal is an expected, client-facing failure (invalid input, bad credentials).
	KindExternal
	// KindInternal is an expected server-side failure with a stable handle.
	KindInternal
)

// String returns the event-style name of the kind.
func (k Kind) String() string {
	switch k {
	case KindExternal:
		return "external-error"
	case KindInternal:
		return "internal-error"
	default:
		return "unknown-error"
	}
}

const (
	defaultExternalMessage = "Error"
	defaultInternalMessage = "internal error"

	// UnknownHandle and UnknownMessage replace any unclassified error in responses.
	UnknownHandle  = "unknown-error"
	UnknownMessage = "There was an error"
)

// Error is a classified error carrying a machine-readable handle.
type Error struct {
	Kind    Kind
	Handle  string
	Message string
	Data    interface{} // Extra payload for the client (optional)
	Op      string      // Operation that failed (optional)
	Err     error       // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Handle
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", e.Handle, e.Message)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// External creates a client-facing error. An empty message becomes "Error".
func External(handle, message string, data ...interface{}) *Error {
	if message == "" {
		message = defaultExternalMessage
	}
	return &Error{Kind: KindExternal, Handle: handle, Message: message, Data: first(data)}
}

// Internal creates an expected internal error. An empty message becomes "internal error".
func Internal(handle, message string, data ...interface{}) *Error {
	if message == "" {
		message = defaultInternalMessage
	}
	return &Error{Kind: KindInternal, Handle: handle, Message: message, Data: first(data)}
}

// WrapExternal creates a client-facing error wrapping err.
func WrapExternal(handle, message string, err error) *Error {
	e := External(handle, message)
	e.Err = err
	return e
}

// WrapInternal creates an internal error wrapping err.
func WrapInternal(handle, message string, err error) *Error {
	e := Internal(handle, message)
	e.Err = err
	return e
}

// WithOp sets the operation that failed.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithData sets the extra payload returned to the client.
func (e *Error) WithData(data interface{}) *Error {
	e.Data = data
	return e
}

// Classify returns the kind of err and, for classified errors, the outermost *Error
// in its chain. Unclassified errors return (KindUnknown, nil).
func Classify(err error) (Kind, *Error) {
	var e *Error
	if err == nil || !errors.As(err, &e) {
		return KindUnknown, nil
	}
	switch e.Kind {
	case KindExternal, KindInternal:
		return e.Kind, e
	default:
		return KindUnknown, nil
	}
}

// GetKind extracts the error kind from an error.
func GetKind(err error) Kind {
	kind, _ := Classify(err)
	return kind
}

// Is checks if err classifies as the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}

// HasHandle reports whether err classifies with the given handle.
func HasHandle(err error, handle string) bool {
	_, e := Classify(err)
	return e != nil && e.Handle == handle
}

func first(data []interface{}) interface{} {
	if len(data) == 0 {
		return nil
	}
	return data[0]
}
