package connection

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure categories adapters report.
type Kind string

const (
	// KindAuthValidation is a locally detected missing or malformed auth
	// field. It never reaches the backend.
	KindAuthValidation Kind = "auth_validation"
	// KindNetwork is a transport-level failure during connect, send or
	// disconnect.
	KindNetwork Kind = "network"
	// KindProtocolViolation means the backend rejected a well-formed request
	// or the adapter was asked to send an event its backend cannot express.
	KindProtocolViolation Kind = "protocol_violation"
	// KindTimeout means no response arrived within an adapter-defined bound.
	KindTimeout Kind = "timeout"
)

// Error is a structured adapter failure: a kind plus the offending field
// name and/or backend diagnostic, optionally wrapping a transport cause.
type Error struct {
	Kind       Kind
	Field      string
	Diagnostic string
	Err        error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Field != "" {
		msg += ": field " + e.Field
	}
	if e.Diagnostic != "" {
		msg += ": " + e.Diagnostic
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is (or wraps) a connection Error of the given
// kind.
func IsKind(err error, kind Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == kind
}

// ErrAuthField builds a KindAuthValidation error for one field.
func ErrAuthField(field, diagnostic string) *Error {
	return &Error{Kind: KindAuthValidation, Field: field, Diagnostic: diagnostic}
}

// ErrNetwork builds a KindNetwork error wrapping a transport cause.
func ErrNetwork(diagnostic string, err error) *Error {
	return &Error{Kind: KindNetwork, Diagnostic: diagnostic, Err: err}
}

// ErrProtocol builds a KindProtocolViolation error.
func ErrProtocol(format string, args ...any) *Error {
	return &Error{Kind: KindProtocolViolation, Diagnostic: fmt.Sprintf(format, args...)}
}

// ErrTimeout builds a KindTimeout error.
func ErrTimeout(diagnostic string) *Error {
	return &Error{Kind: KindTimeout, Diagnostic: diagnostic}
}
