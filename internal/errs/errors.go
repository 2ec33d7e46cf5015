// Package errs provides the unified error type used across dbagent.
//
// Every subsystem (argument validation, template catalogs, adapters, the
// dispatcher) returns *errs.Error. Backend drivers wrap their native errors
// with the original error preserved as Cause, so operators always see the
// backend-provided detail. Callers branch on the kind via the Is* predicates
// or KindOf, never on driver-specific types.
//
// Usage:
//
//	// In an adapter, wrap native errors:
//	return errs.Wrap(errs.ErrKindQueryFailed, "list_schema failed", pgErr)
//
//	// In a front-end, check error kind:
//	if errs.IsInvalidInput(err) {
//	    http.Error(w, err.Error(), http.StatusBadRequest)
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindNotFound                 // no rows, no object, no bucket
	ErrKindConnectionFailed         // cannot reach or authenticate to the backend
	ErrKindTimeout                  // context deadline / cancellation
	ErrKindQueryFailed              // backend execution error (syntax, constraint, ...)
	ErrKindInvalidInput             // payload failed validation
	ErrKindPermissionDenied         // access denied, or rejected by the read-only guard
	ErrKindUnsupportedBackend       // conn.type has no adapter
	ErrKindUnknownAction            // action name outside the dispatcher's table
	ErrKindTemplateFileNotFound     // no template catalog for a dialect
	ErrKindQueryNotFound            // catalog has no entry with that name
	ErrKindInvalidTemplateFormat    // catalog entry is neither SQL text nor {sql|query}
	ErrKindUnresolvedPlaceholder    // template placeholder left without a value
	ErrKindUnsafeIdentifier         // identifier failed the safety pattern
	ErrKindMissingColumn            // column-level metadata update without a column
	ErrKindUnsupported              // operation not available on this backend
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	case ErrKindUnsupportedBackend:
		return "unsupported_backend"
	case ErrKindUnknownAction:
		return "unknown_action"
	case ErrKindTemplateFileNotFound:
		return "template_file_not_found"
	case ErrKindQueryNotFound:
		return "query_not_found"
	case ErrKindInvalidTemplateFormat:
		return "invalid_template_format"
	case ErrKindUnresolvedPlaceholder:
		return "unresolved_placeholder"
	case ErrKindUnsafeIdentifier:
		return "unsafe_identifier"
	case ErrKindMissingColumn:
		return "missing_column"
	case ErrKindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all dbagent subsystems.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with a format string.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsNotFound reports whether err represents a "not found" result.
func IsNotFound(err error) bool { return KindOf(err) == ErrKindNotFound }

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool { return KindOf(err) == ErrKindTimeout }

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool { return KindOf(err) == ErrKindConnectionFailed }

// IsQueryFailed reports whether err is a backend execution failure.
func IsQueryFailed(err error) bool { return KindOf(err) == ErrKindQueryFailed }

// IsInvalidInput reports whether err was caused by a payload that failed validation.
func IsInvalidInput(err error) bool { return KindOf(err) == ErrKindInvalidInput }

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool { return KindOf(err) == ErrKindPermissionDenied }

// IsUnsupportedBackend reports whether err names a connection type with no adapter.
func IsUnsupportedBackend(err error) bool { return KindOf(err) == ErrKindUnsupportedBackend }

// IsUnknownAction reports whether err names an action the dispatcher does not know.
func IsUnknownAction(err error) bool { return KindOf(err) == ErrKindUnknownAction }

// IsUnsafeIdentifier reports whether err was raised by identifier validation.
func IsUnsafeIdentifier(err error) bool { return KindOf(err) == ErrKindUnsafeIdentifier }

// IsMissingColumn reports whether err is a column-level update without a column.
func IsMissingColumn(err error) bool { return KindOf(err) == ErrKindMissingColumn }

// IsTemplateDefect reports whether err comes from the template catalog:
// a missing catalog, a missing query, a malformed entry or an unresolved placeholder.
func IsTemplateDefect(err error) bool {
	switch KindOf(err) {
	case ErrKindTemplateFileNotFound, ErrKindQueryNotFound,
		ErrKindInvalidTemplateFormat, ErrKindUnresolvedPlaceholder:
		return true
	}
	return false
}

// KindOf extracts the ErrKind from the first *Error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
