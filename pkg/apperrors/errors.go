// Package apperrors defines the error taxonomy shared by the gateway's
// handlers, the authorization policy, and the interpreter client. Every
// failure that crosses a package boundary is classified with a Kind so the
// HTTP layer can map it to a status code without string matching.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a gateway failure.
type Kind int

const (
	// KindUnknown is the zero value; treated as an internal error.
	KindUnknown Kind = iota
	// KindUnauthenticated covers missing, expired, or unverifiable credentials.
	KindUnauthenticated
	// KindForbidden covers policy denials for a valid principal.
	KindForbidden
	// KindNotFound covers resources the interpreter does not know about.
	KindNotFound
	// KindConflict covers uniqueness and business-rule violations.
	KindConflict
	// KindInvalid covers malformed or rejected request payloads.
	KindInvalid
	// KindGatewayUnavailable covers transport failures against the interpreter.
	KindGatewayUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalid:
		return "invalid"
	case KindGatewayUnavailable:
		return "gateway_unavailable"
	default:
		return "unknown"
	}
}

// HTTPStatus maps a Kind to the status code surfaced to callers.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindInvalid:
		return http.StatusBadRequest
	case KindGatewayUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified gateway error. Op names the failing operation for
// diagnostics; Message is safe to surface to the caller.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// Unauthenticated creates an unauthenticated error.
func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// Forbidden creates a forbidden error carrying the policy's deny reason.
func Forbidden(reason string) *Error {
	return &Error{Kind: KindForbidden, Message: reason}
}

// NotFound creates a not-found error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict creates a conflict error.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Invalid creates a bad-request error.
func Invalid(message string) *Error {
	return &Error{Kind: KindInvalid, Message: message}
}

// GatewayUnavailable wraps a transport failure against the interpreter.
func GatewayUnavailable(op string, err error) *Error {
	return &Error{Kind: KindGatewayUnavailable, Op: op, Message: "interpreter unavailable", Err: err}
}

// KindOf extracts the Kind from an error chain. Unclassified errors report
// KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// MessageOf extracts the caller-safe message from an error chain, falling
// back to a generic message for unclassified errors.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// Is reports whether err is classified with the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
