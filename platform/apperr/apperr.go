// Package apperr provides standardized domain error types for the application.
// Domain services return these typed errors, and the HTTP layer middleware
// automatically maps them to appropriate HTTP status codes.
package apperr

import (
	"fmt"
	"net/http"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindNotFound indicates a resource was not found.
	KindNotFound
	// KindValidation indicates invalid input data.
	KindValidation
	// KindConflict indicates a conflict with existing state (e.g., a slot
	// that is no longer open).
	KindConflict
	// KindForbidden indicates the action is not allowed for the actor.
	KindForbidden
	// KindUnauthorized indicates authentication is required or failed.
	KindUnauthorized
	// KindBadRequest indicates a malformed or invalid request.
	KindBadRequest
	// KindInternal indicates an unexpected internal error.
	KindInternal
	// KindGone indicates a resource that existed but is no longer available.
	KindGone
)

// Machine-readable error codes for the workflow taxonomy. Codes are stable
// contract values returned to API callers alongside the HTTP status.
const (
	CodeConflict           = "conflict"
	CodeAuthMismatch       = "auth_mismatch"
	CodeInvalidState       = "invalid_state"
	CodeNoActiveChallenge  = "no_active_challenge"
	CodeExpiredOtp         = "expired_otp"
	CodeInvalidOtp         = "invalid_otp"
	CodeAttemptsExhausted  = "attempts_exhausted"
	CodeVerificationFailed = "verification_failed"
	CodeAlreadyResolved    = "already_resolved"
)

// Error is a domain error with a typed Kind for HTTP mapping and an optional
// machine-readable Code from the workflow taxonomy.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Op      string      // Operation that failed (optional)
	Err     error       // Underlying error (optional)
	Details interface{} // Additional details for response (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the appropriate HTTP status code for this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindInternal:
		return http.StatusInternalServerError
	case KindGone:
		return http.StatusGone
	default:
		return http.StatusBadRequest
	}
}

// New creates a new domain error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp returns the error with the operation set.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithCode returns the error with the machine-readable code set.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// WithDetails returns the error with additional details.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// Convenience constructors for common error types.

// NotFound creates a not found error.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Conflict creates a conflict error: the entity is not in the state the
// requested transition needs.
func Conflict(message string) *Error {
	return New(KindConflict, message).WithCode(CodeConflict)
}

// Forbidden creates a forbidden error.
func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

// BadRequest creates a bad request error.
func BadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

// Internal creates an internal server error.
func Internal(message string) *Error {
	return New(KindInternal, message)
}

// AuthMismatch creates an error for an identity-bound action attempted by
// the wrong party (e.g., a customer phone that does not match the visit).
func AuthMismatch(message string) *Error {
	return New(KindForbidden, message).WithCode(CodeAuthMismatch)
}

// InvalidState creates an error for a transition that lost a race: the
// entity moved on between read and write.
func InvalidState(message string) *Error {
	return New(KindConflict, message).WithCode(CodeInvalidState)
}

// AlreadyResolved creates an error for re-resolving a settled review entry.
func AlreadyResolved(message string) *Error {
	return New(KindConflict, message).WithCode(CodeAlreadyResolved)
}

// Verification-specific constructors.

// NoActiveChallenge indicates no OTP challenge is pending for the visit.
func NoActiveChallenge(message string) *Error {
	return New(KindBadRequest, message).WithCode(CodeNoActiveChallenge)
}

// ExpiredOtp indicates the challenge's window has closed.
func ExpiredOtp(message string) *Error {
	return New(KindBadRequest, message).WithCode(CodeExpiredOtp)
}

// InvalidOtp indicates a code mismatch with attempts remaining.
func InvalidOtp(message string) *Error {
	return New(KindBadRequest, message).WithCode(CodeInvalidOtp)
}

// AttemptsExhausted indicates the challenge burned all attempts.
func AttemptsExhausted(message string) *Error {
	return New(KindBadRequest, message).WithCode(CodeAttemptsExhausted)
}

// VerificationFailed indicates neither geofence nor photo fallback succeeded.
func VerificationFailed(message string) *Error {
	return New(KindBadRequest, message).WithCode(CodeVerificationFailed)
}

// GetKind extracts the error kind from an error.
// Returns KindUnknown if the error is not an *Error.
func GetKind(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindUnknown
}

// GetCode extracts the machine-readable code, or "" for untyped errors.
func GetCode(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// Is checks if err is an *Error with the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}

// IsCode checks if err is an *Error carrying the given taxonomy code.
func IsCode(err error, code string) bool {
	return GetCode(err) == code
}
