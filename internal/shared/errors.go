package shared

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorKind names one operational error class. The set is closed: anything
// that does not carry a kind is treated as an internal fault.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindAuthentication ErrorKind = "authentication"
	KindForbidden      ErrorKind = "forbidden"
	KindNotFound       ErrorKind = "not_found"
	KindConflict       ErrorKind = "conflict"
	KindRateLimit      ErrorKind = "rate_limit"
	KindInternal       ErrorKind = "internal"
)

// FieldError describes a single failing request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the one error shape the HTTP layer understands. Operational
// errors are safe to describe to callers; internal ones are masked in
// production and only their sanitized detail reaches the logs.
type Error struct {
	Kind        ErrorKind
	Code        string
	Message     string
	Fields      []FieldError
	RetryAfter  time.Duration
	Operational bool
	Err         error

	// Stack is set by the panic recoverer so debug responses can show
	// where the fault surfaced. Never serialized in production.
	Stack string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the kind to its fixed status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WithCode attaches a machine-readable code and returns the error for
// chaining.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// WithFields attaches per-field detail.
func (e *Error) WithFields(fields ...FieldError) *Error {
	e.Fields = append(e.Fields, fields...)
	return e
}

// WithStack attaches a captured stack trace.
func (e *Error) WithStack(stack string) *Error {
	e.Stack = stack
	return e
}

// Validation builds a 400 error. Field detail may be attached with
// WithFields.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message, Operational: true}
}

// Authentication builds a 401 error. Callers must keep the message
// generic: the specific failure cause belongs in logs, not responses.
func Authentication(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message, Operational: true}
}

// Forbidden builds a 403 error.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message, Operational: true}
}

// NotFound builds a 404 error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message, Operational: true}
}

// Conflict builds a 409 error.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message, Operational: true}
}

// RateLimited builds a 429 error carrying the retry window.
func RateLimited(message string, retryAfter time.Duration) *Error {
	return &Error{Kind: KindRateLimit, Message: message, RetryAfter: retryAfter, Operational: true}
}

// Internal wraps an unexpected fault. Non-operational: the caller sees a
// generic message in production while the cause is logged server-side.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Operational: false, Err: err}
}

// From normalizes any error into the taxonomy. Errors already carrying a
// kind pass through untouched; everything else becomes Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

var (
	// ErrInvalidCredentials indicates login failure. Mapped to a generic
	// 401 so callers cannot tell a bad email from a bad password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
