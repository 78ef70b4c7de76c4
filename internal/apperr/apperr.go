package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a pipeline failure. Every kind maps to exactly one HTTP
// status, so handlers never pick status codes ad hoc.
type Kind int

const (
	// KindAuthenticationFailed covers missing, malformed, tampered or
	// expired credentials.
	KindAuthenticationFailed Kind = iota
	// KindAuthorizationDenied covers a valid identity with insufficient
	// privilege, including a missing tenant context.
	KindAuthorizationDenied
	KindTenantNotFound
	KindTenantSuspended
	KindValidation
	KindInternal
)

func (k Kind) StatusCode() int {
	switch k {
	case KindAuthenticationFailed:
		return http.StatusUnauthorized
	case KindAuthorizationDenied, KindTenantSuspended:
		return http.StatusForbidden
	case KindTenantNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindAuthenticationFailed:
		return "authentication_failed"
	case KindAuthorizationDenied:
		return "authorization_denied"
	case KindTenantNotFound:
		return "tenant_not_found"
	case KindTenantSuspended:
		return "tenant_suspended"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// Error is the shared failure type carried through the request pipeline.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is match against a bare kind marker, e.g.
// errors.Is(err, apperr.AuthenticationFailed("")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func AuthenticationFailed(msg string) *Error {
	return newf(KindAuthenticationFailed, "authentication failed: %s", msg)
}

func AuthorizationDenied(msg string) *Error {
	return newf(KindAuthorizationDenied, "authorization denied: %s", msg)
}

func TenantNotFound(id string) *Error {
	return newf(KindTenantNotFound, "tenant not found: %s", id)
}

func TenantSuspended(name string) *Error {
	return newf(KindTenantSuspended, "tenant suspended: %s", name)
}

func Validation(msg string) *Error {
	return newf(KindValidation, "validation error: %s", msg)
}

// Internal wraps an infrastructure failure. The cause is kept for logs but
// never leaks into the HTTP response body.
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error: " + msg, cause: cause}
}

// KindOf extracts the kind from any error in the chain, defaulting to
// KindInternal so unexpected failures fail closed as 500s.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StatusCode returns the HTTP status for an arbitrary error.
func StatusCode(err error) int {
	return KindOf(err).StatusCode()
}
