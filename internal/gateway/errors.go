package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a gateway failure. Policies use it to decide whether an
// error is fatal (Auth), retryable (RateLimit, Transport), or absorbable.
type Kind int

const (
	// KindAPI is the generic marketplace error for HTTP >= 400 responses
	// that do not map to a more specific kind.
	KindAPI Kind = iota
	// KindAuth covers 401/403 and token acquisition failures. Fatal for
	// the current coordinator call.
	KindAuth
	// KindRateLimit covers 429 and exhausted daily quota.
	KindRateLimit
	// KindNotFound covers 404.
	KindNotFound
	// KindDuplicate covers duplicate-listing rejections.
	KindDuplicate
	// KindTransport covers network and timeout failures.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	case KindNotFound:
		return "not_found"
	case KindDuplicate:
		return "duplicate"
	case KindTransport:
		return "transport"
	default:
		return "api"
	}
}

// Error is the typed error returned by every gateway operation.
type Error struct {
	Kind Kind
	Op   string // gateway operation, e.g. "publish_offer"
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %s: %s: %v", e.Op, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("gateway %s: %s: %s", e.Op, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a gateway error.
func NewError(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// WrapError builds a gateway error around an underlying cause.
func WrapError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: err.Error(), Err: err}
}

func isKind(err error, kind Kind) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == kind
}

// IsAuth reports whether err is a gateway auth failure.
func IsAuth(err error) bool { return isKind(err, KindAuth) }

// IsRateLimit reports whether err is a gateway rate-limit failure.
func IsRateLimit(err error) bool { return isKind(err, KindRateLimit) }

// IsNotFound reports whether err is a gateway not-found failure.
func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

// IsDuplicate reports whether err is a duplicate-listing rejection.
func IsDuplicate(err error) bool { return isKind(err, KindDuplicate) }
