// Package apperr defines the error kinds surfaced by the prize wheel and the
// user-facing message carried with each one.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindAuth
	KindRateLimit
	KindStorage
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	case KindStorage:
		return "storage"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Error is a classified error. Message is safe to show to callers; Err holds
// the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) error { return &Error{Kind: KindValidation, Message: msg} }

func NotFound(msg string) error { return &Error{Kind: KindNotFound, Message: msg} }

func Conflict(msg string) error { return &Error{Kind: KindConflict, Message: msg} }

func Auth(msg string) error { return &Error{Kind: KindAuth, Message: msg} }

func RateLimit(msg string) error { return &Error{Kind: KindRateLimit, Message: msg} }

func Config(msg string) error { return &Error{Kind: KindConfig, Message: msg} }

// Storage wraps a persistence failure. The message stays generic so paths
// never reach a response body.
func Storage(op string, err error) error {
	return &Error{Kind: KindStorage, Message: "storage unavailable", Err: fmt.Errorf("%s: %w", op, err)}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message returns the user-facing message of err, or fallback when err is
// not classified.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
