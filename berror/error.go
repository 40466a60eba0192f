package berror

import (
	"errors"
	"fmt"
)

// Kind classifies a BotError by how the caller is expected to react to it.
type Kind uint8

const (
	// KindTransient errors are logged and the behavior carries on.
	KindTransient Kind = iota
	// KindExhausted errors end the current behavior invocation and halt the run loop.
	KindExhausted
	// KindConnectivity errors end the session.
	KindConnectivity
	// KindAuth errors are fatal at startup.
	KindAuth
)

// String ...
func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindExhausted:
		return "exhausted"
	case KindConnectivity:
		return "connectivity"
	case KindAuth:
		return "auth"
	}
	return "unknown"
}

type BotError struct {
	Kind Kind
	Err  string
	// Cause is the wrapped error, if any.
	Cause error
}

func New(format string, args ...any) *BotError {
	return newError(KindTransient, format, args...)
}

func Exhausted(format string, args ...any) *BotError {
	return newError(KindExhausted, format, args...)
}

func Connectivity(format string, args ...any) *BotError {
	return newError(KindConnectivity, format, args...)
}

func Auth(format string, args ...any) *BotError {
	return newError(KindAuth, format, args...)
}

func newError(kind Kind, format string, args ...any) *BotError {
	err := fmt.Errorf(format, args...)
	return &BotError{Kind: kind, Err: err.Error(), Cause: errors.Unwrap(err)}
}

func (e *BotError) Error() string {
	return e.Err
}

func (e *BotError) Unwrap() error {
	return e.Cause
}

// KindOf returns the kind of the first BotError in the chain of err. Errors that are not BotErrors are
// treated as transient.
func KindOf(err error) Kind {
	var be *BotError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindTransient
}

// IsFatal returns true if err must stop the behavior that produced it.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return KindOf(err) != KindTransient
}
