package music

import (
	"context"
	"errors"
	"fmt"
)

// FailureKind classifies why a text or catalog call produced nothing.
type FailureKind string

const (
	NetworkError      FailureKind = "network"
	ParseError        FailureKind = "parse"
	NoResults         FailureKind = "no_results"
	CredentialMissing FailureKind = "credential_missing"
)

// Failure is the error type returned by suggesters and resolvers.
type Failure struct {
	Kind FailureKind
	Op   string
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Op, f.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", f.Op, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Fail builds a *Failure. A context deadline or cancellation always maps to
// NetworkError regardless of kind.
func Fail(kind FailureKind, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		kind = NetworkError
	}
	return &Failure{Kind: kind, Op: op, Err: err}
}

// KindOf returns the failure kind carried by err. Errors that are not
// *Failure values are treated as network failures; nil yields "".
func KindOf(err error) FailureKind {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return NetworkError
}

// Retryable reports whether another attempt could plausibly succeed.
func Retryable(err error) bool {
	switch KindOf(err) {
	case "", CredentialMissing:
		return false
	}
	return true
}
