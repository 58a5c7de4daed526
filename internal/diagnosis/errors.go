package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies collaborator failures.
type ErrorKind string

// Collaborator failure kinds.
const (
	ErrorRateLimited      ErrorKind = "rate_limited"
	ErrorNotFound         ErrorKind = "not_found"
	ErrorTimeout          ErrorKind = "timeout"
	ErrorTransientNetwork ErrorKind = "transient_network"
	ErrorUnauthorized     ErrorKind = "unauthorized"
)

// SourceError is a classified collaborator failure.
//
// Only the transient kinds (rate-limited, timeout, transient network) are
// retried; not-found and unauthorised fail immediately and fold into a
// degraded context.
type SourceError struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Source names the collaborator call that failed (status, events,
	// similar, system, intent).
	Source string

	// RetryAfter is the upstream's requested delay for rate-limited
	// failures; zero when the upstream gave none.
	RetryAfter time.Duration

	// Err is the underlying cause, if any.
	Err error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source %s: %s: %v", e.Source, e.Kind, e.Err)
	}
	return fmt.Sprintf("source %s: %s", e.Source, e.Kind)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure kind warrants a bounded retry.
func (e *SourceError) Retryable() bool {
	switch e.Kind {
	case ErrorRateLimited, ErrorTimeout, ErrorTransientNetwork:
		return true
	default:
		return false
	}
}

// NewRateLimited builds a rate-limited failure carrying the upstream's
// requested delay.
func NewRateLimited(source string, retryAfter time.Duration) *SourceError {
	return &SourceError{Kind: ErrorRateLimited, Source: source, RetryAfter: retryAfter}
}

// NewNotFound builds a not-found failure.
func NewNotFound(source string) *SourceError {
	return &SourceError{Kind: ErrorNotFound, Source: source}
}

// NewTimeout builds a timeout failure.
func NewTimeout(source string) *SourceError {
	return &SourceError{Kind: ErrorTimeout, Source: source}
}

// NewTransientNetwork builds a transient network failure.
func NewTransientNetwork(source string, err error) *SourceError {
	return &SourceError{Kind: ErrorTransientNetwork, Source: source, Err: err}
}

// NewUnauthorized builds an unauthorised failure.
func NewUnauthorized(source string) *SourceError {
	return &SourceError{Kind: ErrorUnauthorized, Source: source}
}

// classify maps an arbitrary collaborator error onto a SourceError.
//
// Context deadline expiry becomes a timeout; anything unclassified is
// treated as a transient network failure (retried, but bounded like every
// retry in this package).
func classify(err error, source string) *SourceError {
	var se *SourceError
	if errors.As(err, &se) {
		if se.Source == "" {
			se.Source = source
		}
		return se
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeout(source)
	}
	return NewTransientNetwork(source, err)
}
