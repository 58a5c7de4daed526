package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestSourceErrorRetryable(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want bool
	}{
		{ErrorRateLimited, true},
		{ErrorTimeout, true},
		{ErrorTransientNetwork, true},
		{ErrorNotFound, false},
		{ErrorUnauthorized, false},
	}

	for _, tt := range tests {
		se := &SourceError{Kind: tt.kind, Source: SourceStatus}
		if got := se.Retryable(); got != tt.want {
			t.Errorf("Retryable(%s) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestClassifyPassesThroughSourceErrors(t *testing.T) {
	orig := NewRateLimited(SourceEvents, 2*time.Second)

	got := classify(fmt.Errorf("wrapped: %w", orig), SourceStatus)

	if got.Kind != ErrorRateLimited {
		t.Errorf("Kind = %q, want rate_limited", got.Kind)
	}
	if got.Source != SourceEvents {
		t.Errorf("Source = %q, want the original %q preserved", got.Source, SourceEvents)
	}
	if got.RetryAfter != 2*time.Second {
		t.Errorf("RetryAfter = %v, want 2s", got.RetryAfter)
	}
}

func TestClassifyFillsMissingSource(t *testing.T) {
	got := classify(&SourceError{Kind: ErrorNotFound}, SourceSimilar)
	if got.Source != SourceSimilar {
		t.Errorf("Source = %q, want %q", got.Source, SourceSimilar)
	}
}

func TestClassifyDeadlineAsTimeout(t *testing.T) {
	got := classify(fmt.Errorf("call: %w", context.DeadlineExceeded), SourceStatus)
	if got.Kind != ErrorTimeout {
		t.Errorf("Kind = %q, want timeout", got.Kind)
	}
}

func TestClassifyUnknownAsTransient(t *testing.T) {
	got := classify(errors.New("connection reset by peer"), SourceSystem)
	if got.Kind != ErrorTransientNetwork {
		t.Errorf("Kind = %q, want transient_network", got.Kind)
	}
	if got.Err == nil {
		t.Error("underlying cause dropped")
	}
}

func TestSourceErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	se := NewTransientNetwork(SourceStatus, cause)

	if !errors.Is(se, cause) {
		t.Error("errors.Is does not reach the cause")
	}
}
