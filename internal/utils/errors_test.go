package utils

import (
	"errors"
	"fmt"
	"testing"
)

func TestStructuredError_IsMatchesCode(t *testing.T) {
	err := NewError(ErrCodeNoHealthyProxy, "pool of 3 exhausted").
		WithContext("pool_size", 3).
		Build()

	if !errors.Is(err, ErrNoHealthyProxy) {
		t.Fatal("expected errors.Is to match on code")
	}
	if errors.Is(err, ErrCaptchaDetected) {
		t.Fatal("different codes must not match")
	}

	wrapped := fmt.Errorf("start session: %w", err)
	if !errors.Is(wrapped, ErrNoHealthyProxy) {
		t.Error("expected match through fmt.Errorf wrapping")
	}
	if got := CodeOf(wrapped); got != ErrCodeNoHealthyProxy {
		t.Errorf("CodeOf = %q", got)
	}
}

func TestStructuredError_Cause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewError(ErrCodeBrowserFailed, "navigate").
		WithCause(cause).
		WithRetryable(true).
		Build()

	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable via Unwrap")
	}
	if !IsRetryable(err) {
		t.Error("expected retryable")
	}
	want := "BROWSER_FAILED: navigate (caused by: connection reset)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCodeOf_PlainError(t *testing.T) {
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("expected empty code, got %q", got)
	}
	if IsRetryable(nil) {
		t.Error("nil is not retryable")
	}
}
