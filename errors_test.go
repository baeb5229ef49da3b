package chatcore

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "rate limited sentinel", err: ErrRateLimited, want: true},
		{name: "unavailable sentinel", err: ErrProviderUnavailable, want: true},
		{name: "wrapped rate limit", err: fmt.Errorf("call failed: %w", ErrRateLimited), want: true},
		{
			name: "retryable provider error",
			err:  &ProviderError{Provider: "anthropic", StatusCode: 529, Message: "overloaded", Retryable: true},
			want: true,
		},
		{
			name: "non-retryable provider error",
			err:  &ProviderError{Provider: "anthropic", StatusCode: 400, Message: "bad request"},
			want: false,
		},
		{name: "contract error", err: ErrStreamEnded, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsAuthError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "api key sentinel", err: ErrInvalidAPIKey, want: true},
		{name: "401 provider error", err: &ProviderError{Provider: "anthropic", StatusCode: 401, Message: "unauthorized"}, want: true},
		{name: "403 provider error", err: &ProviderError{Provider: "anthropic", StatusCode: 403, Message: "forbidden"}, want: true},
		{name: "500 provider error", err: &ProviderError{Provider: "anthropic", StatusCode: 500, Message: "oops"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAuthError(tt.err); got != tt.want {
				t.Errorf("IsAuthError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestModelError_Unwrap(t *testing.T) {
	err := &ModelError{
		Model:     "gpt-4",
		Generator: "anthropic",
		Reason:    "model not supported",
		Err:       ErrInvalidModel,
	}

	if !errors.Is(err, ErrInvalidModel) {
		t.Error("errors.Is(ModelError, ErrInvalidModel) = false")
	}
	if msg := err.Error(); msg == "" {
		t.Error("Error() is empty")
	}
}
