package chatcore

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
// These can be checked with errors.Is().
var (
	// ErrStreamStarted indicates StartStream was called on a session that
	// already started. This is a bug in the orchestrating workflow, not
	// bad input.
	ErrStreamStarted = errors.New("chatcore: stream already started")

	// ErrStreamEnded indicates a send was attempted on a session that
	// already ended. Like ErrStreamStarted, it signals a control-flow bug
	// in the caller and is reported rather than silently dropped.
	ErrStreamEnded = errors.New("chatcore: stream already ended")

	// ErrInvalidModel indicates the requested model is not supported by
	// the generator.
	ErrInvalidModel = errors.New("chatcore: invalid or unsupported model")

	// ErrInvalidAPIKey indicates the API key is missing, malformed, or
	// unauthorized.
	ErrInvalidAPIKey = errors.New("chatcore: invalid API key")

	// ErrRateLimited indicates the provider's rate limit has been exceeded.
	ErrRateLimited = errors.New("chatcore: rate limit exceeded")

	// ErrProviderUnavailable indicates the provider service is down or
	// unreachable.
	ErrProviderUnavailable = errors.New("chatcore: provider unavailable")
)

// ModelError represents an error related to model validation or availability.
type ModelError struct {
	Model     string // The model that was requested
	Generator string // The generator name
	Reason    string // Human-readable explanation
	Err       error  // Wrapped error (usually ErrInvalidModel)
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model '%s' for generator '%s': %s (%v)", e.Model, e.Generator, e.Reason, e.Err)
	}
	return fmt.Sprintf("model '%s' for generator '%s': %s", e.Model, e.Generator, e.Reason)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// ProviderError represents an error from an underlying provider API.
type ProviderError struct {
	Provider   string // The provider name
	StatusCode int    // HTTP status code (if applicable)
	Message    string // Error message from provider
	Retryable  bool   // Whether this error is potentially retryable
	Err        error  // Wrapped sentinel error (ErrRateLimited, ErrProviderUnavailable, etc.)
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider '%s' error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider '%s' error: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsContractError checks if an error is a stream lifecycle contract
// violation (send after end, double start). These indicate a bug in the
// calling workflow and should surface immediately rather than be retried.
func IsContractError(err error) bool {
	return errors.Is(err, ErrStreamStarted) || errors.Is(err, ErrStreamEnded)
}

// IsRetryable checks if an error is potentially retryable.
// Returns true for rate limits and temporary unavailability.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable
	}

	if errors.Is(err, ErrRateLimited) {
		return true
	}

	if errors.Is(err, ErrProviderUnavailable) {
		return true
	}

	return false
}

// IsAuthError checks if an error is related to authentication.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrInvalidAPIKey) {
		return true
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		// HTTP 401/403 indicate auth issues
		return providerErr.StatusCode == 401 || providerErr.StatusCode == 403
	}

	return false
}
