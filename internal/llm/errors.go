package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	Err error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down, overloaded or
// unreachable. Status carries the HTTP status when one was received.
type ErrProviderUnavailable struct {
	Status int
	Err    error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// Overloaded reports whether the provider answered 503.
func (e *ErrProviderUnavailable) Overloaded() bool {
	return e.Status == http.StatusServiceUnavailable
}

// ErrMaxTokensExceeded indicates structured output was cut off by the
// MaxTokens limit (finish reason MAX_TOKENS).
type ErrMaxTokensExceeded struct {
	Partial string
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: MAX_TOKENS"
}

// ErrContentBlocked indicates the provider refused to generate on safety
// grounds. It is not a transport failure and is never retried.
type ErrContentBlocked struct {
	Reason string
}

func (e *ErrContentBlocked) Error() string {
	return fmt.Sprintf("content blocked by provider safety filter: %s", e.Reason)
}

// ErrEmptyGeneration indicates the provider returned no usable text.
var ErrEmptyGeneration = errors.New("LLM returned empty output")
