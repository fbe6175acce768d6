package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrRetriesExhausted is wrapped by errors returned once every retry attempt failed.
var ErrRetriesExhausted = errors.New("model retries exhausted")

// APIError describes a failed call to the model API. StatusCode is zero
// for transport failures, which carry the underlying error in Cause.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
	Cause      error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("model request failed: %v", e.Cause)
	}
	if e.Type != "" {
		return fmt.Sprintf("model API error %d (%s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("model API error %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether repeating the request may succeed: transport
// failures, rate limiting, timeouts and server-side errors.
func (e *APIError) Retryable() bool {
	if e.StatusCode == 0 {
		return !errors.Is(e.Cause, context.Canceled)
	}
	switch e.StatusCode {
	case http.StatusRequestTimeout, http.StatusConflict, http.StatusTooManyRequests:
		return true
	}
	return e.StatusCode >= 500
}

// IsRetryable reports whether err is a retryable *APIError.
func IsRetryable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Retryable()
}
