package reasoner

import (
	"fmt"
	"time"
)

// UpstreamError reports a non-2xx response from the model endpoint.
type UpstreamError struct {
	// StatusCode is the HTTP status returned.
	StatusCode int

	// Message is the response body, truncated for logs.
	Message string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("model endpoint returned status %d: %s", e.StatusCode, e.Message)
}

// TimeoutError reports that the model call exceeded its deadline.
type TimeoutError struct {
	// Timeout is the configured request timeout.
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("model call timed out after %s", e.Timeout)
}
