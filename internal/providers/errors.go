package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RateLimitError signals the backend refused a request because of its
// request-rate quota. Providers return these without retrying; the calling
// pipeline decides how long to cool down.
type RateLimitError struct {
	Provider string
}

func (e *RateLimitError) Error() string {
	if e.Provider == "" {
		return "rate limited"
	}
	return e.Provider + ": rate limited"
}

// AuthError signals invalid or missing credentials. Never retried.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return "authentication error: " + e.Message
}

// ServerError signals a 5xx response from the backend.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Body)
}

// IsRateLimit checks if an error is a rate-limit error.
func IsRateLimit(err error) bool {
	var r *RateLimitError
	return errors.As(err, &r)
}

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	var a *AuthError
	return errors.As(err, &a)
}

// retryServerErrors retries fn on ServerError with exponential back-off.
// Rate-limit and auth errors are returned immediately so the caller can
// apply its own policy.
func retryServerErrors(ctx context.Context, maxRetries int, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var srv *ServerError
		if !errors.As(lastErr, &srv) {
			return lastErr
		}

		if attempt < maxRetries {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}
