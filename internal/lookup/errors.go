package lookup

import (
	"errors"
	"fmt"
)

// Common errors returned by the lookup clients.
var (
	// ErrNotFound indicates the service had no match for the query.
	ErrNotFound = errors.New("no match found")

	// ErrRateLimited indicates the service rate limit has been exceeded.
	ErrRateLimited = errors.New("lookup rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error during lookup")

	// ErrInvalidResponse indicates an unexpected service response.
	ErrInvalidResponse = errors.New("invalid lookup response")
)

// APIError represents an HTTP error from a lookup service.
type APIError struct {
	Source     SourceKind
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// IsNotFound returns true if the error indicates the query had no match.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsRetryable returns true if the error warrants another attempt: rate
// limiting, server-side failures, and network errors. Client errors such as
// 404 are terminal and mean "no match".
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrNetworkError) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}
