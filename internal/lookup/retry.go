package lookup

import (
	"context"
	"net/http"
	"time"
)

const (
	// DefaultMaxAttempts is the total number of tries per call, including
	// the first.
	DefaultMaxAttempts = 3

	// DefaultBaseBackoff is the delay before the first retry; it doubles
	// on each subsequent attempt.
	DefaultBaseBackoff = 500 * time.Millisecond

	// DefaultMaxBackoff caps the exponential backoff delay.
	DefaultMaxBackoff = 8 * time.Second

	// DefaultTimeout is the per-request timeout for lookup calls.
	DefaultTimeout = 20 * time.Second
)

// RetryPolicy controls the retry loop shared by the lookup clients.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryPolicy returns the standard lookup retry policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseBackoff: DefaultBaseBackoff,
		MaxBackoff:  DefaultMaxBackoff,
	}
}

// normalized fills zero fields with defaults.
func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseBackoff <= 0 {
		p.BaseBackoff = DefaultBaseBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = DefaultMaxBackoff
	}
	return p
}

// Backoff returns the delay before retry attempt n (0-based), doubling from
// BaseBackoff and capped at MaxBackoff.
func (p RetryPolicy) Backoff(n int) time.Duration {
	p = p.normalized()
	d := p.BaseBackoff
	for i := 0; i < n; i++ {
		d *= 2
		if d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// Do runs fn with the policy's retry loop. Only errors classified by
// IsRetryable trigger another attempt; all other errors return immediately.
// The context cancels both the waits and further attempts.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	p = p.normalized()

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(p.Backoff(attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return lastErr
}

// CheckStatus maps an HTTP response status to a lookup error, or nil for
// success. 404 maps to ErrNotFound so callers can treat it as "no match"
// without retrying.
func CheckStatus(source SourceKind, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return &APIError{
			Source:     source,
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		}
	}
}
