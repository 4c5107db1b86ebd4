package lookup

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Millisecond, MaxBackoff: 4 * time.Millisecond}
}

func TestBackoffDoubling(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseBackoff: 500 * time.Millisecond, MaxBackoff: 8 * time.Second}

	tests := []struct {
		n    int
		want time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 8 * time.Second}, // capped
		{9, 8 * time.Second},
	}

	for _, tt := range tests {
		if got := p.Backoff(tt.n); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestDoSucceedsAfterRetryableFailures(t *testing.T) {
	var calls int
	err := fastPolicy().Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return ErrRateLimited
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	var calls int
	err := fastPolicy().Do(context.Background(), func() error {
		calls++
		return ErrNotFound
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Do() error = %v, want ErrNotFound", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	var calls int
	err := fastPolicy().Do(context.Background(), func() error {
		calls++
		return ErrNetworkError
	})
	if !errors.Is(err, ErrNetworkError) {
		t.Errorf("Do() error = %v, want ErrNetworkError", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	err := fastPolicy().Do(ctx, func() error {
		calls++
		cancel()
		return ErrRateLimited
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		status    int
		wantErr   error
		wantAPI   bool
		retryable bool
	}{
		{http.StatusOK, nil, false, false},
		{http.StatusNotFound, ErrNotFound, false, false},
		{http.StatusTooManyRequests, ErrRateLimited, false, true},
		{http.StatusInternalServerError, nil, true, true},
		{http.StatusBadRequest, nil, true, false},
	}

	for _, tt := range tests {
		resp := &http.Response{StatusCode: tt.status}
		err := CheckStatus(SourceScholar, resp)

		if tt.wantErr == nil && !tt.wantAPI {
			if err != nil {
				t.Errorf("CheckStatus(%d) = %v, want nil", tt.status, err)
			}
			continue
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Errorf("CheckStatus(%d) = %v, want %v", tt.status, err, tt.wantErr)
		}
		if tt.wantAPI {
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Errorf("CheckStatus(%d) = %T, want *APIError", tt.status, err)
				continue
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
		}
		if got := IsRetryable(err); got != tt.retryable {
			t.Errorf("IsRetryable(CheckStatus(%d)) = %v, want %v", tt.status, got, tt.retryable)
		}
	}
}

func TestIsNotFoundCovers404APIError(t *testing.T) {
	err := &APIError{Source: SourceArxiv, StatusCode: 404, Message: "Not Found"}
	if !IsNotFound(err) {
		t.Error("IsNotFound() = false for 404 APIError")
	}
	if IsNotFound(ErrRateLimited) {
		t.Error("IsNotFound(ErrRateLimited) = true")
	}
}
