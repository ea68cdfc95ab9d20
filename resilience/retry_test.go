package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	apperrors "github.com/kbukum/collector/errors"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2,
	}
}

func TestRetry(t *testing.T) {
	transient := apperrors.ServiceUnavailable("redis")
	permanent := apperrors.InvalidInput("title", "blank")

	tests := []struct {
		name      string
		attempts  int
		failures  []error
		wantCalls int
		wantErr   error
	}{
		{"succeeds first attempt", 3, nil, 1, nil},
		{"succeeds after transient failure", 3, []error{transient}, 2, nil},
		{"exhausts attempts", 3, []error{transient, transient, transient}, 3, transient},
		{"stops on permanent failure", 3, []error{permanent}, 1, permanent},
		{"stops on plain error", 3, []error{fmt.Errorf("unknown")}, 1, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			got, err := Retry(context.Background(), fastRetry(tc.attempts), func(context.Context) (int, error) {
				calls++
				if calls <= len(tc.failures) {
					return 0, tc.failures[calls-1]
				}
				return 7, nil
			})
			if calls != tc.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tc.wantCalls)
			}
			switch {
			case tc.wantErr != nil && !errors.Is(err, tc.wantErr):
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			case len(tc.failures) < tc.wantCalls && (err != nil || got != 7):
				t.Errorf("Retry = %d, %v", got, err)
			case len(tc.failures) >= tc.wantCalls && err == nil:
				t.Error("expected error")
			}
		})
	}
}

func TestRetryRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastRetry(10)
	cfg.InitialBackoff = time.Second
	cfg.MaxBackoff = time.Second
	cfg.OnRetry = func(int, error, time.Duration) { cancel() }

	calls := 0
	_, err := Retry(ctx, cfg, func(context.Context) (struct{}, error) {
		calls++
		return struct{}{}, apperrors.ServiceUnavailable("kafka")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryOnRetryCallback(t *testing.T) {
	cfg := fastRetry(3)
	var attempts []int
	cfg.OnRetry = func(attempt int, _ error, backoff time.Duration) {
		attempts = append(attempts, attempt)
		if backoff <= 0 {
			t.Errorf("backoff = %v", backoff)
		}
	}
	_, _ = Retry(context.Background(), cfg, func(context.Context) (int, error) {
		return 0, apperrors.ConnectionFailed("s3")
	})
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("OnRetry attempts = %v, want [1 2]", attempts)
	}
}

func TestRetryCustomRetryIf(t *testing.T) {
	cfg := fastRetry(4)
	cfg.RetryIf = func(error) bool { return true }
	calls := 0
	_, err := Retry(context.Background(), cfg, func(context.Context) (int, error) {
		calls++
		return 0, fmt.Errorf("plain")
	})
	if err == nil || calls != 4 {
		t.Errorf("calls = %d, err = %v", calls, err)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"service unavailable", apperrors.ServiceUnavailable("redis"), true},
		{"database error", apperrors.DatabaseError(fmt.Errorf("locked")), true},
		{"wrapped retryable", fmt.Errorf("flush: %w", apperrors.ConnectionFailed("kafka")), true},
		{"invalid input", apperrors.InvalidInput("id", "empty"), false},
		{"conflict", apperrors.Conflict("duplicate"), false},
		{"plain error", fmt.Errorf("boom"), false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("x: %w", context.DeadlineExceeded), false},
		{"circuit open", ErrCircuitOpen, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRetryable(tc.err); got != tc.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, BackoffFactor: 2}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("attempt %d", tc.attempt), func(t *testing.T) {
			if got := calculateBackoff(tc.attempt, cfg); got != tc.want {
				t.Errorf("calculateBackoff = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRetryConfigApplyDefaults(t *testing.T) {
	var cfg RetryConfig
	cfg.ApplyDefaults()
	d := DefaultRetryConfig()
	if cfg.MaxAttempts != d.MaxAttempts || cfg.InitialBackoff != d.InitialBackoff ||
		cfg.MaxBackoff != d.MaxBackoff || cfg.BackoffFactor != d.BackoffFactor || cfg.RetryIf == nil {
		t.Errorf("ApplyDefaults = %+v", cfg)
	}
}
