package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:        maxRetries,
		BaseDelay:         0.001,
		MaxDelay:          0.001,
		BackoffMultiplier: 1,
	}
}

func TestRetrySucceedsFirstTry(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), fastPolicy(3), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" || calls != 1 {
		t.Errorf("expected one call returning ok, got %q after %d calls", result, calls)
	}
}

func TestRetryRetriesRetryableErrors(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), fastPolicy(3), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &NetworkError{ClientError: ClientError{Message: "connection refused"}}
		}
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "recovered" || calls != 3 {
		t.Errorf("expected recovery on call 3, got %q after %d calls", result, calls)
	}
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastPolicy(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, &InvalidRequestError{ProviderError: ProviderError{ClientError: ClientError{Message: "bad request"}}}
	})
	var invalid *InvalidRequestError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidRequestError, got %v", err)
	}
	if calls != 1 {
		t.Errorf("non-retryable errors must not be retried, got %d calls", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastPolicy(2), func(ctx context.Context) (int, error) {
		calls++
		return 0, &ServerError{ProviderError: ProviderError{ClientError: ClientError{Message: "boom"}, Retryable: true}}
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("expected initial call plus 2 retries, got %d calls", calls)
	}
}

func TestRetryCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxRetries: 3, BaseDelay: 10, MaxDelay: 10, BackoffMultiplier: 1}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Retry(ctx, policy, func(ctx context.Context) (int, error) {
		return 0, &NetworkError{ClientError: ClientError{Message: "down"}}
	})
	var abort *AbortError
	if !errors.As(err, &abort) {
		t.Fatalf("expected AbortError, got %v", err)
	}
}

func TestRetryOnRetryCallback(t *testing.T) {
	var attempts []int
	policy := fastPolicy(2)
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		attempts = append(attempts, attempt)
	}

	calls := 0
	_, err := Retry(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, &NetworkError{ClientError: ClientError{Message: "down"}}
		}
		return 1, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attempts) != 1 || attempts[0] != 1 {
		t.Errorf("expected one retry callback with attempt 1, got %v", attempts)
	}
}

func TestDelayCapsAtMax(t *testing.T) {
	policy := RetryPolicy{BaseDelay: 1, MaxDelay: 4, BackoffMultiplier: 2}
	if d := policy.Delay(10); d != 4*time.Second {
		t.Errorf("expected delay capped at 4s, got %v", d)
	}
}

func TestDelayJitterBounds(t *testing.T) {
	policy := RetryPolicy{BaseDelay: 2, MaxDelay: 60, BackoffMultiplier: 1, Jitter: true}
	for i := 0; i < 100; i++ {
		d := policy.Delay(0)
		if d < time.Second || d >= 3*time.Second {
			t.Fatalf("jittered delay out of [1s, 3s): %v", d)
		}
	}
}
