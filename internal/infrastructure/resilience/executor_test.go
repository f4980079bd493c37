package resilience

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2,
	}
}

func TestExecuteRetriesRetryableFailure(t *testing.T) {
	exec := NewExecutor(Config{Retry: fastRetry(3)}, nil)

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{Retryable: errors.Is(err, errTemp), RecordFailure: true}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteStopsOnPermanentFailure(t *testing.T) {
	exec := NewExecutor(Config{Retry: fastRetry(3)}, nil)

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errPermanent
	}, func(error) ErrorClassification { return ErrorClassification{} })
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		Retry: fastRetry(1),
		Breaker: BreakerPolicy{
			Enabled:          true,
			MinRequests:      2,
			FailureRatio:     0.5,
			OpenTimeout:      50 * time.Millisecond,
			HalfOpenMaxCalls: 1,
		},
	}, nil)

	errDown := errors.New("down")
	classifier := func(error) ErrorClassification { return ErrorClassification{RecordFailure: true} }
	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "embed", func(context.Context) error { return errDown }, classifier)
		if !errors.Is(err, errDown) {
			t.Fatalf("iteration %d: expected down error, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "embed", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, classifier)
	if !errors.Is(err, gobreaker.ErrOpenState) || !IsCircuitOpen(err) {
		t.Fatalf("expected open state error, got %v", err)
	}

	// breakers are per operation
	if err := exec.Execute(context.Background(), "generate", func(context.Context) error { return nil }, classifier); err != nil {
		t.Fatalf("other operation should not be affected, got %v", err)
	}
}

func TestCallReturnsValue(t *testing.T) {
	exec := NewExecutor(Config{Retry: fastRetry(2)}, nil)

	calls := 0
	v, err := Call(context.Background(), exec, "op", func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, &net.OpError{Op: "dial", Err: errors.New("refused")}
		}
		return 42, nil
	}, nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if v != 42 || calls != 2 {
		t.Fatalf("expected 42 after 2 calls, got %d after %d", v, calls)
	}
}

func TestExecuteHonoursCancelledContext(t *testing.T) {
	exec := NewExecutor(Config{Retry: fastRetry(3)}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := exec.Execute(ctx, "op", func(context.Context) error {
		t.Fatalf("operation must not run with a cancelled context")
		return nil
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRetryDelayIsCapped(t *testing.T) {
	p := RetryPolicy{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond, Multiplier: 2}

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}
	for i, w := range want {
		if got := p.delay(i + 1); got != w {
			t.Fatalf("delay(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestClassifyNetwork(t *testing.T) {
	if c := ClassifyNetwork(context.Canceled); c.Retryable || c.RecordFailure {
		t.Fatalf("cancellation must be neither retried nor recorded: %+v", c)
	}
	if c := ClassifyNetwork(&net.OpError{Op: "dial", Err: errors.New("refused")}); !c.Retryable {
		t.Fatalf("network errors must be retried: %+v", c)
	}
	if c := ClassifyNetwork(errors.New("bad request")); c.Retryable || !c.RecordFailure {
		t.Fatalf("unexpected classification %+v", c)
	}
}
