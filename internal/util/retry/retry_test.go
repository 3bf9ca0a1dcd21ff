package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func noSleep() Option {
	return WithSleep(func(context.Context, time.Duration) error { return nil })
}

func TestDo_Success(t *testing.T) {
	t.Parallel()
	attempts := 0

	err := Do(context.Background(), func() error {
		attempts++
		return nil
	}, noSleep())

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got: %d", attempts)
	}
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	t.Parallel()
	attempts := 0

	err := Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, noSleep())

	if err != nil {
		t.Errorf("Expected no error after retries, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got: %d", attempts)
	}
}

func TestDo_AttemptBudget(t *testing.T) {
	t.Parallel()
	attempts := 0

	err := Do(context.Background(), func() error {
		attempts++
		return errors.New("persistent error")
	}, WithMaxAttempts(4), noSleep())

	if err == nil {
		t.Fatal("Expected error after exhausting attempts")
	}
	if attempts != 4 {
		t.Errorf("Expected 4 attempts, got: %d", attempts)
	}
}

func TestDo_FatalStopsRetrying(t *testing.T) {
	t.Parallel()
	attempts := 0
	fatal := errors.New("bad input")

	err := Do(context.Background(), func() error {
		attempts++
		return Fatal(fatal)
	}, noSleep())

	if err == nil {
		t.Fatal("Expected error")
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt for fatal error, got: %d", attempts)
	}
	if !errors.Is(err, fatal) {
		t.Errorf("Expected wrapped original error, got: %v", err)
	}
}

func TestDo_DelaysAreNonDecreasingAndCapped(t *testing.T) {
	t.Parallel()
	var delays []time.Duration

	err := Do(context.Background(), func() error {
		return errors.New("fail")
	},
		WithMaxAttempts(6),
		WithInitialDelay(10*time.Millisecond),
		WithMultiplier(3),
		WithMaxDelay(50*time.Millisecond),
		WithSleep(func(_ context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		}),
	)

	if err == nil {
		t.Fatal("Expected error")
	}
	if len(delays) != 5 {
		t.Fatalf("Expected 5 waits, got: %d", len(delays))
	}
	for i := 1; i < len(delays); i++ {
		if delays[i] < delays[i-1] {
			t.Errorf("Delay decreased: %v after %v", delays[i], delays[i-1])
		}
	}
	for _, d := range delays {
		if d > 50*time.Millisecond {
			t.Errorf("Delay %v exceeds cap", d)
		}
	}
	if delays[0] != 10*time.Millisecond {
		t.Errorf("Expected first delay 10ms, got: %v", delays[0])
	}
}

func TestDo_OnRetryCallback(t *testing.T) {
	t.Parallel()
	var attempts []int

	_ = Do(context.Background(), func() error {
		return errors.New("fail")
	},
		WithMaxAttempts(3),
		WithOnRetry(func(attempt int, _ time.Duration, _ error) {
			attempts = append(attempts, attempt)
		}),
		noSleep(),
	)

	if len(attempts) != 2 {
		t.Fatalf("Expected 2 retry callbacks, got: %d", len(attempts))
	}
	if attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("Expected attempts [1 2], got: %v", attempts)
	}
}

func TestDo_CancelledBetweenAttempts(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := Do(ctx, func() error {
		attempts++
		cancel()
		return errors.New("fail")
	}, WithInitialDelay(time.Millisecond))

	if err == nil {
		t.Fatal("Expected cancellation error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled in chain, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got: %d", attempts)
	}
}

func TestIsFatal(t *testing.T) {
	t.Parallel()
	if IsFatal(errors.New("plain")) {
		t.Error("Plain error should not be fatal")
	}
	if !IsFatal(Fatal(errors.New("x"))) {
		t.Error("Fatal-wrapped error should be fatal")
	}
	if Fatal(nil) != nil {
		t.Error("Fatal(nil) should be nil")
	}
}
