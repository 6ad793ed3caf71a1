package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func quickConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), quickConfig(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), quickConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("always fails")
	calls := 0
	err := Do(context.Background(), quickConfig(), func() error {
		calls++
		return sentinel
	})
	if err == nil {
		t.Fatal("Expected error after exhausting attempts")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("Expected wrapped sentinel, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestDo_NonRetryable(t *testing.T) {
	sentinel := errors.New("bad input")
	calls := 0
	err := Do(context.Background(), quickConfig(), func() error {
		calls++
		return NonRetryable(sentinel)
	})
	if calls != 1 {
		t.Errorf("Non-retryable error should stop after 1 call, got %d", calls)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("Expected wrapped sentinel, got %v", err)
	}
	if !IsNonRetryable(err) {
		t.Error("Expected IsNonRetryable to be true")
	}
}

func TestDo_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
	}

	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, cfg, func() error { return errors.New("fail") })
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled in chain, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestDo_ValidatesConfig(t *testing.T) {
	err := Do(context.Background(), Config{InitialDelay: -1}, func() error { return nil })
	if err == nil {
		t.Error("Expected error for negative InitialDelay")
	}

	err = Do(context.Background(), Config{
		InitialDelay: time.Second,
		MaxDelay:     time.Millisecond,
	}, func() error { return nil })
	if err == nil {
		t.Error("Expected error for MaxDelay < InitialDelay")
	}
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	result, err := DoWithResult(context.Background(), quickConfig(), func() (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("DoWithResult failed: %v", err)
	}
	if result != 42 {
		t.Errorf("Expected 42, got %d", result)
	}
}

func TestPersistent(t *testing.T) {
	cfg := Persistent()
	if cfg.MaxAttempts <= DefaultConfig().MaxAttempts {
		t.Error("Persistent config should allow more attempts than default")
	}
	if !cfg.AddJitter {
		t.Error("Persistent config should add jitter")
	}
}
