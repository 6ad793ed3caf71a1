package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type testWork struct {
	id   int
	fail bool
}

func TestNewPool_Defaults(t *testing.T) {
	processor := func(_ context.Context, _ testWork) error { return nil }

	pool := NewPool(5, 100, processor)
	if pool.workers != 5 {
		t.Errorf("Expected 5 workers, got %d", pool.workers)
	}
	if pool.queueSize != 100 {
		t.Errorf("Expected queue size 100, got %d", pool.queueSize)
	}

	pool = NewPool(0, 0, processor)
	if pool.workers != 4 {
		t.Errorf("Expected default 4 workers, got %d", pool.workers)
	}
	if pool.queueSize != 1000 {
		t.Errorf("Expected default queue size 1000, got %d", pool.queueSize)
	}
}

func TestNewPool_NilProcessor(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for nil processor")
		}
	}()
	NewPool[testWork](5, 100, nil)
}

func TestPool_SubmitBeforeStart(t *testing.T) {
	pool := NewPool(2, 10, func(_ context.Context, _ testWork) error { return nil })

	if err := pool.Submit(testWork{id: 1}); !errors.Is(err, ErrPoolNotStarted) {
		t.Errorf("Expected ErrPoolNotStarted, got %v", err)
	}
}

func TestPool_ProcessesWork(t *testing.T) {
	var processed, failed int64
	processor := func(_ context.Context, w testWork) error {
		atomic.AddInt64(&processed, 1)
		if w.fail {
			atomic.AddInt64(&failed, 1)
			return errors.New("boom")
		}
		return nil
	}

	pool := NewPool(2, 10, processor)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pool.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := pool.Submit(testWork{id: i, fail: i == 0}); err != nil {
			t.Fatalf("Submit(%d) failed: %v", i, err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt64(&processed) < 5 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	stats := pool.Stats()
	if stats.Submitted != 5 {
		t.Errorf("Expected 5 submitted, got %d", stats.Submitted)
	}
	if stats.Processed != 5 {
		t.Errorf("Expected 5 processed, got %d", stats.Processed)
	}
	if stats.Failed != 1 {
		t.Errorf("Expected 1 failed, got %d", stats.Failed)
	}
}

func TestPool_QueueFull(t *testing.T) {
	block := make(chan struct{})
	processor := func(_ context.Context, _ testWork) error {
		<-block
		return nil
	}

	pool := NewPool(1, 1, processor)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer close(block)

	if err := pool.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Fill the single worker and the single queue slot, then overflow
	sawFull := false
	for i := 0; i < 10; i++ {
		if err := pool.Submit(testWork{id: i}); errors.Is(err, ErrQueueFull) {
			sawFull = true
			break
		}
	}
	if !sawFull {
		t.Error("Expected ErrQueueFull after saturating the queue")
	}
	if pool.Stats().Dropped == 0 {
		t.Error("Expected dropped count > 0")
	}
}

func TestPool_Stop(t *testing.T) {
	pool := NewPool(2, 10, func(_ context.Context, _ testWork) error { return nil })
	ctx := context.Background()

	if err := pool.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := pool.Stop(time.Second); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if err := pool.Submit(testWork{id: 1}); !errors.Is(err, ErrPoolStopped) {
		t.Errorf("Expected ErrPoolStopped after Stop, got %v", err)
	}

	// Stop is idempotent
	if err := pool.Stop(time.Second); err != nil {
		t.Errorf("Second Stop should be nil, got %v", err)
	}
}
