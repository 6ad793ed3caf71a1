package buffer

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestCircularBuffer_WriteRead(t *testing.T) {
	buf, err := NewCircular[int](4)
	if err != nil {
		t.Fatalf("NewCircular failed: %v", err)
	}

	for i := 1; i <= 3; i++ {
		if err := buf.Write(i); err != nil {
			t.Fatalf("Write(%d) failed: %v", i, err)
		}
	}

	if buf.Size() != 3 {
		t.Errorf("Expected size 3, got %d", buf.Size())
	}

	for i := 1; i <= 3; i++ {
		v, ok := buf.Read()
		if !ok {
			t.Fatalf("Read %d returned no item", i)
		}
		if v != i {
			t.Errorf("Expected %d in FIFO order, got %d", i, v)
		}
	}

	if _, ok := buf.Read(); ok {
		t.Error("Read on empty buffer should return false")
	}
}

func TestCircularBuffer_DropOldest(t *testing.T) {
	var dropped []int
	buf, err := NewCircular[int](2,
		WithOverflowPolicy[int](DropOldest),
		WithDropCallback[int](func(item int) { dropped = append(dropped, item) }),
	)
	if err != nil {
		t.Fatalf("NewCircular failed: %v", err)
	}

	for i := 1; i <= 4; i++ {
		if err := buf.Write(i); err != nil {
			t.Fatalf("Write(%d) failed: %v", i, err)
		}
	}

	// 1 and 2 evicted, 3 and 4 retained
	if len(dropped) != 2 || dropped[0] != 1 || dropped[1] != 2 {
		t.Errorf("Expected drops [1 2], got %v", dropped)
	}

	v, _ := buf.Read()
	if v != 3 {
		t.Errorf("Expected oldest surviving item 3, got %d", v)
	}

	if buf.Stats().Drops() != 2 {
		t.Errorf("Expected 2 drops in stats, got %d", buf.Stats().Drops())
	}
}

func TestCircularBuffer_DropNewest(t *testing.T) {
	buf, err := NewCircular[int](2, WithOverflowPolicy[int](DropNewest))
	if err != nil {
		t.Fatalf("NewCircular failed: %v", err)
	}

	for i := 1; i <= 4; i++ {
		_ = buf.Write(i)
	}

	v, _ := buf.Read()
	if v != 1 {
		t.Errorf("DropNewest should retain oldest item 1, got %d", v)
	}
}

func TestCircularBuffer_ReadContext_Blocks(t *testing.T) {
	buf, err := NewCircular[string](4)
	if err != nil {
		t.Fatalf("NewCircular failed: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var got string
	var readErr error
	go func() {
		defer wg.Done()
		got, readErr = buf.ReadContext(context.Background())
	}()

	time.Sleep(20 * time.Millisecond)
	if err := buf.Write("wake"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	wg.Wait()
	if readErr != nil {
		t.Fatalf("ReadContext failed: %v", readErr)
	}
	if got != "wake" {
		t.Errorf("Expected item 'wake', got %q", got)
	}
}

func TestCircularBuffer_ReadContext_Cancelled(t *testing.T) {
	buf, err := NewCircular[int](4)
	if err != nil {
		t.Fatalf("NewCircular failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := buf.ReadContext(ctx)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Cancelled ReadContext did not return")
	}
}

func TestCircularBuffer_ReadContext_Closed(t *testing.T) {
	buf, err := NewCircular[int](4)
	if err != nil {
		t.Fatalf("NewCircular failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := buf.ReadContext(context.Background())
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	_ = buf.Close()

	select {
	case err := <-done:
		if err == nil {
			t.Error("Expected error from closed buffer")
		}
	case <-time.After(time.Second):
		t.Fatal("ReadContext on closed buffer did not return")
	}
}

func TestCircularBuffer_ReadBatch(t *testing.T) {
	buf, err := NewCircular[int](8)
	if err != nil {
		t.Fatalf("NewCircular failed: %v", err)
	}

	for i := 1; i <= 5; i++ {
		_ = buf.Write(i)
	}

	batch := buf.ReadBatch(3)
	if len(batch) != 3 {
		t.Fatalf("Expected batch of 3, got %d", len(batch))
	}
	for i, v := range batch {
		if v != i+1 {
			t.Errorf("Batch item %d: expected %d, got %d", i, i+1, v)
		}
	}

	if buf.Size() != 2 {
		t.Errorf("Expected 2 remaining, got %d", buf.Size())
	}
}

func TestCircularBuffer_Stats(t *testing.T) {
	buf, err := NewCircular[int](2)
	if err != nil {
		t.Fatalf("NewCircular failed: %v", err)
	}

	_ = buf.Write(1)
	_ = buf.Write(2)
	_ = buf.Write(3) // drops 1
	_, _ = buf.Read()

	summary := buf.Stats().Summary()
	if summary.Writes != 3 {
		t.Errorf("Expected 3 writes, got %d", summary.Writes)
	}
	if summary.Reads != 1 {
		t.Errorf("Expected 1 read, got %d", summary.Reads)
	}
	if summary.Drops != 1 {
		t.Errorf("Expected 1 drop, got %d", summary.Drops)
	}
	if summary.DropRate == 0 {
		t.Error("Expected non-zero drop rate")
	}
}
