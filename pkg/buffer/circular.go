package buffer

import (
	"context"
	"sync"

	"github.com/c360/sensorfuse/errors"
)

// circularBuffer is a thread-safe ring buffer with configurable overflow
// policies. Insertion order is preserved; when full under DropOldest the
// oldest unconsumed item is evicted first.
type circularBuffer[T any] struct {
	mu       sync.RWMutex
	items    []T
	capacity int
	size     int
	head     int // next write position
	tail     int // next read position
	stats    *Statistics
	metrics  *bufferMetrics // optional Prometheus metrics
	opts     *bufferOptions[T]

	notEmpty *sync.Cond
	closed   bool
}

func newCircularBuffer[T any](capacity int, opts *bufferOptions[T]) (*circularBuffer[T], error) {
	if capacity <= 0 {
		capacity = 1
	}

	stats := NewStatistics()

	var metrics *bufferMetrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newBufferMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "buffer", "newCircularBuffer", "metrics registration")
		}
	}

	cb := &circularBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
		stats:    stats,
		metrics:  metrics,
		opts:     opts,
	}
	cb.notEmpty = sync.NewCond(&cb.mu)

	return cb, nil
}

// Write adds an item according to the overflow policy. Never blocks.
func (cb *circularBuffer[T]) Write(item T) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.closed {
		return errors.WrapInvalid(errors.ErrAlreadyStopped, "Buffer", "Write", "buffer closed")
	}

	if cb.size == cb.capacity {
		switch cb.opts.overflowPolicy {
		case DropOldest:
			dropped := cb.items[cb.tail]
			cb.tail = (cb.tail + 1) % cb.capacity
			cb.size--

			cb.stats.Overflow()
			cb.stats.Drop()
			if cb.metrics != nil {
				cb.metrics.recordDrop()
			}
			if cb.opts.dropCallback != nil {
				// Run the callback outside the lock to avoid deadlock
				defer cb.opts.dropCallback(dropped)
			}

		case DropNewest:
			cb.stats.Overflow()
			cb.stats.Drop()
			if cb.metrics != nil {
				cb.metrics.recordDrop()
			}
			if cb.opts.dropCallback != nil {
				defer cb.opts.dropCallback(item)
			}
			return nil
		}
	}

	cb.items[cb.head] = item
	cb.head = (cb.head + 1) % cb.capacity
	cb.size++

	cb.stats.Write()
	cb.stats.UpdateSize(int64(cb.size))
	if cb.metrics != nil {
		cb.metrics.recordWrite(cb.size, cb.capacity)
	}

	cb.notEmpty.Signal()
	return nil
}

// Read retrieves and removes one item from the buffer.
func (cb *circularBuffer[T]) Read() (T, bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	var zero T
	if cb.size == 0 {
		return zero, false
	}
	return cb.takeLocked(), true
}

// ReadContext blocks until an item is available, the buffer is closed, or
// the context is cancelled. Cancellation wakes the reader via Broadcast.
func (cb *circularBuffer[T]) ReadContext(ctx context.Context) (T, error) {
	var zero T

	// Wake this reader when the context is cancelled. Broadcast is safe to
	// call without holding the mutex.
	stop := context.AfterFunc(ctx, func() {
		cb.notEmpty.Broadcast()
	})
	defer stop()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	for cb.size == 0 {
		if cb.closed {
			return zero, errors.ErrSubscriptionClosed
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		cb.notEmpty.Wait()
	}

	return cb.takeLocked(), nil
}

// takeLocked removes and returns the oldest item. Caller holds cb.mu.
func (cb *circularBuffer[T]) takeLocked() T {
	var zero T
	item := cb.items[cb.tail]
	cb.items[cb.tail] = zero // clear for GC
	cb.tail = (cb.tail + 1) % cb.capacity
	cb.size--

	cb.stats.Read()
	cb.stats.UpdateSize(int64(cb.size))
	if cb.metrics != nil {
		cb.metrics.recordRead(cb.size, cb.capacity)
	}
	return item
}

// ReadBatch retrieves and removes up to max items from the buffer.
func (cb *circularBuffer[T]) ReadBatch(max int) []T {
	if max <= 0 {
		return nil
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.size == 0 {
		return nil
	}

	readCount := max
	if readCount > cb.size {
		readCount = cb.size
	}

	result := make([]T, readCount)
	for i := 0; i < readCount; i++ {
		result[i] = cb.takeLocked()
	}
	return result
}

// Peek retrieves one item without removing it from the buffer.
func (cb *circularBuffer[T]) Peek() (T, bool) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	var zero T
	if cb.size == 0 {
		return zero, false
	}

	cb.stats.Peek()
	return cb.items[cb.tail], true
}

// Size returns the current number of items in the buffer.
func (cb *circularBuffer[T]) Size() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.size
}

// Capacity returns the maximum number of items the buffer can hold.
func (cb *circularBuffer[T]) Capacity() int {
	return cb.capacity // immutable, no lock needed
}

// Clear removes all items from the buffer.
func (cb *circularBuffer[T]) Clear() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	var zero T
	if cb.opts.dropCallback != nil {
		toDrop := make([]T, cb.size)
		for i := 0; i < cb.size; i++ {
			toDrop[i] = cb.items[(cb.tail+i)%cb.capacity]
		}
		defer func() {
			for _, item := range toDrop {
				cb.opts.dropCallback(item)
			}
		}()
	}

	for i := range cb.items {
		cb.items[i] = zero
	}
	cb.head = 0
	cb.tail = 0
	cb.size = 0

	cb.stats.UpdateSize(0)
	if cb.metrics != nil {
		cb.metrics.updateSize(0, cb.capacity)
	}
}

// Stats returns buffer statistics (always available for observability).
func (cb *circularBuffer[T]) Stats() *Statistics {
	return cb.stats
}

// Close shuts down the buffer and wakes blocked readers.
func (cb *circularBuffer[T]) Close() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.closed {
		return nil
	}
	cb.closed = true
	cb.notEmpty.Broadcast()
	return nil
}
