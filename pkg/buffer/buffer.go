// Package buffer provides generic, thread-safe bounded buffers with explicit
// overflow policies.
//
// The distribution bus uses one DropOldest buffer per subscriber so a slow
// consumer sheds its own oldest events instead of blocking producers. Every
// buffer collects statistics; Prometheus metrics are optional via WithMetrics.
package buffer

import "context"

// Buffer is a generic bounded buffer parameterized by item type T.
type Buffer[T any] interface {
	// Write adds an item to the buffer. Behavior when full depends on the
	// overflow policy; Write never blocks.
	Write(item T) error

	// Read retrieves and removes one item. Returns the zero value and false
	// if the buffer is empty.
	Read() (T, bool)

	// ReadContext retrieves and removes one item, blocking until an item is
	// available, the buffer is closed, or ctx is cancelled.
	ReadContext(ctx context.Context) (T, error)

	// ReadBatch retrieves and removes up to max items.
	ReadBatch(max int) []T

	// Peek retrieves one item without removing it.
	Peek() (T, bool)

	// Size returns the current number of items in the buffer.
	Size() int

	// Capacity returns the maximum number of items the buffer can hold.
	Capacity() int

	// Clear removes all items from the buffer.
	Clear()

	// Stats returns buffer statistics (always collected).
	Stats() *Statistics

	// Close shuts down the buffer and wakes any blocked readers.
	Close() error
}

// OverflowPolicy defines how the buffer behaves when it reaches capacity.
type OverflowPolicy int

const (
	// DropOldest removes the oldest item to make room for new items.
	// This is the bus policy: live monitoring favors recency over
	// completeness.
	DropOldest OverflowPolicy = iota

	// DropNewest drops the incoming item when the buffer is full.
	DropNewest
)

// String returns a human-readable representation of the overflow policy.
func (p OverflowPolicy) String() string {
	switch p {
	case DropOldest:
		return "DropOldest"
	case DropNewest:
		return "DropNewest"
	default:
		return "Unknown"
	}
}

// DropCallback is called with each item dropped by the overflow policy.
type DropCallback[T any] func(item T)

// NewCircular creates a new circular buffer with the specified capacity.
// Stats are always collected; metrics are optional via WithMetrics().
// Returns an error if metrics registration fails when metrics are requested.
func NewCircular[T any](capacity int, options ...Option[T]) (Buffer[T], error) {
	opts := applyOptions(options...)
	return newCircularBuffer(capacity, opts)
}
