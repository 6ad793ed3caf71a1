package bus

import (
	"context"

	"github.com/c360/sensorfuse/pkg/buffer"
)

// Subscription is one subscriber's bounded view of the bus
type Subscription struct {
	name   string
	filter Filter
	queue  buffer.Buffer[Event]
	bus    *Bus
}

// Name returns the subscriber name
func (s *Subscription) Name() string {
	return s.name
}

// Next blocks until an event is available, the subscription is closed, or
// ctx is cancelled. Closed subscriptions return errors.ErrSubscriptionClosed.
func (s *Subscription) Next(ctx context.Context) (Event, error) {
	return s.queue.ReadContext(ctx)
}

// TryNext returns the next queued event without blocking
func (s *Subscription) TryNext() (Event, bool) {
	return s.queue.Read()
}

// Pending returns the number of queued events
func (s *Subscription) Pending() int {
	return s.queue.Size()
}

// Stats returns queue statistics including backpressure drops
func (s *Subscription) Stats() *buffer.Statistics {
	return s.queue.Stats()
}

// Close removes the subscription from the bus and wakes blocked readers
func (s *Subscription) Close() {
	s.bus.Unsubscribe(s.name)
}
