package bus

import (
	"fmt"
	"sync"

	"github.com/c360/sensorfuse/errors"
	"github.com/c360/sensorfuse/metric"
	"github.com/c360/sensorfuse/pkg/buffer"
)

// Bus distributes events to subscribers. Delivery is fan-out: every
// subscriber whose filter matches receives the event in publish order.
// Subscribers never see events published before they subscribed.
//
// Ordering: events from one publisher goroutine arrive in each subscriber's
// queue in publish order. The per-sensor ordering guarantee follows from
// each sensor pumping its readings from a single goroutine.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscription
	capacity    int
	metrics     *metric.Metrics
	closed      bool
}

// Option configures the bus
type Option func(*Bus)

// WithMetrics wires backpressure drop counters to the core metrics
func WithMetrics(m *metric.Metrics) Option {
	return func(b *Bus) { b.metrics = m }
}

// New creates a bus whose subscribers each get a bounded queue of the given
// capacity.
func New(queueCapacity int, opts ...Option) *Bus {
	if queueCapacity <= 0 {
		queueCapacity = 1024
	}
	b := &Bus{
		subscribers: make(map[string]*Subscription),
		capacity:    queueCapacity,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a named subscriber with an optional filter. The name
// must be unique; it labels the subscriber's backpressure drop counter.
func (b *Bus) Subscribe(name string, filter Filter) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errors.WrapInvalid(errors.ErrBusClosed, "Bus", "Subscribe",
			"cannot subscribe to a closed bus")
	}
	if _, exists := b.subscribers[name]; exists {
		return nil, errors.WrapInvalid(
			fmt.Errorf("subscriber %q already registered", name),
			"Bus", "Subscribe", "duplicate subscriber name")
	}

	var dropCb buffer.DropCallback[Event]
	if b.metrics != nil {
		m := b.metrics
		dropCb = func(Event) { m.RecordBackpressureDrop(name) }
	}

	queue, err := buffer.NewCircular[Event](b.capacity,
		buffer.WithOverflowPolicy[Event](buffer.DropOldest),
		buffer.WithDropCallback[Event](dropCb),
	)
	if err != nil {
		return nil, errors.Wrap(err, "Bus", "Subscribe", "create subscriber queue")
	}

	sub := &Subscription{
		name:   name,
		filter: filter,
		queue:  queue,
		bus:    b,
	}
	b.subscribers[name] = sub
	return sub, nil
}

// Publish delivers an event to every matching subscriber. It never blocks;
// a full subscriber queue sheds its oldest event instead.
func (b *Bus) Publish(event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return errors.WrapInvalid(errors.ErrBusClosed, "Bus", "Publish",
			"cannot publish to a closed bus")
	}

	for _, sub := range b.subscribers {
		if sub.filter != nil && !sub.filter(event) {
			continue
		}
		// DropOldest writes always succeed
		_ = sub.queue.Write(event)
	}
	return nil
}

// Unsubscribe removes a subscriber and closes its queue
func (b *Bus) Unsubscribe(name string) {
	b.mu.Lock()
	sub, exists := b.subscribers[name]
	if exists {
		delete(b.subscribers, name)
	}
	b.mu.Unlock()

	if exists {
		_ = sub.queue.Close()
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close shuts the bus down and closes every subscriber queue, waking any
// blocked readers.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := make([]*Subscription, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		subs = append(subs, sub)
	}
	b.subscribers = make(map[string]*Subscription)
	b.mu.Unlock()

	for _, sub := range subs {
		_ = sub.queue.Close()
	}
	return nil
}
