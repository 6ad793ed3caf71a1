// Package sensor defines the sensor producer contract, a configurable
// simulated sensor, and the Manager that pumps readings onto the bus with
// reconnect backoff.
package sensor

import (
	"context"

	"github.com/c360/sensorfuse/types"
)

// Sensor is the producer contract consumed from sensor drivers. A driver
// yields a lazy, unbounded sequence of readings; it may disconnect at any
// point, and a reconnect starts a fresh stream with no ordering relationship
// to the prior one.
type Sensor interface {
	// ID returns the stable sensor identifier
	ID() string

	// Kind returns the sensor kind
	Kind() types.SensorKind

	// Channels returns the declared channel count
	Channels() int

	// SampleRate returns the declared nominal sample rate in Hz
	SampleRate() float64

	// Connect establishes (or re-establishes) the stream. After a
	// successful Connect the sequence numbering restarts.
	Connect(ctx context.Context) error

	// Read blocks until the next reading is available. It returns a
	// transient error on disconnect and errors.ErrEndOfStream when the
	// stream is exhausted.
	Read(ctx context.Context) (types.SensorReading, error)

	// Close releases the driver
	Close() error
}
