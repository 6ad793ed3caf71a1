// Package bus provides the in-process distribution bus connecting the
// pipeline stages. Publishing never blocks: each subscriber owns a bounded
// queue and slow subscribers shed their oldest events.
package bus

import (
	"time"

	"github.com/c360/sensorfuse/types"
)

// EventKind discriminates the payload carried by an Event
type EventKind string

const (
	// KindReading carries a raw sensor reading
	KindReading EventKind = "reading"
	// KindFeature carries a windowed feature vector
	KindFeature EventKind = "feature"
	// KindDetection carries a fused detection
	KindDetection EventKind = "detection"
)

// Event is the unit of traffic on the bus
type Event interface {
	Kind() EventKind
	Time() time.Time
}

// ReadingEvent wraps a sensor reading for distribution
type ReadingEvent struct {
	Reading types.SensorReading
}

// Kind returns KindReading
func (e ReadingEvent) Kind() EventKind { return KindReading }

// Time returns the reading capture timestamp
func (e ReadingEvent) Time() time.Time { return e.Reading.Timestamp }

// FeatureEvent wraps a feature vector for distribution
type FeatureEvent struct {
	Feature types.FeatureVector
}

// Kind returns KindFeature
func (e FeatureEvent) Kind() EventKind { return KindFeature }

// Time returns the window end timestamp
func (e FeatureEvent) Time() time.Time { return e.Feature.WindowEnd }

// DetectionEvent wraps a detection for distribution
type DetectionEvent struct {
	Detection types.Detection
}

// Kind returns KindDetection
func (e DetectionEvent) Kind() EventKind { return KindDetection }

// Time returns the detection timestamp
func (e DetectionEvent) Time() time.Time { return e.Detection.Timestamp }

// Filter decides whether a subscriber receives an event. A nil Filter
// receives everything.
type Filter func(Event) bool

// KindFilter returns a filter matching a single event kind
func KindFilter(kind EventKind) Filter {
	return func(e Event) bool { return e.Kind() == kind }
}
