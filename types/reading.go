// Package types defines the shared data model for the SensorFuse pipeline:
// sensor readings, feature vectors, fusion evidence, and detections.
//
// All types in this package are value types that are copied (never aliased)
// when they cross component boundaries. A SensorReading is owned by the
// distribution bus during transit; each subscriber works on its own copy.
package types

import (
	"fmt"
	"time"
)

// SensorKind identifies the physical class of a sensor. The fusion engine
// uses it to pick default reliability weights and detection categories.
type SensorKind string

// Sensor kinds recognized by the pipeline. Drivers for kinds not listed
// here still work; they fall back to the default reliability weight.
const (
	KindEMF       SensorKind = "emf"
	KindMagnetic  SensorKind = "magnetic"
	KindThermal   SensorKind = "thermal"
	KindSeismic   SensorKind = "seismic"
	KindAcoustic  SensorKind = "acoustic"
	KindRadiation SensorKind = "radiation"
	KindOptical   SensorKind = "optical"
	KindRF        SensorKind = "rf"
	KindQuantum   SensorKind = "quantum"
	KindUnknown   SensorKind = "unknown"
)

// DefaultReliability is the built-in per-kind reliability weight used when a
// sensor has no configured override. Weights are in [0,1].
var DefaultReliability = map[SensorKind]float64{
	KindEMF:       0.70,
	KindMagnetic:  0.85,
	KindThermal:   0.85,
	KindSeismic:   0.80,
	KindAcoustic:  0.75,
	KindRadiation: 0.90,
	KindOptical:   0.95,
	KindRF:        0.70,
	KindQuantum:   0.80,
}

// ReliabilityFor returns the default reliability weight for a sensor kind,
// or 0.5 for kinds without a built-in entry.
func ReliabilityFor(kind SensorKind) float64 {
	if w, ok := DefaultReliability[kind]; ok {
		return w
	}
	return 0.5
}

// SensorReading is a single timestamped multi-channel sample from one sensor.
// Immutable once constructed.
type SensorReading struct {
	SensorID   string
	Kind       SensorKind
	Timestamp  time.Time
	Sequence   uint64
	Channels   []float64
	SampleRate float64
	Quality    float64 // signal quality in [0,1]; 0 means unusable
}

// Valid reports whether the reading carries usable data. Invalid readings
// are skipped by the analysis stage without failing the window.
func (r SensorReading) Valid() bool {
	return len(r.Channels) > 0 && r.Quality > 0
}

// Clone returns a deep copy so subscribers never alias the channel slice.
func (r SensorReading) Clone() SensorReading {
	c := r
	c.Channels = make([]float64, len(r.Channels))
	copy(c.Channels, r.Channels)
	return c
}

// String returns a compact description for logging.
func (r SensorReading) String() string {
	return fmt.Sprintf("%s seq=%d ch=%d q=%.2f @%s",
		r.SensorID, r.Sequence, len(r.Channels), r.Quality,
		r.Timestamp.Format(time.RFC3339Nano))
}
