package sensor

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/c360/sensorfuse/config"
	"github.com/c360/sensorfuse/errors"
	"github.com/c360/sensorfuse/types"
)

// Simulator is a synthetic sensor driver. The signal is a configurable mix of
// baseline, linear drift, a periodic component, Gaussian noise, and scheduled
// spikes; quality dropouts and periodic disconnects exercise the fault paths
// downstream.
type Simulator struct {
	id         string
	kind       types.SensorKind
	channels   int
	sampleRate float64
	sim        config.SimulateConfig

	limiter *rate.Limiter

	mu        sync.Mutex
	rng       *rand.Rand
	sequence  uint64
	connected bool
}

// NewSimulator builds a simulator from a roster entry
func NewSimulator(spec config.SensorSpec) *Simulator {
	seed := spec.Simulate.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{
		id:         spec.ID,
		kind:       types.SensorKind(spec.Kind),
		channels:   spec.Channels,
		sampleRate: spec.SampleRate,
		sim:        spec.Simulate,
		limiter:    rate.NewLimiter(rate.Limit(spec.SampleRate), 1),
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// ID returns the sensor identifier
func (s *Simulator) ID() string { return s.id }

// Kind returns the sensor kind
func (s *Simulator) Kind() types.SensorKind { return s.kind }

// Channels returns the channel count
func (s *Simulator) Channels() int { return s.channels }

// SampleRate returns the nominal sample rate in Hz
func (s *Simulator) SampleRate() float64 { return s.sampleRate }

// Connect starts a fresh stream. Sequence numbering restarts from zero;
// readings after a reconnect carry no ordering relationship to the prior
// stream.
func (s *Simulator) Connect(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequence = 0
	s.connected = true
	return nil
}

// Read produces the next paced reading
func (s *Simulator) Read(ctx context.Context) (types.SensorReading, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return types.SensorReading{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return types.SensorReading{}, errors.WrapTransient(
			errors.ErrSensorDisconnected, "Simulator", "Read", "stream not connected")
	}

	seq := s.sequence
	s.sequence++

	// Scheduled disconnect, exercised downstream as a transient fault
	if s.sim.DisconnectEveryN > 0 && seq > 0 && seq%uint64(s.sim.DisconnectEveryN) == 0 {
		s.connected = false
		return types.SensorReading{}, errors.WrapTransient(
			errors.ErrSensorDisconnected, "Simulator", "Read", "scheduled disconnect")
	}

	channels := make([]float64, s.channels)
	t := float64(seq) / s.sampleRate
	for c := range channels {
		v := s.sim.BaseLevel
		v += s.sim.DriftPerSample * float64(seq)
		if s.sim.SineAmplitude > 0 {
			v += s.sim.SineAmplitude * math.Sin(2*math.Pi*s.sim.SineFrequency*t)
		}
		if s.sim.NoiseSigma > 0 {
			v += s.rng.NormFloat64() * s.sim.NoiseSigma
		}
		if s.sim.SpikeEveryN > 0 && seq > 0 && seq%uint64(s.sim.SpikeEveryN) == 0 {
			v += s.sim.SpikeMagnitude
		}
		channels[c] = v
	}

	quality := 1.0
	if s.sim.DropoutRate > 0 && s.rng.Float64() < s.sim.DropoutRate {
		quality = 0
	}

	return types.SensorReading{
		SensorID:   s.id,
		Kind:       s.kind,
		Timestamp:  time.Now(),
		Sequence:   seq,
		Channels:   channels,
		SampleRate: s.sampleRate,
		Quality:    quality,
	}, nil
}

// Close marks the stream disconnected
func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}
