// Package analysis computes statistical and information-theoretic measures
// over tumbling per-channel windows of sensor readings and publishes one
// FeatureVector per completed window with enough valid samples.
package analysis

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/sensorfuse/bus"
	"github.com/c360/sensorfuse/component"
	"github.com/c360/sensorfuse/config"
	"github.com/c360/sensorfuse/errors"
	"github.com/c360/sensorfuse/health"
	"github.com/c360/sensorfuse/metric"
	"github.com/c360/sensorfuse/pkg/worker"
	"github.com/c360/sensorfuse/types"
)

// windowJob carries one completed window to the worker pool
type windowJob struct {
	sensorID   string
	kind       types.SensorKind
	channel    int
	sampleRate float64
	values     []float64
	start      time.Time
	end        time.Time
}

// sensorState tracks the per-channel windows of one sensor. Owned by the
// consume goroutine; never shared.
type sensorState struct {
	kind       types.SensorKind
	sampleRate float64
	lastSeq    uint64
	hasSeq     bool
	windows    []*Window
}

// Pipeline is the windowed analysis stage. It consumes readings from the
// bus, accumulates tumbling windows per (sensor, channel), and fans the
// feature computation out over a bounded worker pool.
type Pipeline struct {
	cfg     config.AnalysisConfig
	bus     *bus.Bus
	metrics *metric.Metrics
	monitor *health.Monitor
	logger  *component.Logger

	pool *worker.Pool[windowJob]
	sub  *bus.Subscription

	mu     sync.Mutex
	state  component.State
	states map[string]*sensorState
}

// NewPipeline creates the analysis stage
func NewPipeline(cfg config.AnalysisConfig, b *bus.Bus, registry *metric.Registry,
	monitor *health.Monitor, logger *slog.Logger) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		bus:     b,
		monitor: monitor,
		logger:  component.NewLogger("analysis", logger),
		state:   component.StateCreated,
		states:  make(map[string]*sensorState),
	}
	if registry != nil {
		p.metrics = registry.CoreMetrics()
	}

	poolOpts := []worker.Option[windowJob]{}
	if registry != nil {
		poolOpts = append(poolOpts, worker.WithMetricsRegistry[windowJob](registry, "analysis"))
	}
	p.pool = worker.NewPool(cfg.Workers, cfg.Workers*4, p.process, poolOpts...)

	return p
}

// Name returns the stage name
func (p *Pipeline) Name() string { return "analysis" }

// Initialize subscribes to raw readings
func (p *Pipeline) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != component.StateCreated {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Pipeline", "Initialize",
			"pipeline already initialized")
	}

	sub, err := p.bus.Subscribe("analysis", bus.KindFilter(bus.KindReading))
	if err != nil {
		return errors.Wrap(err, "Pipeline", "Initialize", "subscribe to readings")
	}
	p.sub = sub
	p.state = component.StateInitialized
	return nil
}

// Start consumes readings until the context is cancelled. Windows that are
// incomplete at shutdown are discarded, never flushed as partial vectors.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.state != component.StateInitialized {
		p.mu.Unlock()
		return errors.WrapInvalid(errors.ErrNotStarted, "Pipeline", "Start",
			"pipeline not initialized")
	}
	p.state = component.StateStarted
	p.mu.Unlock()

	if err := p.pool.Start(ctx); err != nil {
		return errors.Wrap(err, "Pipeline", "Start", "start worker pool")
	}

	if p.monitor != nil {
		p.monitor.UpdateHealthy(p.Name(), "consuming readings")
	}

	for {
		event, err := p.sub.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, errors.ErrSubscriptionClosed) {
				return nil
			}
			return errors.Wrap(err, "Pipeline", "Start", "read from bus")
		}

		re, ok := event.(bus.ReadingEvent)
		if !ok {
			continue
		}
		p.ingest(re.Reading)
	}
}

// ingest pushes one reading into its per-channel windows and submits any
// completed windows to the pool.
func (p *Pipeline) ingest(reading types.SensorReading) {
	state, exists := p.states[reading.SensorID]
	if !exists {
		state = &sensorState{
			kind:       reading.Kind,
			sampleRate: reading.SampleRate,
			windows:    make([]*Window, len(reading.Channels)),
		}
		for i := range state.windows {
			state.windows[i] = NewWindow(p.cfg.WindowSize)
		}
		p.states[reading.SensorID] = state
	}

	// A sequence regression means the sensor reconnected: the new stream has
	// no ordering relationship to the old one, so in-progress windows are
	// discarded rather than mixed across streams.
	if state.hasSeq && reading.Sequence < state.lastSeq {
		for _, w := range state.windows {
			w.Reset()
		}
	}
	state.lastSeq = reading.Sequence
	state.hasSeq = true

	if len(reading.Channels) != len(state.windows) {
		p.logger.Warn("channel count changed mid-stream, sample skipped",
			"sensor", reading.SensorID,
			"declared", len(state.windows),
			"got", len(reading.Channels))
		if p.metrics != nil {
			p.metrics.RecordError(p.Name(), "channel_mismatch")
		}
		return
	}

	for c, value := range reading.Channels {
		w := state.windows[c]
		if !w.Push(value, reading.Quality, reading.Timestamp) {
			continue
		}

		values, start, end := w.Snapshot()
		w.Reset()

		if len(values) < p.cfg.MinValidSamples {
			// Underflow: skip emission, count it, keep going
			if p.metrics != nil {
				p.metrics.RecordWindowSkipped(reading.SensorID)
			}
			continue
		}

		job := windowJob{
			sensorID:   reading.SensorID,
			kind:       state.kind,
			channel:    c,
			sampleRate: state.sampleRate,
			values:     values,
			start:      start,
			end:        end,
		}
		if err := p.pool.Submit(job); err != nil {
			p.logger.Warn("window dropped, worker queue full",
				"sensor", reading.SensorID, "channel", c)
			if p.metrics != nil {
				p.metrics.RecordError(p.Name(), "queue_full")
			}
		}
	}
}

// process computes all measures for one window and publishes the vector
func (p *Pipeline) process(_ context.Context, job windowJob) error {
	begin := time.Now()

	measures := make(map[string]float64, 9)
	measures[types.MeasureShannonEntropy] = ShannonEntropy(job.values, p.cfg.EntropyBins)
	measures[types.MeasurePermutationEntropy] = PermutationEntropy(job.values, p.cfg.PermutationOrder)

	peakScore := PeakAnomalyScore(job.values)
	measures[types.MeasureAnomalyScore] = peakScore

	power := PowerSpectrum(job.values)
	if len(power) > 0 {
		measures[types.MeasureSpectralEntropy] = SpectralEntropy(power)
		freq, peak := DominantFrequency(power, len(job.values), job.sampleRate)
		measures[types.MeasurePeakFrequency] = freq
		measures[types.MeasurePeakPower] = peak
	}

	// Hurst is omitted, not zero-filled, when the window is too short
	minLen := p.cfg.HurstMinLength
	if minLen < HurstMinSamples {
		minLen = HurstMinSamples
	}
	if len(job.values) >= minLen {
		if h, ok := HurstExponent(job.values); ok {
			measures[types.MeasureHurstExponent] = h
		}
	}

	measures[types.MeasureSkewness] = skewness(job.values)
	measures[types.MeasureKurtosis] = kurtosis(job.values)

	vector := types.FeatureVector{
		SensorID:    job.sensorID,
		Kind:        job.kind,
		Channel:     job.channel,
		WindowStart: job.start,
		WindowEnd:   job.end,
		Measures:    measures,
		Anomalous:   peakScore > p.cfg.AnomalyThreshold,
	}

	if err := p.bus.Publish(bus.FeatureEvent{Feature: vector}); err != nil {
		return errors.Wrap(err, "Pipeline", "process", "publish feature vector")
	}

	if p.metrics != nil {
		p.metrics.RecordFeature(job.sensorID)
		p.metrics.RecordProcessingDuration(p.Name(), "window", time.Since(begin))
	}
	return nil
}

// Stop drains the worker pool and closes the subscription
func (p *Pipeline) Stop(timeout time.Duration) error {
	p.mu.Lock()
	if p.state != component.StateStarted {
		p.mu.Unlock()
		return nil
	}
	p.state = component.StateStopped
	p.mu.Unlock()

	if p.sub != nil {
		p.sub.Close()
	}

	if err := p.pool.Stop(timeout); err != nil {
		return errors.WrapTransient(err, "Pipeline", "Stop", "drain worker pool")
	}

	if p.monitor != nil {
		p.monitor.UpdateUnhealthy(p.Name(), "stopped")
	}
	return nil
}
