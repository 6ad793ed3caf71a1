package fusion

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/c360/sensorfuse/bus"
	"github.com/c360/sensorfuse/component"
	"github.com/c360/sensorfuse/config"
	"github.com/c360/sensorfuse/errors"
	"github.com/c360/sensorfuse/health"
	"github.com/c360/sensorfuse/metric"
	"github.com/c360/sensorfuse/types"
)

// Phase is the engine's correlation state, exposed for observability
type Phase int

const (
	// PhaseIdle means no anomalous evidence is pending
	PhaseIdle Phase = iota
	// PhaseAccumulating means anomalous evidence is pending but corroboration
	// is not yet met
	PhaseAccumulating
	// PhaseEmitting means a detection is being assembled
	PhaseEmitting
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAccumulating:
		return "accumulating"
	case PhaseEmitting:
		return "emitting"
	default:
		return "unknown"
	}
}

// Engine is the fusion and classification stage. It accumulates anomalous
// feature vectors inside a sliding correlation horizon and emits a detection
// once enough distinct sensors corroborate, the fused confidence clears the
// floor, and the cooldown dedup admits it.
type Engine struct {
	cfg     config.FusionConfig
	policy  MassPolicy
	weights map[string]float64

	bus     *bus.Bus
	metrics *metric.Metrics
	monitor *health.Monitor
	logger  *component.Logger
	deduper *Deduper
	sub     *bus.Subscription

	mu      sync.Mutex
	state   component.State
	phase   Phase
	pending []types.FeatureVector

	recentMu   sync.RWMutex
	recent     []types.Detection
	recentNext int
	recentFull bool
}

// NewEngine creates the fusion stage. midpoint is the anomaly threshold the
// mass policy centers its logistic on; weights maps sensor id to reliability.
func NewEngine(cfg config.FusionConfig, midpoint float64, weights map[string]float64,
	b *bus.Bus, registry *metric.Registry, monitor *health.Monitor, logger *slog.Logger) *Engine {
	e := &Engine{
		cfg: cfg,
		policy: MassPolicy{
			Steepness: cfg.MassSteepness,
			Midpoint:  midpoint,
		},
		weights: weights,
		bus:     b,
		monitor: monitor,
		logger:  component.NewLogger("fusion", logger),
		deduper: NewDeduper(cfg.Cooldown()),
		state:   component.StateCreated,
		recent:  make([]types.Detection, cfg.RecentRing),
	}
	if registry != nil {
		e.metrics = registry.CoreMetrics()
	}
	return e
}

// Name returns the stage name
func (e *Engine) Name() string { return "fusion" }

// Phase returns the current correlation phase
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Initialize subscribes to feature vectors
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != component.StateCreated {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Engine", "Initialize",
			"engine already initialized")
	}

	sub, err := e.bus.Subscribe("fusion", bus.KindFilter(bus.KindFeature))
	if err != nil {
		return errors.Wrap(err, "Engine", "Initialize", "subscribe to features")
	}
	e.sub = sub
	e.state = component.StateInitialized
	return nil
}

// Start consumes feature vectors until the context is cancelled
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state != component.StateInitialized {
		e.mu.Unlock()
		return errors.WrapInvalid(errors.ErrNotStarted, "Engine", "Start",
			"engine not initialized")
	}
	e.state = component.StateStarted
	e.mu.Unlock()

	if e.monitor != nil {
		e.monitor.UpdateHealthy(e.Name(), "correlating features")
	}

	for {
		event, err := e.sub.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, errors.ErrSubscriptionClosed) {
				return nil
			}
			return errors.Wrap(err, "Engine", "Start", "read from bus")
		}

		fe, ok := event.(bus.FeatureEvent)
		if !ok {
			continue
		}
		e.Ingest(fe.Feature)
	}
}

// Ingest correlates one feature vector. Exported for direct-drive tests.
func (e *Engine) Ingest(fv types.FeatureVector) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Time moves with the event stream, not the wall clock, so replayed and
	// simulated streams correlate identically.
	now := fv.WindowEnd

	e.pruneLocked(now)

	if !fv.Anomalous {
		e.updatePhaseLocked()
		return
	}

	e.pending = append(e.pending, fv)

	if e.distinctSensorsLocked() < e.cfg.MinSensors {
		e.phase = PhaseAccumulating
		return
	}

	e.phase = PhaseEmitting
	e.emitLocked(now)
	e.updatePhaseLocked()
}

// pruneLocked expires pending features older than the correlation horizon.
// Anomalous features that expire unemitted were candidates that never found
// corroboration. Caller holds e.mu.
func (e *Engine) pruneLocked(now time.Time) {
	horizon := e.cfg.CorrelationHorizon()
	kept := e.pending[:0]
	expired := 0
	for _, fv := range e.pending {
		if now.Sub(fv.WindowEnd) <= horizon {
			kept = append(kept, fv)
		} else {
			expired++
		}
	}
	e.pending = kept

	if expired > 0 && e.metrics != nil {
		for i := 0; i < expired; i++ {
			e.metrics.RecordSuppressed(metric.SuppressCorroboration)
		}
	}
}

// distinctSensorsLocked counts distinct sensor ids in the pending set
func (e *Engine) distinctSensorsLocked() int {
	seen := make(map[string]bool, len(e.pending))
	for _, fv := range e.pending {
		seen[fv.SensorID] = true
	}
	return len(seen)
}

// emitLocked fuses the pending set and, if everything clears, publishes a
// detection. Caller holds e.mu.
func (e *Engine) emitLocked(now time.Time) {
	// One feature per sensor: the latest anomalous window wins
	latest := make(map[string]types.FeatureVector, len(e.pending))
	for _, fv := range e.pending {
		if cur, ok := latest[fv.SensorID]; !ok || fv.WindowEnd.After(cur.WindowEnd) {
			latest[fv.SensorID] = fv
		}
	}

	sensorIDs := make([]string, 0, len(latest))
	for id := range latest {
		sensorIDs = append(sensorIDs, id)
	}
	sort.Strings(sensorIDs)

	evidence := make([]types.Evidence, 0, len(sensorIDs))
	contributions := make([]types.SensorContribution, 0, len(sensorIDs))
	windowStart, windowEnd := time.Time{}, time.Time{}
	for _, id := range sensorIDs {
		fv := latest[id]
		w := e.reliabilityFor(id)
		evidence = append(evidence, e.policy.Derive(fv, w))
		contributions = append(contributions, types.SensorContribution{
			SensorID:     id,
			Kind:         fv.Kind,
			Weight:       w,
			AnomalyScore: fv.AnomalyScore(),
		})
		if windowStart.IsZero() || fv.WindowStart.Before(windowStart) {
			windowStart = fv.WindowStart
		}
		if fv.WindowEnd.After(windowEnd) {
			windowEnd = fv.WindowEnd
		}
	}

	combined, err := CombineAll(evidence)
	if err != nil {
		if errors.Is(err, errors.ErrFusionConflict) {
			// Total contradiction: no detection, pipeline continues
			e.logger.Warn("evidence in total conflict, no detection",
				"sensors", sensorIDs)
			if e.metrics != nil {
				e.metrics.RecordFusionConflict()
			}
			return
		}
		e.logger.Error("evidence combination failed", err)
		return
	}

	bayes := BayesianScore(evidence, e.weights, e.cfg.Prior)

	var confidence float64
	switch e.cfg.Method {
	case config.MethodBayesian:
		confidence = bayes
	case config.MethodWeightedAverage:
		confidence = WeightedAverageScore(evidence, e.weights)
	default:
		confidence = combined.Anomaly
	}
	confidence = clamp01(confidence)

	if confidence < e.cfg.MinConfidence {
		if e.metrics != nil {
			e.metrics.RecordSuppressed(metric.SuppressLowConfidence)
		}
		return
	}

	detection := types.Detection{
		ID:          uuid.NewString(),
		Timestamp:   now,
		Category:    Classify(contributions),
		Severity:    types.SeverityFor(confidence),
		Confidence:  confidence,
		BayesScore:  clamp01(bayes),
		Sensors:     contributions,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}

	if e.deduper.IsDuplicate(detection, now) {
		if e.metrics != nil {
			e.metrics.RecordSuppressed(metric.SuppressCooldown)
		}
		e.pending = e.pending[:0]
		return
	}

	if err := e.bus.Publish(bus.DetectionEvent{Detection: detection}); err != nil {
		e.logger.Error("detection publish failed", err)
		return
	}

	e.deduper.Record(detection, now)
	e.rememberRecent(detection)
	e.pending = e.pending[:0]

	if e.metrics != nil {
		e.metrics.RecordDetection(string(detection.Category))
	}
	e.logger.Info("detection emitted",
		"id", detection.ID,
		"category", detection.Category,
		"severity", detection.Severity,
		"confidence", detection.Confidence,
		"sensors", sensorIDs)
}

// updatePhaseLocked recomputes the phase from the pending set
func (e *Engine) updatePhaseLocked() {
	if len(e.pending) == 0 {
		e.phase = PhaseIdle
	} else {
		e.phase = PhaseAccumulating
	}
}

func (e *Engine) reliabilityFor(sensorID string) float64 {
	if w, ok := e.weights[sensorID]; ok {
		return w
	}
	return 0.5
}

// rememberRecent appends to the bounded recent-detections ring
func (e *Engine) rememberRecent(d types.Detection) {
	if len(e.recent) == 0 {
		return
	}
	e.recentMu.Lock()
	defer e.recentMu.Unlock()

	e.recent[e.recentNext] = d
	e.recentNext = (e.recentNext + 1) % len(e.recent)
	if e.recentNext == 0 {
		e.recentFull = true
	}
}

// RecentDetections returns the retained detections, oldest first
func (e *Engine) RecentDetections() []types.Detection {
	e.recentMu.RLock()
	defer e.recentMu.RUnlock()

	if !e.recentFull {
		out := make([]types.Detection, e.recentNext)
		copy(out, e.recent[:e.recentNext])
		return out
	}

	out := make([]types.Detection, 0, len(e.recent))
	out = append(out, e.recent[e.recentNext:]...)
	out = append(out, e.recent[:e.recentNext]...)
	return out
}

// Stop closes the subscription
func (e *Engine) Stop(_ time.Duration) error {
	e.mu.Lock()
	if e.state != component.StateStarted {
		e.mu.Unlock()
		return nil
	}
	e.state = component.StateStopped
	e.mu.Unlock()

	if e.sub != nil {
		e.sub.Close()
	}
	if e.monitor != nil {
		e.monitor.UpdateUnhealthy(e.Name(), "stopped")
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
