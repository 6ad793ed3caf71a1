package fusion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/sensorfuse/bus"
	"github.com/c360/sensorfuse/config"
	"github.com/c360/sensorfuse/health"
	"github.com/c360/sensorfuse/types"
)

func testFusionConfig() config.FusionConfig {
	return config.FusionConfig{
		Method:               config.MethodDempsterShafer,
		CorrelationHorizonMS: 2000,
		MinConfidence:        0.5,
		MinSensors:           2,
		CooldownMS:           5000,
		Prior:                0.1,
		MassSteepness:        0.5,
		RecentRing:           8,
	}
}

func testWeights() map[string]float64 {
	return map[string]float64{"emf-1": 0.8, "thermal-1": 0.6}
}

type engineHarness struct {
	engine     *Engine
	bus        *bus.Bus
	detections *bus.Subscription
}

func newEngineHarness(t *testing.T, cfg config.FusionConfig) *engineHarness {
	t.Helper()

	b := bus.New(64)
	detections, err := b.Subscribe("detections", bus.KindFilter(bus.KindDetection))
	require.NoError(t, err)

	e := NewEngine(cfg, 3.5, testWeights(), b, nil, health.NewMonitor(), nil)
	require.NoError(t, e.Initialize())

	t.Cleanup(func() { _ = b.Close() })
	return &engineHarness{engine: e, bus: b, detections: detections}
}

// Ingest is driven directly; publishes land in the subscriber queue
// synchronously, so TryNext observes emissions without racing a goroutine.
func (h *engineHarness) tryDetection() (types.Detection, bool) {
	event, ok := h.detections.TryNext()
	if !ok {
		return types.Detection{}, false
	}
	return event.(bus.DetectionEvent).Detection, true
}

func TestEngine_CorroboratedDetection(t *testing.T) {
	h := newEngineHarness(t, testFusionConfig())
	t0 := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	h.engine.Ingest(scoredVector("emf-1", types.KindEMF, 8, t0))
	assert.Equal(t, PhaseAccumulating, h.engine.Phase(),
		"one sensor is not corroboration")
	_, ok := h.tryDetection()
	assert.False(t, ok)

	h.engine.Ingest(scoredVector("thermal-1", types.KindThermal, 6, t0.Add(500*time.Millisecond)))

	detection, ok := h.tryDetection()
	require.True(t, ok, "two corroborating sensors must produce a detection")

	assert.NotEmpty(t, detection.ID)
	assert.Equal(t, types.CategoryEMFSpike, detection.Category,
		"the strongest weighted contributor classifies the event")
	assert.GreaterOrEqual(t, detection.Confidence, 0.5)
	assert.LessOrEqual(t, detection.Confidence, 1.0)
	assert.GreaterOrEqual(t, detection.BayesScore, 0.0)
	assert.LessOrEqual(t, detection.BayesScore, 1.0)
	assert.Equal(t, []string{"emf-1", "thermal-1"}, detection.SensorIDs())
	assert.Equal(t, t0.Add(-time.Second), detection.WindowStart)
	assert.Equal(t, t0.Add(500*time.Millisecond), detection.WindowEnd)

	assert.Equal(t, PhaseIdle, h.engine.Phase(), "pending clears after emission")
}

func TestEngine_SingleSensorNeverDetects(t *testing.T) {
	h := newEngineHarness(t, testFusionConfig())
	t0 := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	// Many windows from the same sensor are one loud sensor, not corroboration
	for i := 0; i < 5; i++ {
		h.engine.Ingest(scoredVector("emf-1", types.KindEMF, 10,
			t0.Add(time.Duration(i)*200*time.Millisecond)))
	}

	_, ok := h.tryDetection()
	assert.False(t, ok)
	assert.Equal(t, PhaseAccumulating, h.engine.Phase())
}

func TestEngine_NonAnomalousIgnored(t *testing.T) {
	h := newEngineHarness(t, testFusionConfig())
	t0 := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	fv := scoredVector("emf-1", types.KindEMF, 1, t0)
	fv.Anomalous = false
	h.engine.Ingest(fv)

	assert.Equal(t, PhaseIdle, h.engine.Phase())
	_, ok := h.tryDetection()
	assert.False(t, ok)
}

func TestEngine_HorizonExpiry(t *testing.T) {
	h := newEngineHarness(t, testFusionConfig())
	t0 := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	h.engine.Ingest(scoredVector("emf-1", types.KindEMF, 8, t0))
	// The corroborating sensor arrives after the 2s horizon; the first
	// candidate has already expired.
	h.engine.Ingest(scoredVector("thermal-1", types.KindThermal, 6, t0.Add(3*time.Second)))

	_, ok := h.tryDetection()
	assert.False(t, ok, "stale evidence must not corroborate")
	assert.Equal(t, PhaseAccumulating, h.engine.Phase())
}

func TestEngine_CooldownSuppressesRepeat(t *testing.T) {
	h := newEngineHarness(t, testFusionConfig())
	t0 := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	h.engine.Ingest(scoredVector("emf-1", types.KindEMF, 8, t0))
	h.engine.Ingest(scoredVector("thermal-1", types.KindThermal, 6, t0.Add(500*time.Millisecond)))
	_, ok := h.tryDetection()
	require.True(t, ok)

	// The same pair fires again inside the cooldown
	h.engine.Ingest(scoredVector("emf-1", types.KindEMF, 8, t0.Add(1500*time.Millisecond)))
	h.engine.Ingest(scoredVector("thermal-1", types.KindThermal, 6, t0.Add(2*time.Second)))
	_, ok = h.tryDetection()
	assert.False(t, ok, "a repeat within the cooldown is the same event")

	// Past the cooldown the pair is a new event
	h.engine.Ingest(scoredVector("emf-1", types.KindEMF, 8, t0.Add(10*time.Second)))
	h.engine.Ingest(scoredVector("thermal-1", types.KindThermal, 6, t0.Add(10500*time.Millisecond)))
	_, ok = h.tryDetection()
	assert.True(t, ok)
}

func TestEngine_ConfidenceFloor(t *testing.T) {
	cfg := testFusionConfig()
	cfg.MinConfidence = 0.999
	h := newEngineHarness(t, cfg)
	t0 := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	h.engine.Ingest(scoredVector("emf-1", types.KindEMF, 5, t0))
	h.engine.Ingest(scoredVector("thermal-1", types.KindThermal, 5, t0.Add(500*time.Millisecond)))

	_, ok := h.tryDetection()
	assert.False(t, ok, "confidence below the floor is suppressed")
}

func TestEngine_BayesianMethod(t *testing.T) {
	cfg := testFusionConfig()
	cfg.Method = config.MethodBayesian
	h := newEngineHarness(t, cfg)
	t0 := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	h.engine.Ingest(scoredVector("emf-1", types.KindEMF, 10, t0))
	h.engine.Ingest(scoredVector("thermal-1", types.KindThermal, 10, t0.Add(500*time.Millisecond)))

	detection, ok := h.tryDetection()
	require.True(t, ok)
	assert.InDelta(t, detection.BayesScore, detection.Confidence, 1e-9,
		"the bayesian method reports its own score as the confidence")
}

func TestEngine_LatestWindowPerSensorWins(t *testing.T) {
	h := newEngineHarness(t, testFusionConfig())
	t0 := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	// Two emf windows inside the horizon; the later, stronger one must carry
	// the contribution.
	h.engine.Ingest(scoredVector("emf-1", types.KindEMF, 4, t0))
	h.engine.Ingest(scoredVector("emf-1", types.KindEMF, 9, t0.Add(500*time.Millisecond)))
	h.engine.Ingest(scoredVector("thermal-1", types.KindThermal, 6, t0.Add(time.Second)))

	detection, ok := h.tryDetection()
	require.True(t, ok)
	require.Len(t, detection.Sensors, 2)

	for _, c := range detection.Sensors {
		if c.SensorID == "emf-1" {
			assert.Equal(t, 9.0, c.AnomalyScore)
		}
	}
}

func TestEngine_RecentDetectionsRing(t *testing.T) {
	cfg := testFusionConfig()
	cfg.CooldownMS = 1 // effectively no dedup at the timescales below
	cfg.RecentRing = 2
	h := newEngineHarness(t, cfg)
	t0 := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	assert.Empty(t, h.engine.RecentDetections())

	for i := 0; i < 3; i++ {
		offset := time.Duration(i) * 10 * time.Second
		h.engine.Ingest(scoredVector("emf-1", types.KindEMF, 8, t0.Add(offset)))
		h.engine.Ingest(scoredVector("thermal-1", types.KindThermal, 6,
			t0.Add(offset+500*time.Millisecond)))
	}

	recent := h.engine.RecentDetections()
	require.Len(t, recent, 2, "the ring keeps only the most recent detections")
	assert.True(t, recent[1].Timestamp.After(recent[0].Timestamp),
		"oldest first")
}

func TestEngine_SeverityTracksConfidence(t *testing.T) {
	h := newEngineHarness(t, testFusionConfig())
	t0 := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	// Very strong corroborated evidence drives confidence into the top band
	h.engine.Ingest(scoredVector("emf-1", types.KindEMF, 20, t0))
	h.engine.Ingest(scoredVector("thermal-1", types.KindThermal, 20, t0.Add(500*time.Millisecond)))

	detection, ok := h.tryDetection()
	require.True(t, ok)
	assert.Equal(t, types.SeverityFor(detection.Confidence), detection.Severity)
	assert.Greater(t, detection.Confidence, 0.7)
}
