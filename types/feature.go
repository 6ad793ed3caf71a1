package types

import "time"

// Measure names carried by a FeatureVector. Consumers must treat a missing
// measure and a zero value as distinct conditions: measures that could not be
// computed for a window (for example the Hurst exponent on a short window)
// are omitted, never zero-filled.
const (
	MeasureShannonEntropy     = "shannon_entropy"
	MeasurePermutationEntropy = "permutation_entropy"
	MeasureSpectralEntropy    = "spectral_entropy"
	MeasureAnomalyScore       = "zscore_anomaly"
	MeasurePeakFrequency      = "peak_frequency"
	MeasurePeakPower          = "peak_power"
	MeasureHurstExponent      = "hurst_exponent"
	MeasureSkewness           = "skewness"
	MeasureKurtosis           = "kurtosis"
)

// FeatureVector is the per-window analysis result for one sensor channel.
// Produced exactly once per completed window with enough valid samples;
// immutable thereafter. Ownership passes to the bus and then to the fusion
// engine.
type FeatureVector struct {
	SensorID    string
	Kind        SensorKind
	Channel     int
	WindowStart time.Time
	WindowEnd   time.Time
	Measures    map[string]float64
	Anomalous   bool // window's peak anomaly score exceeded the threshold
}

// Get returns a named measure and whether it was computed for this window.
func (fv FeatureVector) Get(name string) (float64, bool) {
	v, ok := fv.Measures[name]
	return v, ok
}

// AnomalyScore returns the window's peak absolute modified z-score, or 0 if
// the measure is absent.
func (fv FeatureVector) AnomalyScore() float64 {
	v := fv.Measures[MeasureAnomalyScore]
	return v
}

// Clone returns a deep copy; the measures map is never shared.
func (fv FeatureVector) Clone() FeatureVector {
	c := fv
	c.Measures = make(map[string]float64, len(fv.Measures))
	for k, v := range fv.Measures {
		c.Measures[k] = v
	}
	return c
}
