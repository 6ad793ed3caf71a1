// Package fusion combines per-sensor feature vectors within a correlation
// horizon into classified, confidence-scored detections. Dempster-Shafer
// combination carries the primary belief; a weighted log-odds Bayesian score
// is always computed as a cross-check.
package fusion

import (
	"math"

	"github.com/c360/sensorfuse/types"
)

// MassPolicy maps a window anomaly score onto Dempster-Shafer belief masses.
// The mapping is a reliability-weighted logistic of the modified z-score:
//
//	m(anomaly) = w · σ(k·(s−s₀))
//	m(normal)  = w · (1−σ(k·(s−s₀)))
//	m(Θ)       = 1−w
//
// where w is the sensor reliability, k the steepness, and s₀ the midpoint
// (the anomaly threshold). An unreliable sensor pushes mass into Θ
// (uncertainty) rather than into either hypothesis, which is what lets
// Dempster's rule discount it during combination.
type MassPolicy struct {
	Steepness float64
	Midpoint  float64
}

// Derive converts one feature vector into evidence
func (mp MassPolicy) Derive(fv types.FeatureVector, reliability float64) types.Evidence {
	if reliability < 0 {
		reliability = 0
	}
	if reliability > 1 {
		reliability = 1
	}

	score := fv.AnomalyScore()
	sigma := 1 / (1 + math.Exp(-mp.Steepness*(score-mp.Midpoint)))

	return types.Evidence{
		SensorID:    fv.SensorID,
		Kind:        fv.Kind,
		Timestamp:   fv.WindowEnd,
		Anomaly:     reliability * sigma,
		Normal:      reliability * (1 - sigma),
		Uncertainty: 1 - reliability,
	}
}
