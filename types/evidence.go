package types

import "time"

// Evidence is a Dempster-Shafer basic mass assignment over the two singleton
// hypotheses plus the full frame of discernment, derived from one
// FeatureVector. Transient: consumed immediately by fusion, never retained.
//
// Invariant: Anomaly + Normal + Uncertainty == 1 within floating tolerance,
// with every component in [0,1].
type Evidence struct {
	SensorID  string
	Kind      SensorKind
	Timestamp time.Time

	Anomaly     float64 // m({anomaly})
	Normal      float64 // m({normal})
	Uncertainty float64 // m(Θ)
}

// Valid reports whether the mass assignment is a proper basic mass
// assignment (components in range, sum within tolerance of 1).
func (e Evidence) Valid() bool {
	const tol = 1e-9
	if e.Anomaly < -tol || e.Normal < -tol || e.Uncertainty < -tol {
		return false
	}
	sum := e.Anomaly + e.Normal + e.Uncertainty
	return sum > 1-1e-6 && sum < 1+1e-6
}
