package fusion

import (
	"fmt"
	"time"

	"github.com/c360/sensorfuse/errors"
	"github.com/c360/sensorfuse/types"
)

// conflictEpsilon is the normalizer floor below which two bodies of evidence
// are considered totally contradictory and cannot be combined.
const conflictEpsilon = 1e-9

// Combine applies Dempster's rule of combination over the two-hypothesis
// frame {anomaly, normal} with Θ as the uncertainty mass. The conflict mass
// k = m₁(A)·m₂(N) + m₁(N)·m₂(A) is renormalized away; total contradiction
// (k → 1) returns ErrFusionConflict instead of a division blow-up.
//
// The operation is commutative, and associative up to floating point, so
// CombineAll may fold evidence in any order.
func Combine(a, b types.Evidence) (types.Evidence, error) {
	conflict := a.Anomaly*b.Normal + a.Normal*b.Anomaly
	normalizer := 1 - conflict

	if normalizer < conflictEpsilon {
		return types.Evidence{}, errors.WrapTransient(
			fmt.Errorf("%w: conflict mass %.6f", errors.ErrFusionConflict, conflict),
			"fusion", "Combine", "renormalize combined masses")
	}

	return types.Evidence{
		SensorID:    a.SensorID + "+" + b.SensorID,
		Timestamp:   laterOf(a.Timestamp, b.Timestamp),
		Anomaly:     (a.Anomaly*b.Anomaly + a.Anomaly*b.Uncertainty + a.Uncertainty*b.Anomaly) / normalizer,
		Normal:      (a.Normal*b.Normal + a.Normal*b.Uncertainty + a.Uncertainty*b.Normal) / normalizer,
		Uncertainty: (a.Uncertainty * b.Uncertainty) / normalizer,
	}, nil
}

// CombineAll folds a set of evidence into one body via Dempster's rule
func CombineAll(evidence []types.Evidence) (types.Evidence, error) {
	if len(evidence) == 0 {
		return types.Evidence{}, errors.WrapInvalid(
			errors.ErrInsufficientEvidence, "fusion", "CombineAll", "combine empty evidence set")
	}

	combined := evidence[0]
	for _, e := range evidence[1:] {
		var err error
		combined, err = Combine(combined, e)
		if err != nil {
			return types.Evidence{}, err
		}
	}
	return combined, nil
}

func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
