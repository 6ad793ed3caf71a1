package fusion

import (
	"github.com/c360/sensorfuse/types"
)

// Classify picks the detection category from the dominant contributor: the
// sensor whose reliability-weighted anomaly score is largest. Ties keep the
// first contributor seen, which is deterministic because contributions are
// assembled in sensor-id order.
func Classify(contributions []types.SensorContribution) types.Category {
	if len(contributions) == 0 {
		return types.CategoryUnknown
	}

	dominant := contributions[0]
	best := dominant.Weight * dominant.AnomalyScore
	for _, c := range contributions[1:] {
		if score := c.Weight * c.AnomalyScore; score > best {
			best = score
			dominant = c
		}
	}

	return types.CategoryFor(dominant.Kind)
}
