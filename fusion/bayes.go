package fusion

import (
	"math"

	"github.com/c360/sensorfuse/types"
)

// probabilityFloor keeps per-sensor probabilities away from 0 and 1 so the
// log-odds stay finite; a single saturated sensor must not dominate.
const probabilityFloor = 1e-4

// BayesianScore computes the posterior anomaly probability as a
// reliability-weighted sum of per-sensor log-odds on top of the prior:
//
//	logit(P) = logit(prior) + Σ wᵢ · logit(pᵢ)
//
// where pᵢ is sensor i's anomaly probability with half its uncertainty mass
// split between the hypotheses. The result is the cross-check recorded on
// every detection next to the Dempster-Shafer belief.
func BayesianScore(evidence []types.Evidence, weights map[string]float64, prior float64) float64 {
	if prior <= 0 {
		prior = probabilityFloor
	}
	if prior >= 1 {
		prior = 1 - probabilityFloor
	}

	logOdds := math.Log(prior / (1 - prior))

	for _, e := range evidence {
		p := e.Anomaly + e.Uncertainty/2
		if p < probabilityFloor {
			p = probabilityFloor
		}
		if p > 1-probabilityFloor {
			p = 1 - probabilityFloor
		}

		w := 1.0
		if weight, ok := weights[e.SensorID]; ok {
			w = weight
		}
		logOdds += w * math.Log(p/(1-p))
	}

	return 1 / (1 + math.Exp(-logOdds))
}

// WeightedAverageScore computes the reliability-weighted mean anomaly mass,
// the simplest of the three fusion policies.
func WeightedAverageScore(evidence []types.Evidence, weights map[string]float64) float64 {
	if len(evidence) == 0 {
		return 0
	}

	sum, weightSum := 0.0, 0.0
	for _, e := range evidence {
		w := 1.0
		if weight, ok := weights[e.SensorID]; ok {
			w = weight
		}
		sum += w * (e.Anomaly + e.Uncertainty/2)
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return sum / weightSum
}
