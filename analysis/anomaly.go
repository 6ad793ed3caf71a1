package analysis

import "math"

// madScale converts a median absolute deviation into a consistent estimator
// of the standard deviation for normal data.
const madScale = 0.6745

// ModifiedZScores computes the robust modified z-score for every value:
// 0.6745 * (x - median) / MAD. Median and MAD resist the very outliers the
// score is meant to expose, unlike mean/stddev. A zero MAD (over half the
// window identical) falls back to a mean-absolute-deviation estimate; if
// that is zero too the signal is constant and every score is zero.
func ModifiedZScores(values []float64) []float64 {
	scores := make([]float64, len(values))
	if len(values) == 0 {
		return scores
	}

	med := median(values)
	deviation := mad(values, med)

	if deviation == 0 {
		meanAbs := 0.0
		for _, v := range values {
			meanAbs += math.Abs(v - med)
		}
		meanAbs /= float64(len(values))
		if meanAbs == 0 {
			return scores
		}
		// 1.2533 is the normal-consistency constant for mean absolute deviation
		for i, v := range values {
			scores[i] = (v - med) / (1.2533 * meanAbs)
		}
		return scores
	}

	for i, v := range values {
		scores[i] = madScale * (v - med) / deviation
	}
	return scores
}

// PeakAnomalyScore returns the largest absolute modified z-score in the
// window.
func PeakAnomalyScore(values []float64) float64 {
	peak := 0.0
	for _, s := range ModifiedZScores(values) {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}
