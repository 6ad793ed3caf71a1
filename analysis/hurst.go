package analysis

import "math"

// HurstMinSamples is the floor below which the rescaled-range estimate is
// too noisy to report; short windows omit the measure entirely.
const HurstMinSamples = 32

// HurstExponent estimates the Hurst exponent by rescaled-range (R/S)
// analysis: the window is split into subseries of increasing length, the
// average R/S statistic is computed per length, and the exponent is the
// slope of log(R/S) against log(length). H ≈ 0.5 for a random walk,
// H > 0.5 for persistent (trending) signals, H < 0.5 for mean-reverting
// ones. Returns (0, false) when the window is too short or degenerate.
func HurstExponent(values []float64) (float64, bool) {
	n := len(values)
	if n < HurstMinSamples {
		return 0, false
	}

	var logSizes, logRS []float64
	for size := 8; size <= n/2; size *= 2 {
		count := n / size
		if count < 1 {
			break
		}

		rsSum := 0.0
		rsCount := 0
		for i := 0; i < count; i++ {
			rs := rescaledRange(values[i*size : (i+1)*size])
			if rs > 0 {
				rsSum += rs
				rsCount++
			}
		}
		if rsCount == 0 {
			continue
		}

		logSizes = append(logSizes, math.Log(float64(size)))
		logRS = append(logRS, math.Log(rsSum/float64(rsCount)))
	}

	if len(logSizes) < 2 {
		return 0, false
	}

	slope := linearSlope(logSizes, logRS)
	if math.IsNaN(slope) {
		return 0, false
	}

	// Clamp to the meaningful range
	if slope < 0 {
		slope = 0
	}
	if slope > 1 {
		slope = 1
	}
	return slope, true
}

// rescaledRange computes the R/S statistic for one subseries
func rescaledRange(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}

	m := mean(series)
	sd := stdDev(series)
	if sd == 0 {
		return 0
	}

	cumulative := 0.0
	minDev, maxDev := 0.0, 0.0
	for _, v := range series {
		cumulative += v - m
		if cumulative < minDev {
			minDev = cumulative
		}
		if cumulative > maxDev {
			maxDev = cumulative
		}
	}

	return (maxDev - minDev) / sd
}

// linearSlope returns the least-squares slope of y against x
func linearSlope(x, y []float64) float64 {
	n := float64(len(x))
	if n < 2 {
		return math.NaN()
	}

	mx, my := mean(x), mean(y)
	num, den := 0.0, 0.0
	for i := range x {
		num += (x[i] - mx) * (y[i] - my)
		den += (x[i] - mx) * (x[i] - mx)
	}
	if den == 0 {
		return math.NaN()
	}
	return num / den
}
