package analysis

import (
	"math"
	"sort"
)

// mean returns the arithmetic mean of values
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev returns the population standard deviation
func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// median returns the middle value, averaging the two central values for
// even-length input. The input is not modified.
func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// mad returns the median absolute deviation around the given center
func mad(values []float64, center float64) float64 {
	if len(values) == 0 {
		return 0
	}
	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - center)
	}
	return median(deviations)
}

// skewness returns the sample skewness (third standardized moment)
func skewness(values []float64) float64 {
	n := float64(len(values))
	if n < 3 {
		return 0
	}
	m := mean(values)
	sd := stdDev(values)
	if sd == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := (v - m) / sd
		sum += d * d * d
	}
	return sum / n
}

// kurtosis returns the excess kurtosis (fourth standardized moment minus 3)
func kurtosis(values []float64) float64 {
	n := float64(len(values))
	if n < 4 {
		return 0
	}
	m := mean(values)
	sd := stdDev(values)
	if sd == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := (v - m) / sd
		sum += d * d * d * d
	}
	return sum/n - 3
}
