package analysis

import "math"

// PowerSpectrum computes the one-sided power spectrum of the signal via a
// direct DFT, excluding the DC bin. Windows are small (hundreds of samples)
// so the O(n²) transform stays cheap relative to the sample period.
func PowerSpectrum(values []float64) []float64 {
	n := len(values)
	if n < 2 {
		return nil
	}

	half := n / 2
	power := make([]float64, half)
	for k := 1; k <= half; k++ {
		re, im := 0.0, 0.0
		for t, v := range values {
			angle := -2 * math.Pi * float64(k) * float64(t) / float64(n)
			re += v * math.Cos(angle)
			im += v * math.Sin(angle)
		}
		power[k-1] = (re*re + im*im) / float64(n)
	}
	return power
}

// DominantFrequency returns the frequency (Hz) and power of the strongest
// positive-frequency bin. sampleRate converts bin index to Hz.
func DominantFrequency(power []float64, n int, sampleRate float64) (freq, peak float64) {
	if len(power) == 0 || n == 0 || sampleRate <= 0 {
		return 0, 0
	}

	peakBin := 0
	for i, p := range power {
		if p > power[peakBin] {
			peakBin = i
		}
	}
	peak = power[peakBin]
	// power[0] is bin k=1
	freq = float64(peakBin+1) * sampleRate / float64(n)
	return freq, peak
}
