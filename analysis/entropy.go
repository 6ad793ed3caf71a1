package analysis

import (
	"math"
	"sort"
)

// ShannonEntropy computes the Shannon entropy (bits) of the empirical
// distribution obtained by binning values into a fixed-width histogram over
// the observed range. A constant signal has zero entropy; a uniform spread
// approaches log2(bins).
func ShannonEntropy(values []float64, bins int) float64 {
	if len(values) == 0 || bins < 2 {
		return 0
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return 0
	}

	counts := make([]int, bins)
	width := (hi - lo) / float64(bins)
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}

	n := float64(len(values))
	entropy := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// PermutationEntropy computes the normalized permutation entropy of order m:
// each contiguous sub-sequence of length m is encoded by the rank-order
// pattern of its values, and the Shannon entropy of the empirical pattern
// distribution is normalized by log(m!) to land in [0,1]. Values below ~0.5
// indicate strong temporal structure; white noise approaches 1.
func PermutationEntropy(values []float64, order int) float64 {
	if order < 2 || len(values) < order {
		return 0
	}

	patterns := make(map[string]int)
	total := 0
	ranks := make([]int, order)
	idx := make([]int, order)

	for i := 0; i+order <= len(values); i++ {
		window := values[i : i+order]
		for j := range idx {
			idx[j] = j
		}
		sort.SliceStable(idx, func(a, b int) bool {
			return window[idx[a]] < window[idx[b]]
		})
		for rank, j := range idx {
			ranks[j] = rank
		}

		key := make([]byte, order)
		for j, r := range ranks {
			key[j] = byte(r)
		}
		patterns[string(key)]++
		total++
	}

	if total == 0 {
		return 0
	}

	entropy := 0.0
	for _, c := range patterns {
		p := float64(c) / float64(total)
		entropy -= p * math.Log(p)
	}

	maxEntropy := math.Log(factorial(order))
	if maxEntropy == 0 {
		return 0
	}
	return entropy / maxEntropy
}

// SpectralEntropy computes the Shannon entropy of the normalized power
// spectrum, scaled by log2 of the number of positive-frequency bins to land
// in [0,1]. A pure tone concentrates power in one bin (low entropy); white
// noise spreads it evenly (high entropy).
func SpectralEntropy(power []float64) float64 {
	if len(power) < 2 {
		return 0
	}

	total := 0.0
	for _, p := range power {
		total += p
	}
	if total == 0 {
		return 0
	}

	entropy := 0.0
	for _, p := range power {
		if p == 0 {
			continue
		}
		q := p / total
		entropy -= q * math.Log2(q)
	}

	maxEntropy := math.Log2(float64(len(power)))
	if maxEntropy == 0 {
		return 0
	}
	return entropy / maxEntropy
}

func factorial(n int) float64 {
	result := 1.0
	for i := 2; i <= n; i++ {
		result *= float64(i)
	}
	return result
}
