package oddsmath

// RemoveVig normalizes a set of implied probabilities to sum to 1 by
// dividing each entry by the total. The input must be one mutually
// exclusive, collectively exhaustive outcome set at a single line —
// mixing lines corrupts the normalization.
//
// A zero total (all sentinel probabilities) returns a copy of the input
// unchanged rather than dividing by zero.
func RemoveVig(probs []float64) []float64 {
	out := make([]float64, len(probs))
	total := 0.0
	for _, p := range probs {
		total += p
	}
	if total == 0 {
		copy(out, probs)
		return out
	}
	for i, p := range probs {
		out[i] = p / total
	}
	return out
}

// VigPercent returns the bookmaker overround of a market as a percentage:
// (sum of implied probabilities - 1) * 100. A fair or degenerate market
// reports 0.
func VigPercent(probs []float64) float64 {
	total := 0.0
	for _, p := range probs {
		total += p
	}
	if total <= 1.0 {
		return 0.0
	}
	return (total - 1.0) * 100.0
}
