// Package oddsmath provides the pure conversion primitives the detectors
// are built on: American/decimal/implied-probability conversions and vig
// removal.
//
// Every function is total for finite input. The degenerate American price
// 0 is not a legal quote but must never crash a scan, so the conversions
// return fixed sentinels for it (decimal 1.0, probability 0.0). Callers
// treat those sentinels as "uncomputable" and skip the quote.
package oddsmath

// AmericanToDecimal converts American odds to decimal odds
// American +150 → Decimal 2.50
// American -150 → Decimal 1.67
// American 0 → Decimal 1.00 (sentinel, not a payable price)
func AmericanToDecimal(american float64) float64 {
	switch {
	case american > 0:
		return (american / 100.0) + 1.0
	case american < 0:
		return (100.0 / -american) + 1.0
	default:
		return 1.0
	}
}

// AmericanToImpliedProb converts American odds to the implied probability
// the price carries before any vig removal.
// American -200 → 0.6667, American +200 → 0.3333, American 0 → 0.0
func AmericanToImpliedProb(american float64) float64 {
	switch {
	case american < 0:
		return -american / (-american + 100.0)
	case american > 0:
		return 100.0 / (american + 100.0)
	default:
		return 0.0
	}
}

// ProbToAmerican converts a probability to its fair American odds.
// Probabilities outside (0, 1) return 0.0, the uncomputable sentinel.
func ProbToAmerican(prob float64) float64 {
	if prob <= 0 || prob >= 1 {
		return 0.0
	}
	if prob >= 0.5 {
		return -(prob / (1.0 - prob)) * 100.0
	}
	return ((1.0 - prob) / prob) * 100.0
}
