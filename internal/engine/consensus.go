package engine

import (
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/pkg/oddsmath"
)

// consensus is the market-average no-vig estimate for one line group
type consensus struct {
	// Probs holds the fair (vig-removed) probability per outcome
	Probs map[outcomeKey]float64
	// Counts holds how many books contributed to each outcome's average
	Counts map[outcomeKey]int
	// Vig is the overround percentage of the averaged group before
	// normalization, a diagnostic of how juiced the market is
	Vig float64
}

// marketConsensus computes the no-vig consensus for one line group:
// per-outcome arithmetic mean of implied probabilities across books,
// then a group-wide normalization to sum 1.
//
// Implied probabilities always come from raw quoted prices — effective
// price overrides are a sizing concern and must not bias the consensus.
//
// The result is only usable when every outcome in the group has at
// least minBooks contributors; inferring fair odds from one or two
// books is circular. Unusable groups return ok=false and are skipped,
// which is an expected condition, not an error.
func marketConsensus(g lineGroup, minBooks int) (consensus, bool) {
	if len(g.Quotes) == 0 {
		return consensus{}, false
	}

	avg := make(map[outcomeKey]float64, len(g.Quotes))
	counts := make(map[outcomeKey]int, len(g.Quotes))

	for key, quotes := range g.Quotes {
		sum := 0.0
		for _, q := range quotes {
			sum += oddsmath.AmericanToImpliedProb(q.Outcome.Price)
		}
		avg[key] = sum / float64(len(quotes))
		counts[key] = len(quotes)
	}

	for _, n := range counts {
		if n < minBooks {
			return consensus{}, false
		}
	}

	keys := sortedKeys(g)
	raw := make([]float64, len(keys))
	for i, k := range keys {
		raw[i] = avg[k]
	}

	fair := oddsmath.RemoveVig(raw)

	total := 0.0
	for _, p := range fair {
		total += p
	}
	if total == 0 {
		// Every contributing price was the zero sentinel
		return consensus{}, false
	}

	probs := make(map[outcomeKey]float64, len(keys))
	for i, k := range keys {
		probs[k] = fair[i]
	}

	return consensus{Probs: probs, Counts: counts, Vig: oddsmath.VigPercent(raw)}, true
}
