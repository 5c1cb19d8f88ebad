package engine

import (
	"time"

	"github.com/XavierBriggs/fortuna/services/odds-analyzer/pkg/models"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/pkg/oddsmath"
)

// evBetsForEvent compares every individual book quote on the event
// against the market-average no-vig consensus of its line group and
// emits a bet for each edge above threshold.
//
// Comparing one book against the aggregate of all books (rather than a
// single sharp reference) is deliberate: it is robust to any one
// outlier book and needs no trusted reference to be configured.
func evBetsForEvent(ev models.Event, cfg Config, now time.Time) []models.EVBet {
	var bets []models.EVBet

	for _, marketKey := range discoverMarkets(ev) {
		var groups []lineGroup
		prop := isPropMarket(ev, marketKey)
		if prop {
			groups = propLineGroups(ev, marketKey)
		} else {
			groups = gameLineGroups(ev, marketKey)
		}

		for _, g := range groups {
			cons, ok := marketConsensus(g, cfg.minBooks())
			if !ok {
				continue
			}

			for _, key := range sortedKeys(g) {
				fair := cons.Probs[key]
				if fair <= 0 || fair >= 1 {
					continue
				}
				fairOdds := oddsmath.ProbToAmerican(fair)
				numBooks := cons.Counts[key]

				for _, q := range g.Quotes[key] {
					if !cfg.bookAllowed(q.BookKey) {
						continue
					}
					// The odds band filters on the raw quoted price:
					// synthetic override prices say nothing about the
					// liquidity of the underlying line.
					if cfg.OddsRange != nil && !cfg.OddsRange.Contains(q.Outcome.Price) {
						continue
					}

					price := cfg.effectivePrice(q.BookKey, q.Outcome.Price)
					decimal := oddsmath.AmericanToDecimal(price)
					if decimal <= 1.0 {
						continue // zero-price sentinel, uncomputable
					}

					edge := fair*decimal - 1.0
					evPct := edge * 100.0
					if evPct < cfg.EVThreshold {
						continue
					}

					bets = append(bets, models.EVBet{
						SportKey:     ev.SportKey,
						Book:         q.BookKey,
						BookTitle:    q.BookTitle,
						EventID:      ev.ID,
						HomeTeam:     ev.HomeTeam,
						AwayTeam:     ev.AwayTeam,
						CommenceTime: ev.CommenceTime,
						Market:       marketKey,
						OutcomeName:  key.Name,
						OutcomePoint: key.pointPtr(),
						PlayerName:   key.Player,
						IsProp:       prop,
						Odds:         price,
						DecimalOdds:  decimal,
						ImpliedProb:  oddsmath.AmericanToImpliedProb(price),
						NoVigProb:    fair,
						FairOdds:     fairOdds,
						EVPercent:    evPct,
						Edge:         edge,
						NumBooks:     numBooks,
						MarketVig:    cons.Vig,
						DetectedAt:   now,
					})
				}
			}
		}
	}

	return bets
}
