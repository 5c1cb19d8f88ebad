package engine

import (
	"time"

	"github.com/XavierBriggs/fortuna/services/odds-analyzer/pkg/models"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/pkg/oddsmath"
)

// arbBetsForEvent finds guaranteed-profit pairs: mutually exclusive
// outcomes at the same line whose best implied probabilities sum below
// 1. The line-group partition does the heavy lifting — a cross-line
// Over/Under pair never lands in one group, so it can never be
// misflagged as an arb (it is a middle, with no guaranteed outcome).
func arbBetsForEvent(ev models.Event, cfg Config, now time.Time) []models.ArbBet {
	var arbs []models.ArbBet

	for _, marketKey := range discoverMarkets(ev) {
		var groups []lineGroup
		if isPropMarket(ev, marketKey) {
			groups = propLineGroups(ev, marketKey)
		} else {
			groups = gameLineGroups(ev, marketKey)
		}

		for _, g := range groups {
			keys := sortedKeys(g)
			if len(keys) < 2 {
				continue
			}

			// Best effective price per side across all books
			best := make(map[outcomeKey]bookQuote, len(keys))
			for _, key := range keys {
				var bq bookQuote
				bestDec := 0.0
				for _, q := range g.Quotes[key] {
					dec := oddsmath.AmericanToDecimal(cfg.effectivePrice(q.BookKey, q.Outcome.Price))
					if dec > bestDec {
						bestDec = dec
						bq = q
					}
				}
				if bestDec > 1.0 {
					best[key] = bq
				}
			}

			// Every pair of sides is checked, so 3-way markets (soccer
			// moneylines) are handled with no special casing.
			for i := 0; i < len(keys); i++ {
				for j := i + 1; j < len(keys); j++ {
					a, okA := best[keys[i]]
					b, okB := best[keys[j]]
					if !okA || !okB {
						continue
					}

					priceA := cfg.effectivePrice(a.BookKey, a.Outcome.Price)
					priceB := cfg.effectivePrice(b.BookKey, b.Outcome.Price)
					impA := oddsmath.AmericanToImpliedProb(priceA)
					impB := oddsmath.AmericanToImpliedProb(priceB)
					if impA == 0 || impB == 0 {
						continue
					}

					impliedSum := impA + impB
					if impliedSum >= 1.0 {
						continue
					}
					profitPct := (1.0/impliedSum - 1.0) * 100.0
					if profitPct < cfg.ArbMinProfitPct {
						continue
					}

					arbs = append(arbs, models.ArbBet{
						SportKey:   ev.SportKey,
						EventID:    ev.ID,
						HomeTeam:   ev.HomeTeam,
						AwayTeam:   ev.AwayTeam,
						Market:     marketKey,
						PlayerName: g.Player,
						BookA:      a.BookKey,
						BookTitleA: a.BookTitle,
						OutcomeA:   keys[i].Name,
						PriceA:     priceA,
						PointA:     keys[i].pointPtr(),
						BookB:      b.BookKey,
						BookTitleB: b.BookTitle,
						OutcomeB:   keys[j].Name,
						PriceB:     priceB,
						PointB:     keys[j].pointPtr(),
						ImpliedSum: impliedSum,
						ProfitPct:  profitPct,
						DetectedAt: now,
					})
				}
			}
		}
	}

	return arbs
}
