package engine

import (
	"math"
	"time"

	"github.com/XavierBriggs/fortuna/services/odds-analyzer/pkg/models"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/pkg/oddsmath"
)

// maxHitProb caps the landing-spot estimate; beyond ~30% the linear
// density model stops being credible
const maxHitProb = 0.30

// estimateHitProb estimates the chance a result lands inside a middle
// window: each whole integer landing spot inside the window contributes
// the sport's per-point density. floor() undercounts some half-point
// windows slightly; that is a property of the model, kept as-is.
func estimateHitProb(window float64, sportKey string, cfg Config) float64 {
	hit := math.Floor(window) * cfg.density(sportKey)
	if hit > maxHitProb {
		return maxHitProb
	}
	return hit
}

// computeMiddleEV values the combined 2-unit position. On a hit both
// legs win; on a miss one leg wins and one loses, approximated as the
// average of either leg winning alone. The miss-case approximation does
// not model which leg is likelier to win — a stated simplification of
// the model, not a bug.
func computeMiddleEV(priceA, priceB, hitProb float64) float64 {
	decA := oddsmath.AmericanToDecimal(priceA)
	decB := oddsmath.AmericanToDecimal(priceB)

	profitIfHit := decA + decB - 2.0
	profitIfMiss := ((decA - 2.0) + (decB - 2.0)) / 2.0

	ev := hitProb*profitIfHit + (1.0-hitProb)*profitIfMiss
	return ev / 2.0 * 100.0
}

// middleBetsForEvent finds cross-line windows: different books quoting
// different lines on the same two-sided market such that the wide side
// of each line can both win. Spreads, totals, and props each have their
// own pairing rule; moneylines have no line and produce no middles.
func middleBetsForEvent(ev models.Event, cfg Config, now time.Time) []models.MiddleBet {
	var middles []models.MiddleBet

	for _, marketKey := range discoverMarkets(ev) {
		quotes := marketQuotes(ev, marketKey)

		if isPropMarket(ev, marketKey) {
			middles = append(middles, propMiddles(ev, marketKey, quotes, cfg, now)...)
			continue
		}
		middles = append(middles, totalMiddles(ev, marketKey, "", quotes, cfg, now)...)
		middles = append(middles, spreadMiddles(ev, marketKey, quotes, cfg, now)...)
	}

	return middles
}

// spreadMiddles pairs opposite teams across books. A window exists when
// the two stated points sum above zero: Team A -3 and Team B +4.5
// leaves 1.5 points where both cover.
func spreadMiddles(ev models.Event, marketKey string, quotes []bookQuote, cfg Config, now time.Time) []models.MiddleBet {
	var middles []models.MiddleBet

	for i := 0; i < len(quotes); i++ {
		for j := i + 1; j < len(quotes); j++ {
			a, b := quotes[i], quotes[j]
			if a.BookKey == b.BookKey || a.Outcome.Name == b.Outcome.Name {
				continue
			}
			if a.Outcome.Point == nil || b.Outcome.Point == nil {
				continue
			}
			if isTotalsSide(a.Outcome.Name) || isTotalsSide(b.Outcome.Name) {
				continue
			}

			window := *a.Outcome.Point + *b.Outcome.Point
			if window <= 0 || window < cfg.MiddleMinWindow {
				continue
			}

			if mb, ok := buildMiddle(ev, marketKey, "", a, b, window, cfg, now); ok {
				middles = append(middles, mb)
			}
		}
	}
	return middles
}

// totalMiddles pairs Over at X with Under at Y across books where
// Y > X; everything between the two totals hits both legs. The same
// rule covers props, scoped per player.
func totalMiddles(ev models.Event, marketKey, player string, quotes []bookQuote, cfg Config, now time.Time) []models.MiddleBet {
	var middles []models.MiddleBet

	for _, over := range quotes {
		if over.Outcome.Name != overName || over.Outcome.Point == nil {
			continue
		}
		for _, under := range quotes {
			if under.Outcome.Name != underName || under.Outcome.Point == nil {
				continue
			}
			if over.BookKey == under.BookKey {
				continue
			}

			window := *under.Outcome.Point - *over.Outcome.Point
			if window <= 0 || window < cfg.MiddleMinWindow {
				continue
			}

			if mb, ok := buildMiddle(ev, marketKey, player, over, under, window, cfg, now); ok {
				middles = append(middles, mb)
			}
		}
	}
	return middles
}

// propMiddles runs the totals pairing once per player so quotes from
// different players are never crossed
func propMiddles(ev models.Event, marketKey string, quotes []bookQuote, cfg Config, now time.Time) []models.MiddleBet {
	byPlayer := make(map[string][]bookQuote)
	var players []string
	for _, q := range quotes {
		if q.Outcome.Description == nil || *q.Outcome.Description == "" {
			continue
		}
		player := *q.Outcome.Description
		if _, ok := byPlayer[player]; !ok {
			players = append(players, player)
		}
		byPlayer[player] = append(byPlayer[player], q)
	}

	var middles []models.MiddleBet
	for _, player := range players {
		middles = append(middles, totalMiddles(ev, marketKey, player, byPlayer[player], cfg, now)...)
	}
	return middles
}

func buildMiddle(ev models.Event, marketKey, player string, a, b bookQuote, window float64, cfg Config, now time.Time) (models.MiddleBet, bool) {
	priceA := cfg.effectivePrice(a.BookKey, a.Outcome.Price)
	priceB := cfg.effectivePrice(b.BookKey, b.Outcome.Price)
	impA := oddsmath.AmericanToImpliedProb(priceA)
	impB := oddsmath.AmericanToImpliedProb(priceB)
	if impA == 0 || impB == 0 {
		return models.MiddleBet{}, false
	}

	cost := impA + impB
	if cfg.MiddleMaxCombinedCost > 0 && cost > cfg.MiddleMaxCombinedCost {
		return models.MiddleBet{}, false
	}

	hitProb := estimateHitProb(window, ev.SportKey, cfg)

	return models.MiddleBet{
		SportKey:     ev.SportKey,
		EventID:      ev.ID,
		HomeTeam:     ev.HomeTeam,
		AwayTeam:     ev.AwayTeam,
		Market:       marketKey,
		PlayerName:   player,
		BookA:        a.BookKey,
		BookTitleA:   a.BookTitle,
		OutcomeA:     a.Outcome.Name,
		PriceA:       priceA,
		PointA:       *a.Outcome.Point,
		BookB:        b.BookKey,
		BookTitleB:   b.BookTitle,
		OutcomeB:     b.Outcome.Name,
		PriceB:       priceB,
		PointB:       *b.Outcome.Point,
		WindowSize:   window,
		HitProb:      hitProb,
		CombinedCost: cost,
		EVPercent:    computeMiddleEV(priceA, priceB, hitProb),
		DetectedAt:   now,
	}, true
}

func isTotalsSide(name string) bool {
	return name == overName || name == underName
}
