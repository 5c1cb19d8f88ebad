package engine

import (
	"math"
	"sort"

	"github.com/XavierBriggs/fortuna/services/odds-analyzer/pkg/models"
)

// outcomeKey identifies one semantic bet: an outcome name plus its
// optional line and optional player. It is a comparable struct used
// directly as a map key, so "no line" is a real state rather than a
// magic number or a stringified "None".
type outcomeKey struct {
	Name     string
	Point    float64
	HasPoint bool
	Player   string
}

func (k outcomeKey) pointPtr() *float64 {
	if !k.HasPoint {
		return nil
	}
	p := k.Point
	return &p
}

// bookQuote pairs a quote with the bookmaker that posted it
type bookQuote struct {
	BookKey   string
	BookTitle string
	Outcome   models.OutcomeOdds
}

// lineGroup is the aggregation unit every detector shares: the quotes
// across all bookmakers that form one mutually exclusive, collectively
// exhaustive outcome set at a single line. Building these correctly is
// the central correctness concern of the engine — pooling different
// lines into one group corrupts the sum-to-1 normalization.
type lineGroup struct {
	MarketKey string
	Player    string // set for prop groups
	Quotes    map[outcomeKey][]bookQuote
}

const (
	overName  = "Over"
	underName = "Under"
)

// isPropMarket reports whether a market's quotes carry player
// descriptions, which routes the market to the prop pipeline
func isPropMarket(ev models.Event, marketKey string) bool {
	for _, bm := range ev.Bookmakers {
		for _, m := range bm.Markets {
			if m.Key != marketKey {
				continue
			}
			for _, o := range m.Outcomes {
				if o.Description != nil && *o.Description != "" {
					return true
				}
			}
		}
	}
	return false
}

// discoverMarkets returns every market key present on the event across
// all bookmakers, sorted for deterministic iteration. Alternate and
// extra markets are picked up automatically — nothing is hardcoded.
func discoverMarkets(ev models.Event) []string {
	seen := make(map[string]bool)
	for _, bm := range ev.Bookmakers {
		for _, m := range bm.Markets {
			seen[m.Key] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// marketQuotes flattens one market's quotes across all bookmakers
func marketQuotes(ev models.Event, marketKey string) []bookQuote {
	var quotes []bookQuote
	for _, bm := range ev.Bookmakers {
		for _, m := range bm.Markets {
			if m.Key != marketKey {
				continue
			}
			for _, o := range m.Outcomes {
				quotes = append(quotes, bookQuote{
					BookKey:   bm.Key,
					BookTitle: bm.Title,
					Outcome:   o,
				})
			}
		}
	}
	return quotes
}

// lineGroupID keys the partition of a market's quotes into line groups
type lineGroupID struct {
	Point    float64
	HasPoint bool
	Player   string
}

// quoteGroupID assigns a quote to its line group:
//   - no point (moneyline): one group for the whole market,
//   - Over/Under (totals): the literal point, both sides share it,
//   - spread sides: |point|, since the two sides are stated as +x / -x.
//
// Prop quotes additionally carry the player, isolating each player's
// Over/Under pair.
func quoteGroupID(q bookQuote, player string) lineGroupID {
	o := q.Outcome
	if o.Point == nil {
		return lineGroupID{Player: player}
	}
	pt := *o.Point
	if o.Name != overName && o.Name != underName {
		pt = math.Abs(pt)
	}
	return lineGroupID{Point: pt, HasPoint: true, Player: player}
}

// gameLineGroups partitions a game market (h2h, spreads, totals and
// their alternates) into per-line groups
func gameLineGroups(ev models.Event, marketKey string) []lineGroup {
	return buildLineGroups(marketQuotes(ev, marketKey), marketKey, false)
}

// propLineGroups partitions a player-prop market into one group per
// (player, line) pair. Quotes without a player description are dropped:
// they cannot be attributed to a pair.
func propLineGroups(ev models.Event, marketKey string) []lineGroup {
	all := marketQuotes(ev, marketKey)
	quotes := all[:0:0]
	for _, q := range all {
		if q.Outcome.Description != nil && *q.Outcome.Description != "" {
			quotes = append(quotes, q)
		}
	}
	return buildLineGroups(quotes, marketKey, true)
}

func buildLineGroups(quotes []bookQuote, marketKey string, prop bool) []lineGroup {
	byID := make(map[lineGroupID]*lineGroup)
	order := make([]lineGroupID, 0)

	for _, q := range quotes {
		player := ""
		if prop {
			player = *q.Outcome.Description
		}
		id := quoteGroupID(q, player)

		g, ok := byID[id]
		if !ok {
			g = &lineGroup{
				MarketKey: marketKey,
				Player:    player,
				Quotes:    make(map[outcomeKey][]bookQuote),
			}
			byID[id] = g
			order = append(order, id)
		}

		key := outcomeKey{Name: q.Outcome.Name, Player: player}
		if q.Outcome.Point != nil {
			key.Point = *q.Outcome.Point
			key.HasPoint = true
		}
		g.Quotes[key] = append(g.Quotes[key], q)
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.Player != b.Player {
			return a.Player < b.Player
		}
		if a.HasPoint != b.HasPoint {
			return !a.HasPoint
		}
		return a.Point < b.Point
	})

	groups := make([]lineGroup, 0, len(order))
	for _, id := range order {
		groups = append(groups, *byID[id])
	}
	return groups
}

// sortedKeys returns a group's outcome keys in deterministic order
func sortedKeys(g lineGroup) []outcomeKey {
	keys := make([]outcomeKey, 0, len(g.Quotes))
	for k := range g.Quotes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Point < keys[j].Point
	})
	return keys
}
