package engine_test

import (
	"time"

	"github.com/XavierBriggs/fortuna/services/odds-analyzer/pkg/models"
)

// Fixture builders shared by the detector tests. Events mirror the
// shape of the Odds API: one event, several bookmakers, each carrying
// one or more markets.

func fptr(v float64) *float64 { return &v }
func sptr(s string) *string   { return &s }

func outcome(name string, price float64) models.OutcomeOdds {
	return models.OutcomeOdds{Name: name, Price: price}
}

func lineOutcome(name string, price, point float64) models.OutcomeOdds {
	return models.OutcomeOdds{Name: name, Price: price, Point: fptr(point)}
}

func propOutcome(name, player string, price, point float64) models.OutcomeOdds {
	return models.OutcomeOdds{Name: name, Price: price, Point: fptr(point), Description: sptr(player)}
}

func market(key string, outcomes ...models.OutcomeOdds) models.Market {
	return models.Market{Key: key, Outcomes: outcomes}
}

func book(key string, markets ...models.Market) models.Bookmaker {
	return models.Bookmaker{Key: key, Title: key, Markets: markets}
}

func nbaEvent(books ...models.Bookmaker) models.Event {
	return models.Event{
		ID:           "evt-1",
		SportKey:     "basketball_nba",
		CommenceTime: time.Now().Add(2 * time.Hour),
		HomeTeam:     "Boston Celtics",
		AwayTeam:     "New York Knicks",
		Bookmakers:   books,
	}
}

// h2hEvent builds a moneyline event where every book quotes both sides
// at the given prices: prices[book][0] is the home side.
func h2hEvent(prices map[string][2]float64) models.Event {
	var books []models.Bookmaker
	for _, key := range []string{"fanduel", "draftkings", "betmgm", "caesars"} {
		p, ok := prices[key]
		if !ok {
			continue
		}
		books = append(books, book(key, market("h2h",
			outcome("Boston Celtics", p[0]),
			outcome("New York Knicks", p[1]),
		)))
	}
	return nbaEvent(books...)
}
