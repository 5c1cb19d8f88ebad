package engine_test

import (
	"math"
	"testing"

	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/engine"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/pkg/models"
)

func TestMiddleDetection_SpreadWindow(t *testing.T) {
	// Celtics -2.5 at one book, Knicks +4 at the other: a Celtics win
	// by exactly 3 or 4 cashes both tickets.
	ev := nbaEvent(
		book("fanduel", market("spreads",
			lineOutcome("Boston Celtics", -110, -2.5),
			lineOutcome("New York Knicks", -110, 2.5),
		)),
		book("draftkings", market("spreads",
			lineOutcome("Boston Celtics", -110, -4),
			lineOutcome("New York Knicks", -110, 4),
		)),
	)

	middles := engine.New(engine.DefaultConfig()).MiddleBets([]models.Event{ev})

	if len(middles) != 1 {
		t.Fatalf("got %d middles, want 1: %+v", len(middles), middles)
	}

	mb := middles[0]
	if mb.WindowSize != 1.5 {
		t.Errorf("WindowSize = %v, want 1.5", mb.WindowSize)
	}
	// floor(1.5) whole landing spots at the basketball density
	if math.Abs(mb.HitProb-0.035) > 1e-9 {
		t.Errorf("HitProb = %f, want 0.035", mb.HitProb)
	}
	if mb.BookA == mb.BookB {
		t.Errorf("both legs at %s", mb.BookA)
	}
	if mb.OutcomeA == mb.OutcomeB {
		t.Errorf("legs on the same team: %+v", mb)
	}
}

func TestMiddleDetection_TotalWindow(t *testing.T) {
	ev := nbaEvent(
		book("fanduel", market("totals",
			lineOutcome("Over", -110, 224.5),
			lineOutcome("Under", -110, 224.5),
		)),
		book("draftkings", market("totals",
			lineOutcome("Over", -110, 226.5),
			lineOutcome("Under", -110, 226.5),
		)),
	)

	middles := engine.New(engine.DefaultConfig()).MiddleBets([]models.Event{ev})

	if len(middles) != 1 {
		t.Fatalf("got %d middles, want 1: %+v", len(middles), middles)
	}

	mb := middles[0]
	if mb.OutcomeA != "Over" || mb.OutcomeB != "Under" {
		t.Errorf("legs = %s/%s, want Over/Under", mb.OutcomeA, mb.OutcomeB)
	}
	if mb.PointA != 224.5 || mb.PointB != 226.5 {
		t.Errorf("points = %v/%v, want Over 224.5 / Under 226.5", mb.PointA, mb.PointB)
	}
	if mb.WindowSize != 2.0 {
		t.Errorf("WindowSize = %v, want 2.0", mb.WindowSize)
	}
	if math.Abs(mb.HitProb-0.07) > 1e-9 {
		t.Errorf("HitProb = %f, want 0.07", mb.HitProb)
	}
}

func TestMiddleDetection_SameLineNoMiddle(t *testing.T) {
	ev := nbaEvent(
		book("fanduel", market("totals",
			lineOutcome("Over", -110, 224.5),
			lineOutcome("Under", -110, 224.5),
		)),
		book("draftkings", market("totals",
			lineOutcome("Over", -110, 224.5),
			lineOutcome("Under", -110, 224.5),
		)),
	)

	if middles := engine.New(engine.DefaultConfig()).MiddleBets([]models.Event{ev}); len(middles) != 0 {
		t.Fatalf("found middles with no window: %+v", middles)
	}
}

func TestMiddleDetection_SameBookNoMiddle(t *testing.T) {
	// Legs of a middle must come from different books; one book's own
	// ladder is not a middle.
	ev := nbaEvent(
		book("fanduel", market("totals",
			lineOutcome("Over", -110, 224.5),
			lineOutcome("Under", -110, 226.5),
		)),
	)

	if middles := engine.New(engine.DefaultConfig()).MiddleBets([]models.Event{ev}); len(middles) != 0 {
		t.Fatalf("found middles inside a single book: %+v", middles)
	}
}

func TestMiddleDetection_ZeroWindowSpreadNotMiddle(t *testing.T) {
	// Celtics -3 against Knicks +3 at another book is the same line, not
	// a window, even with the minimum window floor set to zero.
	ev := nbaEvent(
		book("fanduel", market("spreads",
			lineOutcome("Boston Celtics", -110, -3),
			lineOutcome("New York Knicks", -110, 3),
		)),
		book("draftkings", market("spreads",
			lineOutcome("Boston Celtics", -110, -3),
			lineOutcome("New York Knicks", -110, 3),
		)),
	)

	cfg := engine.DefaultConfig()
	cfg.MiddleMinWindow = 0

	if middles := engine.New(cfg).MiddleBets([]models.Event{ev}); len(middles) != 0 {
		t.Fatalf("zero-width spread pair emitted as middle: %+v", middles)
	}
}

func TestMiddleDetection_MinWindowFilter(t *testing.T) {
	ev := nbaEvent(
		book("fanduel", market("totals", lineOutcome("Over", -110, 224.5))),
		book("draftkings", market("totals", lineOutcome("Under", -110, 226.5))),
	)

	cfg := engine.DefaultConfig()
	cfg.MiddleMinWindow = 2.5

	if middles := engine.New(cfg).MiddleBets([]models.Event{ev}); len(middles) != 0 {
		t.Fatalf("2.0 window survived a 2.5 floor: %+v", middles)
	}
}

func TestMiddleDetection_MaxCombinedCostFilter(t *testing.T) {
	// Two -200 legs cost 0.667 + 0.667 of implied probability; paying
	// 1.33 units of probability for a 2-unit position is ruinous.
	ev := nbaEvent(
		book("fanduel", market("totals", lineOutcome("Over", -200, 224.5))),
		book("draftkings", market("totals", lineOutcome("Under", -200, 226.5))),
	)

	cfg := engine.DefaultConfig()
	if middles := engine.New(cfg).MiddleBets([]models.Event{ev}); len(middles) != 0 {
		t.Fatalf("1.33 combined cost survived the 1.08 cap: %+v", middles)
	}

	// Zero disables the cost cap
	cfg.MiddleMaxCombinedCost = 0
	if middles := engine.New(cfg).MiddleBets([]models.Event{ev}); len(middles) != 1 {
		t.Fatalf("cost cap disabled: got %d middles, want 1", len(middles))
	}
}

func TestMiddleDetection_HitProbGrowsWithWindow(t *testing.T) {
	makeEvent := func(underPoint float64) models.Event {
		return nbaEvent(
			book("fanduel", market("totals", lineOutcome("Over", -110, 224.5))),
			book("draftkings", market("totals", lineOutcome("Under", -110, underPoint))),
		)
	}

	eng := engine.New(engine.DefaultConfig())
	narrow := eng.MiddleBets([]models.Event{makeEvent(225.5)})
	wide := eng.MiddleBets([]models.Event{makeEvent(227.5)})

	if len(narrow) != 1 || len(wide) != 1 {
		t.Fatalf("got %d narrow / %d wide middles, want 1 each", len(narrow), len(wide))
	}
	if wide[0].HitProb <= narrow[0].HitProb {
		t.Errorf("3-point window hit prob %f not above 1-point window %f",
			wide[0].HitProb, narrow[0].HitProb)
	}
	if wide[0].EVPercent <= narrow[0].EVPercent {
		t.Errorf("wider window EV %f not above narrower %f",
			wide[0].EVPercent, narrow[0].EVPercent)
	}
}

func TestMiddleDetection_EvenMoneyWideWindowPositiveEV(t *testing.T) {
	// Even-money legs with a 3-run window in baseball: hit prob
	// 3 * 0.08 = 0.24, misses cost nothing at +100, so the position is
	// clearly positive.
	ev := models.Event{
		ID:       "evt-mlb",
		SportKey: "baseball_mlb",
		HomeTeam: "Yankees",
		AwayTeam: "Red Sox",
		Bookmakers: []models.Bookmaker{
			book("fanduel", market("totals", lineOutcome("Over", 100, 7.5))),
			book("draftkings", market("totals", lineOutcome("Under", 100, 10.5))),
		},
	}

	middles := engine.New(engine.DefaultConfig()).MiddleBets([]models.Event{ev})

	if len(middles) != 1 {
		t.Fatalf("got %d middles, want 1: %+v", len(middles), middles)
	}
	mb := middles[0]
	if math.Abs(mb.HitProb-0.24) > 1e-9 {
		t.Errorf("HitProb = %f, want 0.24", mb.HitProb)
	}
	if math.Abs(mb.EVPercent-24.0) > 0.001 {
		t.Errorf("EVPercent = %f, want 24.0", mb.EVPercent)
	}
}

func TestMiddleDetection_HitProbCapped(t *testing.T) {
	// A 10-run window at the baseball density would be 0.8; the
	// estimate is capped before the linear model loses meaning.
	ev := models.Event{
		ID:       "evt-mlb",
		SportKey: "baseball_mlb",
		HomeTeam: "Yankees",
		AwayTeam: "Red Sox",
		Bookmakers: []models.Bookmaker{
			book("fanduel", market("totals", lineOutcome("Over", 100, 5.5))),
			book("draftkings", market("totals", lineOutcome("Under", 100, 15.5))),
		},
	}

	middles := engine.New(engine.DefaultConfig()).MiddleBets([]models.Event{ev})

	if len(middles) != 1 {
		t.Fatalf("got %d middles, want 1", len(middles))
	}
	if middles[0].HitProb != 0.30 {
		t.Errorf("HitProb = %f, want the 0.30 cap", middles[0].HitProb)
	}
}

func TestMiddleDetection_PropPlayersIsolated(t *testing.T) {
	// Tatum 25.5 Over vs Giannis 30.5 Under is not a middle; only the
	// same player's lines may pair.
	ev := nbaEvent(
		book("fanduel", market("player_points",
			propOutcome("Over", "Jayson Tatum", -110, 25.5),
			propOutcome("Over", "Giannis Antetokounmpo", -110, 30.5),
		)),
		book("draftkings", market("player_points",
			propOutcome("Under", "Jayson Tatum", -110, 27.5),
			propOutcome("Under", "Giannis Antetokounmpo", -110, 30.5),
		)),
	)

	middles := engine.New(engine.DefaultConfig()).MiddleBets([]models.Event{ev})

	if len(middles) != 1 {
		t.Fatalf("got %d prop middles, want 1: %+v", len(middles), middles)
	}
	mb := middles[0]
	if mb.PlayerName != "Jayson Tatum" {
		t.Errorf("PlayerName = %q, want Jayson Tatum", mb.PlayerName)
	}
	if mb.WindowSize != 2.0 {
		t.Errorf("WindowSize = %v, want 2.0", mb.WindowSize)
	}
}

func TestMiddleDetection_MoneylineNoMiddle(t *testing.T) {
	ev := h2hEvent(map[string][2]float64{
		"fanduel":    {-110, -110},
		"draftkings": {120, -130},
	})

	if middles := engine.New(engine.DefaultConfig()).MiddleBets([]models.Event{ev}); len(middles) != 0 {
		t.Fatalf("found middles on a moneyline: %+v", middles)
	}
}
