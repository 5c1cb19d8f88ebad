package models

import "time"

// EVBet is a detected +EV single-bet opportunity. The tuple
// (Book, EventID, Market, OutcomeName, OutcomePoint, PlayerName) is the
// natural key persistence layers upsert on.
type EVBet struct {
	SportKey     string    `json:"sport_key"`
	Book         string    `json:"book"`
	BookTitle    string    `json:"book_title"`
	EventID      string    `json:"event_id"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	CommenceTime time.Time `json:"commence_time"`
	Market       string    `json:"market"`
	OutcomeName  string    `json:"outcome_name"`
	OutcomePoint *float64  `json:"outcome_point,omitempty"`
	PlayerName   string    `json:"player_name,omitempty"`
	IsProp       bool      `json:"is_prop"`

	Odds        float64 `json:"odds"` // American odds offered (effective price)
	DecimalOdds float64 `json:"decimal_odds"`
	ImpliedProb float64 `json:"implied_prob"`  // book's implied prob (with vig)
	NoVigProb   float64 `json:"no_vig_prob"`   // market consensus fair probability
	FairOdds    float64 `json:"fair_odds"`     // no-vig fair American odds
	EVPercent   float64 `json:"ev_percentage"` // ranking statistic
	Edge        float64 `json:"edge"`          // decimal edge: no_vig_prob*decimal - 1
	NumBooks    int     `json:"num_books"`     // contributors to the market average
	MarketVig   float64 `json:"market_vig"`    // overround % of the averaged group

	DetectedAt time.Time `json:"detected_at"`
}

// ArbBet is a guaranteed-profit pair: opposite outcomes at the same line
// whose best implied probabilities sum below 1
type ArbBet struct {
	SportKey   string `json:"sport_key"`
	EventID    string `json:"event_id"`
	HomeTeam   string `json:"home_team"`
	AwayTeam   string `json:"away_team"`
	Market     string `json:"market"`
	PlayerName string `json:"player_name,omitempty"`

	BookA      string   `json:"book_a"`
	BookTitleA string   `json:"book_title_a"`
	OutcomeA   string   `json:"outcome_a"`
	PriceA     float64  `json:"price_a"`
	PointA     *float64 `json:"point_a,omitempty"`

	BookB      string   `json:"book_b"`
	BookTitleB string   `json:"book_title_b"`
	OutcomeB   string   `json:"outcome_b"`
	PriceB     float64  `json:"price_b"`
	PointB     *float64 `json:"point_b,omitempty"`

	ImpliedSum float64 `json:"implied_sum"`
	ProfitPct  float64 `json:"profit_pct"` // ranking statistic

	DetectedAt time.Time `json:"detected_at"`
}

// MiddleBet is a cross-line pair: different lines on the same two-sided
// market at different books, leaving a window where both legs win
type MiddleBet struct {
	SportKey   string `json:"sport_key"`
	EventID    string `json:"event_id"`
	HomeTeam   string `json:"home_team"`
	AwayTeam   string `json:"away_team"`
	Market     string `json:"market"`
	PlayerName string `json:"player_name,omitempty"`

	BookA      string  `json:"book_a"`
	BookTitleA string  `json:"book_title_a"`
	OutcomeA   string  `json:"outcome_a"`
	PriceA     float64 `json:"price_a"`
	PointA     float64 `json:"point_a"`

	BookB      string  `json:"book_b"`
	BookTitleB string  `json:"book_title_b"`
	OutcomeB   string  `json:"outcome_b"`
	PriceB     float64 `json:"price_b"`
	PointB     float64 `json:"point_b"`

	WindowSize   float64 `json:"window_size"`
	HitProb      float64 `json:"hit_prob"`
	CombinedCost float64 `json:"combined_cost"` // implied prob A + implied prob B
	EVPercent    float64 `json:"ev_percentage"` // ranking statistic

	DetectedAt time.Time `json:"detected_at"`
}
