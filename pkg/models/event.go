package models

import "time"

// Sport is one entry from the Odds API sports catalog
type Sport struct {
	Key          string `json:"key"`
	Group        string `json:"group"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Active       bool   `json:"active"`
	HasOutrights bool   `json:"has_outrights"`
}

// OutcomeOdds is one bookmaker's price for one outcome of one market.
// Point is nil for moneyline outcomes; Description carries the player
// name for prop outcomes and is nil for game markets.
type OutcomeOdds struct {
	Name        string     `json:"name"`
	Price       float64    `json:"price"` // American odds
	Point       *float64   `json:"point,omitempty"`
	Description *string    `json:"description,omitempty"`
	LastUpdate  *time.Time `json:"last_update,omitempty"`
}

// Market is a named betting market (h2h, spreads, totals, player_points, ...)
// attached to one bookmaker for one event
type Market struct {
	Key        string        `json:"key"`
	LastUpdate *time.Time    `json:"last_update,omitempty"`
	Outcomes   []OutcomeOdds `json:"outcomes"`
}

// Bookmaker is a named price source attached to an event
type Bookmaker struct {
	Key        string     `json:"key"`
	Title      string     `json:"title"`
	LastUpdate *time.Time `json:"last_update,omitempty"`
	Markets    []Market   `json:"markets"`
}

// Event is a single real-world contest with all bookmaker price sheets
// attached. It is the unit of iteration for every detector.
type Event struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title,omitempty"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// ScoreValue is a single team score entry
type ScoreValue struct {
	Name  string  `json:"name"`
	Score *string `json:"score,omitempty"`
}

// Score is the live/final score record for an event
type Score struct {
	ID           string       `json:"id"`
	SportKey     string       `json:"sport_key"`
	SportTitle   string       `json:"sport_title,omitempty"`
	CommenceTime time.Time    `json:"commence_time"`
	HomeTeam     string       `json:"home_team"`
	AwayTeam     string       `json:"away_team"`
	Completed    bool         `json:"completed"`
	LastUpdate   *time.Time   `json:"last_update,omitempty"`
	Scores       []ScoreValue `json:"scores,omitempty"`
}

// HomeScore returns the home team's score, or "-" when not yet available
func (s *Score) HomeScore() string {
	return s.teamScore(s.HomeTeam)
}

// AwayScore returns the away team's score, or "-" when not yet available
func (s *Score) AwayScore() string {
	return s.teamScore(s.AwayTeam)
}

func (s *Score) teamScore(team string) string {
	for _, sv := range s.Scores {
		if sv.Name == team && sv.Score != nil {
			return *sv.Score
		}
	}
	return "-"
}

// Live reports whether the event has started but not completed
func (s *Score) Live() bool {
	return !s.Completed && s.HomeScore() != "-"
}

// GameRow is the merged scores+odds view of one game, served by the API
type GameRow struct {
	EventID      string      `json:"event_id"`
	SportKey     string      `json:"sport_key"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeScore    string      `json:"home_score"`
	AwayScore    string      `json:"away_score"`
	Completed    bool        `json:"completed"`
	Bookmakers   []Bookmaker `json:"bookmakers,omitempty"`
}
