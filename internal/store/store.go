// Package store persists detected +EV bets to Postgres. Rows are
// keyed by the bet's natural identity (book, event, market, outcome,
// point, player) so repeated scans update in place, and bets that
// disappear from a scan get deactivated rather than deleted.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/XavierBriggs/fortuna/services/odds-analyzer/pkg/models"
)

type Store struct {
	db  *sql.DB
	log *zap.Logger
}

func New(dsn string, log *zap.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{db: db, log: log}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ev_bets (
			id                SERIAL PRIMARY KEY,
			sport_key         TEXT NOT NULL,
			event_id          TEXT NOT NULL,
			home_team         TEXT NOT NULL,
			away_team         TEXT NOT NULL,
			commence_time     TIMESTAMPTZ,
			book              TEXT NOT NULL,
			market            TEXT NOT NULL,
			outcome_name      TEXT NOT NULL,
			outcome_point_str TEXT NOT NULL DEFAULT '',
			player_name       TEXT NOT NULL DEFAULT '',
			is_prop           BOOLEAN NOT NULL DEFAULT FALSE,
			odds              DOUBLE PRECISION NOT NULL,
			decimal_odds      DOUBLE PRECISION NOT NULL,
			implied_prob      DOUBLE PRECISION NOT NULL,
			no_vig_prob       DOUBLE PRECISION NOT NULL,
			fair_odds         DOUBLE PRECISION NOT NULL,
			ev_percentage     DOUBLE PRECISION NOT NULL,
			edge              DOUBLE PRECISION NOT NULL,
			num_books         INTEGER NOT NULL,
			is_active         BOOLEAN NOT NULL DEFAULT TRUE,
			first_seen        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_seen         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (book, event_id, market, outcome_name, outcome_point_str, player_name)
		);
		CREATE INDEX IF NOT EXISTS idx_ev_bets_sport_active
			ON ev_bets (sport_key, is_active);
	`)
	if err != nil {
		return fmt.Errorf("ensure ev_bets schema: %w", err)
	}
	return nil
}

const upsertEVBet = `
	INSERT INTO ev_bets (
		sport_key, event_id, home_team, away_team, commence_time,
		book, market, outcome_name, outcome_point_str, player_name, is_prop,
		odds, decimal_odds, implied_prob, no_vig_prob, fair_odds,
		ev_percentage, edge, num_books, is_active, last_seen
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		$11, $12, $13, $14, $15, $16, $17, $18, $19, TRUE, $20
	)
	ON CONFLICT (book, event_id, market, outcome_name, outcome_point_str, player_name)
	DO UPDATE SET
		home_team     = EXCLUDED.home_team,
		away_team     = EXCLUDED.away_team,
		commence_time = EXCLUDED.commence_time,
		is_prop       = EXCLUDED.is_prop,
		odds          = EXCLUDED.odds,
		decimal_odds  = EXCLUDED.decimal_odds,
		implied_prob  = EXCLUDED.implied_prob,
		no_vig_prob   = EXCLUDED.no_vig_prob,
		fair_odds     = EXCLUDED.fair_odds,
		ev_percentage = EXCLUDED.ev_percentage,
		edge          = EXCLUDED.edge,
		num_books     = EXCLUDED.num_books,
		is_active     = TRUE,
		last_seen     = EXCLUDED.last_seen
`

// UpsertEVBets writes the current scan's bets in one transaction
func (s *Store) UpsertEVBets(ctx context.Context, bets []models.EVBet) error {
	if len(bets) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertEVBet)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, b := range bets {
		_, err := stmt.ExecContext(ctx,
			b.SportKey, b.EventID, b.HomeTeam, b.AwayTeam, b.CommenceTime,
			b.Book, b.Market, b.OutcomeName, pointStr(b.OutcomePoint), b.PlayerName, b.IsProp,
			b.Odds, b.DecimalOdds, b.ImpliedProb, b.NoVigProb, b.FairOdds,
			b.EVPercent, b.Edge, b.NumBooks, now,
		)
		if err != nil {
			return fmt.Errorf("upsert ev bet %s/%s/%s: %w", b.Book, b.EventID, b.OutcomeName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// DeactivateMissing marks active rows for a sport stale when their
// natural key is absent from the current scan. Game and prop rows are
// scoped separately so a game-line scan never touches prop rows.
func (s *Store) DeactivateMissing(ctx context.Context, sportKey string, isProp bool, current []models.EVBet) (int64, error) {
	keys := make([]string, 0, len(current))
	for _, b := range current {
		keys = append(keys, naturalKey(b))
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE ev_bets
		SET is_active = FALSE
		WHERE sport_key = $1
		  AND is_prop = $2
		  AND is_active = TRUE
		  AND book || '|' || event_id || '|' || market || '|' ||
		      outcome_name || '|' || outcome_point_str || '|' || player_name
		      <> ALL($3)
	`, sportKey, isProp, pq.Array(keys))
	if err != nil {
		return 0, fmt.Errorf("deactivate missing for %s: %w", sportKey, err)
	}

	deactivated, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return deactivated, nil
}

// ActiveForSport returns the active bets for a sport, best EV first
func (s *Store) ActiveForSport(ctx context.Context, sportKey string) ([]models.EVBet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sport_key, event_id, home_team, away_team, commence_time,
		       book, market, outcome_name, outcome_point_str, player_name, is_prop,
		       odds, decimal_odds, implied_prob, no_vig_prob, fair_odds,
		       ev_percentage, edge, num_books, last_seen
		FROM ev_bets
		WHERE sport_key = $1 AND is_active = TRUE
		ORDER BY ev_percentage DESC
	`, sportKey)
	if err != nil {
		return nil, fmt.Errorf("query active bets for %s: %w", sportKey, err)
	}
	defer rows.Close()

	var bets []models.EVBet
	for rows.Next() {
		var b models.EVBet
		var pointRaw string
		err := rows.Scan(
			&b.SportKey, &b.EventID, &b.HomeTeam, &b.AwayTeam, &b.CommenceTime,
			&b.Book, &b.Market, &b.OutcomeName, &pointRaw, &b.PlayerName, &b.IsProp,
			&b.Odds, &b.DecimalOdds, &b.ImpliedProb, &b.NoVigProb, &b.FairOdds,
			&b.EVPercent, &b.Edge, &b.NumBooks, &b.DetectedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ev bet: %w", err)
		}
		b.OutcomePoint = parsePoint(pointRaw)
		bets = append(bets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ev bets: %w", err)
	}
	return bets, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func naturalKey(b models.EVBet) string {
	return b.Book + "|" + b.EventID + "|" + b.Market + "|" +
		b.OutcomeName + "|" + pointStr(b.OutcomePoint) + "|" + b.PlayerName
}

// pointStr renders a line point for use in the unique key; nil points
// (moneylines) map to the empty string
func pointStr(point *float64) string {
	if point == nil {
		return ""
	}
	return fmt.Sprintf("%g", *point)
}

func parsePoint(raw string) *float64 {
	if raw == "" {
		return nil
	}
	var v float64
	if _, err := fmt.Sscanf(raw, "%g", &v); err != nil {
		return nil
	}
	return &v
}
