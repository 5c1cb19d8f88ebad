// Package scanner orchestrates the scan cycle: fetch odds through the
// cache and credit gate, run the detection engine, persist +EV bets,
// and publish results to API consumers and WebSocket subscribers.
package scanner

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/budget"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/cache"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/config"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/engine"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/feed"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/hub"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/store"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/pkg/models"
)

const featuredMarkets = "h2h,spreads,totals"

// sportSnapshot is the latest published state for one sport
type sportSnapshot struct {
	games       []models.GameRow
	evBets      []models.EVBet
	propEVBets  []models.EVBet
	arbBets     []models.ArbBet
	middleBets  []models.MiddleBet
	scores      map[string]models.Score
	oddsEvents  []models.Event
	lastScan    time.Time
	lastPropRun time.Time
}

type Scanner struct {
	cfg    *config.Config
	feed   *feed.Client
	cache  *cache.Cache
	budget *budget.Tracker
	store  *store.Store
	engine *engine.Engine
	hub    *hub.Hub
	log    *zap.Logger

	mu        sync.RWMutex
	snapshots map[string]*sportSnapshot
}

// New builds a scanner. cache, store, and hub may be nil; the scanner
// then skips caching, persistence, or broadcasting respectively.
func New(cfg *config.Config, fc *feed.Client, c *cache.Cache, b *budget.Tracker, st *store.Store, h *hub.Hub, log *zap.Logger) *Scanner {
	return &Scanner{
		cfg:       cfg,
		feed:      fc,
		cache:     c,
		budget:    b,
		store:     st,
		engine:    engine.New(cfg.EngineConfig()),
		hub:       h,
		log:       log,
		snapshots: make(map[string]*sportSnapshot),
	}
}

// ScanSport runs one full game-line scan for a sport: fetch odds,
// detect opportunities, persist, publish
func (s *Scanner) ScanSport(ctx context.Context, sportKey string) error {
	start := time.Now()
	log := s.log.With(zap.String("sport", sportKey))

	if !s.budget.CanFetchOdds() {
		metrics.FetchesSkipped.WithLabelValues("odds").Inc()
		log.Warn("skipping odds scan", zap.String("budget", s.budget.StatusText()))
		return nil
	}

	events, err := s.fetchOdds(ctx, sportKey)
	if err != nil {
		metrics.FetchErrors.WithLabelValues("odds").Inc()
		return err
	}

	pregame := s.filterPregame(sportKey, events)
	log.Info("fetched odds",
		zap.Int("events", len(events)),
		zap.Int("pregame", len(pregame)))

	report := s.engine.Analyze(pregame)
	s.applyToggles(&report)

	if s.store != nil {
		if err := s.persistEVBets(ctx, sportKey, false, report.EVBets); err != nil {
			log.Error("persist ev bets failed", zap.Error(err))
		}
	}

	s.mu.Lock()
	snap := s.snapshot(sportKey)
	snap.oddsEvents = events
	snap.evBets = report.EVBets
	snap.arbBets = report.ArbBets
	snap.middleBets = report.MiddleBets
	snap.lastScan = time.Now().UTC()
	snap.games = buildGameRows(sportKey, events, snap.scores)
	s.mu.Unlock()

	s.publish(sportKey, report)

	metrics.ScansTotal.WithLabelValues(sportKey).Inc()
	metrics.ScanDuration.WithLabelValues(sportKey).Observe(time.Since(start).Seconds())

	log.Info("scan complete",
		zap.Int("ev_bets", len(report.EVBets)),
		zap.Int("arb_bets", len(report.ArbBets)),
		zap.Int("middle_bets", len(report.MiddleBets)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// ScanProps fetches prop markets event by event and runs a separate
// detection pass over them
func (s *Scanner) ScanProps(ctx context.Context, sportKey string) error {
	if !s.cfg.PropsEnabled {
		return nil
	}
	markets := s.cfg.PropMarketKeys(sportKey)
	if len(markets) == 0 {
		return nil
	}
	if !s.budget.CanFetchProps() {
		metrics.FetchesSkipped.WithLabelValues("props").Inc()
		s.log.Warn("skipping prop scan",
			zap.String("sport", sportKey),
			zap.String("budget", s.budget.StatusText()))
		return nil
	}

	s.mu.RLock()
	snap, ok := s.snapshots[sportKey]
	var base []models.Event
	if ok {
		base = snap.oddsEvents
	}
	s.mu.RUnlock()

	pregame := s.filterPregame(sportKey, base)
	if len(pregame) == 0 {
		return nil
	}

	ids := make([]string, 0, len(pregame))
	for _, ev := range pregame {
		ids = append(ids, ev.ID)
	}

	propEvents := s.feed.PropsForEvents(ctx, sportKey, ids, feed.OddsParams{
		Regions:    s.cfg.Regions,
		Markets:    markets,
		OddsFormat: s.cfg.OddsFormat,
		Bookmakers: s.cfg.Bookmakers,
	}, s.cfg.PropsMaxConcurrent)

	report := s.engine.Analyze(propEvents)
	s.applyToggles(&report)

	if s.store != nil {
		if err := s.persistEVBets(ctx, sportKey, true, report.EVBets); err != nil {
			s.log.Error("persist prop ev bets failed",
				zap.String("sport", sportKey), zap.Error(err))
		}
	}

	s.mu.Lock()
	snap = s.snapshot(sportKey)
	snap.propEVBets = report.EVBets
	snap.arbBets = append(snap.arbBets, report.ArbBets...)
	snap.middleBets = append(snap.middleBets, report.MiddleBets...)
	snap.lastPropRun = time.Now().UTC()
	s.mu.Unlock()

	s.publish(sportKey, report)

	s.log.Info("prop scan complete",
		zap.String("sport", sportKey),
		zap.Int("events", len(propEvents)),
		zap.Int("ev_bets", len(report.EVBets)))
	return nil
}

// RefreshScores updates the live/final score snapshot used by the
// pre-game filter and the games view
func (s *Scanner) RefreshScores(ctx context.Context, sportKey string) error {
	if !s.budget.CanFetchScores() {
		metrics.FetchesSkipped.WithLabelValues("scores").Inc()
		return nil
	}

	scores, err := s.fetchScores(ctx, sportKey)
	if err != nil {
		metrics.FetchErrors.WithLabelValues("scores").Inc()
		return err
	}

	byID := make(map[string]models.Score, len(scores))
	for _, sc := range scores {
		byID[sc.ID] = sc
	}

	s.mu.Lock()
	snap := s.snapshot(sportKey)
	snap.scores = byID
	snap.games = buildGameRows(sportKey, snap.oddsEvents, byID)
	s.mu.Unlock()
	return nil
}

// fetchOdds serves the featured-market odds for a sport from the cache
// when fresh, hitting the API otherwise. Alternate spread/total lines
// are merged in per event when enabled.
func (s *Scanner) fetchOdds(ctx context.Context, sportKey string) ([]models.Event, error) {
	cacheKey := "odds:" + sportKey

	var events []models.Event
	if s.cache != nil {
		err := s.cache.Get(ctx, cacheKey, &events)
		if err == nil {
			return events, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Warn("odds cache read failed", zap.Error(err))
		}
	}

	events, err := s.feed.Odds(ctx, sportKey, feed.OddsParams{
		Regions:    s.cfg.Regions,
		Markets:    []string{featuredMarkets},
		OddsFormat: s.cfg.OddsFormat,
		Bookmakers: s.cfg.Bookmakers,
	})
	if err != nil {
		return nil, err
	}

	if s.cfg.AltLinesEnabled {
		events = s.mergeAltLines(ctx, sportKey, events)
	}

	if s.cache != nil {
		ttl := time.Duration(s.cfg.OddsRefreshInterval) * time.Second
		if err := s.cache.Set(ctx, cacheKey, events, ttl); err != nil {
			s.log.Warn("odds cache write failed", zap.Error(err))
		}
	}
	return events, nil
}

func (s *Scanner) fetchScores(ctx context.Context, sportKey string) ([]models.Score, error) {
	cacheKey := "scores:" + sportKey

	var scores []models.Score
	if s.cache != nil {
		if err := s.cache.Get(ctx, cacheKey, &scores); err == nil {
			return scores, nil
		}
	}

	scores, err := s.feed.Scores(ctx, sportKey, 1)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		ttl := time.Duration(s.cfg.ScoresRefreshInterval) * time.Second
		if err := s.cache.Set(ctx, cacheKey, scores, ttl); err != nil {
			s.log.Warn("scores cache write failed", zap.Error(err))
		}
	}
	return scores, nil
}

// mergeAltLines pulls alternate spread/total markets per event and
// folds the extra outcomes into the base events so the detectors see
// the full line ladder
func (s *Scanner) mergeAltLines(ctx context.Context, sportKey string, events []models.Event) []models.Event {
	ids := make([]string, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}

	altEvents := s.feed.PropsForEvents(ctx, sportKey, ids, feed.OddsParams{
		Regions:    s.cfg.Regions,
		Markets:    []string{"alternate_spreads", "alternate_totals"},
		OddsFormat: s.cfg.OddsFormat,
		Bookmakers: s.cfg.Bookmakers,
	}, s.cfg.PropsMaxConcurrent)

	altByID := make(map[string]models.Event, len(altEvents))
	for _, ev := range altEvents {
		altByID[ev.ID] = ev
	}

	merged := make([]models.Event, len(events))
	for i, ev := range events {
		if alt, ok := altByID[ev.ID]; ok {
			mergeBookmakers(&ev, alt)
		}
		merged[i] = ev
	}
	return merged
}

// mergeBookmakers appends extra's markets onto base, folding outcomes
// into an existing market when the same book already carries that key
func mergeBookmakers(base *models.Event, extra models.Event) {
	bookIdx := make(map[string]int, len(base.Bookmakers))
	for i, bm := range base.Bookmakers {
		bookIdx[bm.Key] = i
	}

	for _, bm := range extra.Bookmakers {
		i, ok := bookIdx[bm.Key]
		if !ok {
			base.Bookmakers = append(base.Bookmakers, bm)
			continue
		}

		marketIdx := make(map[string]int, len(base.Bookmakers[i].Markets))
		for j, m := range base.Bookmakers[i].Markets {
			marketIdx[m.Key] = j
		}
		for _, m := range bm.Markets {
			if j, ok := marketIdx[m.Key]; ok {
				base.Bookmakers[i].Markets[j].Outcomes = append(
					base.Bookmakers[i].Markets[j].Outcomes, m.Outcomes...)
			} else {
				base.Bookmakers[i].Markets = append(base.Bookmakers[i].Markets, m)
			}
		}
	}
}

// InvalidateCache drops cached Odds API responses so the next scan
// refetches. An empty sportKey clears every sport.
func (s *Scanner) InvalidateCache(ctx context.Context, sportKey string) error {
	if s.cache == nil {
		return nil
	}
	suffix := sportKey
	if suffix == "" {
		suffix = "*"
	}
	for _, pattern := range []string{"odds:" + suffix, "scores:" + suffix} {
		if err := s.cache.Invalidate(ctx, pattern); err != nil {
			return err
		}
	}
	return nil
}

// applyToggles discards detector output whose pipeline is switched off
// in config
func (s *Scanner) applyToggles(report *engine.Report) {
	if !s.cfg.ArbEnabled {
		report.ArbBets = nil
	}
	if !s.cfg.MiddleEnabled {
		report.MiddleBets = nil
	}
}

// filterPregame drops events that have started, per commence time and
// the score snapshot
func (s *Scanner) filterPregame(sportKey string, events []models.Event) []models.Event {
	s.mu.RLock()
	var scores map[string]models.Score
	if snap, ok := s.snapshots[sportKey]; ok {
		scores = snap.scores
	}
	s.mu.RUnlock()

	now := time.Now().UTC()
	pregame := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if !ev.CommenceTime.After(now) {
			continue
		}
		if sc, ok := scores[ev.ID]; ok && (sc.Completed || sc.Live()) {
			continue
		}
		pregame = append(pregame, ev)
	}
	return pregame
}

// persistEVBets upserts the scan's bets and deactivates rows the scan
// no longer produced, scoped to this sport and pipeline
func (s *Scanner) persistEVBets(ctx context.Context, sportKey string, isProp bool, bets []models.EVBet) error {
	if err := s.store.UpsertEVBets(ctx, bets); err != nil {
		return err
	}
	deactivated, err := s.store.DeactivateMissing(ctx, sportKey, isProp, bets)
	if err != nil {
		return err
	}
	if deactivated > 0 {
		s.log.Info("deactivated stale ev bets",
			zap.String("sport", sportKey),
			zap.Bool("props", isProp),
			zap.Int64("count", deactivated))
	}
	return nil
}

func (s *Scanner) publish(sportKey string, report engine.Report) {
	metrics.OpportunitiesDetected.WithLabelValues("ev", sportKey).Add(float64(len(report.EVBets)))
	metrics.OpportunitiesDetected.WithLabelValues("arb", sportKey).Add(float64(len(report.ArbBets)))
	metrics.OpportunitiesDetected.WithLabelValues("middle", sportKey).Add(float64(len(report.MiddleBets)))

	if s.hub == nil {
		return
	}
	now := time.Now().UTC()
	if len(report.EVBets) > 0 {
		s.hub.Broadcast(models.OpportunityUpdate{
			SportKey: sportKey, Kind: "ev",
			Count: len(report.EVBets), Bets: report.EVBets, DetectedAt: now,
		})
	}
	if len(report.ArbBets) > 0 {
		s.hub.Broadcast(models.OpportunityUpdate{
			SportKey: sportKey, Kind: "arb",
			Count: len(report.ArbBets), Bets: report.ArbBets, DetectedAt: now,
		})
	}
	if len(report.MiddleBets) > 0 {
		s.hub.Broadcast(models.OpportunityUpdate{
			SportKey: sportKey, Kind: "middle",
			Count: len(report.MiddleBets), Bets: report.MiddleBets, DetectedAt: now,
		})
	}
}

// snapshot returns the snapshot for a sport, creating it if needed.
// Callers must hold s.mu.
func (s *Scanner) snapshot(sportKey string) *sportSnapshot {
	snap, ok := s.snapshots[sportKey]
	if !ok {
		snap = &sportSnapshot{scores: make(map[string]models.Score)}
		s.snapshots[sportKey] = snap
	}
	return snap
}

func buildGameRows(sportKey string, events []models.Event, scores map[string]models.Score) []models.GameRow {
	rows := make([]models.GameRow, 0, len(events))
	for _, ev := range events {
		row := models.GameRow{
			EventID:      ev.ID,
			SportKey:     sportKey,
			HomeTeam:     ev.HomeTeam,
			AwayTeam:     ev.AwayTeam,
			CommenceTime: ev.CommenceTime,
			HomeScore:    "-",
			AwayScore:    "-",
			Bookmakers:   ev.Bookmakers,
		}
		if sc, ok := scores[ev.ID]; ok {
			row.HomeScore = sc.HomeScore()
			row.AwayScore = sc.AwayScore()
			row.Completed = sc.Completed
		}
		rows = append(rows, row)
	}
	return rows
}
