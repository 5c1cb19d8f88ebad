package scanner

import (
	"sort"
	"time"

	"github.com/XavierBriggs/fortuna/services/odds-analyzer/pkg/models"
)

// EVBets returns the latest detected +EV bets, game lines and props
// merged, best EV first. An empty sportKey returns every sport.
func (s *Scanner) EVBets(sportKey string) []models.EVBet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.EVBet
	for key, snap := range s.snapshots {
		if sportKey != "" && key != sportKey {
			continue
		}
		out = append(out, snap.evBets...)
		out = append(out, snap.propEVBets...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EVPercent > out[j].EVPercent
	})
	return out
}

// ArbBets returns the latest detected arbitrage pairs, best profit first
func (s *Scanner) ArbBets(sportKey string) []models.ArbBet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ArbBet
	for key, snap := range s.snapshots {
		if sportKey != "" && key != sportKey {
			continue
		}
		out = append(out, snap.arbBets...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ProfitPct > out[j].ProfitPct
	})
	return out
}

// MiddleBets returns the latest detected middles, best EV first
func (s *Scanner) MiddleBets(sportKey string) []models.MiddleBet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.MiddleBet
	for key, snap := range s.snapshots {
		if sportKey != "" && key != sportKey {
			continue
		}
		out = append(out, snap.middleBets...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EVPercent > out[j].EVPercent
	})
	return out
}

// Games returns the merged scores+odds rows, soonest start first
func (s *Scanner) Games(sportKey string) []models.GameRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.GameRow
	for key, snap := range s.snapshots {
		if sportKey != "" && key != sportKey {
			continue
		}
		out = append(out, snap.games...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CommenceTime.Before(out[j].CommenceTime)
	})
	return out
}

// LastScan reports when a sport's game-line scan last completed; the
// zero time means it has not run yet. An empty sportKey reports the
// most recent scan across every sport.
func (s *Scanner) LastScan(sportKey string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sportKey != "" {
		if snap, ok := s.snapshots[sportKey]; ok {
			return snap.lastScan
		}
		return time.Time{}
	}

	var latest time.Time
	for _, snap := range s.snapshots {
		if snap.lastScan.After(latest) {
			latest = snap.lastScan
		}
	}
	return latest
}
