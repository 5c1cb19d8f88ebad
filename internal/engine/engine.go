// Package engine converts raw multi-bookmaker price quotes into a
// market-consensus fair probability and scans every book/outcome/line
// combination for three classes of exploitable mispricing: +EV single
// bets, same-line arbitrages, and cross-line middles.
//
// The engine is pure: it performs no I/O, holds no shared mutable
// state, and degrades by omission on malformed-but-well-typed input.
// Fetching, budget gating, persistence, and presentation are upstream
// and downstream collaborators.
package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/odds-analyzer/pkg/models"
)

// Report bundles the three detector outputs for one scan, each sorted
// by its ranking statistic descending
type Report struct {
	EVBets     []models.EVBet     `json:"ev_bets"`
	ArbBets    []models.ArbBet    `json:"arb_bets"`
	MiddleBets []models.MiddleBet `json:"middle_bets"`
}

// Engine runs the three detectors over event snapshots
type Engine struct {
	cfg Config
}

// New creates an engine with the given configuration
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine's configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Analyze scans a snapshot of events and returns every detected
// opportunity. Events are independent, so per-event work fans out
// across a bounded set of goroutines; the only global step is the final
// sort, which runs after all per-event work completes.
func (e *Engine) Analyze(events []models.Event) Report {
	now := time.Now()
	perEvent := make([]Report, len(events))

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(events) {
		workers = len(events)
	}

	if workers <= 1 {
		for i, ev := range events {
			perEvent[i] = analyzeEvent(ev, e.cfg, now)
		}
	} else {
		var wg sync.WaitGroup
		idxCh := make(chan int)

		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range idxCh {
					perEvent[i] = analyzeEvent(events[i], e.cfg, now)
				}
			}()
		}
		for i := range events {
			idxCh <- i
		}
		close(idxCh)
		wg.Wait()
	}

	var report Report
	for _, r := range perEvent {
		report.EVBets = append(report.EVBets, r.EVBets...)
		report.ArbBets = append(report.ArbBets, r.ArbBets...)
		report.MiddleBets = append(report.MiddleBets, r.MiddleBets...)
	}
	sortReport(&report)
	return report
}

// EVBets scans events with only the +EV detector
func (e *Engine) EVBets(events []models.Event) []models.EVBet {
	return e.Analyze(events).EVBets
}

// ArbBets scans events with only the arbitrage detector
func (e *Engine) ArbBets(events []models.Event) []models.ArbBet {
	return e.Analyze(events).ArbBets
}

// MiddleBets scans events with only the middle detector
func (e *Engine) MiddleBets(events []models.Event) []models.MiddleBet {
	return e.Analyze(events).MiddleBets
}

func analyzeEvent(ev models.Event, cfg Config, now time.Time) Report {
	return Report{
		EVBets:     evBetsForEvent(ev, cfg, now),
		ArbBets:    arbBetsForEvent(ev, cfg, now),
		MiddleBets: middleBetsForEvent(ev, cfg, now),
	}
}

func sortReport(r *Report) {
	sort.SliceStable(r.EVBets, func(i, j int) bool {
		return r.EVBets[i].EVPercent > r.EVBets[j].EVPercent
	})
	sort.SliceStable(r.ArbBets, func(i, j int) bool {
		return r.ArbBets[i].ProfitPct > r.ArbBets[j].ProfitPct
	})
	sort.SliceStable(r.MiddleBets, func(i, j int) bool {
		return r.MiddleBets[i].EVPercent > r.MiddleBets[j].EVPercent
	})
}
