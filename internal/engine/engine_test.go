package engine_test

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/engine"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/pkg/models"
)

// mixedEvents builds a batch with overlays, an arb, and a middle spread
// across distinct events
func mixedEvents(n int) []models.Event {
	var events []models.Event
	for i := 0; i < n; i++ {
		ev := h2hEvent(map[string][2]float64{
			"fanduel":    {-110, -110},
			"draftkings": {-110, -110},
			"betmgm":     {120, -110},
		})
		ev.ID = fmt.Sprintf("evt-%d", i)
		events = append(events, ev)

		arb := h2hEvent(map[string][2]float64{
			"fanduel":    {120, -110},
			"draftkings": {-110, 120},
		})
		arb.ID = fmt.Sprintf("evt-arb-%d", i)
		events = append(events, arb)

		mid := nbaEvent(
			book("fanduel", market("totals", lineOutcome("Over", -110, 224.5))),
			book("draftkings", market("totals", lineOutcome("Under", -110, 226.5))),
		)
		mid.ID = fmt.Sprintf("evt-mid-%d", i)
		events = append(events, mid)
	}
	return events
}

func clearTimes(r *engine.Report) {
	for i := range r.EVBets {
		r.EVBets[i].DetectedAt = time.Time{}
	}
	for i := range r.ArbBets {
		r.ArbBets[i].DetectedAt = time.Time{}
	}
	for i := range r.MiddleBets {
		r.MiddleBets[i].DetectedAt = time.Time{}
	}
}

func TestAnalyze_ParallelMatchesSequential(t *testing.T) {
	events := mixedEvents(8)

	seq := engine.DefaultConfig()
	seq.Workers = 1
	par := engine.DefaultConfig()
	par.Workers = 4

	seqReport := engine.New(seq).Analyze(events)
	parReport := engine.New(par).Analyze(events)
	clearTimes(&seqReport)
	clearTimes(&parReport)

	if !reflect.DeepEqual(seqReport, parReport) {
		t.Errorf("parallel analysis diverged from sequential:\nseq: %+v\npar: %+v",
			seqReport, parReport)
	}
}

func TestAnalyze_SortedByRankingStat(t *testing.T) {
	events := mixedEvents(4)
	report := engine.New(engine.DefaultConfig()).Analyze(events)

	for i := 1; i < len(report.EVBets); i++ {
		if report.EVBets[i].EVPercent > report.EVBets[i-1].EVPercent {
			t.Errorf("EVBets not sorted descending at %d", i)
		}
	}
	for i := 1; i < len(report.ArbBets); i++ {
		if report.ArbBets[i].ProfitPct > report.ArbBets[i-1].ProfitPct {
			t.Errorf("ArbBets not sorted descending at %d", i)
		}
	}
	for i := 1; i < len(report.MiddleBets); i++ {
		if report.MiddleBets[i].EVPercent > report.MiddleBets[i-1].EVPercent {
			t.Errorf("MiddleBets not sorted descending at %d", i)
		}
	}
}

func TestAnalyze_ZeroPriceSentinelSkipped(t *testing.T) {
	// A zero price is not a quote. It must not panic, not divide by
	// zero, and not surface in any detector output.
	ev := h2hEvent(map[string][2]float64{
		"fanduel":    {0, 0},
		"draftkings": {0, 0},
		"betmgm":     {0, 0},
	})

	cfg := engine.DefaultConfig()
	cfg.EVThreshold = -100 // admit anything computable
	cfg.OddsRange = nil

	report := engine.New(cfg).Analyze([]models.Event{ev})

	if len(report.EVBets)+len(report.ArbBets)+len(report.MiddleBets) != 0 {
		t.Errorf("zero-price quotes produced output: %+v", report)
	}
}

func TestAnalyze_EmptyInput(t *testing.T) {
	report := engine.New(engine.DefaultConfig()).Analyze(nil)

	if len(report.EVBets) != 0 || len(report.ArbBets) != 0 || len(report.MiddleBets) != 0 {
		t.Errorf("empty input produced output: %+v", report)
	}
}

func TestAnalyze_BookmakerlessEvent(t *testing.T) {
	ev := nbaEvent()
	report := engine.New(engine.DefaultConfig()).Analyze([]models.Event{ev})

	if len(report.EVBets)+len(report.ArbBets)+len(report.MiddleBets) != 0 {
		t.Errorf("event with no bookmakers produced output: %+v", report)
	}
}
