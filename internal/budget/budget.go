// Package budget tracks the Odds API credit balance reported in
// response headers and gates which endpoint classes may still be
// polled as the balance runs down.
package budget

import (
	"fmt"
	"sync"
)

// Tracker keeps the latest credit numbers and exposes fetch gates.
// Safe for concurrent use: the scanner updates it after every request
// while HTTP handlers read the status.
type Tracker struct {
	mu           sync.RWMutex
	remaining    *int
	used         *int
	lowWarning   int
	criticalStop int
}

// New creates a tracker with the given thresholds
func New(lowWarning, criticalStop int) *Tracker {
	return &Tracker{
		lowWarning:   lowWarning,
		criticalStop: criticalStop,
	}
}

// Update records fresh header values. Responses can arrive out of
// order, so remaining only moves down and used only moves up.
func (t *Tracker) Update(remaining, used *int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if remaining != nil {
		if t.remaining == nil || *remaining <= *t.remaining {
			v := *remaining
			t.remaining = &v
		}
	}
	if used != nil {
		if t.used == nil || *used >= *t.used {
			v := *used
			t.used = &v
		}
	}
}

// Remaining returns the last known credit balance, nil when unknown
func (t *Tracker) Remaining() *int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.remaining == nil {
		return nil
	}
	v := *t.remaining
	return &v
}

// IsLow reports whether the balance is at or below the warning level
func (t *Tracker) IsLow() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.remaining != nil && *t.remaining <= t.lowWarning
}

// IsCritical reports whether the balance is at or below the hard stop
func (t *Tracker) IsCritical() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.remaining != nil && *t.remaining <= t.criticalStop
}

// CanFetchOdds gates odds fetches: blocked as soon as the budget is
// low. An unknown budget allows fetching — the first response fills it.
func (t *Tracker) CanFetchOdds() bool {
	return !t.IsLow()
}

// CanFetchScores gates score fetches: allowed while low, blocked only
// when critical (scores are the cheapest call)
func (t *Tracker) CanFetchScores() bool {
	return !t.IsCritical()
}

// CanFetchProps gates prop fetches, which fan out one call per event
// and need a larger reserve
func (t *Tracker) CanFetchProps() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.remaining == nil {
		return true
	}
	return *t.remaining > t.criticalStop*3
}

// StatusText renders the balance for status displays
func (t *Tracker) StatusText() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.remaining == nil {
		return "Credits: --"
	}
	return fmt.Sprintf("Credits: %d", *t.remaining)
}

// WarningText returns a non-empty warning when the budget is low or
// critical
func (t *Tracker) WarningText() string {
	if t.IsCritical() {
		return "CREDITS CRITICAL - pausing all API calls"
	}
	if t.IsLow() {
		return "Credits low - scores only mode"
	}
	return ""
}
