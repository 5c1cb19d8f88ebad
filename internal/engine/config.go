package engine

import "strings"

// OddsRange is an admissible band of raw American prices. Quotes outside
// the band are excluded from +EV detection (extreme prices tend to be
// illiquid and slow to update).
type OddsRange struct {
	Min float64
	Max float64
}

// Contains reports whether a raw American price falls inside the band
func (r *OddsRange) Contains(price float64) bool {
	return price >= r.Min && price <= r.Max
}

// DensityTable maps a sport family (the sport key up to the first
// underscore: "basketball", "baseball", ...) to the probability that a
// final margin or total lands on one specific integer value. It drives
// the middle hit-probability estimate.
type DensityTable map[string]float64

// defaultDensity is used for sport families not present in the table
const defaultDensity = 0.04

// DefaultDensities returns the fixed per-sport landing densities.
// These are coarse historical approximations, not distributional fits.
func DefaultDensities() DensityTable {
	return DensityTable{
		"basketball":       0.035,
		"baseball":         0.08,
		"icehockey":        0.07,
		"americanfootball": 0.045,
	}
}

// Config carries every tunable the detectors accept. It is passed by
// value into the engine: no package-level state, so concurrent scans
// with different settings never interfere.
type Config struct {
	// +EV detection
	EVThreshold   float64    // minimum EV% to emit
	OddsRange     *OddsRange // nil disables the raw-price band filter
	SelectedBooks []string   // empty means every book is eligible
	MinBooks      int        // contributors required per outcome for a usable consensus

	// PriceOverrides maps a book key to the effective American price used
	// when pricing that book's side of an opportunity (fixed-payout
	// products whose contractual price differs from the nominal quote).
	// The no-vig consensus always uses raw quotes; overrides must never
	// leak into it.
	PriceOverrides map[string]float64

	// Arbitrage detection
	ArbMinProfitPct float64

	// Middle detection
	MiddleMinWindow       float64
	MiddleMaxCombinedCost float64
	Densities             DensityTable

	// Workers bounds the per-event fan-out inside Analyze
	Workers int
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		EVThreshold:           2.0,
		OddsRange:             &OddsRange{Min: -200, Max: 200},
		MinBooks:              3,
		ArbMinProfitPct:       0.1,
		MiddleMinWindow:       0.5,
		MiddleMaxCombinedCost: 1.08,
		Densities:             DefaultDensities(),
		Workers:               4,
	}
}

// effectivePrice resolves the price used for opportunity sizing: the
// configured override for this book if one exists, else the raw quote
func (c *Config) effectivePrice(bookKey string, raw float64) float64 {
	if p, ok := c.PriceOverrides[bookKey]; ok {
		return p
	}
	return raw
}

// bookAllowed applies the optional allow-list
func (c *Config) bookAllowed(bookKey string) bool {
	if len(c.SelectedBooks) == 0 {
		return true
	}
	for _, b := range c.SelectedBooks {
		if b == bookKey {
			return true
		}
	}
	return false
}

// minBooks returns the configured contributor floor, never below 1
func (c *Config) minBooks() int {
	if c.MinBooks <= 0 {
		return 3
	}
	return c.MinBooks
}

// density looks up the landing density for a sport key, matching on the
// family prefix ("basketball_nba" → "basketball")
func (c *Config) density(sportKey string) float64 {
	table := c.Densities
	if table == nil {
		table = DefaultDensities()
	}
	if d, ok := table[sportKey]; ok {
		return d
	}
	if family, _, found := strings.Cut(sportKey, "_"); found {
		if d, ok := table[family]; ok {
			return d
		}
	}
	return defaultDensity
}
