package config_test

import (
	"testing"

	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	if cfg.EVThreshold != 2.0 {
		t.Errorf("EVThreshold = %v, want 2.0", cfg.EVThreshold)
	}
	if len(cfg.Sports) != 4 {
		t.Errorf("Sports = %v, want the four majors", cfg.Sports)
	}
	if cfg.OddsRefreshInterval != 300 || cfg.ScoresRefreshInterval != 120 {
		t.Errorf("refresh intervals = %d/%d, want 300/120",
			cfg.OddsRefreshInterval, cfg.ScoresRefreshInterval)
	}
	if len(cfg.PropMarketKeys("basketball_nba")) == 0 {
		t.Error("no default prop markets for basketball_nba")
	}
	if cfg.PropMarketKeys("cricket_ipl") != nil {
		t.Error("unexpected prop markets for an unconfigured sport")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SPORTS", "basketball_nba,icehockey_nhl")
	t.Setenv("EV_THRESHOLD", "3.5")
	t.Setenv("PROPS_ENABLED", "false")
	t.Setenv("PRICE_OVERRIDES", "prizepicks:-119, underdog:-122")

	cfg := config.Load()

	if len(cfg.Sports) != 2 || cfg.Sports[1] != "icehockey_nhl" {
		t.Errorf("Sports = %v", cfg.Sports)
	}
	if cfg.EVThreshold != 3.5 {
		t.Errorf("EVThreshold = %v, want 3.5", cfg.EVThreshold)
	}
	if cfg.PropsEnabled {
		t.Error("PropsEnabled = true, want false")
	}
	if cfg.PriceOverrides["prizepicks"] != -119 || cfg.PriceOverrides["underdog"] != -122 {
		t.Errorf("PriceOverrides = %v", cfg.PriceOverrides)
	}
}

func TestLoad_MalformedEnvFallsBack(t *testing.T) {
	t.Setenv("EV_THRESHOLD", "not-a-number")
	t.Setenv("PRICE_OVERRIDES", "garbage,also:garbage")

	cfg := config.Load()

	if cfg.EVThreshold != 2.0 {
		t.Errorf("EVThreshold = %v, want the 2.0 default", cfg.EVThreshold)
	}
	if len(cfg.PriceOverrides) != 0 {
		t.Errorf("PriceOverrides = %v, want empty", cfg.PriceOverrides)
	}
}

func TestEngineConfig_Mapping(t *testing.T) {
	t.Setenv("EV_ODDS_MIN", "-250")
	t.Setenv("EV_ODDS_MAX", "250")
	t.Setenv("BOOKMAKERS", "fanduel,draftkings,betmgm")
	t.Setenv("MIDDLE_MIN_WINDOW", "1.0")

	ec := config.Load().EngineConfig()

	if ec.OddsRange == nil || ec.OddsRange.Min != -250 || ec.OddsRange.Max != 250 {
		t.Errorf("OddsRange = %+v", ec.OddsRange)
	}
	if len(ec.SelectedBooks) != 3 {
		t.Errorf("SelectedBooks = %v", ec.SelectedBooks)
	}
	if ec.MiddleMinWindow != 1.0 {
		t.Errorf("MiddleMinWindow = %v, want 1.0", ec.MiddleMinWindow)
	}
	if ec.MinBooks != 3 {
		t.Errorf("MinBooks = %d, want the default 3", ec.MinBooks)
	}
}
