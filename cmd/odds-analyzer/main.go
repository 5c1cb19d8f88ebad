package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/budget"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/cache"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/config"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/feed"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/hub"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/logger"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/scanner"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/server"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/store"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.APIKey == "" {
		log.Fatal("ODDS_API_KEY is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Credit budget, kept current from response headers
	tracker := budget.New(cfg.LowCreditWarning, cfg.CriticalCreditStop)

	feedClient := feed.NewClient(cfg.APIKey, log,
		feed.WithCreditsFunc(func(remaining, used *int) {
			tracker.Update(remaining, used)
			if remaining != nil {
				metrics.CreditsRemaining.Set(float64(*remaining))
			}
		}))

	// Redis cache is optional: without it every scan hits the API
	var c *cache.Cache
	if cfg.RedisAddr != "" {
		c, err = cache.New(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn("redis unavailable, running uncached", zap.Error(err))
			c = nil
		} else {
			defer c.Close()
			log.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
		}
	}

	// Postgres persistence is optional: without it detected bets are
	// served from memory only
	var st *store.Store
	if cfg.PostgresDSN != "" {
		st, err = store.New(cfg.PostgresDSN, log)
		if err != nil {
			log.Warn("postgres unavailable, running without persistence", zap.Error(err))
			st = nil
		} else {
			defer st.Close()
			log.Info("connected to postgres")
		}
	}

	broadcastHub := hub.New(log)
	go broadcastHub.Run(ctx)

	sc := scanner.New(cfg, feedClient, c, tracker, st, broadcastHub, log)

	// Metrics + health endpoint
	metricsSrv := metrics.StartServer(cfg.MetricsPort, func(ctx context.Context) error {
		if tracker.IsCritical() {
			return errors.New("api credit budget exhausted")
		}
		return nil
	})

	// HTTP API
	handler := server.NewHandler(ctx, sc, tracker, broadcastHub, log)
	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: handler.Router([]string{"*"}),
	}
	go func() {
		log.Info("api server listening", zap.String("port", cfg.HTTPPort))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("api server failed", zap.Error(err))
		}
	}()

	// Per-sport scan loops
	for _, sport := range cfg.Sports {
		go runLoop(ctx, time.Duration(cfg.ScoresRefreshInterval)*time.Second, func() {
			if err := sc.RefreshScores(ctx, sport); err != nil {
				log.Error("scores refresh failed", zap.String("sport", sport), zap.Error(err))
			}
		})
		go runLoop(ctx, time.Duration(cfg.OddsRefreshInterval)*time.Second, func() {
			if err := sc.ScanSport(ctx, sport); err != nil {
				log.Error("scan failed", zap.String("sport", sport), zap.Error(err))
			}
		})
		if cfg.PropsEnabled {
			go runLoop(ctx, time.Duration(cfg.PropsRefreshInterval)*time.Second, func() {
				if err := sc.ScanProps(ctx, sport); err != nil {
					log.Error("prop scan failed", zap.String("sport", sport), zap.Error(err))
				}
			})
		}
	}

	log.Info("odds analyzer started",
		zap.Strings("sports", cfg.Sports),
		zap.Strings("bookmakers", cfg.Bookmakers),
		zap.Int("odds_refresh_seconds", cfg.OddsRefreshInterval))

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("received signal, shutting down", zap.String("signal", sig.String()))
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("api server shutdown failed", zap.Error(err))
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("metrics server shutdown failed", zap.Error(err))
	}

	log.Info("shutdown complete")
}

// runLoop executes fn immediately, then on every tick until ctx ends
func runLoop(ctx context.Context, interval time.Duration, fn func()) {
	fn()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
