// Package server exposes detected opportunities over HTTP and
// WebSocket.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/budget"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/hub"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/scanner"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/pkg/models"
)

// Handler contains dependencies for HTTP handlers. ctx is the service
// lifetime context; WebSocket pumps outlive individual requests, so
// they are bound to it rather than to the request context.
type Handler struct {
	ctx     context.Context
	scanner *scanner.Scanner
	budget  *budget.Tracker
	hub     *hub.Hub
	log     *zap.Logger
}

func NewHandler(ctx context.Context, sc *scanner.Scanner, b *budget.Tracker, h *hub.Hub, log *zap.Logger) *Handler {
	return &Handler{
		ctx:     ctx,
		scanner: sc,
		budget:  b,
		hub:     h,
		log:     log,
	}
}

// Router builds the chi router with middleware, REST routes, and the
// WebSocket endpoint
func (h *Handler) Router(corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/opportunities/ev", h.GetEVBets)
		r.Get("/opportunities/arbs", h.GetArbBets)
		r.Get("/opportunities/middles", h.GetMiddleBets)
		r.Get("/games", h.GetGames)
		r.Post("/cache/invalidate", h.InvalidateCache)
	})

	r.Get("/ws", h.ServeWS)

	return r
}

// HealthCheck reports service status and the remaining credit budget
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "odds-analyzer",
		"budget":    h.budget.StatusText(),
		"ws_clients": func() int {
			if h.hub == nil {
				return 0
			}
			return h.hub.ClientCount()
		}(),
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetEVBets returns detected +EV bets
// Query params: sport, limit
func (h *Handler) GetEVBets(w http.ResponseWriter, r *http.Request) {
	sportKey := r.URL.Query().Get("sport")
	limit := parseIntParam(r, "limit", 100)

	bets := h.scanner.EVBets(sportKey)
	if len(bets) > limit {
		bets = bets[:limit]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"bets":  bets,
		"count": len(bets),
	})
}

// GetArbBets returns detected arbitrage pairs
// Query params: sport, limit
func (h *Handler) GetArbBets(w http.ResponseWriter, r *http.Request) {
	sportKey := r.URL.Query().Get("sport")
	limit := parseIntParam(r, "limit", 100)

	bets := h.scanner.ArbBets(sportKey)
	if len(bets) > limit {
		bets = bets[:limit]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"bets":  bets,
		"count": len(bets),
	})
}

// GetMiddleBets returns detected middles
// Query params: sport, limit
func (h *Handler) GetMiddleBets(w http.ResponseWriter, r *http.Request) {
	sportKey := r.URL.Query().Get("sport")
	limit := parseIntParam(r, "limit", 100)

	bets := h.scanner.MiddleBets(sportKey)
	if len(bets) > limit {
		bets = bets[:limit]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"bets":  bets,
		"count": len(bets),
	})
}

// GetGames returns the merged scores+odds view
// Query params: sport
func (h *Handler) GetGames(w http.ResponseWriter, r *http.Request) {
	sportKey := r.URL.Query().Get("sport")

	games := h.scanner.Games(sportKey)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"games":     games,
		"count":     len(games),
		"last_scan": h.scanner.LastScan(sportKey),
	})
}

// InvalidateCache drops cached odds/scores responses so the next scan
// refetches from the API
// Query params: sport
func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	sportKey := r.URL.Query().Get("sport")

	if err := h.scanner.InvalidateCache(r.Context(), sportKey); err != nil {
		h.log.Error("cache invalidation failed",
			zap.String("sport", sportKey), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "invalidated",
		"sport":  sportKey,
	})
}

func parseIntParam(r *http.Request, param string, defaultValue int) int {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value < 0 {
		return defaultValue
	}
	return value
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
