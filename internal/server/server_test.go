package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/budget"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/config"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/feed"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/hub"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/scanner"
	"github.com/XavierBriggs/fortuna/services/odds-analyzer/internal/server"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	log := zap.NewNop()
	tracker := budget.New(50, 10)
	client := feed.NewClient("k", log)
	sc := scanner.New(config.Load(), client, nil, tracker, nil, nil, log)
	h := hub.New(log)

	handler := server.NewHandler(context.Background(), sc, tracker, h, log)
	return handler.Router([]string{"*"})
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["status"] != "healthy" || body["service"] != "odds-analyzer" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestOpportunityEndpointsEmpty(t *testing.T) {
	router := newTestRouter(t)

	paths := []string{
		"/api/v1/opportunities/ev",
		"/api/v1/opportunities/arbs",
		"/api/v1/opportunities/middles",
		"/api/v1/games",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path+"?sport=basketball_nba", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rec.Code)
			continue
		}

		var body map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Errorf("%s: invalid JSON: %v", path, err)
			continue
		}
		if count, ok := body["count"].(float64); !ok || count != 0 {
			t.Errorf("%s: count = %v, want 0", path, body["count"])
		}
	}
}

func TestGamesEndpointReportsLastScan(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/games", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	// No scan has run: the field is present and holds the zero time
	raw, ok := body["last_scan"].(string)
	if !ok {
		t.Fatalf("last_scan missing from games body: %v", body)
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t.Fatalf("last_scan %q is not RFC3339: %v", raw, err)
	}
	if !ts.IsZero() {
		t.Errorf("last_scan = %v, want the zero time before any scan", ts)
	}
}

func TestCacheInvalidateEndpoint(t *testing.T) {
	// Without a cache configured invalidation is a no-op, not a failure
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate?sport=basketball_nba", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["status"] != "invalidated" || body["sport"] != "basketball_nba" {
		t.Errorf("unexpected invalidation body: %v", body)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
