package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ScansTotal counts completed detection scans per sport
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "odds_analyzer_scans_total",
		Help: "Completed detection scans",
	}, []string{"sport"})

	// OpportunitiesDetected counts emitted opportunities by type (ev, arb, middle)
	OpportunitiesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "odds_analyzer_opportunities_detected_total",
		Help: "Detected opportunities by type",
	}, []string{"type", "sport"})

	// FetchErrors counts upstream Odds API failures per endpoint
	FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "odds_analyzer_fetch_errors_total",
		Help: "Odds API fetch failures",
	}, []string{"endpoint"})

	// FetchesSkipped counts fetches suppressed by the credit budget gate
	FetchesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "odds_analyzer_fetches_skipped_total",
		Help: "Fetches skipped because the credit budget was low",
	}, []string{"endpoint"})

	// CreditsRemaining tracks the Odds API credit balance from response headers
	CreditsRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "odds_analyzer_api_credits_remaining",
		Help: "Remaining Odds API credits as last reported",
	})

	// ScanDuration observes end-to-end scan latency per sport
	ScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "odds_analyzer_scan_duration_seconds",
		Help:    "End-to-end scan latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"sport"})
)

// HealthFunc reports dependency health for the /healthz endpoint
type HealthFunc func(ctx context.Context) error

// StartServer runs a lightweight HTTP server exposing /metrics and
// /healthz, intended to be called once from main. Returns the server so
// the caller can shut it down.
func StartServer(port string, healthFn HealthFunc) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if err := healthFn(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprintf(w, "unhealthy: %v", err)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}
	go func() {
		_ = srv.ListenAndServe()
	}()
	return srv
}
