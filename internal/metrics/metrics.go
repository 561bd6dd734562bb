// Package metrics exposes Prometheus collectors for enrichment runs.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Outcome labels for entity completions.
const (
	OutcomeCached    = "cached"
	OutcomeFetched   = "fetched"
	OutcomeFallback  = "fallback"
	OutcomeCancelled = "cancelled"
)

var (
	entitiesTotal    *prometheus.CounterVec
	searchCallsTotal *prometheus.CounterVec
	rateLimitRetries prometheus.Counter
	checkpointsTotal *prometheus.CounterVec
	fetchDuration    *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors. It is safe to call more than once.
func Init() {
	once.Do(func() {
		entitiesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enrich_entities_total",
				Help: "Entities completed, labeled by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		)

		searchCallsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enrich_search_calls_total",
				Help: "Search API calls, labeled by result status.",
			},
			[]string{"status"},
		)

		rateLimitRetries = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "enrich_rate_limit_retries_total",
				Help: "Retries scheduled after a rate-limit response.",
			},
		)

		checkpointsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enrich_checkpoints_total",
				Help: "Checkpoints written, labeled by kind.",
			},
			[]string{"kind"},
		)

		fetchDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "enrich_fetch_duration_seconds",
				Help:    "Time spent on a cache miss, labeled by kind.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"kind"},
		)
	})
}

// Handler returns an http.Handler exposing the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is done. An empty addr is a no-op.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}
	Init()

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("metrics: listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "metrics: serve")
	}
	return nil
}

// ObserveEntity counts one completed entity.
func ObserveEntity(kind, outcome string) {
	Init()
	entitiesTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveSearch counts one search call by status ("ok", "rate_limited", "error").
func ObserveSearch(status string) {
	Init()
	searchCallsTotal.WithLabelValues(status).Inc()
}

// ObserveRateLimitRetry counts one scheduled retry.
func ObserveRateLimitRetry() {
	Init()
	rateLimitRetries.Inc()
}

// ObserveCheckpoint counts one checkpoint write.
func ObserveCheckpoint(kind string) {
	Init()
	checkpointsTotal.WithLabelValues(kind).Inc()
}

// ObserveFetch records time spent fetching an uncached entity.
func ObserveFetch(kind string, d time.Duration) {
	Init()
	fetchDuration.WithLabelValues(kind).Observe(d.Seconds())
}
