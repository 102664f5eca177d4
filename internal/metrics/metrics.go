// Package metrics provides Prometheus metrics for the Renaiss bot backend.
// Scrape these at /metrics for Grafana dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renaiss_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "renaiss_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Refresh Metrics
	RefreshRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renaiss_refresh_runs_total",
			Help: "Total number of card refresh cycles by result",
		},
		[]string{"result"}, // "success", "fetch_failed", "store_failed"
	)

	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "renaiss_refresh_duration_seconds",
			Help:    "Time taken to run a card refresh cycle",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	CardsProcessedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "renaiss_cards_processed_total",
			Help: "Total number of cards upserted by refresh cycles",
		},
	)

	NormalizationSkipsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "renaiss_normalization_skips_total",
			Help: "Raw market records skipped because they could not be normalized",
		},
	)

	// Market API Metrics
	MarketRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renaiss_market_requests_total",
			Help: "Total number of Renaiss market API requests by result",
		},
		[]string{"result"}, // "success", "error"
	)

	MarketRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "renaiss_market_request_duration_seconds",
			Help:    "Renaiss market API call latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	// Arbitrage Metrics
	ArbitrageScansTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "renaiss_arbitrage_scans_total",
			Help: "Total number of arbitrage scans",
		},
	)

	ArbitrageOpportunitiesFound = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "renaiss_arbitrage_opportunities_found",
			Help: "Number of opportunities found by the most recent scan",
		},
	)

	ArbitrageLogsWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "renaiss_arbitrage_logs_written_total",
			Help: "Total number of arbitrage audit rows written",
		},
	)

	// Card Database Metrics
	CardDatabaseSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "renaiss_card_database_size",
			Help: "Number of cards in the database",
		},
	)

	// Lookup Cache Metrics
	CardCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "renaiss_card_cache_hits_total",
			Help: "Card info lookup cache hit count",
		},
	)

	CardCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "renaiss_card_cache_misses_total",
			Help: "Card info lookup cache miss count",
		},
	)
)
