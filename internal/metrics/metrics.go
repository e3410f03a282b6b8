// Package metrics exposes Prometheus collectors for the fetch/cache pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchAttempts counts network attempts against the remote API,
	// including retries.
	FetchAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coursegrab_fetch_attempts_total",
		Help: "Network attempts against the course API, including retries.",
	})

	// FetchErrors counts terminal fetch failures by error kind.
	FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coursegrab_fetch_errors_total",
		Help: "Terminal fetch failures by error kind.",
	}, []string{"kind"})

	// FetchDuration observes the wall time of complete fetches,
	// backoff sleeps included.
	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "coursegrab_fetch_duration_seconds",
		Help:    "Duration of complete fetches including retries.",
		Buckets: prometheus.DefBuckets,
	})

	// CacheHits counts queries answered from the disk cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coursegrab_cache_hits_total",
		Help: "Queries answered from the disk cache.",
	})

	// CacheMisses counts queries that fell through to the network,
	// expired and corrupt entries included.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coursegrab_cache_misses_total",
		Help: "Queries not answerable from the disk cache.",
	})

	// RateLimited counts requests denied by the local limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coursegrab_rate_limited_total",
		Help: "Requests denied by the local rate limiter.",
	})
)
