package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts store lookups that found a live entry
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artic_cache_hits_total",
			Help: "Total number of catalog revalidation store hits",
		},
		[]string{"layer"},
	)

	// CacheMisses counts lookups without a live entry
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "artic_cache_misses_total",
			Help: "Total number of catalog revalidation store misses",
		},
	)

	// StoredBytes counts body bytes written to the store
	StoredBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "artic_cache_stored_bytes_total",
			Help: "Total body bytes written to the catalog revalidation store",
		},
	)

	// NotModifiedResponses counts 304 answers to conditional requests
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "artic_304_responses_total",
			Help: "Total number of catalog 304 Not Modified responses",
		},
	)

	// ConditionalRequestsSent counts requests carrying validators
	ConditionalRequestsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "artic_conditional_requests_total",
			Help: "Total number of conditional catalog requests sent",
		},
	)

	// CacheErrors counts store failures by operation
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artic_cache_errors_total",
			Help: "Total number of revalidation store errors",
		},
		[]string{"operation"}, // "get", "set", "refresh", "delete"
	)
)
