// Package metrics documents the Prometheus metrics exported by artic-table
// and provides the HTTP handler that serves them. Metrics are defined in
// their own packages (client, cache, table) via promauto.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every artic_* metric is registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer matching Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the metrics in the Prometheus exposition format. The
// handler's own request counters are registered with Registry.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(Registry,
		promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}))
}

// Names lists the metric families exported by artic-table.
var Names = []string{
	// pkg/client
	"artic_requests_total",
	"artic_request_duration_seconds",
	"artic_errors_total",
	// pkg/cache
	"artic_cache_hits_total",
	"artic_cache_misses_total",
	"artic_cache_stored_bytes_total",
	"artic_304_responses_total",
	"artic_conditional_requests_total",
	"artic_cache_errors_total",
	// pkg/table
	"artic_selection_size",
	"artic_record_cache_size",
	"artic_page_loads_total",
	"artic_bulk_selections_total",
	"artic_bulk_pages_fetched",
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - artic_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - artic_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - artic_errors_total{class} (Counter): Errors by class (client, server, network, decode)
//
// Revalidation Store Metrics (pkg/cache):
//   - artic_cache_hits_total{layer="redis"} (Counter): Stored entries found
//   - artic_cache_misses_total (Counter): Lookups without a stored entry
//   - artic_cache_stored_bytes_total (Counter): Body bytes written to the store
//   - artic_304_responses_total (Counter): 304 Not Modified responses
//   - artic_conditional_requests_total (Counter): Requests sent with validators
//   - artic_cache_errors_total{operation} (Counter): Store operation errors
//
// Table Metrics (pkg/table):
//   - artic_selection_size (Gauge): Selected identifiers
//   - artic_record_cache_size (Gauge): Records held for selected-row display
//   - artic_page_loads_total{result} (Counter): Page loads, ok or failed
//   - artic_bulk_selections_total{reason} (Counter): Select-first-N walks by stop reason
//   - artic_bulk_pages_fetched (Histogram): Pages fetched per walk
//
// Example Prometheus Queries:
//
//   # Revalidation rate
//   rate(artic_304_responses_total[5m]) / rate(artic_requests_total[5m])
//
//   # Failed page loads
//   rate(artic_page_loads_total{result="failed"}[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(artic_request_duration_seconds_bucket[5m]))
