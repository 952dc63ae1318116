// Package metrics exposes the Prometheus registry shared by the scraper
// packages. Metrics are defined next to the code that records them
// (client, pagination, store); this package documents them and serves them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler serves every registered metric in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - maps_requests_total{status} (Counter): Listing requests by HTTP status
//   - maps_request_duration_seconds (Histogram): Listing request duration
//   - maps_errors_total{class} (Counter): Transport errors by class (client, server, rate_limit, network, circuit_open)
//
// Pagination Metrics (pkg/pagination):
//   - maps_page_retries_total{cause} (Counter): Page retries by cause (transport, decode, empty_batch)
//   - maps_page_retry_backoff_seconds (Histogram): Backoff before a page retry
//   - maps_page_fetch_exhausted_total (Counter): Follow-up pages that used every attempt
//   - maps_pages_fetched_total (Counter): Follow-up pages fetched
//   - maps_reviews_collected_total (Counter): Raw review records accumulated
//   - maps_pagination_stops_total{reason} (Counter): Pagination stops by reason
//
// Store Metrics (pkg/store):
//   - maps_store_writes_total (Counter): Saved results
//   - maps_store_hits_total (Counter): Loads served from the store
//   - maps_store_misses_total (Counter): Loads without a stored result
//   - maps_store_entry_bytes (Histogram): Encoded size of saved results
//   - maps_store_errors_total{operation} (Counter): Store operation errors
//
// Example Prometheus Queries:
//
//   # Retry rate per cause
//   sum by (cause) (rate(maps_page_retries_total[5m]))
//
//   # Share of walks cut short by exhaustion
//   rate(maps_pagination_stops_total{reason="fetch_exhausted"}[1h]) /
//   sum(rate(maps_pagination_stops_total[1h]))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(maps_request_duration_seconds_bucket[5m]))
