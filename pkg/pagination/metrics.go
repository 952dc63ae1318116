package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pageRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maps_page_retries_total",
		Help: "Total page fetch retries by cause",
	}, []string{"cause"}) // "transport", "decode", "empty_batch", "other"

	pageRetryBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "maps_page_retry_backoff_seconds",
		Help:    "Backoff before a page fetch retry",
		Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32},
	})

	pageFetchExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maps_page_fetch_exhausted_total",
		Help: "Total page fetches that gave up after all retries",
	})

	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maps_pages_fetched_total",
		Help: "Total follow-up pages fetched successfully",
	})

	reviewsCollectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maps_reviews_collected_total",
		Help: "Total raw review records accumulated",
	})

	paginationStopsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maps_pagination_stops_total",
		Help: "Total finished retrievals by stop reason",
	}, []string{"reason"})
)
