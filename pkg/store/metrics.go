package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreWrites tracks saved results
	StoreWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "maps_store_writes_total",
			Help: "Total number of review results saved",
		},
	)

	// StoreHits tracks loads that found a result
	StoreHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "maps_store_hits_total",
			Help: "Total number of stored review results served",
		},
	)

	// StoreMisses tracks loads that found nothing
	StoreMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "maps_store_misses_total",
			Help: "Total number of review result lookups without a stored result",
		},
	)

	// StoreEntryBytes tracks the encoded size of saved results
	StoreEntryBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "maps_store_entry_bytes",
			Help:    "Encoded size of saved review results in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	// StoreErrors tracks store operation errors
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maps_store_errors_total",
			Help: "Total number of result store operation errors",
		},
		[]string{"operation"}, // "load", "save", "delete"
	)
)
