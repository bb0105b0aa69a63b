package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeaturesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "villagemap_features_ingested_total",
		Help: "Features successfully written to the store.",
	})

	IngestErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "villagemap_ingest_errors_total",
		Help: "Features rejected or failed during ingestion.",
	})

	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "villagemap_ingest_duration_seconds",
		Help:    "Wall time of one full ingestion run.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	ViewportQueries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "villagemap_viewport_queries_total",
		Help: "Bounds/list queries served.",
	})
)
