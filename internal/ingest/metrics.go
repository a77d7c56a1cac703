package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// runsTotal counts pipeline runs by result (ok, scrape_failed,
	// nothing_scraped, truncate_failed, busy).
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_runs_total",
			Help: "Release ingestion runs by result.",
		},
		[]string{"result"},
	)

	// itemsTotal counts scraped items by outcome.
	itemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_items_total",
			Help: "Scraped release items by enrichment outcome.",
		},
		[]string{"outcome"},
	)

	runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_run_duration_seconds",
			Help:    "Duration of release ingestion runs in seconds.",
			Buckets: []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	lastSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_last_success_timestamp_seconds",
			Help: "Unix time of the last successful ingestion run.",
		},
	)
)

func init() {
	prometheus.MustRegister(runsTotal, itemsTotal, runDuration, lastSuccess)
}
