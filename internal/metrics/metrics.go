// Package metrics exposes the gateway's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ProvinceCacheHits counts reads served from the province cache.
	ProvinceCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tiangge",
		Subsystem: "locations",
		Name:      "province_cache_hits_total",
		Help:      "Province list reads served from the cache.",
	})

	// ProvinceCacheMisses counts reads that fell through to the API,
	// including expired, version-mismatched, and malformed entries.
	ProvinceCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tiangge",
		Subsystem: "locations",
		Name:      "province_cache_misses_total",
		Help:      "Province list reads that missed the cache.",
	})

	// LocationFetchFailures counts collaborator fetch errors by hierarchy level.
	LocationFetchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tiangge",
		Subsystem: "locations",
		Name:      "fetch_failures_total",
		Help:      "Failed collaborator fetches by hierarchy level.",
	}, []string{"level"})

	// LocationLookupMisses counts slugs that were fetched but not found.
	LocationLookupMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tiangge",
		Subsystem: "locations",
		Name:      "lookup_misses_total",
		Help:      "Lookups that found no record in a fetched list, by level.",
	}, []string{"level"})

	// AmbiguousMunicipalities counts slug lookups that matched more than one
	// municipality in a province.
	AmbiguousMunicipalities = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tiangge",
		Subsystem: "locations",
		Name:      "ambiguous_municipality_total",
		Help:      "Municipality slug lookups with more than one match.",
	})

	// StaleFetchDiscards counts province fetches that completed after a newer
	// navigation had started and were not written back to the cache.
	StaleFetchDiscards = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tiangge",
		Subsystem: "locations",
		Name:      "stale_fetch_discards_total",
		Help:      "Province fetch results discarded as superseded.",
	})

	// RefreshRuns counts background cache refresh outcomes.
	RefreshRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tiangge",
		Subsystem: "worker",
		Name:      "refresh_runs_total",
		Help:      "Province cache refresh task outcomes.",
	}, []string{"outcome"})

	// RequestDuration observes gateway request latency by route pattern.
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tiangge",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Gateway request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)

func init() {
	prometheus.MustRegister(
		ProvinceCacheHits,
		ProvinceCacheMisses,
		LocationFetchFailures,
		LocationLookupMisses,
		AmbiguousMunicipalities,
		StaleFetchDiscards,
		RefreshRuns,
		RequestDuration,
	)
}

// Handler returns the scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
