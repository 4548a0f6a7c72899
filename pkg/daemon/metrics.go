package daemon

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricIndexEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lumen_index_entries",
		Help: "Number of entries currently in the index.",
	})

	metricIndexBuiltAt = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lumen_index_built_timestamp_seconds",
		Help: "Unix time of the last completed full build.",
	})

	metricRebuildsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumen_index_rebuilds_total",
		Help: "Completed full index builds.",
	})

	metricRebuildsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumen_index_rebuilds_dropped_total",
		Help: "Full build requests dropped because one was in flight.",
	})

	metricSyncPatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumen_sync_patches_total",
		Help: "Incremental patches applied to the index.",
	})

	metricSyncAssets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumen_sync_assets_total",
		Help: "Assets touched by incremental patches.",
	})

	metricQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lumen_queries_total",
		Help: "Ranked queries served, labeled by kind.",
	}, []string{"kind"})

	metricPersistErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumen_persist_errors_total",
		Help: "Failed attempts to write the index to disk.",
	})
)
