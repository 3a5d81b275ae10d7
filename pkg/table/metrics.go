package table

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	selectionSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "artic_selection_size",
		Help: "Number of selected record identifiers in the most recently updated table",
	})

	recordCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "artic_record_cache_size",
		Help: "Number of records held in the accumulated record cache",
	})

	pageLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artic_page_loads_total",
		Help: "Page loads by result",
	}, []string{"result"}) // "ok", "failed"

	bulkSelectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artic_bulk_selections_total",
		Help: "Bulk select-first-N walks by stop reason",
	}, []string{"reason"})

	bulkPagesFetched = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "artic_bulk_pages_fetched",
		Help:    "Pages fetched per bulk select-first-N walk",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
	})
)
