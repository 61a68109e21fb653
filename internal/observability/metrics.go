package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the zonal batch.
type Metrics struct {
	PolygonsProcessed prometheus.Counter
	RowsDegraded      prometheus.Counter
	CellsSampled      prometheus.Counter
	BatchDuration     prometheus.Histogram
}

// NewMetrics creates and registers all batch metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		PolygonsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tmin_zonal",
			Name:      "polygons_processed_total",
			Help:      "Total polygons aggregated across all batches.",
		}),
		RowsDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tmin_zonal",
			Name:      "rows_degraded_total",
			Help:      "Total rows that ended with all-undefined statistics.",
		}),
		CellsSampled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tmin_zonal",
			Name:      "cells_sampled_total",
			Help:      "Total valid raster cells sampled across all polygons.",
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tmin_zonal",
			Name:      "batch_duration_seconds",
			Help:      "Duration of a complete aggregate-all batch.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	prometheus.MustRegister(
		m.PolygonsProcessed,
		m.RowsDegraded,
		m.CellsSampled,
		m.BatchDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PolygonsProcessed: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "tmin_zonal", Name: "polygons_processed_total"}),
		RowsDegraded:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "tmin_zonal", Name: "rows_degraded_total"}),
		CellsSampled:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "tmin_zonal", Name: "cells_sampled_total"}),
		BatchDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "tmin_zonal", Name: "batch_duration_seconds"}),
	}
}
