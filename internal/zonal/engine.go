// Package zonal runs the per-polygon statistics batch: coordinate
// reconciliation, cell sampling, and aggregation across a polygon set, with
// row-level degradation and batch-level hard failures.
package zonal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/andesclim/tmin-zonal/internal/domain"
	"github.com/andesclim/tmin-zonal/internal/observability"
)

// ErrEmptyPolygonSet is the hard failure for a vector layer with zero rows:
// there is nothing to aggregate and no partial result to produce.
var ErrEmptyPolygonSet = errors.New("polygon set has no rows")

// ErrNoRaster is the hard failure for a missing raster surface.
var ErrNoRaster = errors.New("no raster surface")

// Below this many polygons the engine skips the worker pool; goroutine
// overhead outweighs the win on tiny batches.
const sequentialThreshold = 8

// Warning records one row-level degradation. The batch continues; the row's
// statistics may be partially or fully undefined depending on the cause.
type Warning struct {
	Index  int    `json:"index"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Report is the immutable batch output: the assembled table, the row-level
// warnings, and how many rows ended fully undefined.
type Report struct {
	Table        *domain.ResultTable
	Warnings     []Warning
	DegradedRows int
	ComputedAt   time.Time
}

// Engine computes zonal statistics for a polygon set against one raster
// surface. Safe for reuse across batches; all per-batch state is local to
// AggregateAll.
type Engine struct {
	policy  domain.BoundaryPolicy
	opts    domain.AggregateOptions
	workers int
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an Engine. workers <= 0 selects NumCPU.
func New(policy domain.BoundaryPolicy, opts domain.AggregateOptions, workers int, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Engine{
		policy:  policy,
		opts:    opts,
		workers: workers,
		logger:  logger,
		metrics: metrics,
	}
}

// rowOutcome is what one polygon's computation produces.
type rowOutcome struct {
	stats    domain.ZonalResult
	warning  *Warning
	degraded bool
}

// AggregateAll computes the statistic vector for every record against the
// surface and assembles the result table.
//
// Hard failures (nil surface, empty polygon set) return an error and no
// report. Row-level failures never abort the batch: a polygon that cannot be
// reprojected is sampled with its unmodified geometry and a warning recorded;
// a polygon whose sampling panics degrades to an all-undefined row. Output
// row order always equals input order, whatever the worker count.
func (e *Engine) AggregateAll(ctx context.Context, records []domain.PolygonRecord, surface domain.Surface) (*Report, error) {
	if surface == nil {
		return nil, ErrNoRaster
	}
	if len(records) == 0 {
		return nil, ErrEmptyPolygonSet
	}

	start := clock.Now()
	e.logger.Info("zonal batch started",
		"polygons", len(records),
		"policy", string(e.policy),
		"workers", e.workers,
	)

	outcomes := make([]rowOutcome, len(records))
	if e.workers <= 1 || len(records) < sequentialThreshold {
		for i := range records {
			outcomes[i] = e.computeRow(i, records[i], surface)
		}
	} else {
		e.computeParallel(ctx, records, surface, outcomes)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("zonal batch interrupted: %w", err)
	}

	results := make([]domain.ZonalResult, len(records))
	report := &Report{ComputedAt: clock.Now()}
	for i, out := range outcomes {
		results[i] = out.stats
		if out.warning != nil {
			report.Warnings = append(report.Warnings, *out.warning)
		}
		if out.degraded {
			report.DegradedRows++
		}
		e.metrics.CellsSampled.Add(float64(out.stats.Count))
	}

	table, collisions := domain.BuildTable(records, results)
	for _, w := range collisions {
		e.logger.Warn("column collision", "detail", w)
	}
	report.Table = table

	e.metrics.PolygonsProcessed.Add(float64(len(records)))
	e.metrics.RowsDegraded.Add(float64(report.DegradedRows))
	e.metrics.BatchDuration.Observe(clock.Since(start).Seconds())

	e.logger.Info("zonal batch finished",
		"polygons", len(records),
		"degraded_rows", report.DegradedRows,
		"warnings", len(report.Warnings),
		"duration", clock.Since(start),
	)
	return report, nil
}

// computeParallel fans rows out over the worker pool. Workers write their
// outcome by polygon index, so completion order cannot perturb row order.
func (e *Engine) computeParallel(ctx context.Context, records []domain.PolygonRecord, surface domain.Surface, outcomes []rowOutcome) {
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := e.workers
	if workers > len(records) {
		workers = len(records)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = e.computeRow(i, records[i], surface)
			}
		}()
	}

	for i := range records {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
}

// computeRow reconciles, samples, and aggregates one polygon. It never
// escalates: a reprojection failure falls back to the unmodified geometry
// with a warning, and a panic anywhere below degrades the row to
// all-undefined statistics so one bad geometry cannot sink the batch.
func (e *Engine) computeRow(index int, rec domain.PolygonRecord, surface domain.Surface) (out rowOutcome) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("row computation failed, degrading to undefined",
				"index", index, "id", rec.ID, "panic", r)
			out = rowOutcome{
				stats:    domain.Undefined(),
				degraded: true,
				warning: &Warning{
					Index:  index,
					ID:     rec.ID,
					Reason: fmt.Sprintf("sampling failed: %v", r),
				},
			}
		}
	}()

	geom := rec.Geometry
	reconciled, err := domain.Reconcile(geom, rec.CRS, surface.CRS())
	if err != nil {
		// Fall back to the unmodified geometry; an explicit, logged decision
		// rather than a swallowed failure.
		e.logger.Warn("reprojection failed, sampling unmodified geometry",
			"index", index, "id", rec.ID, "error", err)
		out.warning = &Warning{
			Index:  index,
			ID:     rec.ID,
			Reason: fmt.Sprintf("reprojection failed, sampled unprojected geometry: %v", err),
		}
	} else {
		geom = reconciled
	}

	values := domain.Sample(geom, surface, e.policy)
	out.stats = domain.Aggregate(values, e.opts)
	return out
}
