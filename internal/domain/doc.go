// Package domain implements zonal statistics for minimum-temperature rasters.
//
// # Zonal statistics
//
// A zonal statistic summarizes the raster cells that fall inside one vector
// polygon's footprint. For every administrative unit the package computes the
// sampled cell count, min, max, arithmetic mean, population standard deviation,
// the 10th and 90th percentiles, and the frost fraction (share of sampled cells
// below the freezing threshold).
//
// The pipeline is: reconcile coordinate systems → sample cells per polygon →
// aggregate each polygon's value list → assemble the result table in input order.
//
// # Administrative codes
//
// Polygon records carry a territorial code (UBIGEO in the Peruvian source data),
// a 6-digit zero-padded string. Codes are treated as opaque identifiers; the
// core never assumes uniqueness, and duplicate codes aggregate independently.
//
// # Coordinate reconciliation
//
// When the vector layer's CRS differs from the raster's, polygons are
// reprojected into the raster CRS before sampling. The raster is never
// resampled. A vector layer without a declared CRS is assumed geographic
// (EPSG:4326). Reprojection failure degrades to sampling the unmodified
// geometry with a recorded warning; it is never a hard failure. See [Reconcile].
//
// # No-data handling
//
// Cells equal to the raster's no-data sentinel, and non-finite cells, are
// excluded before aggregation. They count toward nothing: not the cell count,
// not the frost fraction denominator.
//
// # Undefined statistics
//
// A polygon that samples zero valid cells (degenerate geometry, fully outside
// the raster extent, or all cells no-data) has count 0 and every continuous
// statistic set to nil. Nil means "undefined", which downstream consumers must
// keep distinct from a zero value; frost_pct is 0 in that case by definition.
//
// # Percentile method
//
// p10/p90 use linear interpolation between order statistics: for n sorted
// values the p-th percentile sits at rank (n-1)*p/100, interpolated between
// the neighboring values. Different interpolation schemes diverge materially
// at small n, so this choice is fixed. See [Aggregate].
//
// # Standard deviation
//
// Std is the population standard deviation (divisor n, not n-1): the zone is
// described as a whole, not inferred from a sample. Switching the divisor
// would silently shift every std value and any threshold built on it.
package domain
