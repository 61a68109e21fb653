package domain

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// AggregateOptions fixes the tunable parts of the statistic vector.
type AggregateOptions struct {
	// PercentileLow / PercentileHigh in (0,100), default 10 and 90.
	PercentileLow  float64
	PercentileHigh float64
	// FrostThreshold is the strict upper bound for a frost cell, in the
	// raster's value unit (°C). Default 0.
	FrostThreshold float64
}

// DefaultAggregateOptions returns the p10/p90, 0 °C configuration.
func DefaultAggregateOptions() AggregateOptions {
	return AggregateOptions{PercentileLow: 10, PercentileHigh: 90}
}

// Validate rejects option values that would produce meaningless statistics.
func (o AggregateOptions) Validate() error {
	if o.PercentileLow <= 0 || o.PercentileHigh >= 100 || o.PercentileLow >= o.PercentileHigh {
		return fmt.Errorf("percentiles must satisfy 0 < low < high < 100, got %g/%g",
			o.PercentileLow, o.PercentileHigh)
	}
	return nil
}

// ZonalResult is the statistic vector for one polygon. Continuous statistics
// are nil when Count is 0: undefined, never zero. Immutable once built.
type ZonalResult struct {
	Count       int
	Min         *float64
	Max         *float64
	Mean        *float64
	Std         *float64
	PLow        *float64
	PHigh       *float64
	FrostPixels int
	FrostPct    float64
}

// StatColumns is the canonical statistic column order appended after the
// polygon attributes in every export.
var StatColumns = []string{
	"count", "min", "max", "mean", "std", "p10", "p90", "frost_pixels", "frost_pct",
}

// Stat returns the named statistic as a float. The second return is false for
// an undefined (nil) statistic or an unknown name.
func (z ZonalResult) Stat(name string) (float64, bool) {
	deref := func(p *float64) (float64, bool) {
		if p == nil {
			return 0, false
		}
		return *p, true
	}
	switch name {
	case "count":
		return float64(z.Count), true
	case "min":
		return deref(z.Min)
	case "max":
		return deref(z.Max)
	case "mean":
		return deref(z.Mean)
	case "std":
		return deref(z.Std)
	case "p10":
		return deref(z.PLow)
	case "p90":
		return deref(z.PHigh)
	case "frost_pixels":
		return float64(z.FrostPixels), true
	case "frost_pct":
		return z.FrostPct, true
	}
	return 0, false
}

// Undefined is the all-undefined result used for degraded rows.
func Undefined() ZonalResult {
	return ZonalResult{}
}

// Aggregate computes the statistic vector for one polygon's sampled values.
// Values are assumed already filtered by the sampler (finite, no sentinel).
//
// Std uses divisor n (population), and percentiles use linear interpolation
// between order statistics; see the package documentation for why both are
// fixed. FrostPct keeps full precision, rounding is presentation's job.
func Aggregate(values []float64, opts AggregateOptions) ZonalResult {
	n := len(values)
	if n == 0 {
		return Undefined()
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mean := stat.Mean(sorted, nil)
	std := math.Sqrt(stat.PopVariance(sorted, nil))
	pLow := percentile(sorted, opts.PercentileLow)
	pHigh := percentile(sorted, opts.PercentileHigh)

	frost := 0
	for _, v := range sorted {
		if v < opts.FrostThreshold {
			frost++
		}
	}

	return ZonalResult{
		Count:       n,
		Min:         ptr(sorted[0]),
		Max:         ptr(sorted[n-1]),
		Mean:        ptr(mean),
		Std:         ptr(std),
		PLow:        ptr(pLow),
		PHigh:       ptr(pHigh),
		FrostPixels: frost,
		FrostPct:    float64(frost) / float64(n) * 100,
	}
}

// percentile computes the p-th percentile of an ascending slice by linear
// interpolation between order statistics: rank = (n-1)*p/100, interpolated
// between the neighboring values. Hand-rolled rather than gonum's
// stat.Quantile because its cumulant kinds define quantiles differently and
// diverge at small n.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	rank := (float64(n-1)) * p / 100
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func ptr(v float64) *float64 { return &v }
