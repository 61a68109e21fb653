package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gridExample is the reference 4x4 raster flattened row-major.
var gridExample = []float64{
	1, 2, 3, 4,
	5, -1, -2, 8,
	9, 10, 11, -3,
	13, 14, 15, 16,
}

func TestAggregate(t *testing.T) {
	opts := DefaultAggregateOptions()

	t.Run("reference grid", func(t *testing.T) {
		res := Aggregate(gridExample, opts)

		assert.Equal(t, 16, res.Count)
		require.NotNil(t, res.Min)
		require.NotNil(t, res.Max)
		assert.Equal(t, -3.0, *res.Min)
		assert.Equal(t, 16.0, *res.Max)
		require.NotNil(t, res.Mean)
		assert.InDelta(t, 6.5625, *res.Mean, 1e-12)
		assert.Equal(t, 3, res.FrostPixels)
		assert.Equal(t, 18.75, res.FrostPct)
	})

	t.Run("empty sample is undefined, not zero", func(t *testing.T) {
		res := Aggregate(nil, opts)

		assert.Equal(t, 0, res.Count)
		assert.Nil(t, res.Min)
		assert.Nil(t, res.Max)
		assert.Nil(t, res.Mean)
		assert.Nil(t, res.Std)
		assert.Nil(t, res.PLow)
		assert.Nil(t, res.PHigh)
		assert.Equal(t, 0, res.FrostPixels)
		assert.Equal(t, 0.0, res.FrostPct)
	})

	t.Run("single value", func(t *testing.T) {
		res := Aggregate([]float64{-4.2}, opts)

		assert.Equal(t, 1, res.Count)
		assert.Equal(t, -4.2, *res.Min)
		assert.Equal(t, -4.2, *res.Max)
		assert.Equal(t, -4.2, *res.Mean)
		assert.Equal(t, 0.0, *res.Std)
		assert.Equal(t, -4.2, *res.PLow)
		assert.Equal(t, -4.2, *res.PHigh)
		assert.Equal(t, 1, res.FrostPixels)
		assert.Equal(t, 100.0, res.FrostPct)
	})

	t.Run("population std divisor", func(t *testing.T) {
		// Sample std of {2,4} would be sqrt(2); population std is 1.
		res := Aggregate([]float64{2, 4}, opts)

		require.NotNil(t, res.Std)
		assert.InDelta(t, 1.0, *res.Std, 1e-12)
	})

	t.Run("ordering invariant", func(t *testing.T) {
		res := Aggregate(gridExample, opts)

		assert.LessOrEqual(t, *res.Min, *res.PLow)
		assert.LessOrEqual(t, *res.PLow, *res.Mean)
		assert.LessOrEqual(t, *res.Mean, *res.PHigh)
		assert.LessOrEqual(t, *res.PHigh, *res.Max)
		assert.GreaterOrEqual(t, *res.Std, 0.0)
	})

	t.Run("frost extremes", func(t *testing.T) {
		allFrost := Aggregate([]float64{-1, -2.5, -0.1}, opts)
		assert.Equal(t, allFrost.Count, allFrost.FrostPixels)
		assert.Equal(t, 100.0, allFrost.FrostPct)

		// Zero is not frost: the comparison is strict.
		noFrost := Aggregate([]float64{0, 0.1, 5}, opts)
		assert.Equal(t, 0, noFrost.FrostPixels)
		assert.Equal(t, 0.0, noFrost.FrostPct)
	})

	t.Run("configurable frost threshold", func(t *testing.T) {
		cold := opts
		cold.FrostThreshold = 2
		res := Aggregate([]float64{0, 1, 2, 3}, cold)

		assert.Equal(t, 2, res.FrostPixels)
		assert.Equal(t, 50.0, res.FrostPct)
	})

	t.Run("input order does not matter", func(t *testing.T) {
		reversed := make([]float64, len(gridExample))
		for i, v := range gridExample {
			reversed[len(gridExample)-1-i] = v
		}

		a := Aggregate(gridExample, opts)
		b := Aggregate(reversed, opts)
		assert.Equal(t, a, b)
	})
}

func TestPercentileLinearInterpolation(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{"p10 of 1..4", []float64{1, 2, 3, 4}, 10, 1.3},
		{"p90 of 1..4", []float64{1, 2, 3, 4}, 90, 3.7},
		{"p50 even count", []float64{1, 2, 3, 4}, 50, 2.5},
		{"p50 odd count", []float64{1, 2, 3}, 50, 2},
		{"p10 of 1..10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 10, 1.9},
		{"p90 of 1..10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 90, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := percentile(tt.values, tt.p)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestAggregateOptionsValidate(t *testing.T) {
	assert.NoError(t, DefaultAggregateOptions().Validate())

	bad := []AggregateOptions{
		{PercentileLow: 0, PercentileHigh: 90},
		{PercentileLow: 10, PercentileHigh: 100},
		{PercentileLow: 90, PercentileHigh: 10},
		{PercentileLow: 50, PercentileHigh: 50},
	}
	for _, opts := range bad {
		assert.Error(t, opts.Validate())
	}
}

func TestStat(t *testing.T) {
	res := Aggregate(gridExample, DefaultAggregateOptions())

	v, ok := res.Stat("count")
	require.True(t, ok)
	assert.Equal(t, 16.0, v)

	v, ok = res.Stat("frost_pct")
	require.True(t, ok)
	assert.Equal(t, 18.75, v)

	_, ok = res.Stat("median")
	assert.False(t, ok)

	_, ok = Undefined().Stat("mean")
	assert.False(t, ok)

	v, ok = Undefined().Stat("frost_pct")
	require.True(t, ok)
	assert.Equal(t, 0.0, v)
	assert.False(t, math.Signbit(v))
}
