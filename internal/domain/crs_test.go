package domain

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCRS(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"EPSG:4326", "EPSG:4326"},
		{"epsg:4326", "EPSG:4326"},
		{" epsg:3857 ", "EPSG:3857"},
		{"4326", "EPSG:4326"},
		{"wgs84", "EPSG:4326"},
		{"WGS 84", "EPSG:4326"},
		{"OGC:CRS84", "EPSG:4326"},
		{"32718", "EPSG:32718"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCRS(tt.in), "input %q", tt.in)
	}
}

func TestReconcile(t *testing.T) {
	poly := orb.Polygon{{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}, {-1, -1}}}

	t.Run("same CRS is a no-op", func(t *testing.T) {
		got, err := Reconcile(poly, "EPSG:4326", "epsg:4326")
		require.NoError(t, err)
		assert.Equal(t, orb.Geometry(poly), got)
	})

	t.Run("undeclared vector CRS assumed geographic", func(t *testing.T) {
		got, err := Reconcile(poly, "", CRSGeographic)
		require.NoError(t, err)
		assert.Equal(t, orb.Geometry(poly), got)
	})

	t.Run("geographic to mercator", func(t *testing.T) {
		got, err := Reconcile(poly, CRSGeographic, CRSWebMercator)
		require.NoError(t, err)

		projected, ok := got.(orb.Polygon)
		require.True(t, ok)
		want := project.WGS84.ToMercator(orb.Point{1, 1})
		assert.InDelta(t, want[0], projected[0][2][0], 1e-6)
		assert.InDelta(t, want[1], projected[0][2][1], 1e-6)

		// The input geometry must stay untouched.
		assert.Equal(t, 1.0, poly[0][2][0])
	})

	t.Run("mercator back to geographic", func(t *testing.T) {
		merc, err := Reconcile(poly, CRSGeographic, CRSWebMercator)
		require.NoError(t, err)

		back, err := Reconcile(merc, CRSWebMercator, CRSGeographic)
		require.NoError(t, err)

		roundTripped, ok := back.(orb.Polygon)
		require.True(t, ok)
		for i, p := range poly[0] {
			assert.InDelta(t, p[0], roundTripped[0][i][0], 1e-9)
			assert.InDelta(t, p[1], roundTripped[0][i][1], 1e-9)
		}
	})

	t.Run("unsupported pair keeps geometry and reports", func(t *testing.T) {
		got, err := Reconcile(poly, "EPSG:32718", CRSGeographic)
		require.ErrorIs(t, err, ErrUnsupportedCRS)
		assert.Equal(t, orb.Geometry(poly), got)
	})

	t.Run("nil geometry", func(t *testing.T) {
		got, err := Reconcile(nil, CRSGeographic, CRSWebMercator)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

// TestReprojectionInvariance samples the same footprint expressed in two
// equivalent coordinate systems against a Mercator raster and expects the
// same cell set.
func TestReprojectionInvariance(t *testing.T) {
	// 8x8 Mercator grid over [-200km, 200km]^2, deterministic cell values.
	cells := make([][]float64, 8)
	for r := range cells {
		cells[r] = make([]float64, 8)
		for c := range cells[r] {
			cells[r][c] = float64(r*8 + c)
		}
	}
	g, err := NewGrid(cells, -200000, 200000, 50000, CRSWebMercator, nil)
	require.NoError(t, err)

	geographic := orb.Polygon{{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}, {-1, -1}}}

	fromGeographic, err := Reconcile(geographic, CRSGeographic, g.CRS())
	require.NoError(t, err)

	preProjected := project.Polygon(geographic.Clone(), project.WGS84.ToMercator)
	identity, err := Reconcile(preProjected, CRSWebMercator, g.CRS())
	require.NoError(t, err)

	a := Sample(fromGeographic, g, PolicyCenter)
	b := Sample(identity, g, PolicyCenter)

	require.NotEmpty(t, a)
	assert.ElementsMatch(t, a, b)
}
