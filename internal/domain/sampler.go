package domain

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// BoundaryPolicy controls which raster cells along a polygon's boundary are
// sampled.
type BoundaryPolicy string

const (
	// PolicyCenter samples a cell only when its center lies strictly inside
	// the polygon, with half-open tie-breaking for centers on the boundary.
	// This is the default: two adjacent polygons sharing an edge never count
	// the same cell twice, even when the edge runs through cell centers.
	PolicyCenter BoundaryPolicy = "center"

	// PolicyTouched also samples cells merely touched by the boundary.
	// Approximated as: center or any cell corner inside the polygon, or a
	// polygon vertex falling inside the cell. Exact rectangle-polygon
	// intersection would need a clipping library; the approximation is
	// symmetric across neighboring polygons.
	PolicyTouched BoundaryPolicy = "touched"
)

// ParseBoundaryPolicy validates a policy name from configuration.
func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch BoundaryPolicy(s) {
	case PolicyCenter, PolicyTouched:
		return BoundaryPolicy(s), nil
	}
	return "", fmt.Errorf("unknown boundary policy %q (want %q or %q)", s, PolicyCenter, PolicyTouched)
}

// Sample returns the finite, non-no-data cell values of s that fall inside
// geom under the given boundary policy. The geometry must already be in the
// raster's CRS (see [Reconcile]).
//
// Degenerate input never fails: a nil, empty, zero-area, or non-polygonal
// geometry, or one fully outside the raster extent, yields an empty slice.
func Sample(geom orb.Geometry, s Surface, policy BoundaryPolicy) []float64 {
	if geom == nil || s == nil {
		return nil
	}
	switch g := geom.(type) {
	case orb.Polygon:
		if len(g) == 0 || len(g[0]) == 0 {
			return nil
		}
	case orb.MultiPolygon:
		if len(g) == 0 {
			return nil
		}
	default:
		return nil
	}

	window := clampWindow(geom.Bound(), s)
	if window == nil {
		return nil
	}

	noData := s.NoData()
	var values []float64

	var vertexCells map[[2]int]struct{}
	if policy == PolicyTouched {
		vertexCells = collectVertexCells(geom, s)
	}

	dx, dy := s.Resolution()
	for row := window.rowMin; row <= window.rowMax; row++ {
		for col := window.colMin; col <= window.colMax; col++ {
			cx, cy := s.Center(col, row)
			var hit bool
			if policy == PolicyTouched {
				hit = contains(geom, orb.Point{cx, cy}) ||
					cornerInside(geom, cx, cy, dx, dy)
				if !hit {
					_, hit = vertexCells[[2]int{col, row}]
				}
			} else {
				hit = centerInside(geom, orb.Point{cx, cy})
			}
			if !hit {
				continue
			}
			v, ok := s.Value(col, row)
			if ok && validCell(v, noData) {
				values = append(values, v)
			}
		}
	}
	return values
}

type cellWindow struct {
	colMin, colMax, rowMin, rowMax int
}

// clampWindow intersects the geometry bound with the raster extent and
// converts it to an inclusive cell index range. Returns nil when the two do
// not overlap.
func clampWindow(b orb.Bound, s Surface) *cellWindow {
	extent := s.Bound()
	if b.Min[0] > extent.Max[0] || b.Max[0] < extent.Min[0] ||
		b.Min[1] > extent.Max[1] || b.Max[1] < extent.Min[1] {
		return nil
	}

	cols, rows := s.Size()
	colMin, rowMin := s.CellAt(b.Min[0], b.Max[1]) // top-left
	colMax, rowMax := s.CellAt(b.Max[0], b.Min[1]) // bottom-right

	w := &cellWindow{
		colMin: max(colMin, 0),
		rowMin: max(rowMin, 0),
		colMax: min(colMax, cols-1),
		rowMax: min(rowMax, rows-1),
	}
	if w.colMin > w.colMax || w.rowMin > w.rowMax {
		return nil
	}
	return w
}

// contains is boundary-inclusive and serves the touched policy, where
// over-inclusion along the edge is intended.
func contains(geom orb.Geometry, pt orb.Point) bool {
	switch g := geom.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, pt)
	}
	return false
}

// centerInside decides containment with an even-odd ray cast using half-open
// edge semantics: each crossing counts the edge's lower endpoint and requires
// the intersection strictly east of the point. A point exactly on an edge
// shared by two polygons therefore lands in exactly one of them.
func centerInside(geom orb.Geometry, pt orb.Point) bool {
	switch g := geom.(type) {
	case orb.Polygon:
		return polygonInside(g, pt)
	case orb.MultiPolygon:
		for _, poly := range g {
			if polygonInside(poly, pt) {
				return true
			}
		}
	}
	return false
}

func polygonInside(poly orb.Polygon, pt orb.Point) bool {
	if len(poly) == 0 || !ringInside(poly[0], pt) {
		return false
	}
	for _, hole := range poly[1:] {
		if ringInside(hole, pt) {
			return false
		}
	}
	return true
}

func ringInside(ring orb.Ring, pt orb.Point) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > pt[1]) != (yj > pt[1]) &&
			pt[0] < (xj-xi)*(pt[1]-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

func cornerInside(geom orb.Geometry, cx, cy, dx, dy float64) bool {
	hx, hy := dx/2, dy/2
	corners := [4]orb.Point{
		{cx - hx, cy - hy},
		{cx - hx, cy + hy},
		{cx + hx, cy - hy},
		{cx + hx, cy + hy},
	}
	for _, c := range corners {
		if contains(geom, c) {
			return true
		}
	}
	return false
}

// collectVertexCells maps every ring vertex to the cell it falls in, so the
// touched policy picks up cells crossed by the boundary even when no cell
// corner lands inside the polygon.
func collectVertexCells(geom orb.Geometry, s Surface) map[[2]int]struct{} {
	cells := make(map[[2]int]struct{})
	cols, rows := s.Size()

	mark := func(p orb.Point) {
		col, row := s.CellAt(p[0], p[1])
		if col >= 0 && col < cols && row >= 0 && row < rows {
			cells[[2]int{col, row}] = struct{}{}
		}
	}

	switch g := geom.(type) {
	case orb.Polygon:
		for _, ring := range g {
			for _, p := range ring {
				mark(p)
			}
		}
	case orb.MultiPolygon:
		for _, poly := range g {
			for _, ring := range poly {
				for _, p := range ring {
					mark(p)
				}
			}
		}
	}
	return cells
}
