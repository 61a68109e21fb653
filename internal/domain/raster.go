package domain

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Surface is the raster abstraction the sampler consumes: a 2D grid of cell
// values with a spatial transform, a CRS, and an optional no-data sentinel.
//
// Implementations must be safe for concurrent reads; the batch engine shares
// one Surface across its workers and never mutates it.
type Surface interface {
	// CRS returns the raster's coordinate reference system, e.g. "EPSG:4326".
	CRS() string
	// NoData returns the no-data sentinel, or nil when the raster declares none.
	NoData() *float64
	// Bound returns the raster extent in raster coordinates.
	Bound() orb.Bound
	// Size returns the grid dimensions.
	Size() (cols, rows int)
	// Resolution returns the cell size along each axis.
	Resolution() (dx, dy float64)
	// CellAt maps a spatial location to grid indices. Indices may be out of
	// range for locations outside the extent; callers clamp.
	CellAt(x, y float64) (col, row int)
	// Center returns the spatial coordinates of a cell's center.
	Center(col, row int) (x, y float64)
	// Value returns the raw cell value, or false when (col,row) is off-grid.
	Value(col, row int) (float64, bool)
}

// Grid is an in-memory north-up Surface backed by a row-major cell slice.
// Row 0 is the northernmost row.
type Grid struct {
	cells    [][]float64
	cols     int
	rows     int
	originX  float64 // west edge
	originY  float64 // north edge
	cellSize float64
	crs      string
	noData   *float64
}

// NewGrid builds a Grid from row-major cells (row 0 = top). originX/originY is
// the top-left corner of the top-left cell. Returns an error on ragged or
// empty input, or a non-positive cell size.
func NewGrid(cells [][]float64, originX, originY, cellSize float64, crs string, noData *float64) (*Grid, error) {
	if len(cells) == 0 || len(cells[0]) == 0 {
		return nil, fmt.Errorf("grid has no cells")
	}
	if cellSize <= 0 {
		return nil, fmt.Errorf("grid cell size must be positive, got %g", cellSize)
	}
	cols := len(cells[0])
	for i, row := range cells {
		if len(row) != cols {
			return nil, fmt.Errorf("grid row %d has %d cells, want %d", i, len(row), cols)
		}
	}
	return &Grid{
		cells:    cells,
		cols:     cols,
		rows:     len(cells),
		originX:  originX,
		originY:  originY,
		cellSize: cellSize,
		crs:      crs,
		noData:   noData,
	}, nil
}

func (g *Grid) CRS() string      { return g.crs }
func (g *Grid) NoData() *float64 { return g.noData }

func (g *Grid) Size() (cols, rows int)       { return g.cols, g.rows }
func (g *Grid) Resolution() (dx, dy float64) { return g.cellSize, g.cellSize }

func (g *Grid) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{g.originX, g.originY - float64(g.rows)*g.cellSize},
		Max: orb.Point{g.originX + float64(g.cols)*g.cellSize, g.originY},
	}
}

func (g *Grid) CellAt(x, y float64) (col, row int) {
	col = int(math.Floor((x - g.originX) / g.cellSize))
	row = int(math.Floor((g.originY - y) / g.cellSize))
	return col, row
}

func (g *Grid) Center(col, row int) (x, y float64) {
	x = g.originX + (float64(col)+0.5)*g.cellSize
	y = g.originY - (float64(row)+0.5)*g.cellSize
	return x, y
}

func (g *Grid) Value(col, row int) (float64, bool) {
	if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
		return 0, false
	}
	return g.cells[row][col], true
}

// validCell reports whether a raw cell value should enter the statistics:
// finite and not equal to the no-data sentinel.
func validCell(v float64, noData *float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	if noData != nil && v == *noData {
		return false
	}
	return true
}
