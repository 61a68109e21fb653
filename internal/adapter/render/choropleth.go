// Package render rasterizes the result table into a choropleth PNG: one
// statistic column color-encoded over the polygon geometries.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/andesclim/tmin-zonal/internal/domain"
)

// Diverging ramp endpoints, cold blue through white to warm red.
var (
	rampCold, _ = colorful.Hex("#3b4cc0")
	rampMid, _  = colorful.Hex("#f7f7f7")
	rampWarm, _ = colorful.Hex("#b40426")

	// undefinedGray fills polygons whose statistic is undefined. Gray, not a
	// ramp color: undefined must never read as a value on the map.
	undefinedGray = color.RGBA{R: 0xc8, G: 0xc8, B: 0xc8, A: 0xff}

	background = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Options controls the rendered image.
type Options struct {
	// Column is the statistic column to encode, e.g. "mean".
	Column string
	// Width of the output image in pixels; height follows the data aspect
	// ratio. Default 800.
	Width int
}

// Choropleth renders the chosen statistic over the table's geometries and
// returns the encoded PNG. Fails on an unknown column or a table without any
// drawable geometry.
func Choropleth(table *domain.ResultTable, opts Options) ([]byte, error) {
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Column == "" {
		opts.Column = "mean"
	}
	if !knownColumn(table, opts.Column) {
		return nil, fmt.Errorf("unknown statistic column %q", opts.Column)
	}

	extent, ok := tableBound(table)
	if !ok {
		return nil, fmt.Errorf("no drawable geometry in result table")
	}

	lo, hi, any := valueRange(table, opts.Column)
	if !any {
		// Every row undefined: still a legal map, all gray.
		lo, hi = 0, 1
	}

	w := opts.Width
	h := int(float64(w) * (extent.Max[1] - extent.Min[1]) / (extent.Max[0] - extent.Min[0]))
	if h < 1 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, background)
		}
	}

	sx := (extent.Max[0] - extent.Min[0]) / float64(w)
	sy := (extent.Max[1] - extent.Min[1]) / float64(h)

	for i, row := range table.Rows {
		fill := undefinedGray
		if v, defined := table.StatValue(i, opts.Column); defined {
			fill = rampColor(v, lo, hi)
		}
		drawGeometry(img, row.Record.Geometry, extent, sx, sy, fill)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode choropleth png: %w", err)
	}
	return buf.Bytes(), nil
}

func knownColumn(table *domain.ResultTable, column string) bool {
	for _, c := range table.StatisticColumns {
		if c == column {
			return true
		}
	}
	return false
}

func tableBound(table *domain.ResultTable) (orb.Bound, bool) {
	var extent orb.Bound
	found := false
	for _, row := range table.Rows {
		g := row.Record.Geometry
		if g == nil {
			continue
		}
		b := g.Bound()
		if !found {
			extent = b
			found = true
			continue
		}
		extent = extent.Union(b)
	}
	if !found || extent.Max[0] <= extent.Min[0] || extent.Max[1] <= extent.Min[1] {
		return orb.Bound{}, false
	}
	return extent, true
}

func valueRange(table *domain.ResultTable, column string) (lo, hi float64, any bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for i := range table.Rows {
		if v, ok := table.StatValue(i, column); ok {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
			any = true
		}
	}
	return lo, hi, any
}

// rampColor maps a value onto the diverging ramp, blending in Lab space so
// the gradient stays perceptually even.
func rampColor(v, lo, hi float64) color.RGBA {
	t := 0.5
	if hi > lo {
		t = (v - lo) / (hi - lo)
	}

	var c colorful.Color
	if t < 0.5 {
		c = rampCold.BlendLab(rampMid, t*2)
	} else {
		c = rampMid.BlendLab(rampWarm, (t-0.5)*2)
	}
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// drawGeometry fills the polygon by point-in-polygon testing each pixel
// center inside the geometry's bound. Plenty for report-sized maps.
func drawGeometry(img *image.RGBA, geom orb.Geometry, extent orb.Bound, sx, sy float64, fill color.RGBA) {
	if geom == nil {
		return
	}
	switch geom.(type) {
	case orb.Polygon, orb.MultiPolygon:
	default:
		return
	}

	b := geom.Bound()
	size := img.Bounds()
	x0 := clampPixel(int((b.Min[0]-extent.Min[0])/sx), size.Dx()-1)
	x1 := clampPixel(int((b.Max[0]-extent.Min[0])/sx), size.Dx()-1)
	y0 := clampPixel(int((extent.Max[1]-b.Max[1])/sy), size.Dy()-1)
	y1 := clampPixel(int((extent.Max[1]-b.Min[1])/sy), size.Dy()-1)

	for py := y0; py <= y1; py++ {
		wy := extent.Max[1] - (float64(py)+0.5)*sy
		for px := x0; px <= x1; px++ {
			wx := extent.Min[0] + (float64(px)+0.5)*sx
			pt := orb.Point{wx, wy}
			inside := false
			switch g := geom.(type) {
			case orb.Polygon:
				inside = planar.PolygonContains(g, pt)
			case orb.MultiPolygon:
				inside = planar.MultiPolygonContains(g, pt)
			}
			if inside {
				img.SetRGBA(px, py, fill)
			}
		}
	}
}

func clampPixel(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
