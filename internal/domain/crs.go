package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// Canonical CRS identifiers handled by [Reconcile].
const (
	CRSGeographic  = "EPSG:4326" // WGS-84 longitude/latitude
	CRSWebMercator = "EPSG:3857" // spherical Mercator, meters
)

// ErrUnsupportedCRS marks a reprojection pair this package cannot transform.
// Callers fall back to sampling the unmodified geometry and record a warning.
var ErrUnsupportedCRS = errors.New("unsupported CRS pair")

// NormalizeCRS canonicalizes a CRS identifier: trims, uppercases, prefixes
// bare EPSG codes, and maps common WGS-84 aliases to EPSG:4326. Returns ""
// for an undeclared CRS.
func NormalizeCRS(crs string) string {
	s := strings.ToUpper(strings.TrimSpace(crs))
	switch s {
	case "":
		return ""
	case "WGS84", "WGS 84", "CRS84", "OGC:CRS84":
		return CRSGeographic
	}
	if !strings.Contains(s, ":") {
		return "EPSG:" + s
	}
	return s
}

// Reconcile reprojects a vector geometry into the raster's CRS. The raster is
// never touched: resampling a grid is far more expensive and lossy than
// reprojecting polygon vertices.
//
// An undeclared vector CRS is assumed geographic (EPSG:4326). When both sides
// normalize to the same CRS the geometry is returned as-is. Unknown pairs
// return the original geometry and [ErrUnsupportedCRS]; the caller decides
// whether to degrade.
func Reconcile(geom orb.Geometry, vectorCRS, rasterCRS string) (orb.Geometry, error) {
	if geom == nil {
		return nil, nil
	}

	from := NormalizeCRS(vectorCRS)
	if from == "" {
		from = CRSGeographic
	}
	to := NormalizeCRS(rasterCRS)
	if to == "" || from == to {
		return geom, nil
	}

	switch {
	case from == CRSGeographic && to == CRSWebMercator:
		return project.Geometry(orb.Clone(geom), project.WGS84.ToMercator), nil
	case from == CRSWebMercator && to == CRSGeographic:
		return project.Geometry(orb.Clone(geom), project.Mercator.ToWGS84), nil
	}
	return geom, fmt.Errorf("%w: %s -> %s", ErrUnsupportedCRS, from, to)
}
