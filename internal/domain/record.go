package domain

import (
	"strings"

	"github.com/paulmach/orb"
)

// PolygonRecord is one row of the vector layer: a territorial code, a polygon
// or multipolygon geometry, the layer's declared CRS, and the descriptive
// attributes carried through to the result table unchanged.
//
// Attribute column names are normalized to lowercase once at ingestion
// ([NormalizeColumnName]); the rest of the pipeline operates on the fixed
// schema instead of branching on name variants.
type PolygonRecord struct {
	ID       string
	Geometry orb.Geometry
	CRS      string

	// Columns preserves attribute ingestion order for stable export.
	Columns    []string
	Attributes map[string]string
}

// NormalizeColumnName maps a raw column name to its canonical form:
// trimmed and lowercased.
func NormalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// PadID left-pads a territorial code with zeros to the given width.
// Codes longer than width are returned unchanged.
func PadID(id string, width int) string {
	id = strings.TrimSpace(id)
	if len(id) >= width {
		return id
	}
	return strings.Repeat("0", width-len(id)) + id
}
