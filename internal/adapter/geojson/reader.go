// Package geojson reads the vector polygon layer from a GeoJSON
// FeatureCollection into domain polygon records.
package geojson

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/paulmach/orb/geojson"

	"github.com/andesclim/tmin-zonal/internal/domain"
)

// Options configures feature ingestion.
type Options struct {
	// IDProperty names the feature property holding the territorial code.
	IDProperty string
	// IDPadWidth zero-pads codes to this width; 0 disables padding.
	IDPadWidth int
	// CRS declares the layer's coordinate reference system. GeoJSON is
	// EPSG:4326 per RFC 7946; leave empty to let the core assume geographic.
	CRS string
}

// Read loads a FeatureCollection and converts every feature into a
// PolygonRecord. An unreadable file or a collection with zero features is a
// hard failure: the batch cannot proceed without polygons.
//
// Property names are normalized to lowercase here, once, so the rest of the
// pipeline sees a fixed schema. Property order in GeoJSON is not preserved by
// JSON maps, so columns are sorted with the ID column first.
func Read(path string, opts Options) ([]domain.PolygonRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vector layer: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse vector layer %s: %w", path, err)
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("vector layer %s has no features", path)
	}

	idProp := domain.NormalizeColumnName(opts.IDProperty)
	records := make([]domain.PolygonRecord, 0, len(fc.Features))
	for _, f := range fc.Features {
		rec := domain.PolygonRecord{
			Geometry:   f.Geometry,
			CRS:        opts.CRS,
			Attributes: make(map[string]string, len(f.Properties)),
		}

		for key, val := range f.Properties {
			name := domain.NormalizeColumnName(key)
			rec.Attributes[name] = propertyString(val)
		}
		rec.Columns = orderColumns(rec.Attributes, idProp)

		if id, ok := rec.Attributes[idProp]; ok {
			if opts.IDPadWidth > 0 {
				id = domain.PadID(id, opts.IDPadWidth)
				rec.Attributes[idProp] = id
			}
			rec.ID = id
		}
		records = append(records, rec)
	}
	return records, nil
}

// propertyString renders a GeoJSON property value for the attribute table.
// Floats use the shortest round-trip representation.
func propertyString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func orderColumns(attrs map[string]string, idProp string) []string {
	cols := make([]string, 0, len(attrs))
	for c := range attrs {
		if c != idProp {
			cols = append(cols, c)
		}
	}
	sort.Strings(cols)
	if _, ok := attrs[idProp]; ok {
		cols = append([]string{idProp}, cols...)
	}
	return cols
}
