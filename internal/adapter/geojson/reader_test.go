package geojson

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"UBIGEO": "101", "DISTRITO": "Macusani", "Altitud": 4315.5, "Frontera": false},
      "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,1],[0,0]]]}
    },
    {
      "type": "Feature",
      "properties": {"UBIGEO": "210901", "DISTRITO": "Ajoyani"},
      "geometry": {"type": "MultiPolygon", "coordinates": [[[[2,2],[3,2],[3,3],[2,3],[2,2]]]]}
    }
  ]
}`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "distritos.geojson")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRead(t *testing.T) {
	opts := Options{IDProperty: "UBIGEO", IDPadWidth: 6}

	t.Run("features become records", func(t *testing.T) {
		records, err := Read(writeFixture(t, fixture), opts)
		require.NoError(t, err)
		require.Len(t, records, 2)

		first := records[0]
		assert.Equal(t, "000101", first.ID, "code is zero-padded at ingestion")
		assert.IsType(t, orb.Polygon{}, first.Geometry)
		assert.Equal(t, []string{"ubigeo", "altitud", "distrito", "frontera"}, first.Columns)
		assert.Equal(t, "Macusani", first.Attributes["distrito"])
		assert.Equal(t, "4315.5", first.Attributes["altitud"])
		assert.Equal(t, "false", first.Attributes["frontera"])
		assert.Equal(t, "000101", first.Attributes["ubigeo"])

		second := records[1]
		assert.Equal(t, "210901", second.ID)
		assert.IsType(t, orb.MultiPolygon{}, second.Geometry)
	})

	t.Run("missing id property leaves ID empty", func(t *testing.T) {
		records, err := Read(writeFixture(t, fixture), Options{IDProperty: "nope"})
		require.NoError(t, err)
		assert.Empty(t, records[0].ID)
	})

	t.Run("declared CRS carried through", func(t *testing.T) {
		records, err := Read(writeFixture(t, fixture), Options{IDProperty: "UBIGEO", CRS: "EPSG:3857"})
		require.NoError(t, err)
		assert.Equal(t, "EPSG:3857", records[0].CRS)
	})

	t.Run("zero features is a hard failure", func(t *testing.T) {
		_, err := Read(writeFixture(t, `{"type":"FeatureCollection","features":[]}`), opts)
		assert.ErrorContains(t, err, "no features")
	})

	t.Run("unreadable file", func(t *testing.T) {
		_, err := Read(filepath.Join(t.TempDir(), "absent.geojson"), opts)
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := Read(writeFixture(t, `{"type":`), opts)
		assert.Error(t, err)
	})
}
