package httpapi_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andesclim/tmin-zonal/internal/adapter/httpapi"
	"github.com/andesclim/tmin-zonal/internal/domain"
	"github.com/andesclim/tmin-zonal/internal/zonal"
)

func ptr(v float64) *float64 { return &v }

func testReport(t *testing.T) *zonal.Report {
	t.Helper()
	square := orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}
	shifted := orb.Polygon{{{1, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 0}}}

	records := []domain.PolygonRecord{
		{
			ID:         "000101",
			Geometry:   square,
			Columns:    []string{"ubigeo", "distrito"},
			Attributes: map[string]string{"ubigeo": "000101", "distrito": "Macusani"},
		},
		{
			ID:         "000102",
			Geometry:   shifted,
			Columns:    []string{"ubigeo", "distrito"},
			Attributes: map[string]string{"ubigeo": "000102", "distrito": "Ajoyani"},
		},
	}
	results := []domain.ZonalResult{
		{Count: 2, Min: ptr(-4), Max: ptr(2), Mean: ptr(-1), Std: ptr(3), PLow: ptr(-3.4), PHigh: ptr(1.4), FrostPixels: 1, FrostPct: 50},
		domain.Undefined(),
	}
	table, warnings := domain.BuildTable(records, results)
	require.Empty(t, warnings)

	return &zonal.Report{
		Table:        table,
		DegradedRows: 1,
		Warnings:     []zonal.Warning{{Index: 1, ID: "000102", Reason: "sampling failed: test"}},
		ComputedAt:   time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestServer(rep *zonal.Report) *httpapi.Server {
	results := &httpapi.Results{}
	if rep != nil {
		results.Set(rep)
	}
	return httpapi.NewServer(":0", results, slog.Default())
}

func get(t *testing.T, srv *httpapi.Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(nil), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzBeforeAndAfterBatch(t *testing.T) {
	t.Run("not ready before the batch", func(t *testing.T) {
		rec := get(t, newTestServer(nil), "/readyz")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("ready once the report lands", func(t *testing.T) {
		rec := get(t, newTestServer(testReport(t)), "/readyz")
		assert.Equal(t, http.StatusOK, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ready", body["status"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(nil), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestStatsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(testReport(t)), "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Rows         []map[string]any `json:"rows"`
		RowCount     int              `json:"row_count"`
		DegradedRows int              `json:"degraded_rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, 2, body.RowCount)
	assert.Equal(t, 1, body.DegradedRows)
	require.Len(t, body.Rows, 2)

	assert.Equal(t, "Macusani", body.Rows[0]["distrito"])
	assert.Equal(t, -1.0, body.Rows[0]["mean"])
	assert.Equal(t, 50.0, body.Rows[0]["frost_pct"])

	// Undefined statistics serialize as JSON null, never zero.
	assert.Contains(t, body.Rows[1], "mean")
	assert.Nil(t, body.Rows[1]["mean"])
}

func TestStatsBeforeBatchIs503(t *testing.T) {
	for _, target := range []string{"/api/stats", "/api/stats.csv", "/api/rankings", "/api/map.png"} {
		rec := get(t, newTestServer(nil), target)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, target)
	}
}

func TestCSVEndpoint(t *testing.T) {
	rec := get(t, newTestServer(testReport(t)), "/api/stats.csv")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "tmin_zonal_stats.csv")
	assert.Contains(t, rec.Body.String(), "ubigeo,distrito,count")
	assert.Contains(t, rec.Body.String(), "000101,Macusani,2")
}

func TestRankingsEndpoint(t *testing.T) {
	t.Run("default size", func(t *testing.T) {
		rec := get(t, newTestServer(testReport(t)), "/api/rankings")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Coldest []domain.RankEntry `json:"coldest"`
			Warmest []domain.RankEntry `json:"warmest"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

		// The undefined row never ranks.
		require.Len(t, body.Coldest, 1)
		assert.Equal(t, "Macusani", body.Coldest[0].Name)
		require.Len(t, body.Warmest, 1)
	})

	t.Run("explicit size", func(t *testing.T) {
		rec := get(t, newTestServer(testReport(t)), "/api/rankings?n=1")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid size", func(t *testing.T) {
		rec := get(t, newTestServer(testReport(t)), "/api/rankings?n=zero")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMapEndpoint(t *testing.T) {
	t.Run("renders png", func(t *testing.T) {
		rec := get(t, newTestServer(testReport(t)), "/api/map.png?column=mean&width=64")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, "\x89PNG", rec.Body.String()[:4])
	})

	t.Run("unknown column", func(t *testing.T) {
		rec := get(t, newTestServer(testReport(t)), "/api/map.png?column=median")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid width", func(t *testing.T) {
		rec := get(t, newTestServer(testReport(t)), "/api/map.png?width=-3")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
