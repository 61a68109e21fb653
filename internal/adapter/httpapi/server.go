// Package httpapi serves the computed zonal statistics: the result table as
// JSON, CSV download, coldest/warmest rankings, and the choropleth map,
// alongside health and metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andesclim/tmin-zonal/internal/adapter/csvtable"
	"github.com/andesclim/tmin-zonal/internal/adapter/render"
	"github.com/andesclim/tmin-zonal/internal/domain"
	"github.com/andesclim/tmin-zonal/internal/zonal"
)

const (
	defaultRankSize = 15
	// histogramBins matches the historical dashboard's distribution plot.
	histogramBins = 40
)

// Results is the shared handle between the batch computation and the server.
// The report is written once after the batch finishes and only read after
// that; readiness reflects whether it has arrived.
type Results struct {
	report atomic.Pointer[zonal.Report]
}

// Set publishes a finished report.
func (r *Results) Set(rep *zonal.Report) { r.report.Store(rep) }

// Get returns the published report, or nil before the batch completes.
func (r *Results) Get() *zonal.Report { return r.report.Load() }

// CheckReadiness returns nil once a report is available.
func (r *Results) CheckReadiness(_ context.Context) error {
	if r.Get() == nil {
		return errors.New("zonal batch has not completed yet")
	}
	return nil
}

// Server exposes the result endpoints plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	results    *Results
	logger     *slog.Logger
}

// NewServer creates the HTTP server and wires all routes.
func NewServer(addr string, results *Results, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		results: results,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/stats.csv", s.handleCSV)
	mux.HandleFunc("GET /api/rankings", s.handleRankings)
	mux.HandleFunc("GET /api/map.png", s.handleMap)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.results.CheckReadiness(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// report fetches the published report or answers 503, mirroring readiness.
func (s *Server) report(w http.ResponseWriter) *zonal.Report {
	rep := s.results.Get()
	if rep == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "zonal batch has not completed yet",
		})
	}
	return rep
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	rep := s.report(w)
	if rep == nil {
		return
	}

	table := rep.Table
	rows := make([]map[string]any, len(table.Rows))
	for i, row := range table.Rows {
		cells := make(map[string]any, len(table.AttributeColumns)+len(table.StatisticColumns))
		for _, col := range table.AttributeColumns {
			cells[col] = row.Record.Attributes[col]
		}
		for _, col := range table.StatisticColumns {
			if v, ok := table.StatValue(i, col); ok {
				cells[col] = v
			} else {
				cells[col] = nil
			}
		}
		rows[i] = cells
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"rows":           rows,
		"row_count":      len(rows),
		"degraded_rows":  rep.DegradedRows,
		"warnings":       rep.Warnings,
		"computed_at":    rep.ComputedAt,
		"mean_histogram": domain.Histogram(table.MeanValues(), histogramBins),
	})
}

func (s *Server) handleCSV(w http.ResponseWriter, _ *http.Request) {
	rep := s.report(w)
	if rep == nil {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="tmin_zonal_stats.csv"`)
	if err := csvtable.Write(w, rep.Table); err != nil {
		s.logger.Error("csv export failed", "error", err)
	}
}

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	rep := s.report(w)
	if rep == nil {
		return
	}

	n := defaultRankSize
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "n must be a positive integer"})
			return
		}
		n = v
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"coldest": rep.Table.RankByMean(n, true),
		"warmest": rep.Table.RankByMean(n, false),
	})
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	rep := s.report(w)
	if rep == nil {
		return
	}

	opts := render.Options{Column: r.URL.Query().Get("column")}
	if raw := r.URL.Query().Get("width"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "width must be a positive integer"})
			return
		}
		opts.Width = v
	}

	img, err := render.Choropleth(rep.Table, opts)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="map_tmin.png"`)
	w.Write(img) //nolint:errcheck // best-effort image response
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
