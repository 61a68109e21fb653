package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/andesclim/tmin-zonal/internal/adapter/asciigrid"
	"github.com/andesclim/tmin-zonal/internal/adapter/csvtable"
	geojsonadapter "github.com/andesclim/tmin-zonal/internal/adapter/geojson"
	"github.com/andesclim/tmin-zonal/internal/adapter/httpapi"
	"github.com/andesclim/tmin-zonal/internal/config"
	"github.com/andesclim/tmin-zonal/internal/domain"
	"github.com/andesclim/tmin-zonal/internal/observability"
	"github.com/andesclim/tmin-zonal/internal/zonal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	records, err := geojsonadapter.Read(cfg.VectorPath, geojsonadapter.Options{
		IDProperty: cfg.IDProperty,
		IDPadWidth: cfg.IDPadWidth,
	})
	if err != nil {
		logger.Error("vector layer unreadable", "path", cfg.VectorPath, "error", err)
		os.Exit(1)
	}

	surface, err := asciigrid.Read(cfg.RasterPath, cfg.RasterCRS)
	if err != nil {
		logger.Error("raster unreadable", "path", cfg.RasterPath, "error", err)
		os.Exit(1)
	}

	if cfg.AttributesCSV != "" {
		attrs, err := csvtable.ReadAttributes(cfg.AttributesCSV, cfg.IDProperty, cfg.IDPadWidth, logger)
		if err != nil {
			logger.Error("attribute table unreadable", "path", cfg.AttributesCSV, "error", err)
			os.Exit(1)
		}
		var matched int
		records, matched = domain.JoinAttributes(records, attrs, cfg.IDPadWidth)
		logger.Info("attribute table joined", "rows", len(attrs.Rows), "matched", matched)
	}

	engine := zonal.New(cfg.BoundaryPolicy, cfg.AggregateOptions(), cfg.Workers, logger, metrics)

	results := &httpapi.Results{}
	srv := httpapi.NewServer(cfg.HTTPAddr, results, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	report, err := engine.AggregateAll(ctx, records, surface)
	if err != nil {
		logger.Error("zonal batch failed", "error", err)
		stop()
		os.Exit(1)
	}
	results.Set(report)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
