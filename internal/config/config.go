package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/andesclim/tmin-zonal/internal/domain"
)

// Config holds all service settings, populated from environment variables.
// The core computation takes everything it needs from here: no default file
// paths or policies are baked into the engine itself.
type Config struct {
	VectorPath    string // GeoJSON polygon layer (required)
	RasterPath    string // ESRI ASCII grid (required)
	RasterCRS     string // CRS of the raster, .asc files carry none themselves
	AttributesCSV string // optional attribute table joined by territorial code

	IDProperty string // feature property holding the territorial code
	IDPadWidth int    // zero-pad width for territorial codes

	BoundaryPolicy domain.BoundaryPolicy
	PercentileLow  float64
	PercentileHigh float64
	FrostThreshold float64
	Workers        int // 0 = NumCPU

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	policy, err := domain.ParseBoundaryPolicy(envOrDefault("BOUNDARY_POLICY", string(domain.PolicyCenter)))
	if err != nil {
		return nil, err
	}

	pLow, err := parseFloatEnv("PERCENTILE_LOW", 10)
	if err != nil {
		return nil, err
	}
	pHigh, err := parseFloatEnv("PERCENTILE_HIGH", 90)
	if err != nil {
		return nil, err
	}
	frost, err := parseFloatEnv("FROST_THRESHOLD", 0)
	if err != nil {
		return nil, err
	}

	padWidth, err := parseIntEnv("ID_PAD_WIDTH", 6)
	if err != nil {
		return nil, err
	}
	workers, err := parseIntEnv("WORKERS", 0)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := time.ParseDuration(envOrDefault("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil || shutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}

	cfg := &Config{
		VectorPath:    os.Getenv("VECTOR_PATH"),
		RasterPath:    os.Getenv("RASTER_PATH"),
		RasterCRS:     envOrDefault("RASTER_CRS", domain.CRSGeographic),
		AttributesCSV: os.Getenv("ATTRIBUTES_CSV"),

		IDProperty: envOrDefault("ID_PROPERTY", "ubigeo"),
		IDPadWidth: padWidth,

		BoundaryPolicy: policy,
		PercentileLow:  pLow,
		PercentileHigh: pHigh,
		FrostThreshold: frost,
		Workers:        workers,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.VectorPath == "" {
		return nil, errors.New("VECTOR_PATH is required")
	}
	if cfg.RasterPath == "" {
		return nil, errors.New("RASTER_PATH is required")
	}
	if err := cfg.AggregateOptions().Validate(); err != nil {
		return nil, err
	}
	if cfg.IDPadWidth < 0 {
		return nil, errors.New("ID_PAD_WIDTH must not be negative")
	}

	return cfg, nil
}

// AggregateOptions maps the configured statistic parameters onto the domain.
func (c *Config) AggregateOptions() domain.AggregateOptions {
	return domain.AggregateOptions{
		PercentileLow:  c.PercentileLow,
		PercentileHigh: c.PercentileHigh,
		FrostThreshold: c.FrostThreshold,
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseFloatEnv(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}

func parseIntEnv(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}
