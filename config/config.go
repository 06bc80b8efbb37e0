// Package config collects runtime configuration from the environment.
// Every knob has a default matching the reference deployment, so an empty
// environment yields a working in-memory setup with the demo geocoder.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wxbot/wxbot/logging"
)

// Config holds the complete runtime configuration.
type Config struct {
	// ListenAddr is the HTTP bind address.
	ListenAddr string
	// UserAgent identifies outbound requests to weather and geocoding
	// services.
	UserAgent string

	// GeoProvider selects the geocoding backend: demo, census or csv.
	GeoProvider string
	// CensusURL overrides the Census geocoder base URL.
	CensusURL string
	// CSVPath locates the gazetteer file for the csv provider.
	CSVPath string

	// NLUDataPath locates the YAML intent training corpus. Empty selects
	// the built-in corpus.
	NLUDataPath string
	// ConfidenceThreshold gates low-certainty turns.
	ConfidenceThreshold float64

	// MetricsDSN is the PostgreSQL DSN for interaction recording. Empty
	// disables recording.
	MetricsDSN string

	GeocodeTTL       time.Duration
	ForecastTTL      time.Duration
	AlertsTTL        time.Duration
	GeocodeCacheMax  int
	ForecastCacheMax int
	AlertsCacheMax   int

	SessionTTL        time.Duration
	SessionMaxEntries int

	// MaxConcurrentTurns caps in-flight turn handling on the HTTP server.
	MaxConcurrentTurns int64

	LogLevel  logging.LogLevel
	LogFormat string
}

// Default returns the reference configuration.
func Default() Config {
	return Config{
		ListenAddr:          ":8000",
		UserAgent:           "wxbot/1.0 (contact: ops@wxbot.local)",
		GeoProvider:         "demo",
		ConfidenceThreshold: 0.55,
		GeocodeTTL:          24 * time.Hour,
		ForecastTTL:         10 * time.Minute,
		AlertsTTL:           2 * time.Minute,
		GeocodeCacheMax:     256,
		ForecastCacheMax:    512,
		AlertsCacheMax:      512,
		SessionTTL:          30 * time.Minute,
		SessionMaxEntries:   5000,
		MaxConcurrentTurns:  64,
		LogLevel:            logging.LogLevelInfo,
		LogFormat:           "json",
	}
}

// FromEnv returns the default configuration with environment overrides
// applied. Unparseable values fall back to the default silently; Validate
// catches out-of-range results.
func FromEnv() Config {
	cfg := Default()

	envString(&cfg.ListenAddr, "LISTEN_ADDR")
	envString(&cfg.UserAgent, "USER_AGENT")
	envString(&cfg.GeoProvider, "GEO_PROVIDER")
	envString(&cfg.CensusURL, "CENSUS_GEOCODER_URL")
	envString(&cfg.CSVPath, "GEOCODE_CSV_PATH")
	envString(&cfg.NLUDataPath, "NLU_DATA_PATH")
	envString(&cfg.MetricsDSN, "METRICS_DSN")

	envFloat(&cfg.ConfidenceThreshold, "CONFIDENCE_THRESHOLD")

	envSeconds(&cfg.GeocodeTTL, "GEOCODE_TTL_SECONDS")
	envSeconds(&cfg.ForecastTTL, "FORECAST_TTL_SECONDS")
	envSeconds(&cfg.AlertsTTL, "ALERTS_TTL_SECONDS")
	envSeconds(&cfg.SessionTTL, "SESSION_TTL_SECONDS")

	envInt(&cfg.GeocodeCacheMax, "GEOCODE_CACHE_MAX")
	envInt(&cfg.ForecastCacheMax, "FORECAST_CACHE_MAX")
	envInt(&cfg.AlertsCacheMax, "ALERTS_CACHE_MAX")
	envInt(&cfg.SessionMaxEntries, "SESSION_MAX_ENTRIES")

	if v := os.Getenv("MAX_CONCURRENT_TURNS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxConcurrentTurns = n
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = parseLogLevel(v, cfg.LogLevel)
	}
	envString(&cfg.LogFormat, "LOG_FORMAT")

	return cfg
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var errs []string

	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		errs = append(errs, "CONFIDENCE_THRESHOLD must be in [0, 1]")
	}
	switch c.GeoProvider {
	case "demo", "census", "csv", "local":
	default:
		errs = append(errs, fmt.Sprintf("GEO_PROVIDER %q is not one of demo, census, csv", c.GeoProvider))
	}
	if (c.GeoProvider == "csv" || c.GeoProvider == "local") && c.CSVPath == "" {
		errs = append(errs, "GEOCODE_CSV_PATH is required for the csv provider")
	}
	if c.GeocodeTTL <= 0 || c.ForecastTTL <= 0 || c.AlertsTTL <= 0 || c.SessionTTL <= 0 {
		errs = append(errs, "all TTLs must be positive")
	}
	if c.GeocodeCacheMax <= 0 || c.ForecastCacheMax <= 0 || c.AlertsCacheMax <= 0 {
		errs = append(errs, "all cache capacities must be positive")
	}
	if c.SessionMaxEntries <= 0 {
		errs = append(errs, "SESSION_MAX_ENTRIES must be positive")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT %q is not one of json, text", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

func envString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt(dst *int, name string) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func envFloat(dst *float64, name string) {
	if v := os.Getenv(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envSeconds(dst *time.Duration, name string) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = time.Duration(n) * time.Second
		}
	}
}

func parseLogLevel(s string, fallback logging.LogLevel) logging.LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return logging.LogLevelDebug
	case "info":
		return logging.LogLevelInfo
	case "warn", "warning":
		return logging.LogLevelWarn
	case "error":
		return logging.LogLevelError
	default:
		return fallback
	}
}
