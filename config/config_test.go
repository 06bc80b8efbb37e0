package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wxbot/wxbot/logging"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8000", cfg.ListenAddr)
	assert.Equal(t, "demo", cfg.GeoProvider)
	assert.InDelta(t, 0.55, cfg.ConfidenceThreshold, 1e-9)
	assert.Equal(t, 10*time.Minute, cfg.ForecastTTL)
	assert.Equal(t, 2*time.Minute, cfg.AlertsTTL)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 5000, cfg.SessionMaxEntries)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("GEO_PROVIDER", "census")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.7")
	t.Setenv("FORECAST_TTL_SECONDS", "120")
	t.Setenv("SESSION_MAX_ENTRIES", "100")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("MAX_CONCURRENT_TURNS", "8")

	cfg := FromEnv()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "census", cfg.GeoProvider)
	assert.InDelta(t, 0.7, cfg.ConfidenceThreshold, 1e-9)
	assert.Equal(t, 2*time.Minute, cfg.ForecastTTL)
	assert.Equal(t, 100, cfg.SessionMaxEntries)
	assert.Equal(t, logging.LogLevelDebug, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, int64(8), cfg.MaxConcurrentTurns)
}

func TestFromEnv_IgnoresUnparseable(t *testing.T) {
	t.Setenv("FORECAST_TTL_SECONDS", "not-a-number")
	t.Setenv("CONFIDENCE_THRESHOLD", "")
	t.Setenv("SESSION_MAX_ENTRIES", "-3")

	cfg := FromEnv()
	assert.Equal(t, 10*time.Minute, cfg.ForecastTTL)
	assert.InDelta(t, 0.55, cfg.ConfidenceThreshold, 1e-9)
	assert.Equal(t, 5000, cfg.SessionMaxEntries)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "threshold out of range",
			mutate:  func(c *Config) { c.ConfidenceThreshold = 1.5 },
			wantErr: "CONFIDENCE_THRESHOLD",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.GeoProvider = "osm" },
			wantErr: "GEO_PROVIDER",
		},
		{
			name:    "csv provider without path",
			mutate:  func(c *Config) { c.GeoProvider = "csv" },
			wantErr: "GEOCODE_CSV_PATH",
		},
		{
			name:    "zero ttl",
			mutate:  func(c *Config) { c.AlertsTTL = 0 },
			wantErr: "TTLs",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.LogFormat = "xml" },
			wantErr: "LOG_FORMAT",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
