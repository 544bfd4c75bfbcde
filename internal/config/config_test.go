package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CYCLEVIEW_DATA_DIR", filepath.Join(dir, "data"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.DataDir)
	assert.DirExists(t, cfg.DataDir)
	assert.Equal(t, SourceDir, cfg.Source.Kind)
	assert.Equal(t, "./output/latest", cfg.Source.Dir)
	assert.Equal(t, "latest", cfg.Source.S3.Prefix)
	assert.Equal(t, "yahoo-spy", cfg.Catalog.DefaultSeries)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 2*time.Hour, cfg.SessionIdleTTL)
	assert.Equal(t, 365.0, cfg.MaxSpectrumPeriod)
	assert.Equal(t, "0 0 * * * *", cfg.CacheMaintenanceCron)
}

func TestLoad_Overrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CYCLEVIEW_DATA_DIR", dir)
	t.Setenv("CYCLEVIEW_PORT", "9001")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("CYCLEVIEW_SOURCE", "HTTP")
	t.Setenv("CYCLEVIEW_SOURCE_URL", "http://pages.example/assets/data/latest/")
	t.Setenv("CYCLEVIEW_CACHE_TTL", "1m")
	t.Setenv("CYCLEVIEW_MAX_SPECTRUM_PERIOD", "180")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, SourceHTTP, cfg.Source.Kind)
	assert.Equal(t, "http://pages.example/assets/data/latest", cfg.Source.URL)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, 180.0, cfg.MaxSpectrumPeriod)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:              8080,
			MaxSpectrumPeriod: 365,
			FetchTimeout:      time.Second,
			Source:            SourceConfig{Kind: SourceDir, Dir: "out"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"dir ok", func(c *Config) {}, ""},
		{"unknown source", func(c *Config) { c.Source.Kind = "ftp" }, "unknown dataset source"},
		{"http without url", func(c *Config) { c.Source.Kind = SourceHTTP }, "CYCLEVIEW_SOURCE_URL"},
		{"s3 without bucket", func(c *Config) { c.Source.Kind = SourceS3 }, "CYCLEVIEW_S3_BUCKET"},
		{"s3 ok", func(c *Config) { c.Source.Kind = SourceS3; c.Source.S3.Bucket = "runs" }, ""},
		{"bad port", func(c *Config) { c.Port = 0 }, "invalid port"},
		{"bad spectrum limit", func(c *Config) { c.MaxSpectrumPeriod = 0 }, "MAX_SPECTRUM_PERIOD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
