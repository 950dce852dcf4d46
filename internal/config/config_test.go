package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.True(t, cfg.RefreshEnabled)
	assert.Equal(t, 6*time.Hour, cfg.RefreshInterval)
	assert.Equal(t, 50, cfg.RefreshBatchSize)
	assert.NotEmpty(t, cfg.ScraperUserAgent)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("FETCH_TIMEOUT", "10s")
	t.Setenv("REFRESH_ENABLED", "false")
	t.Setenv("REFRESH_INTERVAL", "1h")
	t.Setenv("REFRESH_BATCH_SIZE", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.False(t, cfg.RefreshEnabled)
	assert.Equal(t, time.Hour, cfg.RefreshInterval)
	assert.Equal(t, 10, cfg.RefreshBatchSize)
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad timeout", "FETCH_TIMEOUT", "soon"},
		{"bad refresh flag", "REFRESH_ENABLED", "maybe"},
		{"bad interval", "REFRESH_INTERVAL", "often"},
		{"bad batch size", "REFRESH_BATCH_SIZE", "many"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
