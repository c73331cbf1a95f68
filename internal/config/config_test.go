package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "LOG_FORMAT", "REFRESH_INTERVAL", "REFRESH_SCHEDULE",
		"FETCH_TIMEOUT", "HTTP_TIMEOUT", "UPSTREAM_BASE_URL", "DATA_DIR", "COLD_START_WAIT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, time.Hour, cfg.RefreshInterval)
	assert.Equal(t, 2*time.Minute, cfg.FetchTimeout)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Empty(t, cfg.UpstreamBaseURL)
	assert.True(t, cfg.ColdStartWait)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("REFRESH_INTERVAL", "30m")
	t.Setenv("REFRESH_SCHEDULE", "0 * * * *")
	t.Setenv("DATA_DIR", "/var/lib/covid")
	t.Setenv("COLD_START_WAIT", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, "0 * * * *", cfg.RefreshSchedule)
	assert.Equal(t, "/var/lib/covid", cfg.DataDir)
	assert.False(t, cfg.ColdStartWait)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unparsable interval", "REFRESH_INTERVAL", "soon"},
		{"interval below one minute", "REFRESH_INTERVAL", "10s"},
		{"bad cron expression", "REFRESH_SCHEDULE", "every hour"},
		{"unknown log level", "LOG_LEVEL", "verbose"},
		{"bad upstream url", "UPSTREAM_BASE_URL", "not a url"},
		{"non-numeric port", "PORT", "http"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
