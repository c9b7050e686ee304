package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Fixture config
	assert.Equal(t, 2*time.Second, cfg.Fixture.ChildSleep)
	assert.Equal(t, 2*time.Second, cfg.Fixture.ZombieLinger)
	assert.Equal(t, 50*time.Millisecond, cfg.Fixture.PollInterval)

	// API config
	assert.Equal(t, "127.0.0.1:8070", cfg.API.Addr())
	assert.Equal(t, 50, cfg.API.RateLimit)
	assert.Equal(t, 100, cfg.API.RateBurst)
	assert.Equal(t, []string{"*"}, cfg.API.CORSOrigins)
	assert.Equal(t, 5*time.Second, cfg.API.ShutdownTimeout)
}


func TestLoadOrDefault(t *testing.T) {
	// Should return default when no env vars set
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "8070", cfg.API.Port)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"LOG_LEVEL":             "debug",
		"LOG_DEV":               "true",
		"FIXTURE_CHILD_SLEEP":   "250ms",
		"FIXTURE_ZOMBIE_LINGER": "1s",
		"FIXTURE_POLL_INTERVAL": "5ms",
		"API_HOST":              "0.0.0.0",
		"API_PORT":              "9100",
		"API_RATE_LIMIT":        "5",
		"API_CORS_ORIGINS":      "http://a.test,http://b.test",
	}

	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 250*time.Millisecond, cfg.Fixture.ChildSleep)
	assert.Equal(t, time.Second, cfg.Fixture.ZombieLinger)
	assert.Equal(t, 5*time.Millisecond, cfg.Fixture.PollInterval)
	assert.Equal(t, "0.0.0.0:9100", cfg.API.Addr())
	assert.Equal(t, 5, cfg.API.RateLimit)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.API.CORSOrigins)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Verify overridden values
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Verify default values still apply
	assert.Equal(t, 2*time.Second, cfg.Fixture.ChildSleep)
	assert.Equal(t, "127.0.0.1", cfg.API.Host)
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("FIXTURE_CHILD_SLEEP", "forever")

	_, err := Load()
	assert.Error(t, err)

	// LoadOrDefault swallows the error
	cfg := LoadOrDefault()
	assert.Equal(t, Default().Fixture.ChildSleep, cfg.Fixture.ChildSleep)
}

func TestLoadIgnoresUnrelatedVariables(t *testing.T) {
	require.NoError(t, os.Unsetenv("API_PORT"))
	t.Setenv("PORT", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8070", cfg.API.Port)
}
