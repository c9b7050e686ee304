package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Logging LogConfig
	Fixture FixtureConfig
	API     APIConfig
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// FixtureConfig holds timing knobs for the fixture programs.
type FixtureConfig struct {
	// ChildSleep is how long the multi-pipe child holds its descriptors.
	ChildSleep time.Duration `envconfig:"FIXTURE_CHILD_SLEEP" default:"2s"`
	// ZombieLinger is how long the zombie fixture leaves its child unreaped.
	ZombieLinger time.Duration `envconfig:"FIXTURE_ZOMBIE_LINGER" default:"2s"`
	// PollInterval is the period of non-blocking waits in Poll loops.
	PollInterval time.Duration `envconfig:"FIXTURE_POLL_INTERVAL" default:"50ms"`
}

// APIConfig holds the collaborator HTTP API configuration.
type APIConfig struct {
	Host string `envconfig:"API_HOST" default:"127.0.0.1"`
	Port string `envconfig:"API_PORT" default:"8070"`

	// Per-client token bucket
	RateLimit int `envconfig:"API_RATE_LIMIT" default:"50"`
	RateBurst int `envconfig:"API_RATE_BURST" default:"100"`

	CORSOrigins     []string      `envconfig:"API_CORS_ORIGINS" default:"*"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"5s"`
}

// Addr returns the listen address.
func (c APIConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Fixture: FixtureConfig{
			ChildSleep:   2 * time.Second,
			ZombieLinger: 2 * time.Second,
			PollInterval: 50 * time.Millisecond,
		},
		API: APIConfig{
			Host:            "127.0.0.1",
			Port:            "8070",
			RateLimit:       50,
			RateBurst:       100,
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: 5 * time.Second,
		},
	}
}
