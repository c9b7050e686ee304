// Package config provides 12-factor configuration management for procfixture.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables.
//
// Configuration Sections:
//   - Logging: Log level and output format
//   - Fixture: Child sleep, zombie linger and poll interval
//   - API: Collaborator HTTP API address, rate limit, CORS origins, shutdown
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("API on %s\n", cfg.API.Addr())
//
// Environment Variables:
//   - LOG_LEVEL, LOG_DEV
//   - FIXTURE_CHILD_SLEEP, FIXTURE_ZOMBIE_LINGER, FIXTURE_POLL_INTERVAL
//   - API_HOST, API_PORT, API_RATE_LIMIT, API_RATE_BURST,
//     API_CORS_ORIGINS, API_SHUTDOWN_TIMEOUT
package config
