// Package middleware provides the HTTP middleware of the process API.
//
//   - CORS: cross-origin access for browser dashboards
//   - RateLimit: per-IP token bucket
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
