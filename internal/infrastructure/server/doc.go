// Package server wires the process API: routing, middleware and the
// HTTP server lifecycle.
//
// Middleware order: recovery, tracing, request metrics, CORS, then the
// optional per-IP rate limit.
//
// Example Usage:
//
//	srv := server.New(cfg.API, server.Deps{Reaper: reaper, Inspector: in, Logger: logger})
//	if err := srv.Run(ctx); err != nil {
//		return err
//	}
package server
