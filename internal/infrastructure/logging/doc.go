// Package logging provides structured logging using uber/zap.
//
// Two modes are available:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// All output goes to stderr. Fixture children redirect their standard
// output onto pipes, so stdout is never a safe place for log lines.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Spawned child", zap.Int("pid", pid))
//	logger.Error("Wait failed", zap.Error(err))
package logging
