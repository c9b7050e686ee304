// Command procfixture runs process and pipe fixtures and inspects the
// descriptor tables of live processes.
//
// Usage:
//
//	procfixture list
//	procfixture run <fixture> [args...]
//	procfixture inspect <pid|command>
//	procfixture serve [--host h] [--port p] [fixture [args...]]
//
// The binary re-executes itself to start fixture children; main hands
// those off to process.DispatchAndExit before any command parsing.
//
// Configuration comes from the environment (LOG_LEVEL, LOG_DEV,
// FIXTURE_*, API_*), with flags taking precedence.
//
// Signals:
//   - SIGINT, SIGTERM: kill and reap waiting children, shut the API down
package main
