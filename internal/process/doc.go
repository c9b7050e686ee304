// Package process spawns children that run registered procedures and
// reaps them exactly once.
//
// Go cannot fork and keep running a closure in the child, so a spawn
// re-executes the current binary with the procedure name and a snapshot of
// the parent's descriptor set in its environment. The binary's main (or
// TestMain) calls DispatchAndExit first; in the child that runs the
// procedure and exits with its code.
//
// Descriptor inheritance mirrors fork: every handle open in the parent's
// descriptor.Set is present in the child under the same number, on top of
// the parent's standard streams. Parent and child then own independent
// copies and each closes the ends it does not use.
//
// Lifecycle of a child as seen by the Reaper:
//
//	running --(child ends)--> zombie --(Wait)--> reaped
//
// Query observes zombie state without collecting it, so the exit status
// survives until Wait. A second Wait on a reaped handle fails with
// ErrNoSuchProcess; it never blocks.
//
// Example Usage:
//
//	var echo = process.Register("echo", func(c *process.Child) int {
//		// redirect, close, work...
//		return 0
//	})
//
//	func main() {
//		process.DispatchAndExit()
//
//		reaper := process.NewReaper(logger)
//		spawner, _ := process.NewSpawner(reaper, logger)
//		h, _ := spawner.Spawn(echo, set)
//		status, _ := reaper.Wait(h, process.Blocking)
//	}
package process
