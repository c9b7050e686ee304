// Package fixtures holds small runnable programs that put processes and
// pipes into well-known states for an inspector to look at.
//
// Each fixture has a parent side, run through Fixture.Run, and registers
// the child procedures it spawns with package process. Binaries that run
// fixtures must call process.DispatchAndExit first so those children work.
//
// Fixtures:
//
//	multi-pipe     child holds two pipes on stdin/stdout while the parent waits
//	zombie         child exits at once and stays a zombie for a while
//	nothing        child exits 0
//	echo-line      one line round-trips through a child
//	sleepy-print   counter printed once per second
//	call-chain     fixed chain of nested calls
package fixtures
