// Package descriptor tracks pipe handles and their redirection onto the
// standard stream slots of the current process.
//
// Every handle is owned by exactly one Set. Redirect never closes
// anything, and Close on a dead handle is an error rather than a no-op:
// a silently ignored double close hides the stray duplicate that keeps a
// reader from ever seeing end-of-stream.
//
// Example Usage:
//
//	set := descriptor.NewSet(logger)
//	p, err := set.CreatePipe()
//	// ... spawn a child that writes to p.Write ...
//	set.Close(p.Write) // the parent does not write
//	data, _ := io.ReadAll(set.Reader(p.Read))
//	set.Close(p.Read)
package descriptor
