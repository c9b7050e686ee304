// Package inspect reads a live process's descriptor table from /proc.
//
// It is the observer for the fixtures: given a pid or command name it
// lists the process, every open descriptor with its target, file cursor
// and access mode, and the same for each direct child. Zombies have no
// descriptor table left and report ErrUnavailable.
//
// Example Usage:
//
//	in, _ := inspect.New(logger)
//	p, err := in.Find("procfixture")
//	if err != nil {
//		return err
//	}
//	return in.Report(os.Stdout, p)
package inspect
