package inspect

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/mattn/go-isatty"
)

var pipeColors = []string{
	"\x1b[38;5;9m",
	"\x1b[38;5;10m",
	"\x1b[38;5;11m",
	"\x1b[38;5;12m",
	"\x1b[38;5;13m",
	"\x1b[38;5;14m",
}

const clearColor = "\x1b[0m"

// Report writes p, its descriptor table and its children's tables to w.
// Pipe names are colored when w is a terminal so both ends of a pipe are
// easy to match up.
func (in *Inspector) Report(w io.Writer, p Process) error {
	color := isTerminal(w)

	if err := writeProcess(w, p, color); err != nil {
		return err
	}

	children, err := in.Children(p.PID)
	if err != nil {
		return err
	}
	for _, child := range children {
		fmt.Fprintln(w)
		if err := writeProcess(w, child, color); err != nil {
			return err
		}
	}
	return nil
}

func writeProcess(w io.Writer, p Process, color bool) error {
	fmt.Fprintf(w, "======= %s =======\n", p)

	files, err := p.OpenFiles()
	if errors.Is(err, ErrUnavailable) {
		fmt.Fprintln(w, "Warning: could not inspect file descriptors for this process! "+
			"It might have exited just as we were about to look at its fd table, "+
			"or it might have exited a while ago and is waiting for the parent "+
			"to reap it.")
		return nil
	}
	if err != nil {
		return err
	}

	for _, f := range files {
		fmt.Fprintf(w, "%5d  %-12s cursor: %-6d %s\n", f.FD, f.Access, f.Cursor, displayName(f.Name, color))
	}
	return nil
}

// displayName colors pipe names by a hash of the name, so the same pipe
// gets the same color everywhere.
func displayName(name string, color bool) string {
	if !color || !strings.HasPrefix(name, "<pipe") {
		return name
	}
	c := pipeColors[xxhash.Sum64String(name)%uint64(len(pipeColors))]
	return c + name + clearColor
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}
