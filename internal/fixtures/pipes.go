package fixtures

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/procfixture/internal/descriptor"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/process"
)

// Child procedures expect two pipes: Pipes()[0] feeds the child's input,
// Pipes()[1] carries its output.
var (
	multiPipeChild = process.Register("multi-pipe-child", func(c *process.Child) int {
		if err := wireStdio(c); err != nil {
			c.Logger.Error("Wiring stdio failed", zap.Error(err))
			return 1
		}

		if len(c.Args) != 1 {
			c.Logger.Error("Expected one hold duration", zap.Strings("args", c.Args))
			return 1
		}
		hold, err := time.ParseDuration(c.Args[0])
		if err != nil {
			c.Logger.Error("Bad hold duration", zap.Error(err))
			return 1
		}
		time.Sleep(hold)
		return 0
	})

	echoLineChild = process.Register("echo-line-child", func(c *process.Child) int {
		if err := wireStdio(c); err != nil {
			c.Logger.Error("Wiring stdio failed", zap.Error(err))
			return 1
		}

		line, err := bufio.NewReader(c.Stdin()).ReadString('\n')
		if err != nil && err != io.EOF {
			c.Logger.Error("Read failed", zap.Error(err))
			return 1
		}
		if _, err := io.WriteString(c.Stdout(), line); err != nil {
			c.Logger.Error("Write failed", zap.Error(err))
			return 1
		}
		return 0
	})
)

// wireStdio moves the first pipe's read end onto input and the second
// pipe's write end onto output, then closes all four raw handles.
func wireStdio(c *process.Child) error {
	pipes := c.Descriptors.Pipes()
	if len(pipes) < 2 {
		return fmt.Errorf("need two pipes, have %d", len(pipes))
	}
	in, out := pipes[0], pipes[1]
	set := c.Descriptors

	if err := set.Redirect(in.Read, descriptor.Input); err != nil {
		return err
	}
	if err := set.Redirect(out.Write, descriptor.Output); err != nil {
		return err
	}
	return closeAll(set, in.Read, in.Write, out.Read, out.Write)
}

func init() {
	add(Fixture{
		Name:    "multi-pipe",
		Summary: "Child holds two pipes on its standard streams while the parent waits",
		Usage:   "multi-pipe",
		Run:     runMultiPipe,
	})
	add(Fixture{
		Name:    "echo-line",
		Summary: "Round-trip one line through a child over two pipes",
		Usage:   "echo-line [line]",
		Run:     runEchoLine,
	})
}

// runMultiPipe keeps P1's write end and P2's read end open in the parent
// while it waits, so an inspector sees both directions of the data path.
func runMultiPipe(ctx context.Context, env *Env, args []string) (int, error) {
	if len(args) != 0 {
		return 1, usageError("multi-pipe")
	}

	set := env.newSet()
	p1, err := set.CreatePipe()
	if err != nil {
		return 1, err
	}
	p2, err := set.CreatePipe()
	if err != nil {
		return 1, closeAndWrap(set, err, p1.Read, p1.Write)
	}

	h, err := env.Spawner.Spawn(multiPipeChild, set, env.Config.ChildSleep.String())
	if err != nil {
		return 1, closeAndWrap(set, err, p1.Read, p1.Write, p2.Read, p2.Write)
	}

	if err := closeAll(set, p1.Read, p2.Write); err != nil {
		env.abandon(h)
		return 1, err
	}
	env.logger().Info("Waiting for child", zap.Stringer("child", h), zap.Any("open", set.Open()))

	status, err := env.wait(ctx, h)
	if cerr := closeAll(set, p1.Write, p2.Read); err == nil {
		err = cerr
	}
	if err != nil {
		return 1, err
	}
	return status.Code, nil
}

func runEchoLine(ctx context.Context, env *Env, args []string) (int, error) {
	if len(args) > 1 {
		return 1, usageError("echo-line [line]")
	}
	line := "hello"
	if len(args) == 1 {
		line = args[0]
	}
	line += "\n"

	set := env.newSet()
	p1, err := set.CreatePipe()
	if err != nil {
		return 1, err
	}
	p2, err := set.CreatePipe()
	if err != nil {
		return 1, closeAndWrap(set, err, p1.Read, p1.Write)
	}

	h, err := env.Spawner.Spawn(echoLineChild, set)
	if err != nil {
		return 1, closeAndWrap(set, err, p1.Read, p1.Write, p2.Read, p2.Write)
	}

	// Drop our copies of the child's ends before touching the data path,
	// otherwise the read below never sees end-of-stream.
	if err := closeAll(set, p1.Read, p2.Write); err != nil {
		env.abandon(h)
		return 1, closeAndWrap(set, err, p1.Write, p2.Read)
	}

	_, werr := set.Write(p1.Write, []byte(line))
	if err := set.Close(p1.Write); werr == nil {
		werr = err
	}

	got, rerr := io.ReadAll(set.Reader(p2.Read))
	if err := set.Close(p2.Read); rerr == nil {
		rerr = err
	}

	status, err := env.wait(ctx, h)
	if err != nil {
		return 1, err
	}
	if werr != nil {
		return 1, werr
	}
	if rerr != nil {
		return 1, rerr
	}

	fmt.Fprint(env.Out, string(got))
	if string(got) != line {
		return 1, fmt.Errorf("echo mismatch: sent %q, got %q", line, got)
	}
	return status.Code, nil
}

// closeAndWrap closes handles after a failure and returns the original error.
func closeAndWrap(set *descriptor.Set, err error, handles ...descriptor.Handle) error {
	_ = closeAll(set, handles...)
	return err
}
