package fixtures

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// tick is the sleepy-print period.
var tick = time.Second

func init() {
	add(Fixture{
		Name:    "sleepy-print",
		Summary: "Print a counter once per second for the given number of seconds",
		Usage:   "sleepy-print <seconds to sleep>",
		Run:     runSleepyPrint,
	})
	add(Fixture{
		Name:    "call-chain",
		Summary: "Print a short, fixed chain of nested calls",
		Usage:   "call-chain",
		Run:     runCallChain,
	})
}

func runSleepyPrint(ctx context.Context, env *Env, args []string) (int, error) {
	if len(args) != 1 {
		return 1, usageError("sleepy-print <seconds to sleep>")
	}
	seconds, ok := leadingUint(args[0])
	if !ok || seconds == 0 {
		return 1, usageError("sleepy-print <seconds to sleep>")
	}

	for i := uint64(0); i < seconds; i++ {
		fmt.Fprintln(env.Out, i)
		if err := sleep(ctx, tick); err != nil {
			return 1, err
		}
	}
	return 0, nil
}

// leadingUint parses the decimal digits at the start of s, after optional
// blanks and a plus sign, so "5s" reads as 5. Anything after them is ignored.
func leadingUint(s string) (uint64, bool) {
	s = strings.TrimLeft(s, " \t\n\v\f\r")
	s = strings.TrimPrefix(s, "+")
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.ParseUint(s[:end], 10, 64)
	return n, err == nil
}

// callChain holds the value the chain shares between calls.
type callChain struct {
	out    io.Writer
	global int
}

func runCallChain(ctx context.Context, env *Env, args []string) (int, error) {
	if len(args) != 0 {
		return 1, usageError("call-chain")
	}
	c := callChain{out: env.Out, global: 5}
	c.func1(42)
	return 0, nil
}

func (c callChain) func1(a int) {
	fmt.Fprintf(c.out, "func1(%d) was called\n", a)
	c.func2(a, c.global)
	c.func3(100)
	fmt.Fprintln(c.out, "end of func1")
}

func (c callChain) func2(a, b int) {
	fmt.Fprintf(c.out, "func2(%d, %d) was called\n", a, b)
	fmt.Fprintf(c.out, "sum = %d\n", a+b)
	c.func3(100)
}

func (c callChain) func3(a int) {
	fmt.Fprintf(c.out, "Hello from func3! %d\n", a)
}
