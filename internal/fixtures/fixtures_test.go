package fixtures

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/process"
)

func TestMain(m *testing.M) {
	process.DispatchAndExit()
	os.Exit(m.Run())
}

func newEnv(t *testing.T) (*Env, *bytes.Buffer) {
	t.Helper()

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	reaper := process.NewReaper(nil).WithMetrics(metrics)
	spawner, err := process.NewSpawner(reaper, nil)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	return &Env{
		Spawner: spawner.WithMetrics(metrics),
		Reaper:  reaper,
		Metrics: metrics,
		Config: config.FixtureConfig{
			ChildSleep:   100 * time.Millisecond,
			ZombieLinger: 100 * time.Millisecond,
			PollInterval: 10 * time.Millisecond,
		},
		Out: out,
	}, out
}

func run(t *testing.T, env *Env, name string, args ...string) (int, error) {
	t.Helper()
	f, ok := Lookup(name)
	require.True(t, ok, name)
	return f.Run(context.Background(), env, args)
}

func TestCatalog(t *testing.T) {
	var names []string
	for _, f := range All() {
		names = append(names, f.Name)
		assert.NotEmpty(t, f.Summary)
		assert.NotEmpty(t, f.Usage)
	}
	assert.Equal(t, []string{"call-chain", "echo-line", "multi-pipe", "nothing", "sleepy-print", "zombie"}, names)

	_, ok := Lookup("missing")
	assert.False(t, ok)
}

func TestEchoLine(t *testing.T) {
	env, out := newEnv(t)

	code, err := run(t, env, "echo-line")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "hello\n", out.String())

	for _, e := range env.Reaper.Snapshot() {
		assert.Equal(t, process.StateReaped, e.Status.State)
	}
}

func TestEchoLineCustom(t *testing.T) {
	env, out := newEnv(t)

	code, err := run(t, env, "echo-line", "ping")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "ping\n", out.String())
}

func TestMultiPipe(t *testing.T) {
	env, _ := newEnv(t)

	start := time.Now()
	code, err := run(t, env, "multi-pipe")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.GreaterOrEqual(t, time.Since(start), env.Config.ChildSleep)
}

func TestZombie(t *testing.T) {
	env, _ := newEnv(t)

	code, err := run(t, env, "zombie")
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	entries := env.Reaper.Snapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, process.StateReaped, entries[0].Status.State)
}

func TestNothing(t *testing.T) {
	env, _ := newEnv(t)

	code, err := run(t, env, "nothing")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestCancelledWaitKillsChild(t *testing.T) {
	env, _ := newEnv(t)
	env.Config.ChildSleep = time.Minute

	f, _ := Lookup("multi-pipe")
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	code, err := f.Run(ctx, env, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, code)

	entries := env.Reaper.Snapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, process.StateReaped, entries[0].Status.State)
}

func TestSleepyPrint(t *testing.T) {
	orig := tick
	tick = time.Millisecond
	t.Cleanup(func() { tick = orig })

	env, out := newEnv(t)
	code, err := run(t, env, "sleepy-print", "3")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "0\n1\n2\n", out.String())
}

func TestSleepyPrintUsage(t *testing.T) {
	env, out := newEnv(t)

	for _, args := range [][]string{nil, {"0"}, {"abc"}, {"1", "2"}} {
		code, err := run(t, env, "sleepy-print", args...)
		assert.ErrorIs(t, err, ErrUsage, "%v", args)
		assert.Contains(t, err.Error(), "<seconds to sleep>")
		assert.Equal(t, 1, code)
	}
	assert.Empty(t, out.String())
}

func TestSleepyPrintLeadingDigits(t *testing.T) {
	orig := tick
	tick = time.Millisecond
	t.Cleanup(func() { tick = orig })

	env, out := newEnv(t)
	code, err := run(t, env, "sleepy-print", "2abc")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "0\n1\n", out.String())
}

func TestLeadingUint(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"5", 5, true},
		{"5abc", 5, true},
		{" +12s", 12, true},
		{"007", 7, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-3", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := leadingUint(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCallChain(t *testing.T) {
	env, out := newEnv(t)

	code, err := run(t, env, "call-chain")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "func1(42) was called\n"+
		"func2(42, 5) was called\n"+
		"sum = 47\n"+
		"Hello from func3! 100\n"+
		"Hello from func3! 100\n"+
		"end of func1\n", out.String())
}

func TestExtraArgsAreUsageErrors(t *testing.T) {
	env, _ := newEnv(t)

	for _, name := range []string{"multi-pipe", "zombie", "nothing", "call-chain"} {
		_, err := run(t, env, name, "extra")
		assert.ErrorIs(t, err, ErrUsage, name)
	}
	_, err := run(t, env, "echo-line", "a", "b")
	assert.ErrorIs(t, err, ErrUsage)
	assert.Empty(t, env.Reaper.Snapshot())
}

func TestUsageError(t *testing.T) {
	env, _ := newEnv(t)

	_, err := run(t, env, "sleepy-print")
	var usage *UsageError
	require.ErrorAs(t, err, &usage)
	assert.Equal(t, "sleepy-print <seconds to sleep>", usage.Usage)
	assert.Equal(t, "usage: sleepy-print <seconds to sleep>", err.Error())
}
