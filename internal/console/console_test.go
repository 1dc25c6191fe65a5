package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"

	"github.com/timzifer/ringqueue/internal/telemetry"
)

func newTestInterpreter(t *testing.T, cfg Config) (*Interpreter, *bytes.Buffer, *telemetry.AllocMetrics) {
	t.Helper()

	out := &bytes.Buffer{}
	metrics := &telemetry.AllocMetrics{}
	cfg.Out = out
	cfg.Metrics = metrics
	if cfg.Ops == nil {
		cfg.Ops = &telemetry.OpMetrics{}
	}
	return New(cfg), out, metrics
}

func run(t *testing.T, it *Interpreter, script string) error {
	t.Helper()
	return it.Run(context.Background(), strings.NewReader(script))
}

func TestRunScript(t *testing.T) {
	it, out, _ := newTestInterpreter(t, Config{Verify: true})

	script := `
# build a queue and transform it
new
it 5
it 2
it 9
it 3
it 8
size
reverse
sort
rh 2
rt 9
ascend
show
free
leaks
`
	if err := run(t, it, script); err != nil {
		t.Fatalf("script failed: %v", err)
	}
	if err := it.Close(); err != nil {
		t.Fatalf("close reported %v", err)
	}

	output := out.String()
	for _, want := range []string{
		"q[0] = [5 2 9 3 8]",
		"Queue size = 5",
		"q[0] = [8 3 9 2 5]",
		"q[0] = [2 3 5 8 9]",
		"Removed 2 from queue",
		"Removed 9 from queue",
		"q[0] = [3 5 8]",
		"freed q[0]",
		"0 blocks outstanding",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestRunCollectsFailuresAndContinues(t *testing.T) {
	it, out, _ := newTestInterpreter(t, Config{})

	script := `
rh
bogus
new
it a
rh b
it c
`
	err := run(t, it, script)
	if err == nil {
		t.Fatalf("expected failures to be reported")
	}

	var merr *multierror.Error
	if !errors.As(err, &merr) {
		t.Fatalf("expected multierror, got %T", err)
	}
	if len(merr.Errors) != 3 {
		t.Fatalf("expected 3 failures, got %d: %v", len(merr.Errors), merr.Errors)
	}
	if !errors.Is(merr.Errors[0], ErrNoQueue) {
		t.Fatalf("expected first failure to be ErrNoQueue, got %v", merr.Errors[0])
	}
	if !errors.Is(merr.Errors[1], ErrUnknownCommand) {
		t.Fatalf("expected second failure to be ErrUnknownCommand, got %v", merr.Errors[1])
	}
	if !errors.Is(merr.Errors[2], ErrMismatch) {
		t.Fatalf("expected third failure to be ErrMismatch, got %v", merr.Errors[2])
	}
	if !strings.Contains(merr.Errors[2].Error(), "line 6") {
		t.Fatalf("expected failure to carry its line number, got %v", merr.Errors[2])
	}

	if !strings.Contains(out.String(), "q[0] = [c]") {
		t.Fatalf("expected script to continue after failures, got:\n%s", out.String())
	}
	if err := it.Close(); err != nil {
		t.Fatalf("close reported %v", err)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	it, _, _ := newTestInterpreter(t, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	executed := 0
	ctx = WithCommandObserver(ctx, func(name string, err error) {
		executed++
		if name == "new" {
			cancel()
		}
	})

	err := it.Run(ctx, strings.NewReader("new\nit a\nit b\n"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if executed != 1 {
		t.Fatalf("expected only the first command to run, got %d", executed)
	}
	if err := it.Close(); err != nil {
		t.Fatalf("close reported %v", err)
	}
}

func TestCommandObserverReceivesOutcome(t *testing.T) {
	it, _, _ := newTestInterpreter(t, Config{})

	var names []string
	var failures int
	ctx := WithCommandObserver(context.Background(), func(name string, err error) {
		names = append(names, name)
		if err != nil {
			failures++
		}
	})

	_ = it.Execute(ctx, "new")
	_ = it.Execute(ctx, "dm")
	_ = it.Execute(ctx, "it x")

	if strings.Join(names, ",") != "new,dm,it" {
		t.Fatalf("unexpected observed commands %v", names)
	}
	if failures != 1 {
		t.Fatalf("expected dm on empty queue to be the only failure, got %d", failures)
	}
	if err := it.Close(); err != nil {
		t.Fatalf("close reported %v", err)
	}
}

func TestExecuteTracesOperations(t *testing.T) {
	ops := &telemetry.OpMetrics{}
	it, _, _ := newTestInterpreter(t, Config{Ops: ops})
	ctx := context.Background()

	_ = it.Execute(ctx, "new")
	_ = it.Execute(ctx, "it a")
	_ = it.Execute(ctx, "it b")
	_ = it.Execute(ctx, "rh")
	_ = it.Execute(ctx, "rh")
	_ = it.Execute(ctx, "rh")

	attempts, failures, _ := ops.Snapshot()
	if attempts != 6 {
		t.Fatalf("expected 6 traced attempts, got %d", attempts)
	}
	if failures != 1 {
		t.Fatalf("expected 1 failure from removing on empty queue, got %d", failures)
	}
	if ops.Count("rh") != 3 || ops.Count("it") != 2 {
		t.Fatalf("unexpected per-command counts rh=%d it=%d", ops.Count("rh"), ops.Count("it"))
	}
	if err := it.Close(); err != nil {
		t.Fatalf("close reported %v", err)
	}
}

func TestMultipleQueuesAndMerge(t *testing.T) {
	it, out, _ := newTestInterpreter(t, Config{Verify: true})

	script := `
new
it c
it a
it f
new
it b
it e
new
it d
it g
it h
it i
it j
prev
prev
next
merge
size
`
	if err := run(t, it, script); err != nil {
		t.Fatalf("script failed: %v", err)
	}

	if got := len(it.Queues()); got != 1 {
		t.Fatalf("expected merge to leave a single queue, got %d", got)
	}
	if c := it.Current(); c == nil || c.Size != 10 || c.ID != 0 {
		t.Fatalf("expected current context to be q[0] with 10 elements, got %+v", c)
	}
	if !strings.Contains(out.String(), "Queue size = 10") {
		t.Fatalf("expected merge total in output, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "q[0] = [a b c d e f g h i j]") {
		t.Fatalf("expected merged queue in output, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "q[1] = [b e]") {
		t.Fatalf("expected next to select q[1], got:\n%s", out.String())
	}
	if err := it.Close(); err != nil {
		t.Fatalf("close reported %v", err)
	}
}

func TestTransformCommands(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{name: "swap", script: "new\nit 1 \nit 2\nit 3\nswap", want: "q[0] = [2 1 3]"},
		{name: "reverseK", script: "new\nit 1\nit 2\nit 3\nit 4\nit 5\nreverseK 3", want: "q[0] = [3 2 1 4 5]"},
		{name: "dm", script: "new\nit a\nit b\nit c\nit d\ndm", want: "q[0] = [a b d]"},
		{name: "dedup", script: "new\nit a\nit b 3\nit c\ndedup", want: "q[0] = [a c]"},
		{name: "descend", script: "new\nit 5\nit 2\nit 9\nit 3\nit 8\ndescend", want: "q[0] = [9 8]"},
		{name: "sort desc", script: "new\nih a\nih c\nih b\nsort desc", want: "q[0] = [c b a]"},
		{name: "ih repeat", script: "new\nih x 3", want: "q[0] = [x x x]"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			it, out, _ := newTestInterpreter(t, Config{Verify: true})
			if err := run(t, it, tc.script); err != nil {
				t.Fatalf("script failed: %v", err)
			}
			if !strings.Contains(out.String(), tc.want) {
				t.Fatalf("expected %q in output, got:\n%s", tc.want, out.String())
			}
			if err := it.Close(); err != nil {
				t.Fatalf("close reported %v", err)
			}
		})
	}
}

func TestRemoveTruncatesToBufferLength(t *testing.T) {
	it, out, _ := newTestInterpreter(t, Config{BufferSize: 4})

	if err := run(t, it, "new\nit abcdef\nrh abc"); err != nil {
		t.Fatalf("expected truncated removal to match abc: %v", err)
	}
	if !strings.Contains(out.String(), "Removed abc from queue") {
		t.Fatalf("expected truncated value in output, got:\n%s", out.String())
	}

	if err := run(t, it, "option length 16\nit abcdef\nrh abcdef"); err != nil {
		t.Fatalf("expected full value after raising the length: %v", err)
	}
	if err := it.Close(); err != nil {
		t.Fatalf("close reported %v", err)
	}
}

func TestFaultInjectionLeaksNothing(t *testing.T) {
	it, _, metrics := newTestInterpreter(t, Config{Seed: 42})

	script := `
new
option fail 50
it a 20
ih b 20
it c 20
option fail 0
sort
`
	// insert failures are expected; the queue must stay consistent and
	// everything must be released afterwards
	_ = run(t, it, script)

	c := it.Current()
	if c == nil {
		t.Fatalf("expected the first queue to survive")
	}
	if err := c.Queue.Verify(); err != nil {
		t.Fatalf("queue corrupted by injected faults: %v", err)
	}
	if n := c.Queue.Size(); n != c.Size {
		t.Fatalf("cached size %d drifted from actual %d", c.Size, n)
	}
	if _, _, failures, _ := metrics.Snapshot(); failures == 0 {
		t.Fatalf("expected some injected failures at 50%%")
	}

	if err := it.Close(); err != nil {
		t.Fatalf("expected no leaks after close, got %v", err)
	}
}

func TestCloseReportsLeaks(t *testing.T) {
	it, _, metrics := newTestInterpreter(t, Config{})

	if err := run(t, it, "new\nit a"); err != nil {
		t.Fatalf("script failed: %v", err)
	}

	e := it.Current().Queue.RemoveHead(nil)
	it.Current().Size--

	if err := run(t, it, "free\nleaks"); !errors.Is(err, ErrLeak) {
		t.Fatalf("expected leaks command to report ErrLeak, got %v", err)
	}
	if err := it.Close(); !errors.Is(err, ErrLeak) {
		t.Fatalf("expected Close to report ErrLeak, got %v", err)
	}

	e.Release()
	if n := metrics.Outstanding(); n != 0 {
		t.Fatalf("expected release to clear the leak, got %d", n)
	}
}

func TestVerifyCatchesSizeDrift(t *testing.T) {
	it, _, _ := newTestInterpreter(t, Config{Verify: true})

	if err := run(t, it, "new\nit a"); err != nil {
		t.Fatalf("script failed: %v", err)
	}
	it.Current().Size = 5

	if err := it.Execute(context.Background(), "swap"); err == nil {
		t.Fatalf("expected verification to flag the size drift")
	}
	if err := it.Execute(context.Background(), "size"); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected size to report ErrMismatch, got %v", err)
	}
	if err := it.Close(); err != nil {
		t.Fatalf("close reported %v", err)
	}
}

func TestOptionAndUsageErrors(t *testing.T) {
	it, out, _ := newTestInterpreter(t, Config{})
	ctx := context.Background()

	for _, line := range []string{
		"option fail 101",
		"option length 0",
		"option colour 1",
		"option fail x",
		"reverseK",
		"ih",
		"it a 0",
		"sort sideways",
		"new extra",
	} {
		if err := it.Execute(ctx, line); !errors.Is(err, ErrUsage) {
			t.Fatalf("%q: expected ErrUsage, got %v", line, err)
		}
	}

	if err := it.Execute(ctx, "help"); err != nil {
		t.Fatalf("help failed: %v", err)
	}
	if !strings.Contains(out.String(), "reverseK <k>") {
		t.Fatalf("expected help to list reverseK, got:\n%s", out.String())
	}
	if err := it.Close(); err != nil {
		t.Fatalf("close reported %v", err)
	}
}
