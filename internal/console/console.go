package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/timzifer/ringqueue"
	"github.com/timzifer/ringqueue/internal/telemetry"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("bad arguments")
	ErrNoQueue        = errors.New("no queue selected")
	ErrFailed         = errors.New("operation failed")
	ErrMismatch       = errors.New("unexpected value")
	ErrLeak           = errors.New("blocks still allocated")
)

const defaultBufferSize = 1024

// Config beschreibt die Laufzeitoptionen des Interpreters.
type Config struct {
	Out        io.Writer
	Logger     hclog.Logger
	// FailRate is the percentage of allocations that fail on purpose.
	FailRate   int
	Seed       int64
	BufferSize int
	// Verify checks every queue touched by a mutating command.
	Verify     bool
	Metrics    *telemetry.AllocMetrics
	Ops        *telemetry.OpMetrics
}

// Interpreter executes queue commands against a chain of queue contexts. The
// last created queue is current until prev or next moves the selection.
type Interpreter struct {
	out     io.Writer
	log     hclog.Logger
	metrics *telemetry.AllocMetrics
	ops     *telemetry.OpMetrics
	rng     *rand.Rand

	failRate   int
	bufferSize int
	verify     bool

	chain   []*ringqueue.Context
	current int
	nextID  int
}

type commandObserverKey struct{}

// WithCommandObserver returns a context that notifies observer after every
// command Run executes, with the command name and its outcome.
func WithCommandObserver(ctx context.Context, observer func(name string, err error)) context.Context {
	if observer == nil {
		return ctx
	}
	return context.WithValue(ctx, commandObserverKey{}, observer)
}

// New erzeugt einen neuen Interpreter.
func New(cfg Config) *Interpreter {
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.DefaultAllocMetrics()
	}
	if cfg.Ops == nil {
		cfg.Ops = telemetry.DefaultOpMetrics()
	}

	return &Interpreter{
		out:        cfg.Out,
		log:        cfg.Logger.Named("console"),
		metrics:    cfg.Metrics,
		ops:        cfg.Ops,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		failRate:   cfg.FailRate,
		bufferSize: cfg.BufferSize,
		verify:     cfg.Verify,
		current:    -1,
	}
}

// Run executes every line read from r. Blank lines and lines starting with #
// are skipped. A failing command does not stop the script; all failures are
// returned together. Cancelling ctx stops before the next command.
func (it *Interpreter) Run(ctx context.Context, r io.Reader) error {
	var result *multierror.Error

	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := it.Execute(ctx, line); err != nil {
			result = multierror.Append(result, fmt.Errorf("line %d: %w", lineNo, err))
		}
	}
	if err := scanner.Err(); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

// Execute runs a single command line.
func (it *Interpreter) Execute(ctx context.Context, line string) (err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := fields[0], fields[1:]

	observer, _ := ctx.Value(commandObserverKey{}).(func(string, error))
	_, finish := it.ops.Trace(ctx, name)
	defer func() {
		finish(err)
		if observer != nil {
			observer(name, err)
		}
	}()

	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	it.log.Debug("executing", "cmd", name, "args", args)
	if err = cmd.run(it, args); err != nil {
		it.log.Warn("command failed", "cmd", name, "error", err)
		return fmt.Errorf("%s: %w", name, err)
	}

	if cmd.mutates && it.verify {
		if err = it.verifyAll(); err != nil {
			it.log.Error("queue corrupted", "cmd", name, "error", err)
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func (it *Interpreter) verifyAll() error {
	for _, c := range it.chain {
		if err := c.Queue.Verify(); err != nil {
			return fmt.Errorf("queue %d: %w", c.ID, err)
		}
		if n := c.Queue.Size(); n != c.Size {
			return fmt.Errorf("queue %d: cached size %d, actual %d", c.ID, c.Size, n)
		}
	}
	return nil
}

// Close frees every remaining queue and reports blocks that are still
// allocated afterwards.
func (it *Interpreter) Close() error {
	for _, c := range it.chain {
		c.Queue.Free()
	}
	it.chain = nil
	it.current = -1

	if n := it.metrics.Outstanding(); n != 0 {
		it.log.Error("leak detected", "blocks", n)
		return fmt.Errorf("%w: %d", ErrLeak, n)
	}
	it.log.Debug("all queues freed")
	return nil
}

// Queues returns the contexts of the current chain.
func (it *Interpreter) Queues() []*ringqueue.Context {
	return append([]*ringqueue.Context(nil), it.chain...)
}

// Current returns the selected context, or nil when there is none.
func (it *Interpreter) Current() *ringqueue.Context {
	if it.current < 0 || it.current >= len(it.chain) {
		return nil
	}
	return it.chain[it.current]
}

func (it *Interpreter) fault(kind ringqueue.AllocKind) bool {
	if it.failRate <= 0 {
		return false
	}
	fail := it.rng.Intn(100) < it.failRate
	if fail {
		it.log.Trace("injecting allocation failure", "kind", kind.String())
	}
	return fail
}
