// Command qtest runs queue command scripts against ringqueue, either
// interactively from stdin or from a file.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/timzifer/ringqueue/internal/console"
	"github.com/timzifer/ringqueue/internal/telemetry"
)

type flags struct {
	file       string
	failRate   int
	seed       int64
	bufferSize int
	logLevel   string
	verify     bool
}

func newRootCommand() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "qtest",
		Short:         "Run queue commands against a ring-based string queue",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), f)
		},
	}

	cmd.Flags().StringVarP(&f.file, "file", "f", "", "read commands from `path` instead of stdin")
	cmd.Flags().IntVar(&f.failRate, "fail-rate", 0, "percentage of allocations that fail on purpose")
	cmd.Flags().Int64Var(&f.seed, "seed", 1, "seed for allocation fault injection")
	cmd.Flags().IntVar(&f.bufferSize, "buffer-size", 1024, "size of the buffer removed values are copied into")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")
	cmd.Flags().BoolVar(&f.verify, "verify", false, "check queue consistency after every mutating command")

	return cmd
}

func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, f flags) error {
	if f.failRate < 0 || f.failRate > 100 {
		return fmt.Errorf("fail-rate must be within 0..100, got %d", f.failRate)
	}

	level := hclog.LevelFromString(f.logLevel)
	if level == hclog.NoLevel {
		return fmt.Errorf("unknown log level %q", f.logLevel)
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "qtest",
		Level:  level,
		Output: stderr,
	})

	in := stdin
	if f.file != "" {
		file, err := os.Open(f.file)
		if err != nil {
			return err
		}
		defer file.Close()
		in = file
	}

	it := console.New(console.Config{
		Out:        stdout,
		Logger:     logger,
		FailRate:   f.failRate,
		Seed:       f.seed,
		BufferSize: f.bufferSize,
		Verify:     f.verify,
	})

	runErr := it.Run(ctx, in)
	closeErr := it.Close()

	attempts, failures, average := telemetry.DefaultOpMetrics().Snapshot()
	allocated, released, allocFailures, _ := telemetry.DefaultAllocMetrics().Snapshot()
	logger.Info("finished",
		"commands", attempts,
		"failed", failures,
		"avg", average,
		"allocated", allocated,
		"released", released,
		"alloc_failures", allocFailures,
	)

	return multierror.Append(runErr, closeErr).ErrorOrNil()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
