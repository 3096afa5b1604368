package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/utkarsh5026/futures/futures"
	"github.com/utkarsh5026/futures/pool"
	"go.uber.org/zap"
)

const version = "0.1.0"

type options struct {
	count      int
	delay      time.Duration
	workers    int
	retries    int
	configFile string
	progress   bool
	stats      bool
	verbose    bool
	trace      bool
	timeout    time.Duration
}

func newRootCmd() *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:   "scoop",
		Short: "Square a range of integers on a worker pool",
		Long: `scoop maps x -> x*x over 0..count-1 on a worker pool. Every call sleeps
for --delay first, so the elapsed time shows how the pool parallelises.

Results are always printed in input order.`,
		Example: `  # twelve inputs, 100ms each, one worker per CPU
  scoop

  # four workers, show the pool counters afterwards
  scoop -w 4 --stats

  # pool settings from a file, with a progress bar
  scoop --config pool.yaml --progress`,
		Version:      version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, o)
		},
	}

	cmd.CompletionOptions.DisableDefaultCmd = true

	f := cmd.Flags()
	f.IntVarP(&o.count, "count", "n", 12, "number of inputs")
	f.DurationVarP(&o.delay, "delay", "d", 100*time.Millisecond, "sleep inside every call")
	f.IntVarP(&o.workers, "workers", "w", 0, "worker count (default: GOMAXPROCS or config file)")
	f.IntVar(&o.retries, "retries", 1, "retries after a worker is lost")
	f.StringVarP(&o.configFile, "config", "c", "", "YAML pool configuration file")
	f.BoolVar(&o.progress, "progress", false, "show a progress bar")
	f.BoolVar(&o.stats, "stats", false, "print pool statistics when done")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "enable debug logging")
	f.BoolVar(&o.trace, "trace", false, "write OpenTelemetry spans to stderr")
	f.DurationVar(&o.timeout, "timeout", 0, "per-result wait bound (0 = none)")

	return cmd
}

func run(cmd *cobra.Command, o *options) error {
	if o.count < 0 {
		return fmt.Errorf("--count must not be negative, got %d", o.count)
	}

	log := newLogger(cmd.ErrOrStderr(), o.verbose)
	defer func() { _ = log.Sync() }()

	opts := []pool.Option{pool.WithLogger(log)}

	if o.configFile != "" {
		cfg, err := pool.LoadConfig(o.configFile)
		if err != nil {
			return err
		}
		opts = append(opts, cfg.Options()...)
	}
	if o.workers > 0 {
		opts = append(opts, pool.WithWorkerCount(o.workers))
	}
	if cmd.Flags().Changed("retries") {
		opts = append(opts, pool.WithMaxRetries(o.retries))
	}

	if o.trace {
		tp, err := newTracerProvider(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer func() { _ = tp.Shutdown(context.Background()) }()
		opts = append(opts, pool.WithTracerProvider(tp))
	}

	if o.progress && o.count > 0 {
		bar := newProgressBar(cmd.ErrOrStderr(), o.count)
		opts = append(opts, pool.WithOnTaskEnd(func(pool.TaskEvent) {
			_ = bar.Add(1)
		}))
		defer func() { _ = bar.Finish() }()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pool.New[int, int](opts...)
	if err := p.Start(ctx); err != nil {
		return err
	}

	log.Debug("squaring", zap.Int("count", o.count), zap.Duration("delay", o.delay), zap.Int("workers", p.WorkerCount()))

	start := time.Now()
	values, err := futures.Map(ctx, p, slowSquare(o.delay), inputs(o.count), futures.WithTimeout(o.timeout))
	elapsed := time.Since(start)

	if serr := p.Shutdown(5 * time.Second); serr != nil {
		log.Warn("pool shutdown", zap.Error(serr))
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printResults(out, values, elapsed)
	if o.stats {
		printStats(out, p.Stats(), p.Workers())
	}
	return nil
}

func slowSquare(delay time.Duration) futures.ProcessFunc[int, int] {
	return func(ctx context.Context, x int) (int, error) {
		if delay > 0 {
			t := time.NewTimer(delay)
			defer t.Stop()
			select {
			case <-t.C:
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}
		return x * x, nil
	}
}

func inputs(n int) []int {
	in := make([]int, n)
	for i := range in {
		in[i] = i
	}
	return in
}
