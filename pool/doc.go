// Package pool provides a generic, fault-tolerant worker pool that executes
// batches of tasks and settles one Future per task.
//
// The primary type is Pool[T, R], a fixed-size set of workers which take
// tasks of type T from a shared FIFO ready-queue and produce results of type
// R. Work is handed to the pool through a Dispatcher, which turns a function
// and a list of inputs into index-aligned futures.
//
// # Basic Usage
//
//	ctx := context.Background()
//	p := pool.New[int, int](pool.WithWorkerCount(4))
//	if err := p.Start(ctx); err != nil {
//	    return err
//	}
//	defer p.Shutdown(5 * time.Second)
//
//	futures, err := pool.NewDispatcher(p).Submit(ctx, func(ctx context.Context, x int) (int, error) {
//	    return x * x, nil
//	}, []int{1, 2, 3})
//	v, err := futures[2].Await() // 9
//
// # Worker Loss
//
// A worker runs each attempt through a Runner. The default LocalRunner calls
// the function in the worker goroutine and never fails. A Runner that reports
// an environment error marks the worker Dead; the task goes back to the front
// of the queue and a replacement worker is started:
//
//	p := pool.New[string, []byte](
//	    pool.WithRunner[string, []byte](remote),
//	    pool.WithMaxRetries(2),
//	    pool.WithRespawnBackoff(pool.BackoffExponential, 100*time.Millisecond, 5*time.Second),
//	)
//
// A task is retried at most MaxRetries times. The next loss fails its future
// with a *WorkerLostError. With WithAutoReplace(false) the pool shrinks
// instead, and once no worker is left every queued task fails.
//
// Errors returned by the function, and panics raised by it, are never
// retried. They reach the future as a *UserFunctionError.
//
// # Rate Limiting
//
//	p := pool.New[string, Response](
//	    pool.WithWorkerCount(10),
//	    pool.WithRateLimit(5.0, 10), // 5 tasks/sec, burst of 10
//	)
//
// # Observability
//
// WithLogger attaches a zap logger and WithTracerProvider an OpenTelemetry
// provider; every batch and every task attempt gets a span. Stats returns
// counters and an execution-latency summary.
//
// # Configuration Files
//
// LoadConfig reads the same settings from YAML:
//
//	cfg, err := pool.LoadConfig("pool.yaml")
//	p := pool.New[int, int](cfg.Options()...)
package pool
