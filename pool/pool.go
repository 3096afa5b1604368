package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/utkarsh5026/futures/internal/algorithms"
	"github.com/utkarsh5026/futures/internal/scheduler"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// WorkerInfo is a snapshot of one worker's id, status and completed count.
type WorkerInfo = scheduler.WorkerInfo

// Worker statuses reported by Workers.
const (
	WorkerIdle = scheduler.StatusIdle
	WorkerBusy = scheduler.StatusBusy
	WorkerDead = scheduler.StatusDead
)

// Pool is a long-running set of workers executing tasks from a shared FIFO
// ready-queue.
//
// A Pool is created with New, started with Start, fed through a Dispatcher
// (or Enqueue directly) and stopped with Shutdown. At most WorkerCount tasks
// run at the same time.
//
// Type parameters:
//   - T: The input type of tasks
//   - R: The result type produced by tasks
type Pool[T, R any] struct {
	conf    *config
	runner  Runner[T, R]
	board   *scheduler.Board[*Task[T, R]]
	backoff algorithms.Backoff
	tracer  trace.Tracer
	log     *zap.Logger
	stats   *recorder

	mu       sync.Mutex
	started  atomic.Bool
	closed   atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
	unwatch  func() bool
	group    errgroup.Group
	done     chan struct{}
	lossRun  atomic.Int64 // consecutive worker losses
	doneOnce sync.Once
}

// New creates a pool with the given options. No worker runs until Start.
//
// Default configuration:
//   - workerCount: runtime.GOMAXPROCS(0)
//   - maxRetries: 1
//   - autoReplace: true
//   - respawn backoff: none
//   - logger: zap.NewNop()
//
// Example:
//
//	p := pool.New[int, int](pool.WithWorkerCount(4))
//	if err := p.Start(ctx); err != nil {
//	    return err
//	}
//	defer p.Shutdown(5 * time.Second)
func New[T, R any](opts ...Option) *Pool[T, R] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.tracerProvider == nil {
		cfg.tracerProvider = otel.GetTracerProvider()
	}

	return &Pool[T, R]{
		conf:    cfg,
		runner:  resolveRunner[T, R](cfg),
		board:   scheduler.NewBoard[*Task[T, R]](),
		backoff: algorithms.NewBackoff(cfg.backoffType, cfg.backoffInitial, cfg.backoffMax, cfg.backoffJitter),
		tracer:  cfg.tracerProvider.Tracer(tracerName),
		log:     cfg.logger.Named("pool"),
		stats:   newRecorder(),
		done:    make(chan struct{}),
	}
}

// WorkerCount returns the configured number of workers.
func (p *Pool[T, R]) WorkerCount() int {
	return p.conf.workerCount
}

// MaxRetries returns the configured retry budget for lost workers.
func (p *Pool[T, R]) MaxRetries() int {
	return p.conf.maxRetries
}

// Start launches the workers. ctx bounds the pool's lifetime: when it ends,
// workers stop taking tasks and everything still queued fails with
// ErrPoolClosed.
func (p *Pool[T, R]) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed.Load() {
		return ErrPoolClosed
	}
	if p.started.Load() {
		return ErrAlreadyStarted
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.unwatch = context.AfterFunc(p.ctx, p.board.Stop)

	for range p.conf.workerCount {
		p.spawn(0)
	}
	p.started.Store(true)

	p.log.Info("pool started",
		zap.Int("workers", p.conf.workerCount),
		zap.Int("max_retries", p.conf.maxRetries),
		zap.Bool("auto_replace", p.conf.autoReplace),
	)

	go func() {
		_ = p.group.Wait()
		p.abandon(func(t *Task[T, R]) error { return ErrPoolClosed })
		p.doneOnce.Do(func() { close(p.done) })
		p.log.Info("pool stopped")
	}()

	return nil
}

// Enqueue hands a batch to the ready-queue in one step. Tasks are served in
// slice order.
func (p *Pool[T, R]) Enqueue(tasks []*Task[T, R]) error {
	if !p.started.Load() {
		return ErrPoolNotStarted
	}
	if p.closed.Load() {
		return ErrPoolClosed
	}

	if err := p.board.PushBatch(tasks); err != nil {
		if errors.Is(err, scheduler.ErrBoardClosed) {
			return ErrPoolClosed
		}
		return err
	}

	p.stats.submitted.Add(int64(len(tasks)))
	return nil
}

// Shutdown stops accepting new batches and waits for queued and running
// tasks to finish.
//
// Parameters:
//   - timeout: Maximum duration to wait (0 = wait forever)
//
// When the timeout expires the pool context is cancelled, tasks that have not
// started fail with ErrPoolClosed and ErrShutdownTimeout is returned.
//
// Example:
//
//	p.Start(ctx)
//	defer p.Shutdown(10 * time.Second)
func (p *Pool[T, R]) Shutdown(timeout time.Duration) error {
	p.mu.Lock()
	if !p.started.Load() {
		p.mu.Unlock()
		return ErrPoolNotStarted
	}
	if !p.closed.CompareAndSwap(false, true) {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.mu.Unlock()

	p.log.Info("pool shutting down", zap.Int("queued", p.board.Len()), zap.Duration("timeout", timeout))
	p.board.Close()

	err := waitUntil(p.done, timeout)
	if err != nil {
		p.board.Stop()
		p.log.Warn("shutdown timed out, cancelling in-flight tasks")
	}
	p.unwatch()
	p.cancel()
	return err
}

// Done is closed once every worker has exited.
func (p *Pool[T, R]) Done() <-chan struct{} {
	return p.done
}

// Stats returns a snapshot of the pool's counters and latency distribution.
func (p *Pool[T, R]) Stats() Stats {
	return Stats{
		Workers:     p.conf.workerCount,
		LiveWorkers: p.board.Live(),
		Queued:      p.board.Len(),
		Submitted:   p.stats.submitted.Load(),
		Completed:   p.stats.completed.Load(),
		Failed:      p.stats.failed.Load(),
		Retried:     p.stats.retried.Load(),
		Lost:        p.stats.lost.Load(),
		Cancelled:   p.stats.cancelled.Load(),
		Discarded:   p.stats.discarded.Load(),
		Latency:     p.stats.latency(),
	}
}

// Workers returns the worker table, dead workers included, ordered by id.
func (p *Pool[T, R]) Workers() []WorkerInfo {
	return p.board.Workers()
}

// cancelBatch cancels every pending future of batch and drops its queued
// tasks. Running tasks observe their context being cancelled.
func (p *Pool[T, R]) cancelBatch(batch string, futures []*Future[R]) int {
	n := 0
	for _, f := range futures {
		if f.Cancel() {
			n++
		}
	}
	p.board.Purge(func(t *Task[T, R]) bool { return t.Batch == batch })

	if n > 0 {
		p.log.Debug("batch cancelled", zap.String("batch", batch), zap.Int("cancelled", n))
	}
	return n
}

// abandon settles every queued task with the error built by reason.
func (p *Pool[T, R]) abandon(reason func(*Task[T, R]) error) {
	left := p.board.Abandon()
	for _, t := range left {
		if t.Future.Fail(reason(t)) == nil {
			p.stats.failed.Add(1)
		}
	}
	if len(left) > 0 {
		p.log.Warn("queued tasks abandoned", zap.Int("count", len(left)))
	}
}
