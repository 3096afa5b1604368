package pool

import (
	"fmt"
	"runtime"
	"time"

	"github.com/utkarsh5026/futures/internal/algorithms"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// BackoffType selects the delay applied before a replacement worker starts
// after consecutive worker losses.
type BackoffType = algorithms.BackoffType

const (
	BackoffNone         = algorithms.BackoffNone
	BackoffExponential  = algorithms.BackoffExponential
	BackoffJittered     = algorithms.BackoffJittered
	BackoffDecorrelated = algorithms.BackoffDecorrelated
)

// Option is a functional option for configuring a Pool.
type Option func(*config)

type config struct {
	workerCount int
	maxRetries  int
	autoReplace bool

	backoffType    algorithms.BackoffType
	backoffInitial time.Duration
	backoffMax     time.Duration
	backoffJitter  float64

	rateLimiter *rate.Limiter
	cpuAffinity bool

	logger         *zap.Logger
	tracerProvider trace.TracerProvider

	beforeTaskStart func(TaskEvent)
	onTaskEnd       func(TaskEvent)
	onWorkerLost    func(TaskEvent)

	runner     any
	runnerType string
}

func defaultConfig() *config {
	return &config{
		workerCount:    runtime.GOMAXPROCS(0),
		maxRetries:     1,
		autoReplace:    true,
		backoffType:    algorithms.BackoffNone,
		backoffInitial: 50 * time.Millisecond,
		backoffMax:     5 * time.Second,
		backoffJitter:  0.1,
	}
}

// WithWorkerCount sets the number of concurrent workers.
// If not specified, defaults to runtime.GOMAXPROCS(0).
func WithWorkerCount(count int) Option {
	return func(cfg *config) {
		if count > 0 {
			cfg.workerCount = count
		}
	}
}

// WithMaxRetries sets how many times a task is re-run after the worker
// executing it dies. Zero disables retries. Defaults to 1.
//
// Errors returned by the user function are never retried.
func WithMaxRetries(n int) Option {
	return func(cfg *config) {
		if n >= 0 {
			cfg.maxRetries = n
		}
	}
}

// WithAutoReplace controls whether a dead worker is replaced (the default)
// or the pool permanently shrinks.
func WithAutoReplace(enabled bool) Option {
	return func(cfg *config) {
		cfg.autoReplace = enabled
	}
}

// WithRespawnBackoff delays replacement workers after consecutive worker
// losses. The streak resets when a task completes normally.
//
// Example:
//
//	WithRespawnBackoff(BackoffExponential, 100*time.Millisecond, 5*time.Second)
func WithRespawnBackoff(t BackoffType, initial, maxDelay time.Duration) Option {
	return func(cfg *config) {
		cfg.backoffType = t
		if initial > 0 {
			cfg.backoffInitial = initial
		}
		if maxDelay > 0 {
			cfg.backoffMax = maxDelay
		}
	}
}

// WithJitterFactor sets the ±fraction applied by BackoffJittered.
func WithJitterFactor(factor float64) Option {
	return func(cfg *config) {
		if factor >= 0 && factor <= 1 {
			cfg.backoffJitter = factor
		}
	}
}

// WithRateLimit caps how many tasks start per second across all workers.
//
// Example:
//
//	WithRateLimit(10, 5) // 10 tasks/sec with a burst of 5
func WithRateLimit(tasksPerSecond float64, burst int) Option {
	return func(cfg *config) {
		if tasksPerSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(tasksPerSecond), burst)
		}
	}
}

// WithCPUAffinity locks every worker goroutine to its own OS thread and, where
// the platform allows it, binds that thread to a core.
func WithCPUAffinity() Option {
	return func(cfg *config) {
		cfg.cpuAffinity = true
	}
}

// WithLogger sets the structured logger. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithTracerProvider sets the OpenTelemetry provider used for batch and task
// spans. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *config) {
		if tp != nil {
			cfg.tracerProvider = tp
		}
	}
}

// WithBeforeTaskStart registers a hook called on the worker goroutine right
// before the user function runs.
func WithBeforeTaskStart(fn func(TaskEvent)) Option {
	return func(cfg *config) {
		cfg.beforeTaskStart = fn
	}
}

// WithOnTaskEnd registers a hook called after a task attempt produced a value
// or a user error. It is not called for attempts that lost their worker.
func WithOnTaskEnd(fn func(TaskEvent)) Option {
	return func(cfg *config) {
		cfg.onTaskEnd = fn
	}
}

// WithOnWorkerLost registers a hook called when a worker dies while running a
// task, before the task is requeued or failed.
func WithOnWorkerLost(fn func(TaskEvent)) Option {
	return func(cfg *config) {
		cfg.onWorkerLost = fn
	}
}

// WithRunner replaces the in-process execution environment. The runner's type
// parameters must match the pool's; New panics otherwise.
func WithRunner[T, R any](r Runner[T, R]) Option {
	return func(cfg *config) {
		if r != nil {
			cfg.runner = r
			cfg.runnerType = fmt.Sprintf("%T", r)
		}
	}
}

// TaskEvent describes one task attempt to hooks.
type TaskEvent struct {
	Index    int
	Batch    string
	WorkerID int
	Attempt  int
	Err      error
	Duration time.Duration
}
