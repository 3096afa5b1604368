package pool

import (
	"context"

	"github.com/google/uuid"
	"github.com/utkarsh5026/futures/internal/types"
	"go.uber.org/zap"
)

// Dispatcher turns a function and a list of inputs into one batch of tasks on
// a pool and hands back one future per input, in input order.
type Dispatcher[T, R any] struct {
	pool *Pool[T, R]
}

// NewDispatcher creates a dispatcher submitting to p.
func NewDispatcher[T, R any](p *Pool[T, R]) *Dispatcher[T, R] {
	return &Dispatcher[T, R]{pool: p}
}

// Pool returns the pool the dispatcher submits to.
func (d *Dispatcher[T, R]) Pool() *Pool[T, R] {
	return d.pool
}

// Submit enqueues fn(inputs[i]) for every i and returns the futures
// immediately. futures[i] belongs to inputs[i]; all tasks are queued in one
// step, in input order.
//
// When ctx ends before the batch is settled, every pending future is
// cancelled and queued tasks are dropped. Only then do running tasks see
// their context cancelled, so whatever they return is discarded.
//
// An empty input list returns an empty slice without touching the pool. A nil
// fn fails with *InvalidCallableError and nothing is enqueued.
func (d *Dispatcher[T, R]) Submit(ctx context.Context, fn ProcessFunc[T, R], inputs []T) ([]*Future[R], error) {
	if fn == nil {
		return nil, &types.InvalidCallableError{Reason: "function is nil"}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	p := d.pool
	if !p.started.Load() {
		return nil, ErrPoolNotStarted
	}
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	if len(inputs) == 0 {
		return []*Future[R]{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := uuid.NewString()
	spanCtx, span := p.startBatchSpan(ctx, batch, len(inputs))

	// tasks get their own cancellation, fired after the futures are cancelled
	taskCtx, cancelTasks := context.WithCancelCause(context.WithoutCancel(spanCtx))

	futures := make([]*Future[R], len(inputs))
	tasks := make([]*Task[T, R], len(inputs))
	for i, in := range inputs {
		futures[i] = types.NewFuture[R](i)
		tasks[i] = types.NewTask(taskCtx, i, in, fn, batch, futures[i])
	}

	if err := p.Enqueue(tasks); err != nil {
		cancelTasks(err)
		endSpan(span, err)
		return nil, err
	}
	span.End()

	p.log.Debug("batch submitted", zap.String("batch", batch), zap.Int("size", len(inputs)))

	d.watch(ctx, batch, futures, cancelTasks)
	return futures, nil
}

// watch cancels the batch when ctx ends first, and detaches once every future
// has completed, adding the cancelled ones to the stats whoever cancelled them.
func (d *Dispatcher[T, R]) watch(ctx context.Context, batch string, futures []*Future[R], cancelTasks context.CancelCauseFunc) {
	stop := context.AfterFunc(ctx, func() {
		d.pool.cancelBatch(batch, futures)
		cancelTasks(context.Cause(ctx))
	})

	go func() {
		var cancelled int64
		for _, f := range futures {
			<-f.Done()
			if f.State() == types.StateCancelled {
				cancelled++
			}
		}
		d.pool.stats.cancelled.Add(cancelled)
		if stop() {
			cancelTasks(context.Canceled)
		}
	}()
}
