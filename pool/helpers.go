package pool

import (
	"context"
	"fmt"
	"time"

	"github.com/utkarsh5026/futures/internal/types"
)

// waitUntil blocks until either the done channel is closed or the timeout is reached.
func waitUntil(d <-chan struct{}, timeout time.Duration) error {
	if timeout <= 0 {
		<-d
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-d:
		return nil
	case <-timer.C:
		return ErrShutdownTimeout
	}
}

// mergeContext returns a context cancelled when either parent is done. The
// cause of the pool context is carried over.
func mergeContext(task, pool context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(task)
	stop := context.AfterFunc(pool, func() {
		cancel(context.Cause(pool))
	})
	return ctx, func() {
		stop()
		cancel(context.Canceled)
	}
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

func noWorkersLeft[T, R any](t *Task[T, R]) error {
	return &types.WorkerLostError{
		Index:    t.Index,
		WorkerID: -1,
		Attempts: t.Losses(),
		Cause:    types.ErrNoWorkers,
	}
}
