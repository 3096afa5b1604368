package pool

import (
	"context"
	"fmt"
	"runtime"

	"github.com/utkarsh5026/futures/internal/types"
)

// Runner is the execution environment behind a worker: it delivers one task
// attempt somewhere and reports back.
//
// The Outcome carries what the user function produced, including its error.
// A non-nil error return means the environment itself failed (a crashed
// process, a dropped connection); the pool then treats the worker as dead and
// retries the task on another worker.
type Runner[T, R any] interface {
	Run(ctx context.Context, workerID int, task *Task[T, R]) (Outcome[R], error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc[T, R any] func(ctx context.Context, workerID int, task *Task[T, R]) (Outcome[R], error)

func (f RunnerFunc[T, R]) Run(ctx context.Context, workerID int, task *Task[T, R]) (Outcome[R], error) {
	return f(ctx, workerID, task)
}

// LocalRunner executes tasks in the worker's own goroutine. It never reports
// an environment failure.
type LocalRunner[T, R any] struct{}

func (LocalRunner[T, R]) Run(ctx context.Context, _ int, task *Task[T, R]) (Outcome[R], error) {
	return Invoke(ctx, task), nil
}

// Invoke calls the task's function with panic recovery. A panic becomes a
// *UserFunctionError carrying the stack so it cannot take the worker down.
func Invoke[T, R any](ctx context.Context, task *Task[T, R]) (out Outcome[R]) {
	out.Index = task.Index

	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			out.Err = &types.UserFunctionError{
				Index:    task.Index,
				Cause:    panicError(r),
				Panicked: true,
				Stack:    buf[:n],
			}
		}
	}()

	value, err := task.Fn(ctx, task.Input)
	out.Value = value
	out.Err = types.AsUserError(task.Index, err)
	return out
}

func resolveRunner[T, R any](cfg *config) Runner[T, R] {
	if cfg.runner == nil {
		return LocalRunner[T, R]{}
	}

	r, ok := cfg.runner.(Runner[T, R])
	if !ok {
		var zeroT T
		var zeroR R
		panic(fmt.Sprintf("WithRunner got %s, but pool runs tasks of type %T returning %T",
			cfg.runnerType, zeroT, zeroR))
	}
	return r
}
