package types

import "context"

// ProcessFunc is the user function applied to every input of a batch.
// The context is cancelled when the batch is cancelled or the pool is stopped.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// Task is one unit of work: a function, one input and the input's position.
//
// The dispatcher creates it; the pool owns it while it is queued or running.
// Only the pool goroutine holding the task touches the loss counter.
type Task[T any, R any] struct {
	Index  int
	Input  T
	Fn     ProcessFunc[T, R]
	Batch  string
	Future *Future[R]

	ctx    context.Context
	losses int
}

// NewTask builds a task bound to ctx, the context of the submitting call.
func NewTask[T, R any](ctx context.Context, index int, input T, fn ProcessFunc[T, R], batch string, future *Future[R]) *Task[T, R] {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Task[T, R]{
		Index:  index,
		Input:  input,
		Fn:     fn,
		Batch:  batch,
		Future: future,
		ctx:    ctx,
	}
}

// Context returns the context of the submitting call.
func (t *Task[T, R]) Context() context.Context {
	return t.ctx
}

// Losses returns how many workers died while running this task.
func (t *Task[T, R]) Losses() int {
	return t.losses
}

// RecordLoss counts one more worker death and returns the new total.
func (t *Task[T, R]) RecordLoss() int {
	t.losses++
	return t.losses
}

// Outcome is the tagged result-or-error of one input position.
type Outcome[R any] struct {
	Index int
	Value R
	Err   error
}

// Ok reports whether the outcome carries a value.
func (o Outcome[R]) Ok() bool {
	return o.Err == nil
}
