package types

import (
	"context"
	"sync"
	"time"
)

// State is the lifecycle position of a Future.
type State int32

const (
	StatePending State = iota
	StateResolved
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible from s.
func (s State) Terminal() bool {
	return s != StatePending
}

// Future is a single-assignment cell holding the eventual outcome of one task.
//
// It leaves the Pending state exactly once, to Resolved, Failed or Cancelled.
// Every goroutine blocked in one of the Await methods is released at that
// moment, and later reads observe the same value.
type Future[R any] struct {
	index int
	done  chan struct{}

	mu    sync.Mutex
	state State
	value R
	err   error
}

// NewFuture creates a pending future for the task at index.
func NewFuture[R any](index int) *Future[R] {
	return &Future[R]{
		index: index,
		done:  make(chan struct{}),
	}
}

// Index returns the input position this future belongs to.
func (f *Future[R]) Index() int {
	return f.index
}

// Resolve completes the future with a value.
func (f *Future[R]) Resolve(value R) error {
	return f.complete(StateResolved, value, nil)
}

// Fail completes the future with an error.
func (f *Future[R]) Fail(err error) error {
	var zero R
	return f.complete(StateFailed, zero, err)
}

// Cancel moves a pending future to Cancelled. It returns false, and changes
// nothing, when the future has already completed.
func (f *Future[R]) Cancel() bool {
	var zero R
	return f.complete(StateCancelled, zero, ErrCancelled) == nil
}

func (f *Future[R]) complete(state State, value R, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.Terminal() {
		return &AlreadyResolvedError{Index: f.index, State: f.state}
	}

	f.state = state
	f.value = value
	f.err = err
	close(f.done)
	return nil
}

// Done returns a channel that is closed once the future leaves Pending.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// IsReady reports, without blocking, whether the future has completed.
func (f *Future[R]) IsReady() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// State returns the current state.
func (f *Future[R]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// TryGet returns the outcome if the future has completed. ready is false while
// it is still pending.
func (f *Future[R]) TryGet() (value R, err error, ready bool) {
	if !f.IsReady() {
		return value, nil, false
	}
	value, err = f.load()
	return value, err, true
}

// Await blocks until the future completes and returns its value or error.
func (f *Future[R]) Await() (R, error) {
	<-f.done
	return f.load()
}

// AwaitContext is Await bounded by ctx. When ctx ends first, ctx.Err() is
// returned and the future is left untouched.
func (f *Future[R]) AwaitContext(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.load()
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// AwaitTimeout is Await bounded by d. On expiry it returns a *TimeoutError
// and the future keeps waiting for its real outcome. A non-positive d waits
// forever.
func (f *Future[R]) AwaitTimeout(d time.Duration) (R, error) {
	if d <= 0 {
		return f.Await()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.load()
	case <-timer.C:
		var zero R
		return zero, &TimeoutError{Index: f.index, After: d}
	}
}

// Outcome returns the completed future as a tagged value. It blocks until the
// future completes.
func (f *Future[R]) Outcome() Outcome[R] {
	v, err := f.Await()
	return Outcome[R]{Index: f.index, Value: v, Err: err}
}

func (f *Future[R]) load() (R, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}
