package types

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCallable is matched by InvalidCallableError.
	ErrInvalidCallable = errors.New("invalid callable")

	// ErrWorkerLost is matched by WorkerLostError.
	ErrWorkerLost = errors.New("worker lost")

	// ErrTimeout is matched by TimeoutError.
	ErrTimeout = errors.New("await timed out")

	// ErrAlreadyResolved is matched by AlreadyResolvedError.
	ErrAlreadyResolved = errors.New("future already resolved")

	// ErrCancelled is the error carried by a cancelled future.
	ErrCancelled = errors.New("task cancelled")

	// ErrNoWorkers is the cause attached to tasks that were still queued when
	// the last live worker of a non-replacing pool died.
	ErrNoWorkers = errors.New("no live workers left")
)

// InvalidCallableError is returned at submission time when the function
// handed to the dispatcher cannot be invoked. Nothing is enqueued.
type InvalidCallableError struct {
	Reason string
}

func (e *InvalidCallableError) Error() string {
	return fmt.Sprintf("invalid callable: %s", e.Reason)
}

func (e *InvalidCallableError) Is(target error) bool {
	return target == ErrInvalidCallable
}

// UserFunctionError wraps an error returned, or a panic raised, by the user
// function. It is delivered through the task's future and is never retried.
type UserFunctionError struct {
	Index    int
	Cause    error
	Panicked bool
	Stack    []byte
}

func (e *UserFunctionError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("task %d panicked: %v", e.Index, e.Cause)
	}
	return fmt.Sprintf("task %d: %v", e.Index, e.Cause)
}

func (e *UserFunctionError) Unwrap() error {
	return e.Cause
}

// WorkerLostError reports that the execution environment running a task
// failed more times than the pool's retry budget allows.
type WorkerLostError struct {
	Index    int
	WorkerID int
	Attempts int
	Cause    error
}

func (e *WorkerLostError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("task %d: worker %d lost after %d attempt(s)", e.Index, e.WorkerID, e.Attempts)
	}
	return fmt.Sprintf("task %d: worker %d lost after %d attempt(s): %v", e.Index, e.WorkerID, e.Attempts, e.Cause)
}

func (e *WorkerLostError) Is(target error) bool {
	return target == ErrWorkerLost
}

func (e *WorkerLostError) Unwrap() error {
	return e.Cause
}

// TimeoutError is observed by a caller whose bounded wait expired. The
// underlying future is not modified.
type TimeoutError struct {
	Index int
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("task %d: no result after %s", e.Index, e.After)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// AlreadyResolvedError signals a second attempt to complete a future.
// Reaching it from the pool indicates a bookkeeping defect, except when the
// first completion was a cancellation.
type AlreadyResolvedError struct {
	Index int
	State State
}

func (e *AlreadyResolvedError) Error() string {
	return fmt.Sprintf("future %d already %s", e.Index, e.State)
}

func (e *AlreadyResolvedError) Is(target error) bool {
	return target == ErrAlreadyResolved
}

// AsUserError wraps err as a UserFunctionError for the given index unless it
// already is one.
func AsUserError(index int, err error) error {
	if err == nil {
		return nil
	}

	var ue *UserFunctionError
	if errors.As(err, &ue) {
		return err
	}
	return &UserFunctionError{Index: index, Cause: err}
}
