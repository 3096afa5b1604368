package pool

import (
	"errors"

	"github.com/utkarsh5026/futures/internal/types"
)

// ProcessFunc is the user function applied to every input of a batch.
type ProcessFunc[T, R any] = types.ProcessFunc[T, R]

// Task is one unit of work handed to a Runner.
type Task[T, R any] = types.Task[T, R]

// Future is the single-assignment handle to a task's outcome.
type Future[R any] = types.Future[R]

// Outcome is the tagged result-or-error of one input position.
type Outcome[R any] = types.Outcome[R]

var (
	ErrPoolNotStarted  = errors.New("pool not started")
	ErrAlreadyStarted  = errors.New("pool already started")
	ErrPoolClosed      = errors.New("pool shut down")
	ErrShutdownTimeout = errors.New("error in shutting down: timeout reached")
)
