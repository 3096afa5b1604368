package futures

import (
	"github.com/utkarsh5026/futures/internal/types"
	"github.com/utkarsh5026/futures/pool"
)

type (
	// Future is the single-assignment handle to one input's outcome.
	Future[R any] = types.Future[R]

	// Outcome is the result-or-error of one input position.
	Outcome[R any] = types.Outcome[R]

	// ProcessFunc is the function applied to every input.
	ProcessFunc[T, R any] = types.ProcessFunc[T, R]

	// State is a future's position in Pending → {Resolved, Failed, Cancelled}.
	State = types.State
)

const (
	StatePending   = types.StatePending
	StateResolved  = types.StateResolved
	StateFailed    = types.StateFailed
	StateCancelled = types.StateCancelled
)

type (
	InvalidCallableError = types.InvalidCallableError
	UserFunctionError    = types.UserFunctionError
	WorkerLostError      = types.WorkerLostError
	TimeoutError         = types.TimeoutError
	AlreadyResolvedError = types.AlreadyResolvedError
)

var (
	ErrInvalidCallable = types.ErrInvalidCallable
	ErrWorkerLost      = types.ErrWorkerLost
	ErrTimeout         = types.ErrTimeout
	ErrAlreadyResolved = types.ErrAlreadyResolved
	ErrCancelled       = types.ErrCancelled
	ErrNoWorkers       = types.ErrNoWorkers

	ErrPoolNotStarted = pool.ErrPoolNotStarted
	ErrPoolClosed     = pool.ErrPoolClosed
)
