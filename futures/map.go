package futures

import (
	"context"
	"time"

	"github.com/utkarsh5026/futures/pool"
)

// Map applies fn to every input on p and returns the results in input order,
// whatever order the workers finish in.
//
// Map owns the batch it submits: when it returns, anything still pending is
// cancelled, so workers skip what nobody will read. Cancelling ctx cancels
// the batch and Map returns ctx.Err().
//
// Example:
//
//	squares, err := futures.Map(ctx, p, func(ctx context.Context, x int) (int, error) {
//	    return x * x, nil
//	}, []int{1, 2, 3})
//	// squares == []int{1, 4, 9}
func Map[T, R any](ctx context.Context, p *pool.Pool[T, R], fn ProcessFunc[T, R], inputs []T, opts ...MapOption) ([]R, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	futures, err := SubmitAsync(ctx, p, fn, inputs)
	if err != nil {
		return nil, err
	}
	return Collect(ctx, futures, opts...)
}

// MapOutcomes is Map under CollectErrors returning one Outcome per input.
// Its error is set only when submission fails or ctx ends.
func MapOutcomes[T, R any](ctx context.Context, p *pool.Pool[T, R], fn ProcessFunc[T, R], inputs []T, opts ...MapOption) ([]Outcome[R], error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	futures, err := SubmitAsync(ctx, p, fn, inputs)
	if err != nil {
		return nil, err
	}
	return CollectOutcomes(ctx, futures, opts...)
}

// SubmitAsync enqueues the batch and returns the futures without waiting.
// futures[i] belongs to inputs[i]. Cancelling ctx cancels whatever is still
// pending.
func SubmitAsync[T, R any](ctx context.Context, p *pool.Pool[T, R], fn ProcessFunc[T, R], inputs []T) ([]*Future[R], error) {
	return pool.NewDispatcher(p).Submit(ctx, fn, inputs)
}

// MapDefault runs Map on a pool built from poolOpts for this call only. The
// pool is started before submitting and shut down before returning.
func MapDefault[T, R any](ctx context.Context, fn ProcessFunc[T, R], inputs []T, poolOpts ...pool.Option) ([]R, error) {
	if fn == nil {
		return nil, &InvalidCallableError{Reason: "function is nil"}
	}

	p := pool.New[T, R](poolOpts...)
	if err := p.Start(ctx); err != nil {
		return nil, err
	}

	values, err := Map(ctx, p, fn, inputs)
	if serr := p.Shutdown(time.Minute); serr != nil && err == nil {
		return values, serr
	}
	return values, err
}
