// Package futures maps a function over a list of inputs on a worker pool and
// returns the results in input order.
//
// Map is a parallel, order-preserving map: execution order is up to the
// workers, delivery order is always the index order of the inputs, even when
// workers finish out of order or die and have their tasks retried.
//
// # Basic Usage
//
//	p := pool.New[int, int](pool.WithWorkerCount(4))
//	if err := p.Start(ctx); err != nil {
//	    return err
//	}
//	defer p.Shutdown(5 * time.Second)
//
//	squares, err := futures.Map(ctx, p, func(ctx context.Context, x int) (int, error) {
//	    return x * x, nil
//	}, []int{0, 1, 2, 3})
//
// # Failure Policies
//
// By default Map fails fast: it returns the first failed input in index
// order. CollectErrors waits for all inputs instead:
//
//	values, err := futures.Map(ctx, p, fn, inputs, futures.CollectErrors())
//	outs, err := futures.MapOutcomes(ctx, p, fn, inputs)
//
// WithTimeout bounds how long the collector waits for each input.
//
// # Asynchronous Submission
//
// SubmitAsync returns the futures right away. Collect and CollectOutcomes
// gather them later; Cancel drops what is still pending.
//
//	fs, err := futures.SubmitAsync(ctx, p, fn, inputs)
//	first, err := fs[0].AwaitTimeout(time.Second)
//	rest, err := futures.Collect(ctx, fs[1:])
//
// # Errors
//
// Failures carry their input index. Use errors.Is with ErrWorkerLost,
// ErrTimeout, ErrCancelled and ErrInvalidCallable, or errors.As with
// *UserFunctionError to reach what the function returned or panicked with.
package futures
