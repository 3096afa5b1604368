package futures

import (
	"context"
	"errors"
	"time"
)

// Collect awaits futures in index order and returns their values.
//
// Under FailFast (the default) the first failure in index order is returned
// and the remaining futures are left as they are. Under CollectErrors every
// future is awaited; failed positions hold the zero value and the errors are
// joined in index order.
//
// When ctx ends first, ctx.Err() is returned. Collect never cancels or
// resolves a future.
func Collect[R any](ctx context.Context, futures []*Future[R], opts ...MapOption) ([]R, error) {
	cfg := newMapConfig(opts)

	values := make([]R, len(futures))
	var errs []error

	for i, f := range futures {
		out, err := awaitOutcome(ctx, f, cfg.timeout)
		if err != nil {
			return nil, err
		}
		if out.Err == nil {
			values[i] = out.Value
			continue
		}

		if cfg.policy == PolicyFailFast {
			return nil, out.Err
		}
		errs = append(errs, out.Err)
	}

	if len(errs) > 0 {
		return values, errors.Join(errs...)
	}
	return values, nil
}

// CollectOutcomes awaits every future in index order and returns one Outcome
// per position. The only error it reports is ctx ending.
func CollectOutcomes[R any](ctx context.Context, futures []*Future[R], opts ...MapOption) ([]Outcome[R], error) {
	cfg := newMapConfig(opts)

	outs := make([]Outcome[R], len(futures))
	for i, f := range futures {
		out, err := awaitOutcome(ctx, f, cfg.timeout)
		if err != nil {
			return nil, err
		}
		outs[i] = out
	}
	return outs, nil
}

// Cancel cancels every pending future and returns how many it changed.
// Queued tasks behind cancelled futures are skipped by the workers. The pool
// adds them to Stats().Cancelled once their batch has settled.
func Cancel[R any](futures []*Future[R]) int {
	n := 0
	for _, f := range futures {
		if f.Cancel() {
			n++
		}
	}
	return n
}

// awaitOutcome waits for f bounded by ctx and d. The error return is set only
// when ctx ended; a timeout is reported inside the Outcome.
func awaitOutcome[R any](ctx context.Context, f *Future[R], d time.Duration) (Outcome[R], error) {
	if f.IsReady() {
		return f.Outcome(), nil
	}

	var expired <-chan time.Time
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-f.Done():
		return f.Outcome(), nil
	case <-ctx.Done():
		return Outcome[R]{}, ctx.Err()
	case <-expired:
		return Outcome[R]{Index: f.Index(), Err: &TimeoutError{Index: f.Index(), After: d}}, nil
	}
}
