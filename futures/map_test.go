package futures

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utkarsh5026/futures/pool"
	"pgregory.net/rapid"
)

func newPool(t *testing.T, opts ...pool.Option) *pool.Pool[int, int] {
	t.Helper()

	p := pool.New[int, int](opts...)
	require.NoError(t, p.Start(context.Background()))
	t.Cleanup(func() { _ = p.Shutdown(5 * time.Second) })
	return p
}

func square(_ context.Context, x int) (int, error) {
	return x * x, nil
}

func tenOver(_ context.Context, x int) (int, error) {
	return 10 / x, nil
}

func seq(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

func TestMap_Squares(t *testing.T) {
	p := newPool(t, pool.WithWorkerCount(4))

	fn := func(ctx context.Context, x int) (int, error) {
		time.Sleep(10 * time.Millisecond)
		return x * x, nil
	}

	got, err := Map(context.Background(), p, fn, seq(12))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 4, 9, 16, 25, 36, 49, 64, 81, 100, 121}, got)
}

func TestMap_LengthAndOrderProperty(t *testing.T) {
	p := newPool(t, pool.WithWorkerCount(4))

	rapid.Check(t, func(rt *rapid.T) {
		inputs := rapid.SliceOfN(rapid.IntRange(-1000, 1000), 0, 64).Draw(rt, "inputs")

		got, err := Map(context.Background(), p, square, inputs)
		require.NoError(rt, err)
		require.Len(rt, got, len(inputs))
		for i, x := range inputs {
			assert.Equal(rt, x*x, got[i], "index %d", i)
		}
	})
}

func TestMap_DelayIndependentProperty(t *testing.T) {
	p := newPool(t, pool.WithWorkerCount(3))

	rapid.Check(t, func(rt *rapid.T) {
		delays := rapid.SliceOfN(rapid.IntRange(0, 3), 1, 12).Draw(rt, "delays")

		fn := func(ctx context.Context, i int) (int, error) {
			time.Sleep(time.Duration(delays[i]) * time.Millisecond)
			return i, nil
		}

		got, err := Map(context.Background(), p, fn, seq(len(delays)))
		require.NoError(rt, err)
		assert.Equal(rt, seq(len(delays)), got)
	})
}

func TestMap_Idempotent(t *testing.T) {
	p := newPool(t, pool.WithWorkerCount(3))
	inputs := []int{4, 8, 15, 16, 23, 42}

	first, err := Map(context.Background(), p, square, inputs)
	require.NoError(t, err)
	second, err := Map(context.Background(), p, square, inputs)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestMap_Empty(t *testing.T) {
	p := newPool(t, pool.WithWorkerCount(1))

	got, err := Map(context.Background(), p, square, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMap_InvalidCallable(t *testing.T) {
	p := newPool(t, pool.WithWorkerCount(1))

	_, err := Map[int, int](context.Background(), p, nil, seq(3))
	assert.ErrorIs(t, err, ErrInvalidCallable)
	assert.Zero(t, p.Stats().Submitted)
}

func TestMap_FailFastDivideByZero(t *testing.T) {
	p := newPool(t, pool.WithWorkerCount(2))

	_, err := Map(context.Background(), p, tenOver, []int{5, 0, 2, 0})
	require.Error(t, err)

	var ue *UserFunctionError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 1, ue.Index)
	assert.True(t, ue.Panicked)

	var re runtime.Error
	assert.ErrorAs(t, err, &re)
}

func TestMap_FailFastReportsLowestIndex(t *testing.T) {
	p := newPool(t, pool.WithWorkerCount(8))

	fn := func(ctx context.Context, x int) (int, error) {
		switch x {
		case 2:
			time.Sleep(40 * time.Millisecond)
			return 0, errors.New("slow failure")
		case 5:
			return 0, errors.New("fast failure")
		}
		return x, nil
	}

	_, err := Map(context.Background(), p, fn, seq(8))

	var ue *UserFunctionError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 2, ue.Index)
	assert.ErrorContains(t, err, "slow failure")
}

func TestMap_FailFastCancelsRemaining(t *testing.T) {
	p := newPool(t, pool.WithWorkerCount(1))

	var ran atomic.Int32
	fn := func(ctx context.Context, x int) (int, error) {
		ran.Add(1)
		if x == 0 {
			return 0, errors.New("first input is bad")
		}
		select {
		case <-time.After(50 * time.Millisecond):
		case <-ctx.Done():
		}
		return x, nil
	}

	_, err := Map(context.Background(), p, fn, seq(6))
	require.Error(t, err)

	require.Eventually(t, func() bool {
		s := p.Stats()
		return s.Queued == 0 && s.Cancelled >= 4
	}, time.Second, 5*time.Millisecond)
	assert.LessOrEqual(t, ran.Load(), int32(2))
}

func TestMap_CollectErrors(t *testing.T) {
	p := newPool(t, pool.WithWorkerCount(2))

	got, err := Map(context.Background(), p, tenOver, []int{5, 0, 2, 0}, CollectErrors())
	require.Error(t, err)
	assert.Equal(t, []int{2, 0, 5, 0}, got)

	var ue *UserFunctionError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 1, ue.Index)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	assert.Len(t, joined.Unwrap(), 2)
}

func TestMapOutcomes(t *testing.T) {
	p := newPool(t, pool.WithWorkerCount(2))

	outs, err := MapOutcomes(context.Background(), p, tenOver, []int{5, 0, 2, 0})
	require.NoError(t, err)
	require.Len(t, outs, 4)

	assert.True(t, outs[0].Ok())
	assert.Equal(t, 2, outs[0].Value)
	assert.True(t, outs[2].Ok())
	assert.Equal(t, 5, outs[2].Value)

	for _, i := range []int{1, 3} {
		assert.False(t, outs[i].Ok())
		assert.Equal(t, i, outs[i].Index)

		var ue *UserFunctionError
		require.ErrorAs(t, outs[i].Err, &ue)
		assert.Equal(t, i, ue.Index)
	}
}

func TestMap_Timeout(t *testing.T) {
	p := newPool(t, pool.WithWorkerCount(2))

	fn := func(ctx context.Context, x int) (int, error) {
		if x == 1 {
			<-ctx.Done()
			return 0, ctx.Err()
		}
		return x, nil
	}

	_, err := Map(context.Background(), p, fn, seq(3), WithTimeout(20*time.Millisecond))
	require.ErrorIs(t, err, ErrTimeout)

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 1, te.Index)
	assert.Equal(t, 20*time.Millisecond, te.After)
}

func TestMap_ContextCancellation(t *testing.T) {
	p := newPool(t, pool.WithWorkerCount(2))

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{}, 8)
	fn := func(ctx context.Context, x int) (int, error) {
		started <- struct{}{}
		<-ctx.Done()
		return 0, ctx.Err()
	}

	go func() {
		<-started
		cancel()
	}()

	_, err := Map(ctx, p, fn, seq(8))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSubmitAsync_CancellationLeavesNothingPending(t *testing.T) {
	p := newPool(t, pool.WithWorkerCount(2))

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{}, 6)
	fn := func(ctx context.Context, x int) (int, error) {
		started <- struct{}{}
		<-ctx.Done()
		return 0, ctx.Err()
	}

	fs, err := SubmitAsync(ctx, p, fn, seq(6))
	require.NoError(t, err)

	<-started
	cancel()

	require.Eventually(t, func() bool {
		for _, f := range fs {
			if f.State() == StatePending {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)

	for _, f := range fs {
		assert.Equal(t, StateCancelled, f.State())
	}
}

func TestSubmitAsync_CancelAfterPartialCompletion(t *testing.T) {
	p := newPool(t, pool.WithWorkerCount(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fn := func(ctx context.Context, x int) (int, error) {
		if x < 2 {
			return x * 10, nil
		}
		<-ctx.Done()
		return 0, ctx.Err()
	}

	fs, err := SubmitAsync(ctx, p, fn, seq(5))
	require.NoError(t, err)

	for _, i := range []int{0, 1} {
		v, err := fs[i].Await()
		require.NoError(t, err)
		assert.Equal(t, i*10, v)
	}
	cancel()

	outs, err := CollectOutcomes(context.Background(), fs)
	require.NoError(t, err)

	for i, f := range fs {
		if i < 2 {
			assert.Equal(t, StateResolved, f.State(), "index %d", i)
			assert.NoError(t, outs[i].Err)
			continue
		}
		assert.Equal(t, StateCancelled, f.State(), "index %d", i)
		assert.ErrorIs(t, outs[i].Err, ErrCancelled)
	}

	require.Eventually(t, func() bool {
		s := p.Stats()
		return s.Completed == 2 && s.Cancelled == 3
	}, time.Second, 5*time.Millisecond)
}

func TestMap_ConcurrencyBound(t *testing.T) {
	p := newPool(t, pool.WithWorkerCount(2))

	var running, peak atomic.Int32
	fn := func(ctx context.Context, x int) (int, error) {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return x, nil
	}

	_, err := Map(context.Background(), p, fn, seq(12))
	require.NoError(t, err)
	assert.Equal(t, int32(2), peak.Load())
}

// crashingRunner loses the worker on the first attempts of selected indices.
type crashingRunner struct {
	mu   sync.Mutex
	lose map[int]int
}

func (r *crashingRunner) Run(ctx context.Context, _ int, task *pool.Task[int, int]) (Outcome[int], error) {
	r.mu.Lock()
	if r.lose[task.Index] > 0 {
		r.lose[task.Index]--
		r.mu.Unlock()
		return Outcome[int]{}, errors.New("connection reset")
	}
	r.mu.Unlock()
	return pool.Invoke(ctx, task), nil
}

func TestMap_WorkerLoss(t *testing.T) {
	t.Run("retried", func(t *testing.T) {
		runner := &crashingRunner{lose: map[int]int{0: 1, 7: 1}}
		p := newPool(t, pool.WithWorkerCount(3), pool.WithRunner[int, int](runner))

		got, err := Map(context.Background(), p, square, seq(10))
		require.NoError(t, err)
		for i, v := range got {
			assert.Equal(t, i*i, v)
		}
	})

	t.Run("exhausted", func(t *testing.T) {
		runner := &crashingRunner{lose: map[int]int{4: 2}}
		p := newPool(t, pool.WithWorkerCount(3), pool.WithMaxRetries(1), pool.WithRunner[int, int](runner))

		outs, err := MapOutcomes(context.Background(), p, square, seq(6))
		require.NoError(t, err)

		var lost *WorkerLostError
		require.ErrorAs(t, outs[4].Err, &lost)
		assert.ErrorIs(t, outs[4].Err, ErrWorkerLost)
		assert.Equal(t, 2, lost.Attempts)

		for i, out := range outs {
			if i != 4 {
				require.NoError(t, out.Err)
				assert.Equal(t, i*i, out.Value)
			}
		}
	})
}

func TestMapDefault(t *testing.T) {
	got, err := MapDefault(context.Background(), square, seq(6), pool.WithWorkerCount(3))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 4, 9, 16, 25}, got)

	_, err = MapDefault[int, int](context.Background(), nil, seq(2))
	assert.ErrorIs(t, err, ErrInvalidCallable)
}

func TestMap_ClosedPool(t *testing.T) {
	p := pool.New[int, int](pool.WithWorkerCount(1))

	_, err := Map(context.Background(), p, square, seq(2))
	assert.ErrorIs(t, err, ErrPoolNotStarted)

	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Shutdown(time.Second))

	_, err = Map(context.Background(), p, square, seq(2))
	assert.ErrorIs(t, err, ErrPoolClosed)
}
