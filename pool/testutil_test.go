package pool

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// poolConfig is one pool setup every behavioural test runs against.
type poolConfig struct {
	name string
	opts []Option
}

// poolConfigs returns the setups shared by the behavioural tests. Each is
// configured so that it does not change observable results.
func poolConfigs(workerCount int) []poolConfig {
	return []poolConfig{
		{
			name: "Local",
			opts: []Option{WithWorkerCount(workerCount)},
		},
		{
			name: "RateLimited",
			opts: []Option{WithWorkerCount(workerCount), WithRateLimit(100000, 1000)},
		},
		{
			name: "Pinned",
			opts: []Option{WithWorkerCount(workerCount), WithCPUAffinity()},
		},
	}
}

// runPoolTest runs fn once per setup from poolConfigs with a started pool.
func runPoolTest(t *testing.T, fn func(t *testing.T, p *Pool[int, int]), workerCount int, extra ...Option) {
	t.Helper()
	for _, c := range poolConfigs(workerCount) {
		t.Run(c.name, func(t *testing.T) {
			fn(t, startPool(t, slices.Concat(c.opts, extra)...))
		})
	}
}

// startPool builds and starts a pool that is shut down when the test ends.
func startPool(t *testing.T, opts ...Option) *Pool[int, int] {
	t.Helper()

	p := New[int, int](opts...)
	require.NoError(t, p.Start(context.Background()))
	t.Cleanup(func() { _ = p.Shutdown(5 * time.Second) })
	return p
}

func submit(t *testing.T, p *Pool[int, int], fn ProcessFunc[int, int], inputs []int) []*Future[int] {
	t.Helper()

	futures, err := NewDispatcher(p).Submit(context.Background(), fn, inputs)
	require.NoError(t, err)
	require.Len(t, futures, len(inputs))
	return futures
}

func awaitAll(t *testing.T, futures []*Future[int]) []Outcome[int] {
	t.Helper()

	out := make([]Outcome[int], len(futures))
	for i, f := range futures {
		select {
		case <-f.Done():
		case <-time.After(5 * time.Second):
			t.Fatalf("future %d still pending", i)
		}
		out[i] = f.Outcome()
	}
	return out
}

func seq(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

func square(_ context.Context, x int) (int, error) {
	return x * x, nil
}

var errCrashed = errors.New("worker process crashed")

// flakyRunner simulates an execution environment that dies a fixed number
// of times on selected indices before running them normally.
type flakyRunner struct {
	mu       sync.Mutex
	lose     map[int]int
	attempts map[int]int
}

func newFlakyRunner(lose map[int]int) *flakyRunner {
	return &flakyRunner{lose: lose, attempts: make(map[int]int)}
}

func (r *flakyRunner) Run(ctx context.Context, _ int, task *Task[int, int]) (Outcome[int], error) {
	r.mu.Lock()
	r.attempts[task.Index]++
	if r.lose[task.Index] > 0 {
		r.lose[task.Index]--
		r.mu.Unlock()
		return Outcome[int]{}, errCrashed
	}
	r.mu.Unlock()

	return Invoke(ctx, task), nil
}

func (r *flakyRunner) Attempts(index int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts[index]
}
