// Package benchmarks measures Map throughput and latency across pool setups.
package benchmarks

import (
	"context"
	"testing"
	"time"

	"github.com/utkarsh5026/futures/pool"
)

// poolSetup is one pool configuration under benchmark.
type poolSetup struct {
	name string
	opts []pool.Option
}

// getPoolSetups returns the configurations compared by the benchmarks.
func getPoolSetups(workerCount int) []poolSetup {
	return []poolSetup{
		{
			name: "Local",
			opts: []pool.Option{pool.WithWorkerCount(workerCount)},
		},
		{
			name: "Pinned",
			opts: []pool.Option{pool.WithWorkerCount(workerCount), pool.WithCPUAffinity()},
		},
		{
			name: "Hooks",
			opts: []pool.Option{
				pool.WithWorkerCount(workerCount),
				pool.WithBeforeTaskStart(func(pool.TaskEvent) {}),
				pool.WithOnTaskEnd(func(pool.TaskEvent) {}),
			},
		},
	}
}

// runSetupBenchmark runs benchFunc as a sub-benchmark for every setup.
func runSetupBenchmark(b *testing.B, setups []poolSetup, benchFunc func(b *testing.B, s poolSetup)) {
	b.Helper()
	for _, s := range setups {
		b.Run(s.name, func(b *testing.B) {
			benchFunc(b, s)
		})
	}
}

// startPool starts a pool that lives until the benchmark ends.
func startPool(b *testing.B, opts ...pool.Option) *pool.Pool[int, int] {
	b.Helper()

	p := pool.New[int, int](opts...)
	if err := p.Start(context.Background()); err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = p.Shutdown(time.Minute) })
	return p
}

// cpuBoundWork simulates a CPU-intensive operation
func cpuBoundWork(iterations int) func(ctx context.Context, task int) (int, error) {
	return func(ctx context.Context, task int) (int, error) {
		result := 0
		for i := 0; i < iterations; i++ {
			result += i * task
		}
		return result, nil
	}
}

// ioBoundWork simulates an I/O operation with a delay
func ioBoundWork(delay time.Duration) func(ctx context.Context, task int) (int, error) {
	return func(ctx context.Context, task int) (int, error) {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
			return task * 2, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// mixedWork simulates a realistic workload with variable processing time
func mixedWork() func(ctx context.Context, task int) (int, error) {
	return func(ctx context.Context, task int) (int, error) {
		time.Sleep(time.Duration(task%4) * 100 * time.Microsecond)

		result := 0
		for i := 0; i < 1000; i++ {
			result += i
		}
		return result + task, nil
	}
}

func tasks(n int) []int {
	t := make([]int, n)
	for i := range t {
		t[i] = i
	}
	return t
}
