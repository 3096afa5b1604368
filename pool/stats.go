package pool

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Stats is a point-in-time view of a pool's counters.
type Stats struct {
	Workers     int
	LiveWorkers int
	Queued      int

	Submitted int64
	Completed int64
	Failed    int64
	Retried   int64
	Lost      int64
	Cancelled int64
	Discarded int64 // results that arrived after their future was cancelled

	Latency LatencySummary
}

// LatencySummary describes execution time of completed attempts.
type LatencySummary struct {
	Count int64
	Mean  time.Duration
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
	Max   time.Duration
}

type recorder struct {
	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	retried   atomic.Int64
	lost      atomic.Int64
	cancelled atomic.Int64
	discarded atomic.Int64

	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

func newRecorder() *recorder {
	return &recorder{
		// microseconds, 1µs .. 1h, 3 significant figures
		hist: hdrhistogram.New(1, int64(time.Hour/time.Microsecond), 3),
	}
}

func (r *recorder) observe(d time.Duration) {
	us := max(d.Microseconds(), 1)

	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.hist.RecordValue(min(us, r.hist.HighestTrackableValue()))
}

func (r *recorder) latency() LatencySummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hist.TotalCount() == 0 {
		return LatencySummary{}
	}

	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	return LatencySummary{
		Count: r.hist.TotalCount(),
		Mean:  time.Duration(r.hist.Mean() * float64(time.Microsecond)),
		P50:   us(r.hist.ValueAtQuantile(50)),
		P95:   us(r.hist.ValueAtQuantile(95)),
		P99:   us(r.hist.ValueAtQuantile(99)),
		Max:   us(r.hist.Max()),
	}
}
