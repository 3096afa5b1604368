package algorithms

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

// maxShift keeps 1<<n inside int64.
const maxShift = 62

// BackoffType selects how long a pool waits before a replacement worker
// starts pulling tasks after consecutive worker losses.
type BackoffType int

const (
	// BackoffNone starts replacements immediately.
	BackoffNone BackoffType = iota
	// BackoffExponential doubles the delay for every consecutive loss.
	BackoffExponential
	// BackoffJittered is exponential with ±jitter applied.
	BackoffJittered
	// BackoffDecorrelated draws each delay from [initial, 3*previous].
	BackoffDecorrelated
)

func (t BackoffType) String() string {
	switch t {
	case BackoffNone:
		return "none"
	case BackoffExponential:
		return "exponential"
	case BackoffJittered:
		return "jittered"
	case BackoffDecorrelated:
		return "decorrelated"
	default:
		return fmt.Sprintf("BackoffType(%d)", int(t))
	}
}

// ParseBackoffType maps a config string onto a BackoffType.
func ParseBackoffType(s string) (BackoffType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return BackoffNone, nil
	case "exponential", "exp":
		return BackoffExponential, nil
	case "jittered", "jitter":
		return BackoffJittered, nil
	case "decorrelated":
		return BackoffDecorrelated, nil
	default:
		return BackoffNone, fmt.Errorf("unknown backoff type %q", s)
	}
}

// Backoff computes the respawn delay for the n-th consecutive loss
// (0-indexed).
type Backoff interface {
	Delay(losses int) time.Duration
	Reset()
}

// NewBackoff builds the strategy for t. jitter is only used by
// BackoffJittered and is clamped to [0, 1].
func NewBackoff(t BackoffType, initial, maxDelay time.Duration, jitter float64) Backoff {
	if maxDelay < initial {
		maxDelay = initial
	}

	switch t {
	case BackoffExponential:
		return &exponential{initial: initial, max: maxDelay}
	case BackoffJittered:
		return &jittered{initial: initial, max: maxDelay, factor: clamp(jitter, 0, 1)}
	case BackoffDecorrelated:
		return &decorrelated{initial: initial, max: maxDelay, prev: initial}
	default:
		return none{}
	}
}

type none struct{}

func (none) Delay(int) time.Duration { return 0 }
func (none) Reset()                  {}

type exponential struct {
	initial, max time.Duration
}

func (e *exponential) Delay(losses int) time.Duration {
	return expDelay(losses, e.initial, e.max)
}

func (e *exponential) Reset() {}

// jittered spreads replacements of workers that died together.
type jittered struct {
	initial, max time.Duration
	factor       float64
}

func (j *jittered) Delay(losses int) time.Duration {
	base := expDelay(losses, j.initial, j.max)
	mult := 1.0 + (rand.Float64()*2-1)*j.factor // #nosec G404 -- jitter only
	return clamp(time.Duration(float64(base)*mult), 0, j.max)
}

func (j *jittered) Reset() {}

// decorrelated follows sleep = min(max, rand(initial, prev*3)).
type decorrelated struct {
	initial, max time.Duration

	mu   sync.Mutex
	prev time.Duration
}

func (d *decorrelated) Delay(losses int) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()

	if losses <= 0 {
		d.prev = d.initial
		return d.initial
	}

	upper := min(d.prev*3, d.max)
	span := upper - d.initial
	if span <= 0 {
		d.prev = d.initial
		return d.initial
	}

	delay := d.initial + time.Duration(rand.Int64N(int64(span))) // #nosec G404 -- jitter only
	d.prev = delay
	return delay
}

func (d *decorrelated) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prev = d.initial
}

func expDelay(n int, initial, maxDelay time.Duration) time.Duration {
	if n < 0 {
		return 0
	}
	if n >= maxShift {
		return maxDelay
	}

	delay := time.Duration(int64(1)<<uint(n)) * initial
	if delay > maxDelay || delay < 0 {
		return maxDelay
	}
	return delay
}

func clamp[T int | int64 | float64 | time.Duration](v, lo, hi T) T {
	return max(lo, min(v, hi))
}
