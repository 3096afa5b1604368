package algorithms

import (
	"sync"
	"testing"
	"time"
)

func TestParseBackoffType(t *testing.T) {
	tests := []struct {
		in      string
		want    BackoffType
		wantErr bool
	}{
		{in: "", want: BackoffNone},
		{in: "none", want: BackoffNone},
		{in: "Exponential", want: BackoffExponential},
		{in: " jittered ", want: BackoffJittered},
		{in: "decorrelated", want: BackoffDecorrelated},
		{in: "linear", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBackoffType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBackoffType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseBackoffType(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestExponentialBackoff_Delay(t *testing.T) {
	b := NewBackoff(BackoffExponential, 10*time.Millisecond, 100*time.Millisecond, 0)

	tests := []struct {
		losses int
		want   time.Duration
	}{
		{losses: -1, want: 0},
		{losses: 0, want: 10 * time.Millisecond},
		{losses: 1, want: 20 * time.Millisecond},
		{losses: 3, want: 80 * time.Millisecond},
		{losses: 4, want: 100 * time.Millisecond},
		{losses: 70, want: 100 * time.Millisecond},
	}

	for _, tt := range tests {
		if got := b.Delay(tt.losses); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.losses, got, tt.want)
		}
	}
}

func TestNoneBackoff_Delay(t *testing.T) {
	b := NewBackoff(BackoffNone, time.Second, time.Minute, 0)
	for i := range 5 {
		if d := b.Delay(i); d != 0 {
			t.Errorf("Delay(%d) = %v, want 0", i, d)
		}
	}
}

func TestJitteredBackoff_Bounds(t *testing.T) {
	initial := 100 * time.Millisecond
	maxDelay := 10 * time.Second
	b := NewBackoff(BackoffJittered, initial, maxDelay, 0.2)

	for losses := range 4 {
		base := expDelay(losses, initial, maxDelay)
		lo := time.Duration(float64(base) * 0.8)
		hi := time.Duration(float64(base) * 1.2)

		for range 50 {
			d := b.Delay(losses)
			if d < lo || d > hi {
				t.Fatalf("Delay(%d) = %v, want within [%v, %v]", losses, d, lo, hi)
			}
		}
	}
}

func TestDecorrelatedBackoff_Delay(t *testing.T) {
	tests := []struct {
		name     string
		initial  time.Duration
		maxDelay time.Duration
		losses   int
		wantMin  time.Duration
		wantMax  time.Duration
	}{
		{
			name:     "first loss returns initial delay",
			initial:  100 * time.Millisecond,
			maxDelay: 10 * time.Second,
			losses:   0,
			wantMin:  100 * time.Millisecond,
			wantMax:  100 * time.Millisecond,
		},
		{
			name:     "second loss between initial and 3x initial",
			initial:  100 * time.Millisecond,
			maxDelay: 10 * time.Second,
			losses:   1,
			wantMin:  100 * time.Millisecond,
			wantMax:  300 * time.Millisecond,
		},
		{
			name:     "respects max delay",
			initial:  time.Second,
			maxDelay: 2 * time.Second,
			losses:   10,
			wantMin:  time.Second,
			wantMax:  2 * time.Second,
		},
		{
			name:     "max below initial collapses to initial",
			initial:  time.Second,
			maxDelay: 500 * time.Millisecond,
			losses:   3,
			wantMin:  time.Second,
			wantMax:  time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBackoff(BackoffDecorrelated, tt.initial, tt.maxDelay, 0)

			var delay time.Duration
			for i := 0; i <= tt.losses; i++ {
				delay = b.Delay(i)
			}

			if delay < tt.wantMin || delay > tt.wantMax {
				t.Errorf("Delay() = %v, want between %v and %v", delay, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestDecorrelatedBackoff_ConcurrentUse(t *testing.T) {
	b := NewBackoff(BackoffDecorrelated, time.Millisecond, 50*time.Millisecond, 0)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				if d := b.Delay(i % 5); d < time.Millisecond || d > 50*time.Millisecond {
					t.Errorf("delay %v out of range", d)
					return
				}
			}
		}()
	}
	wg.Wait()

	b.Reset()
	if d := b.Delay(0); d != time.Millisecond {
		t.Errorf("after Reset, Delay(0) = %v, want 1ms", d)
	}
}
