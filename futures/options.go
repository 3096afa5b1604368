package futures

import "time"

// Policy decides how a collector reacts to a failed future.
type Policy int

const (
	// PolicyFailFast stops at the first failure in index order.
	PolicyFailFast Policy = iota
	// PolicyCollectErrors waits for every future and reports all failures.
	PolicyCollectErrors
)

func (p Policy) String() string {
	switch p {
	case PolicyFailFast:
		return "fail-fast"
	case PolicyCollectErrors:
		return "collect-errors"
	default:
		return "unknown"
	}
}

// MapOption configures Map and the collectors.
type MapOption func(*mapConfig)

type mapConfig struct {
	policy  Policy
	timeout time.Duration
}

func newMapConfig(opts []MapOption) mapConfig {
	cfg := mapConfig{policy: PolicyFailFast}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// FailFast returns the first failure in index order. This is the default.
func FailFast() MapOption {
	return func(cfg *mapConfig) {
		cfg.policy = PolicyFailFast
	}
}

// CollectErrors waits for every future. Map then returns zero values at the
// failed positions together with all errors joined in index order.
func CollectErrors() MapOption {
	return func(cfg *mapConfig) {
		cfg.policy = PolicyCollectErrors
	}
}

// WithTimeout bounds the wait for each future. When it expires the position
// reports a *TimeoutError; the future itself is not modified. Zero means no
// bound.
func WithTimeout(d time.Duration) MapOption {
	return func(cfg *mapConfig) {
		if d >= 0 {
			cfg.timeout = d
		}
	}
}
