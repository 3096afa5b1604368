package pool

import (
	"fmt"
	"os"
	"time"

	"github.com/utkarsh5026/futures/internal/algorithms"
	"gopkg.in/yaml.v3"
)

// Config is the file form of the pool options.
//
// Example:
//
//	workers: 8
//	maxRetries: 2
//	autoReplace: true
//	rateLimit:
//	  perSecond: 100
//	  burst: 10
//	respawnBackoff:
//	  type: exponential
//	  initial: 50ms
//	  max: 2s
//	cpuAffinity: false
type Config struct {
	Workers        int            `yaml:"workers"`
	MaxRetries     *int           `yaml:"maxRetries"`
	AutoReplace    *bool          `yaml:"autoReplace"`
	RateLimit      *RateLimit     `yaml:"rateLimit"`
	RespawnBackoff *RespawnConfig `yaml:"respawnBackoff"`
	CPUAffinity    bool           `yaml:"cpuAffinity"`
}

type RateLimit struct {
	PerSecond float64 `yaml:"perSecond"`
	Burst     int     `yaml:"burst"`
}

type RespawnConfig struct {
	Type    string        `yaml:"type"`
	Initial time.Duration `yaml:"initial"`
	Max     time.Duration `yaml:"max"`
	Jitter  float64       `yaml:"jitter"`
}

// LoadConfig reads and validates a YAML pool configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pool config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates a YAML pool configuration.
func ParseConfig(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("pool config: workers must be >= 0, got %d", c.Workers)
	}
	if c.MaxRetries != nil && *c.MaxRetries < 0 {
		return fmt.Errorf("pool config: maxRetries must be >= 0, got %d", *c.MaxRetries)
	}
	if rl := c.RateLimit; rl != nil {
		if rl.PerSecond <= 0 || rl.Burst <= 0 {
			return fmt.Errorf("pool config: rateLimit needs perSecond > 0 and burst > 0")
		}
	}
	if rb := c.RespawnBackoff; rb != nil {
		if _, err := algorithms.ParseBackoffType(rb.Type); err != nil {
			return fmt.Errorf("pool config: respawnBackoff: %w", err)
		}
		if rb.Initial < 0 || rb.Max < 0 {
			return fmt.Errorf("pool config: respawnBackoff durations must not be negative")
		}
		if rb.Max > 0 && rb.Initial > rb.Max {
			return fmt.Errorf("pool config: respawnBackoff initial %s exceeds max %s", rb.Initial, rb.Max)
		}
		if rb.Jitter < 0 || rb.Jitter > 1 {
			return fmt.Errorf("pool config: respawnBackoff jitter must be in [0, 1], got %g", rb.Jitter)
		}
	}
	return nil
}

// Options converts the file configuration into pool options. Fields left out
// of the file keep the pool defaults.
func (c *Config) Options() []Option {
	var opts []Option

	if c.Workers > 0 {
		opts = append(opts, WithWorkerCount(c.Workers))
	}
	if c.MaxRetries != nil {
		opts = append(opts, WithMaxRetries(*c.MaxRetries))
	}
	if c.AutoReplace != nil {
		opts = append(opts, WithAutoReplace(*c.AutoReplace))
	}
	if rl := c.RateLimit; rl != nil {
		opts = append(opts, WithRateLimit(rl.PerSecond, rl.Burst))
	}
	if rb := c.RespawnBackoff; rb != nil {
		t, _ := algorithms.ParseBackoffType(rb.Type)
		opts = append(opts, WithRespawnBackoff(t, rb.Initial, rb.Max))
		if rb.Jitter > 0 {
			opts = append(opts, WithJitterFactor(rb.Jitter))
		}
	}
	if c.CPUAffinity {
		opts = append(opts, WithCPUAffinity())
	}
	return opts
}
