package runner

import (
	"fmt"
	"time"

	"github.com/DjordjeVuckovic/news-highlight/internal/similarity"
)

const (
	DefaultParallelism       = 4
	DefaultTimeout           = 60 * time.Second
	DefaultRateLimitDelay    = 200 * time.Millisecond
	DefaultMaxAttempts       = 3
	DefaultInitialBackoff    = 1 * time.Second
	DefaultMaxBackoff        = 30 * time.Second
	DefaultBackoffMultiplier = 2.0
	DefaultJitterFraction    = 0.25
)

type Config struct {
	// Parallelism bounds concurrent articles within one condition.
	Parallelism int `json:"parallelism"`
	// Timeout applies to each provider call attempt.
	Timeout time.Duration `json:"timeout"`
	// RateLimitDelay is the minimum spacing between calls within one condition.
	RateLimitDelay time.Duration `json:"rate_limit_delay"`
	Retry          RetryPolicy   `json:"retry"`
	// Bands is recorded with the results so scores can be interpreted later.
	Bands similarity.Bands `json:"similarity_bands"`
}

func DefaultConfig() Config {
	return Config{
		Parallelism:    DefaultParallelism,
		Timeout:        DefaultTimeout,
		RateLimitDelay: DefaultRateLimitDelay,
		Retry:          DefaultRetryPolicy(),
		Bands:          similarity.DefaultBands,
	}
}

func (c Config) Validate() error {
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be >= 1, got %d", c.Parallelism)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.RateLimitDelay < 0 {
		return fmt.Errorf("rate limit delay must not be negative, got %s", c.RateLimitDelay)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	return c.Bands.Validate()
}
