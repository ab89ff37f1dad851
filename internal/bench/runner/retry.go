package runner

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/DjordjeVuckovic/news-highlight/internal/llm"
)

// RetryPolicy controls how a failed provider call is retried.
type RetryPolicy struct {
	// MaxAttempts counts the first try. 1 disables retries.
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`

	InitialBackoff time.Duration `yaml:"initial_backoff" json:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" json:"max_backoff"`

	// Multiplier 1 gives fixed backoff, above 1 exponential.
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`

	// JitterFraction of the computed delay is added or subtracted at random.
	JitterFraction float64 `yaml:"jitter_fraction" json:"jitter_fraction"`

	// ShouldRetry defaults to llm.IsTransient.
	ShouldRetry func(err error) bool `yaml:"-" json:"-"`

	OnRetry func(attempt int, err error, wait time.Duration) `yaml:"-" json:"-"`
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    DefaultMaxAttempts,
		InitialBackoff: DefaultInitialBackoff,
		MaxBackoff:     DefaultMaxBackoff,
		Multiplier:     DefaultBackoffMultiplier,
		JitterFraction: DefaultJitterFraction,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.InitialBackoff < 0 {
		p.InitialBackoff = 0
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = DefaultMaxBackoff
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1
	}
	if p.JitterFraction < 0 {
		p.JitterFraction = 0
	}
	if p.ShouldRetry == nil {
		p.ShouldRetry = llm.IsTransient
	}
	return p
}

// Backoff returns the wait before retry number attempt (0-based) without jitter.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := float64(p.InitialBackoff) * math.Pow(p.Multiplier, float64(attempt))
	if delay > float64(p.MaxBackoff) {
		delay = float64(p.MaxBackoff)
	}
	return time.Duration(delay)
}

func (p RetryPolicy) jittered(attempt int) time.Duration {
	delay := float64(p.Backoff(attempt))
	if p.JitterFraction > 0 {
		jitterRange := delay * p.JitterFraction
		delay += (rand.Float64()*2 - 1) * jitterRange
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// retryVal runs fn until it succeeds, returns a non-retryable error, or the
// attempts run out. It reports how many attempts were made. Cancelling ctx
// stops immediately.
func retryVal[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, int, error) {
	p := policy.withDefaults()

	var zero T
	var lastErr error
	attempts := 0
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		attempts++
		val, err := fn(ctx)
		if err == nil {
			return val, attempts, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, attempts, lastErr
		}
		if !p.ShouldRetry(lastErr) {
			return zero, attempts, lastErr
		}
		if attempt >= p.MaxAttempts-1 {
			break
		}

		wait := p.jittered(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, lastErr, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, attempts, lastErr
		case <-timer.C:
		}
	}

	return zero, attempts, lastErr
}

func logRetry(condition, article string) func(int, error, time.Duration) {
	return func(attempt int, err error, wait time.Duration) {
		slog.Warn("retrying provider call",
			"condition", condition,
			"article", article,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}
}
