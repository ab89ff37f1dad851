package runner

import (
	"time"

	"golang.org/x/time/rate"
)

// NewLimiter spaces calls at least delay apart. A non-positive delay disables limiting.
func NewLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}
