package server

import "context"

type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) bool

func (f HealthCheckFunc) Healthy(ctx context.Context) bool {
	return f(ctx)
}
