package monitoring

import (
	"context"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
)

// Pinger is satisfied by *pgxpool.Pool and by the redis health check
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthChecker serves /healthz/live and /healthz/ready
type HealthChecker struct {
	health healthcheck.Handler
}

// NewHealthChecker creates a checker with a goroutine-count liveness check.
// Dependencies are added with AddDependency.
func NewHealthChecker() *HealthChecker {
	hc := &HealthChecker{health: healthcheck.NewHandler()}
	hc.health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(1000))
	return hc
}

// AddDependency registers a readiness check that pings the dependency
func (hc *HealthChecker) AddDependency(name string, p Pinger, timeout time.Duration) {
	hc.health.AddReadinessCheck(name, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return p.Ping(ctx)
	})
}

// LiveHandler serves the liveness endpoint
func (hc *HealthChecker) LiveHandler() http.Handler {
	return http.HandlerFunc(hc.health.LiveEndpoint)
}

// ReadyHandler serves the readiness endpoint
func (hc *HealthChecker) ReadyHandler() http.Handler {
	return http.HandlerFunc(hc.health.ReadyEndpoint)
}
