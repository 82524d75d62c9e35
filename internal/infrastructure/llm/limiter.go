package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateConfig bounds outbound model calls across all requests
type RateConfig struct {
	RequestsPerSecond float64
	Burst             int
}

func newLimiter(cfg RateConfig) *rate.Limiter {
	if cfg.RequestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
}

func wait(ctx context.Context, limiter *rate.Limiter) error {
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}
	return nil
}
