package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Client so calls never exceed requestsPerMinute. Calls wait for a
// token; a cancelled context while waiting becomes a failed Result.
type RateLimited struct {
	inner   Client
	limiter *rate.Limiter
}

// NewRateLimited returns inner unchanged when requestsPerMinute is not positive.
func NewRateLimited(inner Client, requestsPerMinute int) Client {
	if requestsPerMinute <= 0 {
		return inner
	}

	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
	}
}

func (r *RateLimited) Name() string { return r.inner.Name() }

func (r *RateLimited) Invoke(ctx context.Context, system, user string) Result {
	if err := r.limiter.Wait(ctx); err != nil {
		return Failure(fmt.Errorf("rate limiter: %w", err))
	}
	return r.inner.Invoke(ctx, system, user)
}

// Unwrap returns the wrapped client.
func (r *RateLimited) Unwrap() Client {
	return r.inner
}
