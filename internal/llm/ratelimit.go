package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

type rateLimitedModel struct {
	next    Model
	limiter *rate.Limiter
}

// WithRateLimit caps calls to next at requestsPerMinute, with a burst of a
// tenth of that. A non-positive limit disables limiting.
func WithRateLimit(next Model, requestsPerMinute int) Model {
	if requestsPerMinute <= 0 {
		return next
	}

	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &rateLimitedModel{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst),
	}
}

func (m *rateLimitedModel) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("model rate limiter: %w", err)
	}
	return m.next.Complete(ctx, req)
}
