package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/jpillora/backoff"
	"github.com/rs/zerolog"
)

// RetryPolicy bounds how often and how slowly a failed completion is retried.
type RetryPolicy struct {
	MaxAttempts int
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
	Factor      float64
	Jitter      bool
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		MinBackoff:  time.Second,
		MaxBackoff:  10 * time.Second,
		Factor:      2,
		Jitter:      true,
	}
}

type retryModel struct {
	next   Model
	policy RetryPolicy
	logger zerolog.Logger
}

// WithRetry retries retryable failures of next with exponential backoff.
// Non-retryable errors are returned immediately. Once the attempts are used
// up the last error is returned wrapped with ErrRetriesExhausted.
func WithRetry(next Model, policy RetryPolicy, logger zerolog.Logger) Model {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Factor <= 0 {
		policy.Factor = 2
	}
	return &retryModel{
		next:   next,
		policy: policy,
		logger: logger.With().Str("component", "model_retry").Logger(),
	}
}

func (m *retryModel) Complete(ctx context.Context, req Request) (*Response, error) {
	b := &backoff.Backoff{
		Min:    m.policy.MinBackoff,
		Max:    m.policy.MaxBackoff,
		Factor: m.policy.Factor,
		Jitter: m.policy.Jitter,
	}

	var lastErr error
	for attempt := 1; attempt <= m.policy.MaxAttempts; attempt++ {
		resp, err := m.next.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !IsRetryable(err) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err

		if attempt == m.policy.MaxAttempts {
			break
		}

		wait := b.Duration()
		m.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Model call failed, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %w", ctx.Err(), lastErr)
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, m.policy.MaxAttempts, lastErr)
}
