package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/forensiq/internal/logging"
)

// RetryPolicy is an exponential backoff with ±20% jitter.
type RetryPolicy struct {
	Attempts   int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

type retryProvider struct {
	inner  Provider
	policy RetryPolicy
	logger *zap.Logger
}

// WithRetry retries transient failures of p. An invalid response is
// retried at most once.
func WithRetry(p Provider, policy RetryPolicy, logger *zap.Logger) Provider {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	return &retryProvider{inner: p, policy: policy, logger: logging.OrNop(logger).Named("llm")}
}

func (r *retryProvider) ModelID() string { return r.inner.ModelID() }

func (r *retryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var (
		lastErr     error
		invalidSeen bool
	)
	for attempt := range r.policy.Attempts {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var inv *ErrInvalidResponse
		if errors.As(err, &inv) {
			if invalidSeen {
				return nil, err
			}
			invalidSeen = true
		}
		if !Retryable(err) || attempt == r.policy.Attempts-1 {
			break
		}

		wait := r.delay(attempt, err)
		r.logger.Debug("retrying LLM request",
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

func (r *retryProvider) delay(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	mult := r.policy.Multiplier
	if mult <= 0 {
		mult = 2
	}
	wait := float64(r.policy.BaseDelay) * math.Pow(mult, float64(attempt))
	if r.policy.MaxDelay > 0 {
		wait = min(wait, float64(r.policy.MaxDelay))
	}
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(max(wait, 0))
}
