package errors

import (
	"context"
	"log/slog"
	"time"
)

// Retrier runs operations with tier-aware retry.
type Retrier struct {
	policies map[Tier]*Policy
	logger   *slog.Logger
}

// NewRetrier builds a Retrier. Nil policies use DefaultPolicies; nil logger
// uses slog.Default.
func NewRetrier(policies map[Tier]*Policy, logger *slog.Logger) *Retrier {
	if policies == nil {
		policies = DefaultPolicies()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrier{policies: policies, logger: logger}
}

// Do runs fn, classifying each failure and retrying according to the failed
// tier's policy. The classification can change between attempts (a transient
// fault may become a rate limit); each attempt is handled under the policy of
// its own error. Returns the last error when attempts are exhausted.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; ; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		ce := Classify(lastErr)
		policy := r.policies[ce.Tier]
		if policy == nil || attempt >= policy.MaxAttempts {
			return ce
		}

		delay := policy.Delay(attempt)
		if policy.UseRetryAfter && ce.RetryAfter > 0 {
			delay = ce.RetryAfter
		}

		r.logger.Warn("retrying operation",
			"op", op,
			"attempt", attempt+1,
			"tier", ce.Tier.String(),
			"delay", delay,
			"error", lastErr)

		if err := sleep(ctx, delay); err != nil {
			return ce
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
