package errors

import (
	"math"
	"math/rand"
	"time"
)

// Policy defines retry behavior for one tier.
type Policy struct {
	MaxAttempts   int           `yaml:"max_attempts"`
	InitialDelay  time.Duration `yaml:"initial_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	Multiplier    float64       `yaml:"multiplier"`
	UseRetryAfter bool          `yaml:"use_retry_after"`
	JitterPercent float64       `yaml:"jitter_percent"`
}

// DefaultPolicies returns the retry policy per tier. Rate limits get long
// patient backoff honoring Retry-After; degradation gets a few slow attempts;
// permanent and user-fixable never retry.
func DefaultPolicies() map[Tier]*Policy {
	return map[Tier]*Policy{
		TierTransient: {
			MaxAttempts:   4,
			InitialDelay:  200 * time.Millisecond,
			MaxDelay:      5 * time.Second,
			Multiplier:    2.0,
			JitterPercent: 0.1,
		},
		TierRateLimit: {
			MaxAttempts:   6,
			InitialDelay:  1 * time.Second,
			MaxDelay:      60 * time.Second,
			Multiplier:    2.0,
			UseRetryAfter: true,
			JitterPercent: 0.1,
		},
		TierDegrading: {
			MaxAttempts:   3,
			InitialDelay:  5 * time.Second,
			MaxDelay:      30 * time.Second,
			Multiplier:    2.0,
			JitterPercent: 0.1,
		},
		TierPermanent:   {},
		TierUserFixable: {},
	}
}

// PoliciesWithMaxAttempts returns DefaultPolicies with every retryable tier
// set to maxAttempts. Non-positive maxAttempts keeps the defaults; permanent
// and user-fixable tiers never retry regardless.
func PoliciesWithMaxAttempts(maxAttempts int) map[Tier]*Policy {
	policies := DefaultPolicies()
	if maxAttempts <= 0 {
		return policies
	}
	for _, tier := range []Tier{TierTransient, TierRateLimit, TierDegrading} {
		policies[tier].MaxAttempts = maxAttempts
	}
	return policies
}

// Delay computes the backoff for an attempt (0-based):
// initial * multiplier^attempt, capped at MaxDelay, with ±JitterPercent
// applied.
func (p *Policy) Delay(attempt int) time.Duration {
	if p == nil || p.InitialDelay <= 0 {
		return 0
	}
	multiplier := p.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	delay := time.Duration(float64(p.InitialDelay) * math.Pow(multiplier, float64(attempt)))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return jitter(delay, p.JitterPercent)
}

func jitter(delay time.Duration, percent float64) time.Duration {
	if percent <= 0 || delay <= 0 {
		return delay
	}
	span := float64(delay) * percent
	offset := (rand.Float64()*2 - 1) * span
	jittered := time.Duration(float64(delay) + offset)
	if jittered < time.Millisecond {
		return time.Millisecond
	}
	return jittered
}
