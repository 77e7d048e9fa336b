// Package errors classifies outbound LLM and storage failures into tiers and
// retries them with per-tier backoff policies.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Tier is the handling classification for a failure.
type Tier int

const (
	// TierTransient covers temporary faults that retry silently: network
	// timeouts, connection resets, overloaded responses.
	TierTransient Tier = iota

	// TierPermanent covers faults that will not resolve with retry:
	// invalid requests, model not found, context overflow.
	TierPermanent

	// TierUserFixable covers faults needing operator action: missing or
	// rejected API keys, missing config.
	TierUserFixable

	// TierRateLimit covers 429s and quota exhaustion from a vendor.
	TierRateLimit

	// TierDegrading covers vendor-side 5xx degradation.
	TierDegrading
)

var tierNames = map[Tier]string{
	TierTransient:   "transient",
	TierPermanent:   "permanent",
	TierUserFixable: "user_fixable",
	TierRateLimit:   "rate_limit",
	TierDegrading:   "degrading",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "unknown"
}

// ClassifiedError wraps a failure with its tier and, for rate limits, the
// vendor-provided retry delay.
type ClassifiedError struct {
	Err        error
	Tier       Tier
	StatusCode int
	RetryAfter time.Duration
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Tier, e.Err)
}

func (e *ClassifiedError) Unwrap() error { return e.Err }

// New wraps err with a tier.
func New(tier Tier, err error) *ClassifiedError {
	return &ClassifiedError{Err: err, Tier: tier}
}

// Newf wraps a formatted error with a tier.
func Newf(tier Tier, format string, args ...any) *ClassifiedError {
	return &ClassifiedError{Err: fmt.Errorf(format, args...), Tier: tier}
}

// TierOf extracts the tier from an error chain. Unclassified errors are
// treated as transient so that one unmapped vendor error does not kill a
// whole extraction.
func TierOf(err error) Tier {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Tier
	}
	return TierTransient
}

// RetryAfterOf extracts a vendor retry delay from an error chain, if any.
func RetryAfterOf(err error) time.Duration {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.RetryAfter
	}
	return 0
}

// IsRetryable reports whether the error's tier has a retry policy with
// attempts remaining behavior.
func IsRetryable(err error) bool {
	switch TierOf(err) {
	case TierTransient, TierRateLimit, TierDegrading:
		return true
	default:
		return false
	}
}
