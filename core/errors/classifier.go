package errors

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

// Classify assigns a tier to an outbound failure. Vendor SDK errors carry an
// HTTP status; everything else falls back to error-text heuristics. Already
// classified errors pass through unchanged.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &ClassifiedError{Err: err, Tier: TierTransient}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &ClassifiedError{Err: err, Tier: TierTransient}
	}

	if status, retryAfter, ok := vendorStatus(err); ok {
		return classifyStatus(err, status, retryAfter)
	}

	return classifyText(err)
}

// vendorStatus extracts the HTTP status from the SDK error types the
// providers actually return. The anthropic and openai errors keep the raw
// response, so rate-limit replies also yield the Retry-After header; the
// genai error carries only the code.
func vendorStatus(err error) (int, time.Duration, bool) {
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode, retryAfterFrom(anthropicErr.Response), true
	}

	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return openaiErr.StatusCode, retryAfterFrom(openaiErr.Response), true
	}

	var googleErr genai.APIError
	if errors.As(err, &googleErr) {
		return googleErr.Code, 0, true
	}

	return 0, 0, false
}

// retryAfterFrom parses the Retry-After header, which vendors send either as
// delay seconds or as an HTTP date.
func retryAfterFrom(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func classifyStatus(err error, status int, retryAfter time.Duration) *ClassifiedError {
	ce := &ClassifiedError{Err: err, StatusCode: status, RetryAfter: retryAfter}
	switch {
	case status == http.StatusTooManyRequests:
		ce.Tier = TierRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		ce.Tier = TierUserFixable
	case status == http.StatusRequestTimeout || status == 529: // anthropic overloaded
		ce.Tier = TierTransient
	case status >= 500:
		ce.Tier = TierDegrading
	case status >= 400:
		ce.Tier = TierPermanent
	default:
		ce.Tier = TierTransient
	}
	return ce
}

func classifyText(err error) *ClassifiedError {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "quota"):
		return &ClassifiedError{Err: err, Tier: TierRateLimit}
	case strings.Contains(msg, "api key") || strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "authentication"):
		return &ClassifiedError{Err: err, Tier: TierUserFixable}
	case strings.Contains(msg, "overloaded") || strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connection re"):
		return &ClassifiedError{Err: err, Tier: TierTransient}
	case strings.Contains(msg, "invalid") || strings.Contains(msg, "not found") ||
		strings.Contains(msg, "context length") || strings.Contains(msg, "too large"):
		return &ClassifiedError{Err: err, Tier: TierPermanent}
	default:
		return &ClassifiedError{Err: err, Tier: TierTransient}
	}
}
