package errors

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func vendorRequest() *http.Request {
	return &http.Request{
		Method: http.MethodPost,
		URL:    &url.URL{Scheme: "https", Host: "api.example.com", Path: "/v1/messages"},
	}
}

func anthropicStatusErr(status int, header http.Header) *anthropic.Error {
	return &anthropic.Error{
		StatusCode: status,
		Request:    vendorRequest(),
		Response:   &http.Response{StatusCode: status, Header: header},
	}
}

func TestClassifyAnthropicStatusCodes(t *testing.T) {
	tests := []struct {
		status int
		tier   Tier
	}{
		{429, TierRateLimit},
		{401, TierUserFixable},
		{403, TierUserFixable},
		{408, TierTransient},
		{529, TierTransient},
		{500, TierDegrading},
		{503, TierDegrading},
		{400, TierPermanent},
		{404, TierPermanent},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			err := fmt.Errorf("anthropic complete: %w", anthropicStatusErr(tt.status, nil))
			ce := Classify(err)
			assert.Equal(t, tt.tier, ce.Tier)
			assert.Equal(t, tt.status, ce.StatusCode)
		})
	}
}

func TestClassifyStatusBeatsMessageText(t *testing.T) {
	// A 429 whose rendered message never says "rate limit" or "quota" must
	// still tier by status, not fall through to the text heuristics.
	err := anthropicStatusErr(http.StatusTooManyRequests, nil)
	assert.NotContains(t, strings.ToLower(err.Error()), "rate limit")

	ce := Classify(fmt.Errorf("anthropic complete: %w", err))
	assert.Equal(t, TierRateLimit, ce.Tier)
	assert.Equal(t, http.StatusTooManyRequests, ce.StatusCode)
}

func TestClassifyOpenAIStatusCode(t *testing.T) {
	openaiErr := &openai.Error{
		StatusCode: 503,
		Request:    vendorRequest(),
		Response:   &http.Response{StatusCode: 503, Header: http.Header{}},
	}
	ce := Classify(fmt.Errorf("openai complete: %w", openaiErr))
	assert.Equal(t, TierDegrading, ce.Tier)
	assert.Equal(t, 503, ce.StatusCode)
}

func TestClassifyGoogleStatusCode(t *testing.T) {
	err := fmt.Errorf("google complete: %w", genai.APIError{Code: 429, Message: "resource exhausted"})
	ce := Classify(err)
	assert.Equal(t, TierRateLimit, ce.Tier)
	assert.Equal(t, 429, ce.StatusCode)
}

func TestClassifyRetryAfterSeconds(t *testing.T) {
	header := http.Header{}
	header.Set("Retry-After", "7")

	ce := Classify(anthropicStatusErr(429, header))
	assert.Equal(t, TierRateLimit, ce.Tier)
	assert.Equal(t, 7*time.Second, ce.RetryAfter)
	assert.Equal(t, 7*time.Second, RetryAfterOf(ce))
}

func TestClassifyRetryAfterHTTPDate(t *testing.T) {
	header := http.Header{}
	header.Set("Retry-After", time.Now().Add(30*time.Second).UTC().Format(http.TimeFormat))

	ce := Classify(anthropicStatusErr(429, header))
	assert.Greater(t, ce.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, ce.RetryAfter, 30*time.Second)
}

func TestClassifyRetryAfterAbsentOrPast(t *testing.T) {
	assert.Zero(t, Classify(anthropicStatusErr(429, http.Header{})).RetryAfter)

	header := http.Header{}
	header.Set("Retry-After", time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat))
	assert.Zero(t, Classify(anthropicStatusErr(429, header)).RetryAfter)
}

func TestClassifyText(t *testing.T) {
	tests := []struct {
		msg  string
		tier Tier
	}{
		{"rate limit exceeded for model", TierRateLimit},
		{"monthly quota exhausted", TierRateLimit},
		{"invalid api key provided", TierUserFixable},
		{"model overloaded, try again", TierTransient},
		{"invalid request: unknown field", TierPermanent},
		{"prompt exceeds context length", TierPermanent},
		{"something unexpected", TierTransient},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.tier, Classify(fmt.Errorf("%s", tt.msg)).Tier)
		})
	}
}

func TestClassifyContextErrors(t *testing.T) {
	assert.Equal(t, TierTransient, Classify(context.Canceled).Tier)
	assert.Equal(t, TierTransient, Classify(context.DeadlineExceeded).Tier)
}

func TestClassifyPassthrough(t *testing.T) {
	orig := New(TierPermanent, fmt.Errorf("bad schema"))
	wrapped := fmt.Errorf("pass failed: %w", orig)
	assert.Equal(t, TierPermanent, Classify(wrapped).Tier)
	assert.Equal(t, TierPermanent, TierOf(wrapped))
}

func TestPolicyDelayGrowthAndCap(t *testing.T) {
	p := &Policy{
		MaxAttempts:  5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
	}

	// No jitter configured: delays are exact.
	assert.Equal(t, 100*time.Millisecond, p.Delay(0))
	assert.Equal(t, 200*time.Millisecond, p.Delay(1))
	assert.Equal(t, 400*time.Millisecond, p.Delay(2))
	assert.Equal(t, 800*time.Millisecond, p.Delay(3))
	// Capped.
	assert.Equal(t, 1*time.Second, p.Delay(4))
	assert.Equal(t, 1*time.Second, p.Delay(10))
}

func TestPolicyDelayJitterBounds(t *testing.T) {
	p := &Policy{
		InitialDelay:  1 * time.Second,
		MaxDelay:      10 * time.Second,
		Multiplier:    2.0,
		JitterPercent: 0.1,
	}
	for i := 0; i < 100; i++ {
		d := p.Delay(0)
		assert.GreaterOrEqual(t, d, 900*time.Millisecond)
		assert.LessOrEqual(t, d, 1100*time.Millisecond)
	}
}

func TestPoliciesWithMaxAttempts(t *testing.T) {
	policies := PoliciesWithMaxAttempts(2)
	assert.Equal(t, 2, policies[TierTransient].MaxAttempts)
	assert.Equal(t, 2, policies[TierRateLimit].MaxAttempts)
	assert.Equal(t, 2, policies[TierDegrading].MaxAttempts)
	assert.Zero(t, policies[TierPermanent].MaxAttempts)
	assert.Zero(t, policies[TierUserFixable].MaxAttempts)

	// Non-positive keeps the defaults.
	assert.Equal(t, DefaultPolicies()[TierRateLimit].MaxAttempts,
		PoliciesWithMaxAttempts(0)[TierRateLimit].MaxAttempts)
}

func TestRetrierRetriesTransient(t *testing.T) {
	policies := DefaultPolicies()
	policies[TierTransient] = &Policy{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1,
	}
	r := NewRetrier(policies, nil)

	calls := 0
	err := r.Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("timeout talking to vendor")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetrierNoRetryOnPermanent(t *testing.T) {
	r := NewRetrier(nil, nil)

	calls := 0
	err := r.Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		return New(TierPermanent, fmt.Errorf("invalid request"))
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, TierPermanent, TierOf(err))
}

func TestRetrierHonorsRetryAfter(t *testing.T) {
	policies := DefaultPolicies()
	policies[TierRateLimit] = &Policy{
		MaxAttempts:   1,
		InitialDelay:  10 * time.Second, // would stall without Retry-After
		MaxDelay:      10 * time.Second,
		Multiplier:    1,
		UseRetryAfter: true,
	}
	r := NewRetrier(policies, nil)

	calls := 0
	start := time.Now()
	err := r.Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return &ClassifiedError{
				Err:        fmt.Errorf("rate limit"),
				Tier:       TierRateLimit,
				RetryAfter: 5 * time.Millisecond,
			}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRetrierStopsOnContextCancel(t *testing.T) {
	// Policy with long delay: cancellation during the wait must abort.
	policies := map[Tier]*Policy{
		TierTransient: {
			MaxAttempts:  5,
			InitialDelay: 10 * time.Second,
			MaxDelay:     10 * time.Second,
			Multiplier:   1,
		},
	}
	r := NewRetrier(policies, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := r.Do(ctx, "test", func(ctx context.Context) error {
		return fmt.Errorf("timeout")
	})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(TierTransient, fmt.Errorf("x"))))
	assert.True(t, IsRetryable(New(TierRateLimit, fmt.Errorf("x"))))
	assert.True(t, IsRetryable(New(TierDegrading, fmt.Errorf("x"))))
	assert.False(t, IsRetryable(New(TierPermanent, fmt.Errorf("x"))))
	assert.False(t, IsRetryable(New(TierUserFixable, fmt.Errorf("x"))))
}
