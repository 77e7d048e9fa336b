package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockProvider is a scripted Provider for tests. Responses are matched by
// substring against the concatenated text of each request; unmatched requests
// get the Fallback response or an error.
type MockProvider struct {
	mu sync.Mutex

	// Responses maps a prompt substring to the canned reply.
	Responses map[string]string

	// Fallback is returned when no substring matches. Empty means error.
	Fallback string

	// Err, when set, is returned for every call.
	Err error

	// FailFirst makes the first N calls fail with Err before succeeding.
	FailFirst int

	calls []Request
}

// NewMockProvider returns a mock with the given scripted responses.
func NewMockProvider(responses map[string]string) *MockProvider {
	return &MockProvider{Responses: responses}
}

// Name returns the provider identifier.
func (m *MockProvider) Name() string { return "mock" }

// Complete returns the scripted response for the request.
func (m *MockProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, *req)

	if m.Err != nil {
		if m.FailFirst == 0 || len(m.calls) <= m.FailFirst {
			return nil, m.Err
		}
	}

	prompt := req.SystemPrompt
	for _, msg := range req.Messages {
		for _, part := range msg.Parts {
			prompt += part.Text
		}
	}

	for needle, reply := range m.Responses {
		if strings.Contains(prompt, needle) {
			return m.respond(reply), nil
		}
	}
	if m.Fallback != "" {
		return m.respond(m.Fallback), nil
	}
	return nil, fmt.Errorf("mock provider: no scripted response for request")
}

func (m *MockProvider) respond(content string) *Response {
	return &Response{
		Content:    content,
		Model:      "mock-model",
		StopReason: StopEndTurn,
		Usage:      Usage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30},
	}
}

// Calls returns a copy of all requests seen so far.
func (m *MockProvider) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many completions were requested.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// SupportsModel always reports true.
func (m *MockProvider) SupportsModel(model string) bool { return true }

// MaxContextTokens returns a fixed window.
func (m *MockProvider) MaxContextTokens(model string) int { return 200000 }

// ValidateConfig always passes.
func (m *MockProvider) ValidateConfig() error { return nil }

// Close is a no-op.
func (m *MockProvider) Close() error { return nil }
