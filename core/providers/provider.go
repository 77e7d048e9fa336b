// Package providers wraps the hosted LLM vendor SDKs behind one interface.
// Requests are multimodal: extraction passes send prompt text plus the
// screenshot or export excerpt being analyzed.
package providers

import (
	"context"
)

// Provider is a single LLM vendor.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req *Request) (*Response, error)
	SupportsModel(model string) bool
	MaxContextTokens(model string) int
	ValidateConfig() error
	Close() error
}

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Part is one piece of message content: text, or an inline image.
type Part struct {
	Text      string `json:"text,omitempty"`
	ImageData []byte `json:"image_data,omitempty"`
	ImageMIME string `json:"image_mime,omitempty"`
}

// TextPart builds a text content part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// ImagePart builds an inline image content part.
func ImagePart(data []byte, mime string) Part {
	return Part{ImageData: data, ImageMIME: mime}
}

// IsImage reports whether the part carries image data.
func (p Part) IsImage() bool { return len(p.ImageData) > 0 }

// Message is a single conversation turn.
type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// UserText builds a single-part user message.
func UserText(text string) Message {
	return Message{Role: RoleUser, Parts: []Part{TextPart(text)}}
}

// Request is a vendor-agnostic completion request.
type Request struct {
	Model        string    `json:"model,omitempty"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Messages     []Message `json:"messages"`
	MaxTokens    int       `json:"max_tokens,omitempty"`
	Temperature  *float64  `json:"temperature,omitempty"`
	// JSONOnly asks the vendor for a JSON-constrained response where the
	// API supports it; extraction passes set this.
	JSONOnly bool `json:"json_only,omitempty"`
}

// StopReason mirrors the vendor stop conditions we care about.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopMaxTokens StopReason = "max_tokens"
	StopError     StopReason = "error"
)

// Usage is token accounting for one call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Response is a vendor-agnostic completion response.
type Response struct {
	Content    string     `json:"content"`
	Model      string     `json:"model"`
	StopReason StopReason `json:"stop_reason"`
	Usage      Usage      `json:"usage"`
}
