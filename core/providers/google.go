package providers

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// GoogleProvider implements Provider for Google's Gemini models.
type GoogleProvider struct {
	client *genai.Client
	config GoogleConfig
}

// Supported Google models.
var googleModels = map[string]bool{
	"gemini-3-pro":   true,
	"gemini-3-flash": true,
}

// NewGoogleProvider creates a new Google provider. The genai client talks to
// the Gemini API by default and to Vertex AI when configured.
func NewGoogleProvider(ctx context.Context, config GoogleConfig) (*GoogleProvider, error) {
	if config.Model == "" {
		config.Model = DefaultGoogleConfig().Model
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultGoogleConfig().MaxTokens
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
	}
	if config.UseVertexAI {
		clientConfig.Backend = genai.BackendVertexAI
		clientConfig.Project = config.ProjectID
		clientConfig.Location = config.Location
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("google provider: %w", err)
	}

	return &GoogleProvider{
		client: client,
		config: config,
	}, nil
}

// Name returns the provider identifier.
func (p *GoogleProvider) Name() string {
	return string(ProviderTypeGoogle)
}

// Complete performs a non-streaming completion request.
func (p *GoogleProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = p.config.Model
	}

	contents := p.convertMessages(req.Messages)
	genCfg := p.buildConfig(req)

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("google complete: %w", err)
	}

	out := &Response{
		Content:    resp.Text(),
		Model:      model,
		StopReason: StopEndTurn,
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		out.StopReason = StopMaxTokens
	}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

// SupportsModel checks if the provider supports the given model.
func (p *GoogleProvider) SupportsModel(model string) bool {
	return googleModels[model]
}

// MaxContextTokens returns the context window for a model.
func (p *GoogleProvider) MaxContextTokens(model string) int {
	return 1000000
}

// ValidateConfig checks if the provider configuration is valid.
func (p *GoogleProvider) ValidateConfig() error {
	return p.config.Validate()
}

// Close cleans up any resources.
func (p *GoogleProvider) Close() error {
	return nil
}

func (p *GoogleProvider) buildConfig(req *Request) *genai.GenerateContentConfig {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*req.Temperature))
	} else if p.config.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(p.config.Temperature))
	}
	if req.JSONOnly {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

func (p *GoogleProvider) convertMessages(messages []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		parts := make([]*genai.Part, 0, len(msg.Parts))
		for _, part := range msg.Parts {
			if part.IsImage() {
				parts = append(parts, genai.NewPartFromBytes(part.ImageData, part.ImageMIME))
				continue
			}
			parts = append(parts, genai.NewPartFromText(part.Text))
		}

		role := genai.RoleUser
		if msg.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.Role(role)))
	}
	return contents
}
