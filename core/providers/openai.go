package providers

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIProvider implements Provider for OpenAI's GPT models.
type OpenAIProvider struct {
	client *openai.Client
	config OpenAIConfig
}

// Supported OpenAI models.
var openaiModels = map[string]bool{
	"gpt-5.2":      true,
	"gpt-5.2-mini": true,
}

// NewOpenAIProvider creates a new OpenAI provider with the given
// configuration.
func NewOpenAIProvider(config OpenAIConfig) (*OpenAIProvider, error) {
	if config.Model == "" {
		config.Model = DefaultOpenAIConfig().Model
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultOpenAIConfig().MaxTokens
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if config.Organization != "" {
		opts = append(opts, option.WithHeader("OpenAI-Organization", config.Organization))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}

	client := openai.NewClient(opts...)

	return &OpenAIProvider{
		client: &client,
		config: config,
	}, nil
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string {
	return string(ProviderTypeOpenAI)
}

// Complete performs a non-streaming completion request.
func (p *OpenAIProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	params := p.buildParams(req)

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai complete: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai complete: empty choices")
	}

	choice := completion.Choices[0]
	stopReason := StopEndTurn
	if choice.FinishReason == "length" {
		stopReason = StopMaxTokens
	}

	return &Response{
		Content:    choice.Message.Content,
		Model:      completion.Model,
		StopReason: stopReason,
		Usage: Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:  int(completion.Usage.TotalTokens),
		},
	}, nil
}

// SupportsModel checks if the provider supports the given model.
func (p *OpenAIProvider) SupportsModel(model string) bool {
	return openaiModels[model]
}

// MaxContextTokens returns the context window for a model.
func (p *OpenAIProvider) MaxContextTokens(model string) int {
	return 400000
}

// ValidateConfig checks if the provider configuration is valid.
func (p *OpenAIProvider) ValidateConfig() error {
	return p.config.Validate()
}

// Close cleans up any resources.
func (p *OpenAIProvider) Close() error {
	return nil
}

func (p *OpenAIProvider) buildParams(req *Request) openai.ChatCompletionNewParams {
	model := req.Model
	if model == "" {
		model = p.config.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	for _, msg := range req.Messages {
		messages = append(messages, p.convertMessage(msg))
	}

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(model),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
	}

	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	} else if p.config.Temperature > 0 {
		params.Temperature = openai.Float(p.config.Temperature)
	}

	if req.JSONOnly {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	return params
}

func (p *OpenAIProvider) convertMessage(msg Message) openai.ChatCompletionMessageParamUnion {
	if msg.Role == RoleAssistant {
		return openai.AssistantMessage(joinTextParts(msg.Parts))
	}

	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(msg.Parts))
	for _, part := range msg.Parts {
		if part.IsImage() {
			url := fmt.Sprintf("data:%s;base64,%s",
				part.ImageMIME, base64.StdEncoding.EncodeToString(part.ImageData))
			parts = append(parts, openai.ImageContentPart(
				openai.ChatCompletionContentPartImageImageURLParam{URL: url}))
			continue
		}
		parts = append(parts, openai.TextContentPart(part.Text))
	}
	return openai.UserMessage(parts)
}

func joinTextParts(parts []Part) string {
	var out string
	for _, part := range parts {
		if !part.IsImage() {
			out += part.Text
		}
	}
	return out
}
