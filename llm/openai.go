// OpenAI provider implementation using the go-openai library.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for the OpenAI Chat Completions API

package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/meridianlabs/meridian/model"
)

// OpenAIProvider implements the Provider interface for OpenAI.
type OpenAIProvider struct {
	client    *openai.Client
	name      string
	model     string
	maxTokens int
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(apiKey, model string, maxTokens uint32) *OpenAIProvider {
	return &OpenAIProvider{
		client:    openai.NewClient(apiKey),
		name:      "openai",
		model:     model,
		maxTokens: int(maxTokens),
	}
}

// newOpenAICompatProvider creates a provider for any OpenAI-compatible
// endpoint. Used by the OpenRouter adapter.
func newOpenAICompatProvider(name string, cfg openai.ClientConfig, model string, maxTokens uint32) *OpenAIProvider {
	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(cfg),
		name:      name,
		model:     model,
		maxTokens: int(maxTokens),
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Model returns the default model.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// Chat sends a chat-completion request.
func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	m := req.Model
	if m == "" {
		m = p.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.maxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       m,
		Messages:    convertToOpenAIMessages(req.Messages),
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return ChatResponse{}, Classify(p.name, err)
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	usage := &TokenUsage{
		PromptTokens:     uint32(resp.Usage.PromptTokens),
		CompletionTokens: uint32(resp.Usage.CompletionTokens),
		TotalTokens:      uint32(resp.Usage.TotalTokens),
	}

	return ChatResponse{Content: content, Usage: usage}, nil
}

// convertToOpenAIMessages converts model.ChatMessage to the SDK type.
func convertToOpenAIMessages(messages []model.ChatMessage) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		result[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return result
}

// Verify OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)
