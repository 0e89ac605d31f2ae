// Google Gemini provider implementation using google.golang.org/genai.
//
// Information Hiding:
// - API authentication and client creation
// - Request/response format for the Gemini API
// - System instruction handling via config

package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/meridianlabs/meridian/model"
)

// GeminiProvider implements the Provider interface for Google Gemini.
type GeminiProvider struct {
	client    *genai.Client
	model     string
	maxTokens int32
	initErr   error // client initialization error, reported on first use
}

// NewGeminiProvider creates a new Gemini provider.
// If client initialization fails, the error is stored and returned on first use.
func NewGeminiProvider(apiKey, model string, maxTokens uint32) *GeminiProvider {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return &GeminiProvider{
			model:     model,
			maxTokens: int32(maxTokens),
			initErr:   fmt.Errorf("failed to initialize Gemini client: %w", err),
		}
	}

	return &GeminiProvider{
		client:    client,
		model:     model,
		maxTokens: int32(maxTokens),
	}
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Model returns the default model.
func (p *GeminiProvider) Model() string {
	return p.model
}

// Chat sends a chat-completion request.
func (p *GeminiProvider) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if p.initErr != nil {
		return ChatResponse{}, Classify("gemini", p.initErr)
	}

	m := req.Model
	if m == "" {
		m = p.model
	}
	maxTokens := int32(req.MaxTokens)
	if maxTokens == 0 {
		maxTokens = p.maxTokens
	}

	contents, systemInstruction := convertToGeminiMessages(req.Messages)

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: maxTokens,
	}
	if systemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}

	resp, err := p.client.Models.GenerateContent(ctx, m, contents, config)
	if err != nil {
		return ChatResponse{}, Classify("gemini", err)
	}

	content := resp.Text()

	var usage *TokenUsage
	if resp.UsageMetadata != nil {
		usage = &TokenUsage{
			PromptTokens:     uint32(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: uint32(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      uint32(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return ChatResponse{Content: content, Usage: usage}, nil
}

// convertToGeminiMessages splits out the system instruction and converts
// the remaining turns to genai contents.
func convertToGeminiMessages(messages []model.ChatMessage) ([]*genai.Content, string) {
	var contents []*genai.Content
	systemInstruction := ""

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			if systemInstruction != "" {
				systemInstruction += "\n\n"
			}
			systemInstruction += msg.Content
		case model.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	return contents, systemInstruction
}

// Verify GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)
