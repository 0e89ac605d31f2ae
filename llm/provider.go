// Package llm provides chat-completion provider abstractions.
//
// Each provider implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Provider-specific error shapes (normalized via Classify)

package llm

import (
	"context"

	"github.com/meridianlabs/meridian/model"
)

// ChatRequest is a single chat-completion request.
type ChatRequest struct {
	// Model overrides the provider's default model when non-empty.
	Model string

	// Messages is the ordered conversation, including any system turn.
	Messages []model.ChatMessage

	// Temperature controls sampling randomness.
	Temperature float32

	// MaxTokens bounds the response size. Zero means provider default.
	MaxTokens int
}

// TokenUsage contains token usage from an LLM call.
type TokenUsage struct {
	PromptTokens     uint32 `json:"prompt_tokens"`
	CompletionTokens uint32 `json:"completion_tokens"`
	TotalTokens      uint32 `json:"total_tokens"`
}

// ChatResponse is a provider's reply to a ChatRequest.
type ChatResponse struct {
	Content string
	Usage   *TokenUsage
}

// Provider defines the abstract interface for chat-completion providers.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the default model used when a request names none.
	Model() string

	// Chat sends a chat-completion request. Errors are normalized to
	// *ProviderError so callers can classify failures uniformly.
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}
