// Provider factory.
//
// Quick start:
//
//	// Default: OpenRouter, API key from OPENROUTER_API_KEY
//	provider, err := llm.ProviderOpenRouter.FromEnv()
//
//	// Specific model
//	provider, err := llm.ProviderAnthropic.Model(llm.ModelAnthropicSonnet4).FromEnv()
//
//	// Explicit API key
//	provider, err := llm.ProviderOpenAI.APIKey("sk-...")

package llm

import (
	"fmt"
	"os"
	"strings"
)

// ProviderType represents supported chat-completion providers.
type ProviderType int

const (
	// ProviderOpenRouter is the OpenRouter aggregator (default).
	ProviderOpenRouter ProviderType = iota
	// ProviderOpenAI is the OpenAI provider.
	ProviderOpenAI
	// ProviderAnthropic is the Anthropic provider.
	ProviderAnthropic
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini
)

// Default model identifiers.
const (
	// ModelOpenRouterDefault routes to GPT-4o-mini through OpenRouter.
	ModelOpenRouterDefault = "openai/gpt-4o-mini"
	// ModelOpenAIGPT4oMini is GPT-4o-mini.
	ModelOpenAIGPT4oMini = "gpt-4o-mini"
	// ModelOpenAIGPT4o is GPT-4o.
	ModelOpenAIGPT4o = "gpt-4o"
	// ModelAnthropicSonnet4 is Claude Sonnet 4.
	ModelAnthropicSonnet4 = "claude-sonnet-4-20250514"
	// ModelGeminiFlash2 is Gemini 2.0 Flash.
	ModelGeminiFlash2 = "gemini-2.0-flash"
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	switch p {
	case ProviderOpenRouter:
		return "openrouter"
	case ProviderOpenAI:
		return "openai"
	case ProviderAnthropic:
		return "anthropic"
	case ProviderGemini:
		return "gemini"
	default:
		return "unknown"
	}
}

// EnvVar returns the environment variable name for this provider's API key.
func (p ProviderType) EnvVar() string {
	switch p {
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// DefaultModel returns the default model for this provider.
func (p ProviderType) DefaultModel() string {
	switch p {
	case ProviderOpenRouter:
		return ModelOpenRouterDefault
	case ProviderOpenAI:
		return ModelOpenAIGPT4oMini
	case ProviderAnthropic:
		return ModelAnthropicSonnet4
	case ProviderGemini:
		return ModelGeminiFlash2
	default:
		return ""
	}
}

// ParseProviderType parses a provider from string (case-insensitive).
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(s) {
	case "openrouter", "":
		return ProviderOpenRouter, nil
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "gemini", "google":
		return ProviderGemini, nil
	default:
		return 0, fmt.Errorf("unknown provider: %s", s)
	}
}

// FromEnv creates a provider with defaults, reading the API key from the
// environment.
func (p ProviderType) FromEnv() (Provider, error) {
	return NewProviderBuilder(p).FromEnv()
}

// Model starts configuring this provider with a specific model.
func (p ProviderType) Model(model string) *ProviderBuilder {
	return NewProviderBuilder(p).Model(model)
}

// APIKey creates a provider with an explicit API key and default settings.
func (p ProviderType) APIKey(key string) (Provider, error) {
	return NewProviderBuilder(p).APIKey(key)
}

// ProviderBuilder is a builder for configuring providers.
type ProviderBuilder struct {
	providerType ProviderType
	model        string
	maxTokens    uint32
	appReferer   string
	appTitle     string
}

// NewProviderBuilder creates a new builder for the given provider.
func NewProviderBuilder(providerType ProviderType) *ProviderBuilder {
	return &ProviderBuilder{providerType: providerType}
}

// Model sets the default model to use.
func (b *ProviderBuilder) Model(model string) *ProviderBuilder {
	b.model = model
	return b
}

// MaxTokens sets the default maximum tokens for responses.
func (b *ProviderBuilder) MaxTokens(tokens uint32) *ProviderBuilder {
	b.maxTokens = tokens
	return b
}

// Attribution sets the OpenRouter attribution headers. Ignored by other
// providers.
func (b *ProviderBuilder) Attribution(referer, title string) *ProviderBuilder {
	b.appReferer = referer
	b.appTitle = title
	return b
}

// FromEnv builds the provider, reading the API key from the environment.
func (b *ProviderBuilder) FromEnv() (Provider, error) {
	envVar := b.providerType.EnvVar()
	apiKey := os.Getenv(envVar)
	if apiKey == "" {
		return nil, &ProviderError{
			Provider: b.providerType.String(),
			Kind:     FailureUnauthorized,
			Err:      fmt.Errorf("%s environment variable not set", envVar),
		}
	}
	return b.build(apiKey)
}

// APIKey builds the provider with an explicit API key.
func (b *ProviderBuilder) APIKey(key string) (Provider, error) {
	return b.build(key)
}

func (b *ProviderBuilder) build(apiKey string) (Provider, error) {
	model := b.model
	if model == "" {
		model = b.providerType.DefaultModel()
	}

	maxTokens := b.maxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	switch b.providerType {
	case ProviderOpenRouter:
		return NewOpenRouterProvider(apiKey, model, maxTokens, OpenRouterOptions{
			Referer: b.appReferer,
			Title:   b.appTitle,
		}), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey, model, maxTokens), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(apiKey, model, maxTokens), nil
	case ProviderGemini:
		return NewGeminiProvider(apiKey, model, maxTokens), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %v", b.providerType)
	}
}
