// OpenRouter provider implementation.
//
// OpenRouter exposes an OpenAI-compatible chat-completions API, so this
// reuses the go-openai client pointed at the OpenRouter base URL. The
// attribution headers OpenRouter asks apps to send (HTTP-Referer and
// X-Title) are injected through a RoundTripper because go-openai's
// ClientConfig has no default-header hook.

package llm

import (
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterOptions configures the optional attribution headers.
type OpenRouterOptions struct {
	// Referer identifies the calling application (HTTP-Referer header).
	Referer string
	// Title is the human-readable app name (X-Title header).
	Title string
}

// NewOpenRouterProvider creates a provider backed by OpenRouter.
func NewOpenRouterProvider(apiKey, model string, maxTokens uint32, opts OpenRouterOptions) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = openRouterBaseURL
	if opts.Referer != "" || opts.Title != "" {
		cfg.HTTPClient = &http.Client{
			Transport: &attributionTransport{
				referer: opts.Referer,
				title:   opts.Title,
				base:    http.DefaultTransport,
			},
		}
	}
	return newOpenAICompatProvider("openrouter", cfg, model, maxTokens)
}

// attributionTransport adds OpenRouter attribution headers to every request.
type attributionTransport struct {
	referer string
	title   string
	base    http.RoundTripper
}

func (t *attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone before mutating: RoundTrippers must not modify the caller's request.
	clone := req.Clone(req.Context())
	if t.referer != "" {
		clone.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		clone.Header.Set("X-Title", t.title)
	}
	return t.base.RoundTrip(clone)
}
