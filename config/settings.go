// Package config provides application settings loaded from environment
// variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific configuration lookup

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings holds all application configuration.
type Settings struct {
	LLM    LLMConfig
	Engine EngineConfig
}

// LLMConfig holds provider configuration.
type LLMConfig struct {
	Provider  string
	Model     string
	MaxTokens uint32
}

// EngineConfig holds request-engine tunables.
type EngineConfig struct {
	// CacheMaxEntries bounds the response cache.
	CacheMaxEntries int

	// CacheTTL is how long a cached response stays readable.
	CacheTTL time.Duration

	// RateWindow is the trailing admission window per caller.
	RateWindow time.Duration

	// RateMaxRequests is the admission budget per window.
	RateMaxRequests int

	// InterRequestDelay is the pause between consecutive provider calls.
	InterRequestDelay time.Duration

	// RequestTimeout bounds each outbound provider call.
	RequestTimeout time.Duration

	// MaxHistoryTurns bounds conversation history sent per step.
	MaxHistoryTurns int
}

// providerInfo holds configuration for a specific provider.
type providerInfo struct {
	modelEnv     string
	defaultModel string
	apiKeyEnv    string
}

// Supported providers and their configuration.
var providers = map[string]providerInfo{
	"openrouter": {"OPENROUTER_MODEL", "openai/gpt-4o-mini", "OPENROUTER_API_KEY"},
	"openai":     {"OPENAI_MODEL", "gpt-4o-mini", "OPENAI_API_KEY"},
	"anthropic":  {"ANTHROPIC_MODEL", "claude-sonnet-4-20250514", "ANTHROPIC_API_KEY"},
	"gemini":     {"GEMINI_MODEL", "gemini-2.0-flash", "GEMINI_API_KEY"},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
	"":       "openrouter",
}

// New creates settings for the specified provider, loading values from
// environment variables. Returns an error if the provider is unknown or
// an environment variable contains an invalid value.
func New(provider string) (Settings, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return Settings{}, err
	}

	maxTokens, err := getEnvUint32("LLM_MAX_TOKENS", 4096)
	if err != nil {
		return Settings{}, err
	}

	cacheMaxEntries, err := getEnvInt("CACHE_MAX_ENTRIES", 100)
	if err != nil {
		return Settings{}, err
	}
	cacheTTL, err := getEnvMillis("CACHE_TTL_MS", 5*time.Minute)
	if err != nil {
		return Settings{}, err
	}
	rateWindow, err := getEnvMillis("RATE_WINDOW_MS", time.Minute)
	if err != nil {
		return Settings{}, err
	}
	rateMaxRequests, err := getEnvInt("RATE_MAX_REQUESTS", 60)
	if err != nil {
		return Settings{}, err
	}
	interRequestDelay, err := getEnvMillis("INTER_REQUEST_DELAY_MS", 500*time.Millisecond)
	if err != nil {
		return Settings{}, err
	}
	requestTimeout, err := getEnvMillis("REQUEST_TIMEOUT_MS", 45*time.Second)
	if err != nil {
		return Settings{}, err
	}
	maxHistoryTurns, err := getEnvInt("MAX_HISTORY_TURNS", 10)
	if err != nil {
		return Settings{}, err
	}

	// Model from environment or provider default.
	model := os.Getenv(info.modelEnv)
	if model == "" {
		model = info.defaultModel
	}

	return Settings{
		LLM: LLMConfig{
			Provider:  provider,
			Model:     model,
			MaxTokens: maxTokens,
		},
		Engine: EngineConfig{
			CacheMaxEntries:   cacheMaxEntries,
			CacheTTL:          cacheTTL,
			RateWindow:        rateWindow,
			RateMaxRequests:   rateMaxRequests,
			InterRequestDelay: interRequestDelay,
			RequestTimeout:    requestTimeout,
			MaxHistoryTurns:   maxHistoryTurns,
		},
	}, nil
}

// MustNew creates settings for the specified provider.
// Panics if the provider is unknown or environment variables are invalid.
// Use this only when configuration errors should be fatal.
func MustNew(provider string) Settings {
	settings, err := New(provider)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(provider)
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// getProviderInfo returns configuration for a provider.
func getProviderInfo(provider string) (providerInfo, error) {
	info, ok := providers[provider]
	if !ok {
		return providerInfo{}, fmt.Errorf("unknown provider: %q", provider)
	}
	return info, nil
}

// APIKeyFor returns the API key for a provider from environment variables.
func APIKeyFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	key := os.Getenv(info.apiKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", info.apiKeyEnv)
	}
	return key, nil
}

// ModelFor returns the model for a provider, checking environment first.
func ModelFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	if val := os.Getenv(info.modelEnv); val != "" {
		return val, nil
	}
	return info.defaultModel, nil
}

// SupportedProviders returns the list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	return result
}

// Environment variable helpers with proper error handling

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvMillis(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	ms, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
