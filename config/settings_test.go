package config

import (
	"os"
	"testing"
	"time"
)

func TestNewValidProvider(t *testing.T) {
	settings, err := New("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %q", settings.LLM.Provider)
	}
}

func TestNewDefaultsToOpenRouter(t *testing.T) {
	settings, err := New("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "openrouter" {
		t.Errorf("expected default provider 'openrouter', got %q", settings.LLM.Provider)
	}
}

func TestNewWithAlias(t *testing.T) {
	settings, err := New("claude")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "anthropic" {
		t.Errorf("expected provider 'anthropic' (normalized from 'claude'), got %q", settings.LLM.Provider)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("unknown_provider")
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewEngineDefaults(t *testing.T) {
	for _, key := range []string{
		"CACHE_MAX_ENTRIES", "CACHE_TTL_MS", "RATE_WINDOW_MS", "RATE_MAX_REQUESTS",
		"INTER_REQUEST_DELAY_MS", "REQUEST_TIMEOUT_MS", "MAX_HISTORY_TURNS",
	} {
		original := os.Getenv(key)
		os.Unsetenv(key)
		defer os.Setenv(key, original)
	}

	settings, err := New("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	engine := settings.Engine
	if engine.CacheMaxEntries != 100 {
		t.Errorf("expected cache max entries 100, got %d", engine.CacheMaxEntries)
	}
	if engine.CacheTTL != 5*time.Minute {
		t.Errorf("expected cache TTL 5m, got %s", engine.CacheTTL)
	}
	if engine.RateWindow != time.Minute {
		t.Errorf("expected rate window 1m, got %s", engine.RateWindow)
	}
	if engine.RateMaxRequests != 60 {
		t.Errorf("expected 60 requests per window, got %d", engine.RateMaxRequests)
	}
	if engine.InterRequestDelay != 500*time.Millisecond {
		t.Errorf("expected inter-request delay 500ms, got %s", engine.InterRequestDelay)
	}
	if engine.RequestTimeout != 45*time.Second {
		t.Errorf("expected request timeout 45s, got %s", engine.RequestTimeout)
	}
	if engine.MaxHistoryTurns != 10 {
		t.Errorf("expected 10 history turns, got %d", engine.MaxHistoryTurns)
	}
}

func TestNewEngineOverrides(t *testing.T) {
	original := os.Getenv("CACHE_TTL_MS")
	os.Setenv("CACHE_TTL_MS", "1000")
	defer os.Setenv("CACHE_TTL_MS", original)

	settings, err := New("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Engine.CacheTTL != time.Second {
		t.Errorf("expected cache TTL 1s, got %s", settings.Engine.CacheTTL)
	}
}

func TestNewWithInvalidEnvVar(t *testing.T) {
	original := os.Getenv("RATE_MAX_REQUESTS")
	os.Setenv("RATE_MAX_REQUESTS", "not-a-number")
	defer os.Setenv("RATE_MAX_REQUESTS", original)

	_, err := New("openai")
	if err == nil {
		t.Error("expected error for invalid RATE_MAX_REQUESTS")
	}
}

func TestAPIKeyForValidProvider(t *testing.T) {
	original := os.Getenv("OPENAI_API_KEY")
	os.Setenv("OPENAI_API_KEY", "test-key")
	defer os.Setenv("OPENAI_API_KEY", original)

	key, err := APIKeyFor("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "test-key" {
		t.Errorf("expected 'test-key', got %q", key)
	}
}

func TestAPIKeyForMissing(t *testing.T) {
	original := os.Getenv("OPENAI_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")
	defer os.Setenv("OPENAI_API_KEY", original)

	_, err := APIKeyFor("openai")
	if err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestAPIKeyForUnknownProvider(t *testing.T) {
	_, err := APIKeyFor("unknown")
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestModelFor(t *testing.T) {
	original := os.Getenv("OPENAI_MODEL")
	os.Unsetenv("OPENAI_MODEL")
	defer os.Setenv("OPENAI_MODEL", original)

	model, err := ModelFor("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model != "gpt-4o-mini" {
		t.Errorf("expected default model 'gpt-4o-mini', got %q", model)
	}
}

func TestModelForEnvOverride(t *testing.T) {
	original := os.Getenv("OPENAI_MODEL")
	os.Setenv("OPENAI_MODEL", "gpt-4o")
	defer os.Setenv("OPENAI_MODEL", original)

	model, err := ModelFor("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model != "gpt-4o" {
		t.Errorf("expected 'gpt-4o' from environment, got %q", model)
	}
}

func TestMustNewPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for unknown provider")
		}
	}()
	MustNew("unknown_provider")
}

func TestSupportedProviders(t *testing.T) {
	providers := SupportedProviders()
	if len(providers) == 0 {
		t.Error("expected at least one supported provider")
	}
}
