package llm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestClassifyNil(t *testing.T) {
	if err := Classify("test", nil); err != nil {
		t.Errorf("expected nil for nil error, got %v", err)
	}
}

func TestClassifyPassesThroughClassified(t *testing.T) {
	original := &ProviderError{Provider: "openai", Kind: FailureRateLimited, Err: errors.New("429")}

	classified := Classify("other", fmt.Errorf("wrapped: %w", original))

	var providerErr *ProviderError
	if !errors.As(classified, &providerErr) {
		t.Fatalf("expected *ProviderError, got %T", classified)
	}
	if providerErr.Kind != FailureRateLimited {
		t.Errorf("expected original kind preserved, got %s", providerErr.Kind)
	}
	if providerErr.Provider != "openai" {
		t.Errorf("expected original provider preserved, got %q", providerErr.Provider)
	}
}

func TestClassifyOpenAIStatusCodes(t *testing.T) {
	tests := []struct {
		status int
		kind   FailureKind
	}{
		{401, FailureUnauthorized},
		{429, FailureRateLimited},
		{500, FailureUnavailable},
		{503, FailureUnavailable},
		{400, FailureUnknown},
	}

	for _, tt := range tests {
		err := Classify("openai", &openai.APIError{HTTPStatusCode: tt.status})

		var providerErr *ProviderError
		if !errors.As(err, &providerErr) {
			t.Fatalf("status %d: expected *ProviderError, got %T", tt.status, err)
		}
		if providerErr.Kind != tt.kind {
			t.Errorf("status %d: expected %s, got %s", tt.status, tt.kind, providerErr.Kind)
		}
	}
}

func TestClassifyRequestErrorWithoutStatus(t *testing.T) {
	err := Classify("openai", &openai.RequestError{Err: errors.New("dial tcp: refused")})

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected *ProviderError, got %T", err)
	}
	if providerErr.Kind != FailureNetwork {
		t.Errorf("expected FailureNetwork, got %s", providerErr.Kind)
	}
}

func TestClassifyURLError(t *testing.T) {
	err := Classify("openrouter", &url.Error{Op: "Post", URL: "https://openrouter.ai", Err: errors.New("connection refused")})

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected *ProviderError, got %T", err)
	}
	if providerErr.Kind != FailureNetwork {
		t.Errorf("expected FailureNetwork, got %s", providerErr.Kind)
	}
}

func TestClassifyDeadlineExceeded(t *testing.T) {
	err := Classify("openai", context.DeadlineExceeded)

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected *ProviderError, got %T", err)
	}
	if providerErr.Kind != FailureUnavailable {
		t.Errorf("expected FailureUnavailable for timeout, got %s", providerErr.Kind)
	}
}

func TestClassifyUnknown(t *testing.T) {
	err := Classify("openai", errors.New("something odd"))

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected *ProviderError, got %T", err)
	}
	if providerErr.Kind != FailureUnknown {
		t.Errorf("expected FailureUnknown, got %s", providerErr.Kind)
	}
}

func TestProviderErrorConfig(t *testing.T) {
	unauthorized := &ProviderError{Kind: FailureUnauthorized}
	if !unauthorized.Config() {
		t.Error("expected unauthorized to be a configuration failure")
	}

	for _, kind := range []FailureKind{FailureUnknown, FailureRateLimited, FailureUnavailable, FailureNetwork} {
		if (&ProviderError{Kind: kind}).Config() {
			t.Errorf("expected %s not to be a configuration failure", kind)
		}
	}
}

func TestProviderErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &ProviderError{Provider: "openai", Kind: FailureUnknown, Err: inner}

	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to expose the underlying error")
	}
}
