// Provider failure classification.
//
// Every provider adapter funnels its errors through Classify so that the
// gateway and orchestrator can branch on a single taxonomy instead of
// four SDKs' error shapes.

package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// FailureKind classifies a provider failure.
type FailureKind int

const (
	// FailureUnknown is an unclassified provider failure.
	FailureUnknown FailureKind = iota
	// FailureUnauthorized is an authentication failure (HTTP 401).
	// Surfaced to users as a configuration problem, not a transient one.
	FailureUnauthorized
	// FailureRateLimited is an upstream rate-limit rejection (HTTP 429).
	FailureRateLimited
	// FailureUnavailable is a provider-side outage (5xx) or call timeout.
	FailureUnavailable
	// FailureNetwork is a connection-level failure before any response.
	FailureNetwork
)

// String returns the string representation of the failure kind.
func (k FailureKind) String() string {
	switch k {
	case FailureUnauthorized:
		return "unauthorized"
	case FailureRateLimited:
		return "rate_limited_upstream"
	case FailureUnavailable:
		return "provider_unavailable"
	case FailureNetwork:
		return "network_error"
	default:
		return "unknown"
	}
}

// ProviderError is a classified provider failure.
type ProviderError struct {
	Provider string
	Kind     FailureKind
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Config reports whether the failure is a configuration problem the user
// must fix (as opposed to one worth retrying later).
func (e *ProviderError) Config() bool {
	return e.Kind == FailureUnauthorized
}

// Classify wraps err in a ProviderError with the failure kind derived
// from the underlying SDK error. Already-classified errors pass through.
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}

	return &ProviderError{
		Provider: provider,
		Kind:     kindOf(err),
		Err:      err,
	}
}

func kindOf(err error) FailureKind {
	// Timeouts count as the provider being unavailable: the call was
	// admitted but never answered within the deadline.
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureUnavailable
	}

	// go-openai (also used for OpenRouter).
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return kindOfStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode > 0 {
			return kindOfStatus(reqErr.HTTPStatusCode)
		}
		return FailureNetwork
	}

	// anthropic-sdk-go.
	var antErr *anthropic.Error
	if errors.As(err, &antErr) {
		return kindOfStatus(antErr.StatusCode)
	}

	// google.golang.org/genai.
	var genErr genai.APIError
	if errors.As(err, &genErr) {
		return kindOfStatus(genErr.Code)
	}

	// Connection-level failures.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return FailureUnavailable
		}
		return FailureNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return FailureUnavailable
		}
		return FailureNetwork
	}

	return FailureUnknown
}

func kindOfStatus(status int) FailureKind {
	switch {
	case status == 401:
		return FailureUnauthorized
	case status == 429:
		return FailureRateLimited
	case status >= 500:
		return FailureUnavailable
	default:
		return FailureUnknown
	}
}
