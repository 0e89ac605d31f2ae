package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/meridianlabs/meridian/llm"
	"github.com/meridianlabs/meridian/model"
)

// fakeProvider is a scriptable in-memory llm.Provider.
type fakeProvider struct {
	mu    sync.Mutex
	calls int
	chat  func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error)
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-model" }

func (f *fakeProvider) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.chat != nil {
		return f.chat(ctx, req)
	}
	return llm.ChatResponse{Content: "ok"}, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestExecutor(provider llm.Provider, maxRequests int, opts Options) *Executor {
	cache := NewCache(10, time.Minute)
	limiter := NewLimiter(time.Minute, maxRequests)
	return NewExecutor(provider, cache, limiter, opts)
}

func userRequest(content string) Request {
	return Request{
		Messages:      []model.ChatMessage{{Role: "user", Content: content}},
		CacheEligible: true,
	}
}

func TestExecutorCachesIdenticalRequests(t *testing.T) {
	provider := &fakeProvider{}
	executor := newTestExecutor(provider, 100, Options{})
	defer executor.Close()

	ctx := context.Background()

	first, err := executor.Execute(ctx, userRequest("explore my data"))
	if err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}
	second, err := executor.Execute(ctx, userRequest("explore my data"))
	if err != nil {
		t.Fatalf("second Execute failed: %v", err)
	}

	if provider.callCount() != 1 {
		t.Errorf("expected 1 provider call for identical requests, got %d", provider.callCount())
	}
	if first.Content != second.Content {
		t.Errorf("expected identical responses, got %q and %q", first.Content, second.Content)
	}
}

func TestExecutorSkipsCacheWhenIneligible(t *testing.T) {
	provider := &fakeProvider{}
	executor := newTestExecutor(provider, 100, Options{})
	defer executor.Close()

	ctx := context.Background()

	req := userRequest("explore my data")
	req.CacheEligible = false

	if _, err := executor.Execute(ctx, req); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if _, err := executor.Execute(ctx, req); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if provider.callCount() != 2 {
		t.Errorf("expected 2 provider calls without caching, got %d", provider.callCount())
	}
}

func TestExecutorCacheHitBypassesRateLimit(t *testing.T) {
	provider := &fakeProvider{}
	executor := newTestExecutor(provider, 1, Options{})
	defer executor.Close()

	ctx := context.Background()

	// First call consumes the entire budget.
	if _, err := executor.Execute(ctx, userRequest("explore my data")); err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}

	// Identical request is served from cache despite the full window.
	if _, err := executor.Execute(ctx, userRequest("explore my data")); err != nil {
		t.Errorf("expected cache hit to bypass rate limit: %v", err)
	}

	// A different request is refused locally, before reaching the queue.
	_, err := executor.Execute(ctx, userRequest("something else"))
	var rateErr *RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected *RateLimitError, got %v", err)
	}
	if provider.callCount() != 1 {
		t.Errorf("expected refused request to never reach the provider, got %d calls", provider.callCount())
	}
}

func TestExecutorFailedCallDoesNotChargeBudget(t *testing.T) {
	provider := &fakeProvider{
		chat: func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
			return llm.ChatResponse{}, errors.New("boom")
		},
	}
	executor := newTestExecutor(provider, 1, Options{})
	defer executor.Close()

	ctx := context.Background()

	if _, err := executor.Execute(ctx, userRequest("first")); err == nil {
		t.Fatal("expected provider failure")
	}

	// The failed call consumed no budget, so the next one is admitted.
	if _, err := executor.Execute(ctx, userRequest("second")); err == nil {
		t.Fatal("expected provider failure")
	}
	if provider.callCount() != 2 {
		t.Errorf("expected both requests admitted, got %d provider calls", provider.callCount())
	}
}

func TestExecutorClassifiesProviderErrors(t *testing.T) {
	provider := &fakeProvider{
		chat: func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
			return llm.ChatResponse{}, &openai.APIError{HTTPStatusCode: 401, Message: "bad key"}
		},
	}
	executor := newTestExecutor(provider, 100, Options{})
	defer executor.Close()

	_, err := executor.Execute(context.Background(), userRequest("hello"))

	var providerErr *llm.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected *llm.ProviderError, got %v", err)
	}
	if providerErr.Kind != llm.FailureUnauthorized {
		t.Errorf("expected FailureUnauthorized, got %s", providerErr.Kind)
	}
	if !providerErr.Config() {
		t.Error("expected 401 to be a configuration failure")
	}
}

func TestExecutorPassesThroughClassifiedErrors(t *testing.T) {
	original := &llm.ProviderError{Provider: "fake", Kind: llm.FailureRateLimited, Err: errors.New("upstream 429")}
	provider := &fakeProvider{
		chat: func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
			return llm.ChatResponse{}, original
		},
	}
	executor := newTestExecutor(provider, 100, Options{})
	defer executor.Close()

	_, err := executor.Execute(context.Background(), userRequest("hello"))

	var providerErr *llm.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected *llm.ProviderError, got %v", err)
	}
	if providerErr.Kind != llm.FailureRateLimited {
		t.Errorf("expected FailureRateLimited preserved, got %s", providerErr.Kind)
	}
}

func TestExecutorTimeoutSurfacesAsUnavailable(t *testing.T) {
	provider := &fakeProvider{
		chat: func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
			<-ctx.Done()
			return llm.ChatResponse{}, ctx.Err()
		},
	}
	executor := newTestExecutor(provider, 100, Options{RequestTimeout: 20 * time.Millisecond})
	defer executor.Close()

	_, err := executor.Execute(context.Background(), userRequest("slow question"))

	var providerErr *llm.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected *llm.ProviderError, got %v", err)
	}
	if providerErr.Kind != llm.FailureUnavailable {
		t.Errorf("expected FailureUnavailable for timeout, got %s", providerErr.Kind)
	}
}

func TestExecutorSerializesProviderCalls(t *testing.T) {
	var inFlight, overlapped int32
	provider := &fakeProvider{
		chat: func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
			if atomic.AddInt32(&inFlight, 1) > 1 {
				atomic.StoreInt32(&overlapped, 1)
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return llm.ChatResponse{Content: "ok"}, nil
		},
	}
	executor := newTestExecutor(provider, 100, Options{})
	defer executor.Close()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			req := userRequest(string(rune('a' + n)))
			req.CacheEligible = false
			if _, err := executor.Execute(context.Background(), req); err != nil {
				t.Errorf("Execute failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if atomic.LoadInt32(&overlapped) != 0 {
		t.Error("provider calls overlapped; expected strict serialization")
	}
	if provider.callCount() != 5 {
		t.Errorf("expected 5 provider calls, got %d", provider.callCount())
	}
}

func TestExecutorCancelledContext(t *testing.T) {
	provider := &fakeProvider{}
	executor := newTestExecutor(provider, 100, Options{})
	defer executor.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := executor.Execute(ctx, userRequest("hello"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
