// Serialized request execution.
//
// A single worker drains the queue in FIFO order, issuing one provider
// call at a time with a fixed inter-request delay to smooth bursts.
// This trades throughput for provider-friendliness, which is adequate
// because workflow steps are themselves sequential. The queue is still
// safe under concurrent submission.
//
// Order of checks: cache first (a hit must never be rate-limited), then
// admission, then the queue.

package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/meridianlabs/meridian/llm"
	"github.com/meridianlabs/meridian/model"
)

// DefaultCallerID is used when a request names no caller identity.
const DefaultCallerID = "default"

// Request describes one outbound chat-completion call.
type Request struct {
	// CallerID is the rate-limit identity. Empty means DefaultCallerID.
	CallerID string

	// Model overrides the provider's default model when non-empty.
	Model string

	// Messages is the ordered conversation to send.
	Messages []model.ChatMessage

	// Temperature controls sampling randomness.
	Temperature float32

	// MaxTokens bounds the response size. Zero means provider default.
	MaxTokens int

	// CacheEligible marks responses safe to reuse for identical
	// future requests.
	CacheEligible bool
}

// Options tunes executor behavior.
type Options struct {
	// InterRequestDelay is the pause between consecutive provider calls.
	InterRequestDelay time.Duration

	// RequestTimeout bounds each provider call. Expiry surfaces as a
	// provider-unavailable failure. Zero disables the bound.
	RequestTimeout time.Duration
}

type outcome struct {
	response llm.ChatResponse
	err      error
}

type pending struct {
	ctx      context.Context
	req      llm.ChatRequest
	cacheKey string // empty when not cache-eligible
	callerID string
	done     chan outcome // buffered; worker never blocks on delivery
}

// Executor serializes outbound provider calls behind a cache and a rate
// limiter. Safe for concurrent use.
type Executor struct {
	provider llm.Provider
	cache    *Cache
	limiter  *Limiter
	opts     Options

	queue     chan *pending
	closed    chan struct{}
	closeOnce sync.Once
}

// NewExecutor creates an executor and starts its worker. Callers must
// Close it when done.
func NewExecutor(provider llm.Provider, cache *Cache, limiter *Limiter, opts Options) *Executor {
	x := &Executor{
		provider: provider,
		cache:    cache,
		limiter:  limiter,
		opts:     opts,
		queue:    make(chan *pending, 64),
		closed:   make(chan struct{}),
	}
	go x.work()
	return x
}

// Close stops the worker. In-flight calls finish; queued requests are
// rejected with context.Canceled.
func (x *Executor) Close() {
	x.closeOnce.Do(func() { close(x.closed) })
}

// Execute runs one request through cache, admission, and the serialized
// queue. Errors are one of *RateLimitError, *llm.ProviderError, or a
// context error.
func (x *Executor) Execute(ctx context.Context, req Request) (llm.ChatResponse, error) {
	callerID := req.CallerID
	if callerID == "" {
		callerID = DefaultCallerID
	}

	// Key against the resolved model so requests relying on the
	// provider default hit the same entry as explicit ones.
	modelName := req.Model
	if modelName == "" {
		modelName = x.provider.Model()
	}

	cacheKey := ""
	if req.CacheEligible {
		cacheKey = Key(modelName, req.Temperature, req.Messages)
		if response, ok := x.cache.Get(cacheKey); ok {
			return response, nil
		}
	}

	if err := x.limiter.Allow(callerID); err != nil {
		return llm.ChatResponse{}, err
	}

	p := &pending{
		ctx: ctx,
		req: llm.ChatRequest{
			Model:       req.Model,
			Messages:    req.Messages,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		},
		cacheKey: cacheKey,
		callerID: callerID,
		done:     make(chan outcome, 1),
	}

	select {
	case x.queue <- p:
	case <-x.closed:
		return llm.ChatResponse{}, context.Canceled
	case <-ctx.Done():
		return llm.ChatResponse{}, ctx.Err()
	}

	select {
	case result := <-p.done:
		return result.response, result.err
	case <-ctx.Done():
		// The worker may still execute the call; its result is dropped.
		return llm.ChatResponse{}, ctx.Err()
	}
}

// work drains the queue one request at a time.
func (x *Executor) work() {
	for {
		select {
		case <-x.closed:
			x.drain()
			return
		case p := <-x.queue:
			x.process(p)
			if x.opts.InterRequestDelay > 0 {
				select {
				case <-time.After(x.opts.InterRequestDelay):
				case <-x.closed:
				}
			}
		}
	}
}

func (x *Executor) process(p *pending) {
	// The caller may have given up while queued.
	if err := p.ctx.Err(); err != nil {
		p.done <- outcome{err: err}
		return
	}

	callCtx := p.ctx
	if x.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(p.ctx, x.opts.RequestTimeout)
		defer cancel()
	}

	response, err := x.provider.Chat(callCtx, p.req)
	if err != nil {
		// A tripped deadline means the provider never answered in time.
		if callCtx.Err() == context.DeadlineExceeded && p.ctx.Err() == nil {
			err = &llm.ProviderError{
				Provider: x.provider.Name(),
				Kind:     llm.FailureUnavailable,
				Err:      err,
			}
		} else {
			err = llm.Classify(x.provider.Name(), err)
		}
		p.done <- outcome{err: err}
		return
	}

	x.limiter.Record(p.callerID)
	if p.cacheKey != "" {
		x.cache.Put(p.cacheKey, response)
	}
	p.done <- outcome{response: response}
}

// drain rejects everything still queued at close time.
func (x *Executor) drain() {
	for {
		select {
		case p := <-x.queue:
			p.done <- outcome{err: context.Canceled}
		default:
			return
		}
	}
}
