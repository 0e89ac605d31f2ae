// Package orchestration coordinates agent workflows: a rule-based
// planner expands a user request into dependency-ordered steps, a state
// machine tracks each step's lifecycle, and a sequential orchestrator
// drives the steps through the request gateway, threading accumulated
// context forward and aggregating the output into one report.
//
// Engine is the inbound surface: one Submit per user message, observed
// through a stream of step events ending in a final result.

package orchestration

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/meridianlabs/meridian/gateway"
	"github.com/meridianlabs/meridian/llm"
	"github.com/meridianlabs/meridian/model"
)

// RequestExecutor is the request layer the engine drives steps through.
// Satisfied by *gateway.Executor; injected so tests can substitute a
// scripted implementation.
type RequestExecutor interface {
	Execute(ctx context.Context, req gateway.Request) (llm.ChatResponse, error)
}

// Config tunes engine behavior.
type Config struct {
	// CallerID is the rate-limit identity for all requests this engine
	// issues. Empty means the gateway default.
	CallerID string

	// MaxHistoryTurns bounds how many trailing conversation turns reach
	// the provider. Zero means unbounded.
	MaxHistoryTurns int

	// MaxTokens bounds each response. Zero means provider default.
	MaxTokens int
}

// Engine runs agent workflows. A new Submit supersedes any workflow
// still in flight: the old run's remaining results are discarded once
// they resolve.
type Engine struct {
	executor RequestExecutor
	config   Config

	mu       sync.Mutex
	runID    string
	workflow *Workflow
}

// NewEngine creates an engine on top of a request executor.
func NewEngine(executor RequestExecutor, config Config) *Engine {
	return &Engine{executor: executor, config: config}
}

// Submit plans and starts a workflow for one user message. The returned
// channel streams step events and closes after the final result (or
// silently when a newer Submit supersedes this run).
func (e *Engine) Submit(ctx context.Context, userMessage string, sc model.SessionContext) (<-chan Event, error) {
	if strings.TrimSpace(userMessage) == "" {
		return nil, fmt.Errorf("empty message")
	}

	plan := BuildPlan(userMessage, sc)

	events := make(chan Event, 128)
	wf := NewWorkflow(func(ev Event) { events <- ev })

	runID := uuid.NewString()
	e.mu.Lock()
	e.runID = runID
	e.workflow = wf
	e.mu.Unlock()

	go func() {
		defer close(events)
		e.run(ctx, runID, plan, wf, userMessage, sc, events)
	}()

	return events, nil
}

// Run is the synchronous form of Submit: it drains the event stream and
// returns the final result.
func (e *Engine) Run(ctx context.Context, userMessage string, sc model.SessionContext) (*model.AggregatedResult, error) {
	events, err := e.Submit(ctx, userMessage, sc)
	if err != nil {
		return nil, err
	}

	var result *model.AggregatedResult
	for ev := range events {
		if ev.Type == EventFinal {
			result = ev.Result
		}
	}
	if result == nil {
		return nil, fmt.Errorf("workflow superseded before completion")
	}
	return result, nil
}

// WorkflowActive reports whether the engine's current workflow is still
// in progress.
func (e *Engine) WorkflowActive() bool {
	e.mu.Lock()
	wf := e.workflow
	e.mu.Unlock()
	return wf != nil && wf.Active()
}

// owns reports whether runID is still the engine's current run.
func (e *Engine) owns(runID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runID == runID
}
