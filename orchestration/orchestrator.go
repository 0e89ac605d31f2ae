// Sequential workflow execution.
//
// Steps run strictly in list order, never in parallel: each step's
// prompt is built from the accumulated output of every prior step in
// the same run. Failure handling is per-class: configuration failures
// halt the pipeline with a remediation message, transient failures skip
// only the steps that depend on the failed one. A halted or degraded
// run still produces a best-effort aggregated result; nothing is
// silently dropped.

package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/meridianlabs/meridian/agent"
	"github.com/meridianlabs/meridian/gateway"
	"github.com/meridianlabs/meridian/internal/report"
	"github.com/meridianlabs/meridian/llm"
	"github.com/meridianlabs/meridian/model"
)

// User-facing failure annotations.
const (
	remediationConfig = "The AI provider rejected the configured credentials. " +
		"Update the provider API key in your settings and try again."
	remediationTransient = "This analysis step is temporarily unavailable. " +
		"Please try again in a few minutes."
	remediationRateLimit = "The request limit has been reached. " +
		"Please wait a moment before asking for more analysis."
	remediationCancelled = "The analysis was cancelled before this step could run."
)

// run executes one planned workflow to completion or halt.
func (e *Engine) run(ctx context.Context, runID string, plan Plan, wf *Workflow, userMessage string, sc model.SessionContext, events chan<- Event) {
	wf.Register(plan.Steps)

	var (
		prior       []model.StepOutput
		unrunnable  = make(map[string]bool) // failed or skipped step IDs
		failedOrder []string
		skipped     []string
		annotations = make(map[string]string)
		suggestions []string
		halted      bool
	)

	for _, step := range plan.Steps {
		if halted || dependencyUnrunnable(step, unrunnable) {
			unrunnable[step.ID] = true
			skipped = append(skipped, step.ID)
			events <- Event{Type: EventNote, Note: fmt.Sprintf("Skipping %s: an earlier step it depends on did not complete.", step.Name)}
			continue
		}

		profile, ok := agent.Lookup(step.AgentID)
		if !ok {
			// Plans only reference the static profile table; treat a
			// miss like a failed step rather than crashing the run.
			unrunnable[step.ID] = true
			failedOrder = append(failedOrder, step.ID)
			annotations[step.ID] = remediationTransient
			_ = wf.Transition(step.ID, model.StepActive)
			_ = wf.Transition(step.ID, model.StepError)
			continue
		}

		if err := wf.Transition(step.ID, model.StepActive); err != nil {
			unrunnable[step.ID] = true
			skipped = append(skipped, step.ID)
			continue
		}
		events <- Event{Type: EventNote, Note: fmt.Sprintf("Running %s...", step.Name)}

		response, err := e.executor.Execute(ctx, gateway.Request{
			CallerID:      e.config.CallerID,
			Messages:      buildMessages(profile, userMessage, sc, prior, e.config.MaxHistoryTurns),
			Temperature:   profile.Temperature,
			MaxTokens:     e.config.MaxTokens,
			CacheEligible: true,
		})

		// A newer Submit owns the session now; this run's results are
		// discarded without reporting.
		if !e.owns(runID) {
			wf.Finish()
			return
		}

		if err != nil {
			_ = wf.Transition(step.ID, model.StepError)
			unrunnable[step.ID] = true
			failedOrder = append(failedOrder, step.ID)
			annotation, haltRun := classifyFailure(err)
			annotations[step.ID] = annotation
			if haltRun {
				halted = true
			}
			continue
		}

		text, payload, perr := report.Extract(response.Content)
		if perr != nil {
			// Malformed payloads degrade to free text; never fatal.
			events <- Event{Type: EventNote, Note: fmt.Sprintf("Structured report data from %s was unreadable and was ignored.", step.Name)}
		}

		output := model.StepOutput{AgentID: step.AgentID, Text: text, Report: payload}
		wf.SetOutput(step.ID, output)
		prior = append(prior, output)
		suggestions = append(suggestions, extractSuggestions(payload)...)

		_ = wf.Transition(step.ID, model.StepCompleted)
	}

	result := aggregate(plan, wf, annotations, failedOrder, skipped, suggestions)
	wf.Finish()
	if e.owns(runID) {
		events <- Event{Type: EventFinal, Result: &result}
	}
}

// dependencyUnrunnable reports whether any prerequisite failed or was
// skipped.
func dependencyUnrunnable(step *model.WorkflowStep, unrunnable map[string]bool) bool {
	for _, dep := range step.DependsOn {
		if unrunnable[dep] {
			return true
		}
	}
	return false
}

// classifyFailure maps an execution error to a user-facing annotation
// and a halt decision. Configuration failures halt the pipeline: there
// is no point running further steps without usable credentials.
func classifyFailure(err error) (string, bool) {
	var providerErr *llm.ProviderError
	if errors.As(err, &providerErr) && providerErr.Config() {
		return remediationConfig, true
	}

	var rateErr *gateway.RateLimitError
	if errors.As(err, &rateErr) {
		return remediationRateLimit, false
	}

	if errors.Is(err, context.Canceled) {
		return remediationCancelled, true
	}

	return remediationTransient, false
}

// aggregate synthesizes the final result from whatever steps produced.
func aggregate(plan Plan, wf *Workflow, annotations map[string]string, failed, skipped []string, suggestions []string) model.AggregatedResult {
	var completed []model.StepOutput
	for _, step := range plan.Steps {
		if output, ok := wf.Output(step.ID); ok {
			completed = append(completed, output)
		}
	}

	result := model.AggregatedResult{
		Report:      mergeReports(plan, wf),
		Suggestions: dedupe(suggestions),
		Failed:      failed,
		Skipped:     skipped,
	}

	// A clean single-agent run returns the raw text; anything else gets
	// per-step sections so the user sees exactly what ran and what
	// failed.
	if len(completed) == 1 && len(failed) == 0 && len(skipped) == 0 {
		result.Text = completed[0].Text
		return result
	}

	var sections []string
	for _, step := range plan.Steps {
		if output, ok := wf.Output(step.ID); ok {
			sections = append(sections, fmt.Sprintf("## %s\n\n%s", step.Name, output.Text))
			continue
		}
		if annotation, ok := annotations[step.ID]; ok {
			sections = append(sections, fmt.Sprintf("## %s\n\n_%s_", step.Name, annotation))
			continue
		}
		sections = append(sections, fmt.Sprintf("## %s\n\n_Skipped: an earlier step this depends on did not complete._", step.Name))
	}
	result.Text = strings.Join(sections, "\n\n")
	return result
}

// mergeReports unions every step's structured payload, tagging each
// field with the agent that produced it. Later steps win on conflicts.
func mergeReports(plan Plan, wf *Workflow) map[string]model.ReportField {
	merged := make(map[string]model.ReportField)
	for _, step := range plan.Steps {
		output, ok := wf.Output(step.ID)
		if !ok || output.Report == nil {
			continue
		}
		for key, value := range output.Report {
			if key == "suggestions" {
				continue
			}
			merged[key] = model.ReportField{Value: value, Agent: output.AgentID}
		}
	}
	return merged
}

// extractSuggestions pulls the optional "suggestions" array out of a
// structured payload.
func extractSuggestions(payload map[string]any) []string {
	if payload == nil {
		return nil
	}
	raw, ok := payload["suggestions"].([]any)
	if !ok {
		return nil
	}
	var result []string
	for _, item := range raw {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			result = append(result, strings.TrimSpace(s))
		}
	}
	return result
}

// dedupe removes duplicate suggestions, keeping first-seen order.
func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	var result []string
	for _, item := range items {
		key := strings.ToLower(item)
		if !seen[key] {
			seen[key] = true
			result = append(result, item)
		}
	}
	return result
}
