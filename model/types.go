// Package model provides domain types shared across packages.
package model

import "time"

// StepStatus is the lifecycle status of a workflow step.
type StepStatus int

const (
	// StepPending means the step has been planned but not started.
	StepPending StepStatus = iota
	// StepActive means the step is currently executing.
	StepActive
	// StepCompleted means the step finished successfully. Terminal.
	StepCompleted
	// StepError means the step failed. Terminal.
	StepError
)

// String returns the string representation of the status.
func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepActive:
		return "active"
	case StepCompleted:
		return "completed"
	case StepError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status admits no further transitions.
func (s StepStatus) Terminal() bool {
	return s == StepCompleted || s == StepError
}

// WorkflowStep is one agent invocation within a planned workflow.
// Steps are created by the planner and mutated only through the
// workflow state machine.
type WorkflowStep struct {
	// ID is stable within one workflow run ("step-1", "step-2", ...).
	ID string

	// Name is the display name shown to the user.
	Name string

	// AgentID identifies the agent profile that executes this step.
	AgentID string

	// Status is the current lifecycle status.
	Status StepStatus

	// DependsOn lists prerequisite step IDs. All prerequisites must be
	// completed before this step may become active.
	DependsOn []string

	// Detail is human-readable progress text for the UI.
	Detail string

	// EstimatedDuration is advisory only and never enforced.
	EstimatedDuration time.Duration
}

// ChatMessage is a single role/content turn in a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SessionContext is the opaque analysis context supplied by the caller.
// The engine reads it to ground agent prompts and never mutates it.
type SessionContext struct {
	// BusinessUnit is the selected business unit name, if any.
	BusinessUnit string

	// LineOfBusiness is the selected line of business name, if any.
	LineOfBusiness string

	// HasData indicates whether the selected line of business has an
	// uploaded dataset.
	HasData bool

	// RecordCount is the number of records in the dataset.
	RecordCount int

	// DataQualityScore is a 0-100 quality indicator, when known.
	DataQualityScore float64

	// Series is an optional numeric sample of the primary metric, used
	// to derive trend and outlier hints for agent prompts.
	Series []float64

	// RecentTurns is the conversation history, oldest first. The engine
	// bounds how many trailing turns reach the provider.
	RecentTurns []ChatMessage
}

// StepOutput holds what a completed step produced.
type StepOutput struct {
	// AgentID is the agent that produced the output.
	AgentID string

	// Text is the free-text portion of the response.
	Text string

	// Report is the parsed structured payload, if one was embedded.
	// Nil when the response was free text only or the payload was
	// malformed.
	Report map[string]any
}

// ReportField is one field of the merged structured report, tagged with
// the agent that produced it.
type ReportField struct {
	Value any    `json:"value"`
	Agent string `json:"agent"`
}

// AggregatedResult is the final output of a workflow run.
type AggregatedResult struct {
	// Text is the combined free-text report. Multi-agent runs get a
	// heading per agent; single-agent runs return the raw text.
	Text string

	// Report is the union of every step's structured payload with
	// per-field provenance.
	Report map[string]ReportField

	// Suggestions is a deduplicated list of follow-up suggestions.
	Suggestions []string

	// Failed lists IDs of steps that ended in error, in step order.
	Failed []string

	// Skipped lists IDs of steps that never ran because a prerequisite
	// failed or the pipeline halted.
	Skipped []string
}
