// Observable workflow events.
//
// Transitions and progress notes are the only externally visible signs
// of workflow progress; collaborators (the chat UI) bind to this stream.

package orchestration

import "github.com/meridianlabs/meridian/model"

// EventType identifies the kind of workflow event.
type EventType int

const (
	// EventStepCreated fires once per step when a plan is registered.
	EventStepCreated EventType = iota
	// EventStepStatus fires on every step status transition.
	EventStepStatus
	// EventNote carries an advisory progress string.
	EventNote
	// EventFinal carries the aggregated result and closes the run.
	EventFinal
)

// Event is one observable workflow occurrence.
type Event struct {
	Type EventType

	// Step is a snapshot of the step involved, for EventStepCreated and
	// EventStepStatus.
	Step *model.WorkflowStep

	// Note is the progress text for EventNote.
	Note string

	// Result is the aggregated output for EventFinal.
	Result *model.AggregatedResult
}

// Observer receives workflow events.
type Observer func(Event)
