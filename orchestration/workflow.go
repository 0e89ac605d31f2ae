// Workflow state machine.
//
// Owns step statuses and enforces valid transitions:
//
//	pending -> active -> completed
//	           active -> error
//
// No backward transitions; repeating a step's current status is a no-op.
// A step may only become active once all its prerequisites completed.

package orchestration

import (
	"fmt"
	"sync"

	"github.com/meridianlabs/meridian/model"
)

// InvalidTransitionError reports a transition outside the allowed set,
// or against an unknown step. This indicates a programming error in the
// caller, not a runtime condition to retry.
type InvalidTransitionError struct {
	StepID string
	From   model.StepStatus
	To     model.StepStatus
	Reason string
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition for %s: %s -> %s (%s)", e.StepID, e.From, e.To, e.Reason)
}

// Workflow tracks one run's steps and their outputs.
// Safe for concurrent observation while the orchestrator mutates it.
type Workflow struct {
	mu       sync.Mutex
	steps    []*model.WorkflowStep
	byID     map[string]*model.WorkflowStep
	outputs  map[string]model.StepOutput
	finished bool
	observer Observer
}

// NewWorkflow creates an empty workflow. The observer receives an event
// for every registration and transition; nil disables observation.
func NewWorkflow(observer Observer) *Workflow {
	if observer == nil {
		observer = func(Event) {}
	}
	return &Workflow{
		byID:     make(map[string]*model.WorkflowStep),
		outputs:  make(map[string]model.StepOutput),
		observer: observer,
	}
}

// Register replaces the current workflow wholesale. All steps are reset
// to pending; activation is the orchestrator's explicit job.
func (w *Workflow) Register(steps []*model.WorkflowStep) {
	w.mu.Lock()
	w.steps = steps
	w.byID = make(map[string]*model.WorkflowStep, len(steps))
	w.outputs = make(map[string]model.StepOutput, len(steps))
	w.finished = false
	created := make([]model.WorkflowStep, 0, len(steps))
	for _, step := range steps {
		step.Status = model.StepPending
		w.byID[step.ID] = step
		created = append(created, *step)
	}
	w.mu.Unlock()

	for i := range created {
		w.observer(Event{Type: EventStepCreated, Step: &created[i]})
	}
}

// Transition moves a step to a new status. Identical repeated
// transitions are idempotent; anything else outside the allowed set
// fails with *InvalidTransitionError.
func (w *Workflow) Transition(stepID string, to model.StepStatus) error {
	w.mu.Lock()
	step, ok := w.byID[stepID]
	if !ok {
		w.mu.Unlock()
		return &InvalidTransitionError{StepID: stepID, To: to, Reason: "unknown step"}
	}

	from := step.Status
	if from == to {
		w.mu.Unlock()
		return nil
	}
	if !allowed(from, to) {
		w.mu.Unlock()
		return &InvalidTransitionError{StepID: stepID, From: from, To: to, Reason: "not in allowed set"}
	}
	if to == model.StepActive && !w.prereqsCompleted(step) {
		w.mu.Unlock()
		return &InvalidTransitionError{StepID: stepID, From: from, To: to, Reason: "prerequisites not completed"}
	}

	step.Status = to
	snapshot := *step
	w.mu.Unlock()

	w.observer(Event{Type: EventStepStatus, Step: &snapshot})
	return nil
}

func allowed(from, to model.StepStatus) bool {
	switch from {
	case model.StepPending:
		return to == model.StepActive
	case model.StepActive:
		return to == model.StepCompleted || to == model.StepError
	default:
		return false
	}
}

// prereqsCompleted reports whether every prerequisite of step completed.
// Caller must hold w.mu.
func (w *Workflow) prereqsCompleted(step *model.WorkflowStep) bool {
	for _, dep := range step.DependsOn {
		prereq, ok := w.byID[dep]
		if !ok || prereq.Status != model.StepCompleted {
			return false
		}
	}
	return true
}

// Active reports whether the workflow is still in progress: any step
// pending or active and the run not yet finished. The UI binds its
// global processing indicator to this.
func (w *Workflow) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.finished {
		return false
	}
	for _, step := range w.steps {
		if !step.Status.Terminal() {
			return true
		}
	}
	return false
}

// Finish marks the run over. Steps that were skipped stay pending but no
// longer count toward Active.
func (w *Workflow) Finish() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.finished = true
}

// Steps returns a snapshot of all steps in order.
func (w *Workflow) Steps() []model.WorkflowStep {
	w.mu.Lock()
	defer w.mu.Unlock()

	result := make([]model.WorkflowStep, len(w.steps))
	for i, step := range w.steps {
		result[i] = *step
	}
	return result
}

// Step returns a snapshot of one step.
func (w *Workflow) Step(stepID string) (model.WorkflowStep, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	step, ok := w.byID[stepID]
	if !ok {
		return model.WorkflowStep{}, false
	}
	return *step, true
}

// SetOutput records what a step produced.
func (w *Workflow) SetOutput(stepID string, output model.StepOutput) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.outputs[stepID] = output
}

// Output returns a step's recorded output.
func (w *Workflow) Output(stepID string) (model.StepOutput, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	output, ok := w.outputs[stepID]
	return output, ok
}
