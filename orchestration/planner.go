// Workflow planning.
//
// Classification is rule-based: an ordered table of keyword-group
// predicates evaluated top to bottom, first match wins. Composite
// intents sit above narrow ones so that "run a complete analysis"
// pre-empts a plain "forecast" match. No ML, no side effects; the
// caller registers the resulting plan with the state machine.

package orchestration

import (
	"fmt"
	"strings"

	"github.com/meridianlabs/meridian/agent"
	"github.com/meridianlabs/meridian/model"
)

// Plan is the ordered set of steps produced for one user request.
type Plan struct {
	// Rule is the name of the rule that matched, for diagnostics.
	Rule string

	// AgentIDs lists the scheduled agents in execution order.
	AgentIDs []string

	// Steps is the dependency-ordered step list.
	Steps []*model.WorkflowStep
}

// rule is one row of the classification table.
type rule struct {
	name string

	// groups is a conjunction of disjunctions: every group must have at
	// least one phrase present in the lowercased message.
	groups [][]string

	// agents to schedule when the rule matches.
	agents []string

	// pipeline chains each step onto the previous one. Single-step
	// rules leave steps independent.
	pipeline bool
}

// fullPipeline is the fixed agent order for composite intents.
var fullPipeline = []string{"explorer", "preprocessor", "modeler", "validator", "forecaster", "insights"}

// rules is evaluated in order; keep composite intents first.
var rules = []rule{
	{
		name: "complete-analysis",
		groups: [][]string{{
			"complete analysis", "full analysis", "complete report", "full report",
			"analyze everything", "end-to-end", "end to end", "full forecast",
			"complete forecast", "whole pipeline",
		}},
		agents:   fullPipeline,
		pipeline: true,
	},
	{
		name: "forecasting-with-parameters",
		groups: [][]string{
			{"forecast", "predict", "projection"},
			{"model", "horizon", "day", "week", "month", "quarter", "confidence", "parameter", "scenario"},
		},
		agents:   []string{"explorer", "preprocessor", "modeler", "validator", "forecaster"},
		pipeline: true,
	},
	{
		name: "model-training",
		groups: [][]string{
			{"train", "build", "fit"},
			{"model"},
		},
		agents:   []string{"preprocessor", "modeler", "validator"},
		pipeline: true,
	},
	{
		name: "business-insights",
		groups: [][]string{{
			"insight", "recommend", "opportunit", "what should i", "what should we", "action plan",
		}},
		agents:   []string{"explorer", "insights"},
		pipeline: true,
	},
}

// BuildPlan classifies a user message into an ordered agent workflow.
// The session context feeds step detail text only; classification is
// driven by the message.
func BuildPlan(userMessage string, sc model.SessionContext) Plan {
	message := strings.ToLower(userMessage)

	for _, r := range rules {
		if matches(message, r.groups) {
			return newPlan(r.name, r.agents, r.pipeline, sc)
		}
	}

	// Narrow single-agent match on keyword affinity, in profile order.
	for _, p := range agent.All() {
		for _, kw := range p.Keywords {
			if strings.Contains(message, kw) {
				return newPlan("keyword:"+p.ID, []string{p.ID}, false, sc)
			}
		}
	}

	return newPlan("fallback", []string{agent.AssistantID}, false, sc)
}

// matches reports whether every group has at least one phrase present.
func matches(message string, groups [][]string) bool {
	for _, group := range groups {
		hit := false
		for _, phrase := range group {
			if strings.Contains(message, phrase) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// newPlan expands an agent list into workflow steps. Pipeline plans chain
// step N onto step N-1; single-step plans have no dependencies.
func newPlan(ruleName string, agentIDs []string, pipeline bool, sc model.SessionContext) Plan {
	steps := make([]*model.WorkflowStep, 0, len(agentIDs))
	for i, id := range agentIDs {
		profile, ok := agent.Lookup(id)
		if !ok {
			// The rule table only names known agents; a miss here is a
			// programming error worth surfacing loudly in the step name.
			profile.Name = "Unknown Agent"
		}

		step := &model.WorkflowStep{
			ID:                fmt.Sprintf("step-%d", i+1),
			Name:              profile.Name,
			AgentID:           id,
			Status:            model.StepPending,
			Detail:            stepDetail(profile, sc),
			EstimatedDuration: profile.EstimatedDuration,
		}
		if pipeline && i > 0 {
			step.DependsOn = []string{steps[i-1].ID}
		}
		steps = append(steps, step)
	}

	return Plan{Rule: ruleName, AgentIDs: append([]string(nil), agentIDs...), Steps: steps}
}

func stepDetail(p agent.Profile, sc model.SessionContext) string {
	subject := "your data"
	if sc.LineOfBusiness != "" {
		subject = sc.LineOfBusiness
	}
	if len(p.Capabilities) == 0 {
		return fmt.Sprintf("%s for %s", p.Name, subject)
	}
	return fmt.Sprintf("%s for %s", p.Capabilities[0], subject)
}
