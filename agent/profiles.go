// Package agent defines the specialist agent profiles the planner can
// schedule. Profiles are static: each kind carries its instruction
// template, capability list, and keyword affinity, resolved through a
// lookup table. There is no dynamic agent registration.
package agent

import "time"

// Kind enumerates the agent specializations.
type Kind int

const (
	// KindExplorer profiles and summarizes the dataset.
	KindExplorer Kind = iota
	// KindPreprocessor cleans and prepares data for modeling.
	KindPreprocessor
	// KindModeler selects and trains forecasting models.
	KindModeler
	// KindValidator evaluates model accuracy.
	KindValidator
	// KindForecaster produces forward-looking predictions.
	KindForecaster
	// KindInsights turns analysis output into business recommendations.
	KindInsights
	// KindAssistant is the generic fallback when no specialist matches.
	KindAssistant
)

// Profile is the static configuration of one agent.
type Profile struct {
	// Kind is the agent's specialization.
	Kind Kind

	// ID is the stable identifier used by plans and step assignments.
	ID string

	// Name is the display name shown in step listings and report
	// headings.
	Name string

	// Instructions is the system prompt template for this agent.
	Instructions string

	// Capabilities describes what the agent can do, for UI display.
	Capabilities []string

	// Keywords is the affinity list the planner's fallback rules match
	// against.
	Keywords []string

	// Temperature is the sampling temperature for this agent's requests.
	Temperature float32

	// EstimatedDuration is an advisory per-step duration for the UI.
	EstimatedDuration time.Duration
}

// profiles is the ordered profile table. Order matters: the planner's
// keyword fallback evaluates agents in this order.
var profiles = []Profile{
	{
		Kind: KindExplorer,
		ID:   "explorer",
		Name: "Data Exploration",
		Instructions: "You are a business intelligence analyst. Examine the dataset described " +
			"in the context and summarize its shape, completeness, and quality in plain " +
			"business language. Avoid statistical jargon; focus on what a business user " +
			"needs to know before trusting this data.",
		Capabilities:      []string{"data profiling", "quality assessment", "pattern discovery"},
		Keywords:          []string{"explore", "eda", "data quality", "profile", "summary", "describe my data", "patterns"},
		Temperature:       0.7,
		EstimatedDuration: 15 * time.Second,
	},
	{
		Kind: KindPreprocessor,
		ID:   "preprocessor",
		Name: "Data Preprocessing",
		Instructions: "You are a data preparation specialist. Given the dataset context and any " +
			"findings from earlier analysis, explain what cleaning and preparation the data " +
			"needs before modeling: missing values, duplicates, outliers, and aggregation " +
			"level. Keep recommendations concrete and business-friendly.",
		Capabilities:      []string{"cleaning", "missing-value handling", "outlier treatment"},
		Keywords:          []string{"clean", "preprocess", "prepare", "missing values", "duplicates"},
		Temperature:       0.5,
		EstimatedDuration: 20 * time.Second,
	},
	{
		Kind: KindModeler,
		ID:   "modeler",
		Name: "Model Training",
		Instructions: "You are a forecasting model specialist. Based on the data characteristics " +
			"and preparation notes so far, recommend which forecasting approaches fit this " +
			"data (trend, seasonality, volume), and describe the trade-offs in terms a " +
			"business user can weigh.",
		Capabilities:      []string{"model selection", "training strategy", "hyperparameter guidance"},
		Keywords:          []string{"train", "model", "build model", "algorithm"},
		Temperature:       0.5,
		EstimatedDuration: 30 * time.Second,
	},
	{
		Kind: KindValidator,
		ID:   "validator",
		Name: "Model Validation",
		Instructions: "You are a model validation specialist. Assess how well the proposed " +
			"models can be trusted: explain accuracy expectations, backtesting approach, " +
			"and confidence levels without statistical jargon.",
		Capabilities:      []string{"accuracy evaluation", "backtesting", "confidence reporting"},
		Keywords:          []string{"validate", "accuracy", "evaluate", "backtest", "how good"},
		Temperature:       0.4,
		EstimatedDuration: 20 * time.Second,
	},
	{
		Kind: KindForecaster,
		ID:   "forecaster",
		Name: "Forecasting",
		Instructions: "You are a forecasting specialist. Produce a forward-looking narrative for " +
			"the requested horizon grounded in everything established so far. When the user " +
			"asks about specific parameters, address model choice, confidence levels, and " +
			"validation, and suggest follow-up questions they should consider.",
		Capabilities:      []string{"horizon forecasting", "scenario comparison", "confidence intervals"},
		Keywords:          []string{"forecast", "predict", "projection", "next month", "next quarter", "next 30 days"},
		Temperature:       0.5,
		EstimatedDuration: 30 * time.Second,
	},
	{
		Kind: KindInsights,
		ID:   "insights",
		Name: "Business Insights",
		Instructions: "You are a business analyst. Synthesize the preceding analysis into " +
			"actionable recommendations: what is working, what needs attention, and what " +
			"to do next. Focus on business implications, not methodology.",
		Capabilities:      []string{"recommendation synthesis", "risk flagging", "opportunity spotting"},
		Keywords:          []string{"insight", "recommend", "opportunity", "what should", "action"},
		Temperature:       0.7,
		EstimatedDuration: 20 * time.Second,
	},
	{
		Kind: KindAssistant,
		ID:   "assistant",
		Name: "Analysis Assistant",
		Instructions: "You are a helpful business-data assistant. Answer the user's question " +
			"clearly and concisely in business-friendly language, using whatever dataset " +
			"context is available.",
		Capabilities:      []string{"general questions"},
		Keywords:          nil, // fallback only, never keyword-matched
		Temperature:       0.7,
		EstimatedDuration: 10 * time.Second,
	},
}

// byID indexes the profile table for O(1) lookup.
var byID = func() map[string]Profile {
	m := make(map[string]Profile, len(profiles))
	for _, p := range profiles {
		m[p.ID] = p
	}
	return m
}()

// Lookup resolves an agent ID to its profile.
func Lookup(id string) (Profile, bool) {
	p, ok := byID[id]
	return p, ok
}

// All returns the profile table in declaration order.
func All() []Profile {
	result := make([]Profile, len(profiles))
	copy(result, profiles)
	return result
}

// AssistantID is the fallback agent used when no rule matches.
const AssistantID = "assistant"
