// Per-step request assembly.
//
// Each step's messages combine the agent's static instructions, a
// structured summary of the session's business context, the bounded
// recent conversation, and the accumulated output of prior steps in the
// same run. History is bounded to keep payloads from growing without
// limit across a long session.

package orchestration

import (
	"fmt"
	"strings"

	"github.com/meridianlabs/meridian/agent"
	"github.com/meridianlabs/meridian/internal/report"
	"github.com/meridianlabs/meridian/internal/stats"
	"github.com/meridianlabs/meridian/model"
)

// payloadInstruction asks agents to embed machine-readable findings.
var payloadInstruction = fmt.Sprintf(
	"When your answer contains report-worthy findings, append a single JSON object "+
		"between %s and %s summarizing them. You may include a \"suggestions\" array "+
		"of follow-up questions the user might ask next.",
	report.StartToken, report.EndToken)

// priorOutputLimit caps how much of each earlier step's text is carried
// forward into later prompts.
const priorOutputLimit = 2000

// buildMessages assembles the conversation for one step.
func buildMessages(p agent.Profile, userMessage string, sc model.SessionContext, prior []model.StepOutput, maxTurns int) []model.ChatMessage {
	system := p.Instructions + "\n\n" + contextSummary(sc) + "\n\n" + payloadInstruction

	messages := []model.ChatMessage{{Role: model.RoleSystem, Content: system}}

	turns := sc.RecentTurns
	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	messages = append(messages, turns...)

	if len(prior) > 0 {
		var b strings.Builder
		b.WriteString("Findings from earlier steps in this analysis:\n")
		for _, out := range prior {
			name := out.AgentID
			if profile, ok := agent.Lookup(out.AgentID); ok {
				name = profile.Name
			}
			b.WriteString(fmt.Sprintf("\n### %s\n%s\n", name, truncate(out.Text, priorOutputLimit)))
		}
		messages = append(messages, model.ChatMessage{Role: model.RoleUser, Content: b.String()})
	}

	messages = append(messages, model.ChatMessage{Role: model.RoleUser, Content: userMessage})
	return messages
}

// contextSummary renders the session's business context for the agent.
func contextSummary(sc model.SessionContext) string {
	var b strings.Builder
	b.WriteString("Business context:\n")

	if sc.BusinessUnit != "" {
		fmt.Fprintf(&b, "- Business unit: %s\n", sc.BusinessUnit)
	}
	if sc.LineOfBusiness != "" {
		fmt.Fprintf(&b, "- Line of business: %s\n", sc.LineOfBusiness)
	}
	if !sc.HasData {
		b.WriteString("- No dataset uploaded yet; answer from general knowledge and say what data would help.\n")
		return strings.TrimRight(b.String(), "\n")
	}

	fmt.Fprintf(&b, "- Records: %d\n", sc.RecordCount)

	score := sc.DataQualityScore
	if score == 0 {
		score = stats.QualityScore(sc.RecordCount, sc.Series)
	}
	fmt.Fprintf(&b, "- Data quality score: %.0f/100\n", score)

	if len(sc.Series) >= 3 {
		fmt.Fprintf(&b, "- Primary metric trend: %s\n", stats.DetectTrend(sc.Series))
		if n := stats.CountOutliers(sc.Series, 3); n > 0 {
			fmt.Fprintf(&b, "- Unusual data points: %d\n", n)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "\n[truncated]"
}
