// Package report extracts structured report payloads from LLM responses.
//
// Agents are asked to embed machine-readable report data inside their
// free-text answers, delimited by [REPORT_DATA] ... [/REPORT_DATA].
// Models do not always comply precisely: the payload may be wrapped in
// markdown fences or surrounded by commentary. Extraction is therefore
// best effort and always non-fatal; a malformed payload degrades the
// response to free text only.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Delimiters for the embedded payload block.
const (
	StartToken = "[REPORT_DATA]"
	EndToken   = "[/REPORT_DATA]"
)

// ParseError indicates an embedded payload was present but malformed.
type ParseError struct {
	Reason string
	Raw    string // truncated payload text for diagnostics
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("structured payload parse failed: %s", e.Reason)
}

// Extract splits response into its free-text portion and the parsed
// payload, if any.
//
// Returns (text, nil, nil) when no payload block is present,
// (text, payload, nil) on a successful parse, and (text, nil, *ParseError)
// when a block exists but cannot be parsed. The returned text never
// contains the payload block.
func Extract(response string) (string, map[string]any, error) {
	start := strings.Index(response, StartToken)
	if start == -1 {
		return strings.TrimSpace(response), nil, nil
	}
	end := strings.Index(response[start:], EndToken)
	if end == -1 {
		// Opening token with no close: strip from the token onward so
		// the user never sees a half-emitted block.
		text := strings.TrimSpace(response[:start])
		return text, nil, &ParseError{
			Reason: "unterminated payload block",
			Raw:    preview(response[start:]),
		}
	}
	end += start

	raw := response[start+len(StartToken) : end]
	text := strings.TrimSpace(response[:start] + response[end+len(EndToken):])

	payload, err := parsePayload(raw)
	if err != nil {
		return text, nil, err
	}
	return text, payload, nil
}

// parsePayload parses the inside of a payload block. Handles the common
// model misbehaviors: markdown code fences and stray commentary around
// the JSON object.
func parsePayload(raw string) (map[string]any, error) {
	cleaned := stripMarkdownFences(raw)

	var payload map[string]any
	if err := json.Unmarshal([]byte(cleaned), &payload); err == nil {
		return payload, nil
	}

	// Fall back to the outermost brace pair.
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start != -1 && end > start {
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &payload); err == nil {
			return payload, nil
		}
	}

	return nil, &ParseError{
		Reason: "payload is not a JSON object",
		Raw:    preview(raw),
	}
}

// stripMarkdownFences removes ```json / ``` markers wrapping a payload.
func stripMarkdownFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "```json") {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "```json"))
	} else if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
	}
	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "```"))
	}
	return trimmed
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
