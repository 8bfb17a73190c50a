package geminiservice

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

/* =================================================================================
					PROMPT ENGINEERING & GUARDRAILS
=================================================================================*/

/*
SystemPrompt defines the "Persona" and "Guardrails" for the AI model.
It restricts the assistant to nutrition coaching and rejects unrelated queries.
*/
const SystemPrompt = `You are an expert nutrition coach helping a user reach their weight and macro goals.

DOMAIN RESTRICTION (CRITICAL):
You are strictly a NUTRITION assistant.
IF the user asks about politics, coding, general knowledge, or anything unrelated to nutrition/fitness/health:
- DO NOT answer the question.
- Politely explain that you can only help with nutrition, meals, and progress tracking.

STYLE RULES:
1. Be encouraging but honest about the numbers in the user's data.
2. Ground every claim in the logged data provided; never invent measurements.
3. Keep answers short and conversational unless the user asks for detail.
4. Answer in the language named in the LANGUAGE line of the user message.`

/*
firstTurnTemplate opens a fresh conversation: the full domain-data context is
injected so the model can answer the very first question.
*/
const firstTurnTemplate = `LANGUAGE: %s

=== USER DATA ===
%s

=== QUESTION ===
%s

Answer the question using the data above.`

/*
followUpTemplate continues an established conversation. History is replayed
as structured turns in the request contents, so only the data context and the
new message are injected here.
*/
const followUpTemplate = `LANGUAGE: %s

=== USER DATA (refreshed) ===
%s

=== NEW MESSAGE ===
%s`

/*
reportTemplate demands the structured progress report. The model is forced
to answer via the report function call, so the template only supplies data
and framing.
*/
const reportTemplate = `LANGUAGE: %s

=== USER DATA ===
%s

Generate the full nutrition progress report for this user by calling the %s function.
Analyze weight trend, calorie balance, macro breakdown, logging consistency and food quality from the data above.`

// BuildPrompt renders the literal instruction text for one request in the
// chosen mode.
func BuildPrompt(mode PromptMode, conv ConversationContext) string {
	data := formatDomainData(conv.DomainData)
	lang := conv.Language
	if lang == "" {
		lang = "en"
	}

	switch mode {
	case ReportGeneration:
		return fmt.Sprintf(reportTemplate, lang, data, reportFunctionName)
	case FollowUpQA:
		return fmt.Sprintf(followUpTemplate, lang, data, conv.UserText)
	default:
		return fmt.Sprintf(firstTurnTemplate, lang, data, conv.UserText)
	}
}

// formatDomainData renders the opaque caller-supplied payload as stable
// "key: value" lines. Values that are themselves structured are embedded as
// JSON; keys are sorted so identical payloads always produce identical
// prompt text.
func formatDomainData(data map[string]interface{}) string {
	if len(data) == 0 {
		return "(no data logged yet)"
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		var rendered string
		switch v := data[k].(type) {
		case string:
			rendered = v
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				continue
			}
			rendered = string(encoded)
		}
		fmt.Fprintf(&b, "%s: %s\n", k, rendered)
	}
	return strings.TrimRight(b.String(), "\n")
}

// buildContents assembles the Gemini request contents for one request:
// prior turns first (follow-up mode only), then the rendered prompt as the
// final user turn.
func buildContents(mode PromptMode, conv ConversationContext) []geminiContent {
	var contents []geminiContent
	if mode == FollowUpQA {
		for _, turn := range conv.History {
			role := "user"
			if turn.Role == "model" || turn.Role == "assistant" {
				role = "model"
			}
			contents = append(contents, geminiContent{
				Role:  role,
				Parts: []geminiPart{{Text: turn.Content}},
			})
		}
	}
	contents = append(contents, geminiContent{
		Role:  "user",
		Parts: []geminiPart{{Text: BuildPrompt(mode, conv)}},
	})
	return contents
}
