package geminiservice

import (
	"strings"
	"testing"
)

func testConversation() ConversationContext {
	return ConversationContext{
		UserID:   "u-1",
		UserText: "How is my protein intake?",
		Language: "en",
		DomainData: map[string]interface{}{
			"current_weight_kg": 82.4,
			"goal":              "lose 6 kg by summer",
			"avg_daily_protein": 95,
		},
	}
}

func TestBuildPromptFirstTurnEmbedsDataAndQuestion(t *testing.T) {
	prompt := BuildPrompt(FirstTurnQA, testConversation())
	for _, want := range []string{"How is my protein intake?", "current_weight_kg: 82.4", "goal: lose 6 kg by summer", "LANGUAGE: en"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPromptReportNamesTheFunction(t *testing.T) {
	conv := testConversation()
	conv.WantsReport = true
	prompt := BuildPrompt(ReportGeneration, conv)
	if !strings.Contains(prompt, reportFunctionName) {
		t.Errorf("report prompt does not name the report function:\n%s", prompt)
	}
	if strings.Contains(prompt, conv.UserText) {
		t.Errorf("report prompt should not embed the chat message")
	}
}

func TestBuildPromptDefaultsLanguage(t *testing.T) {
	conv := testConversation()
	conv.Language = ""
	if !strings.Contains(BuildPrompt(FirstTurnQA, conv), "LANGUAGE: en") {
		t.Error("empty language tag did not default to en")
	}
}

func TestFormatDomainDataIsDeterministic(t *testing.T) {
	data := map[string]interface{}{"b": 2, "a": 1, "c": []string{"x"}}
	first := formatDomainData(data)
	for i := 0; i < 20; i++ {
		if got := formatDomainData(data); got != first {
			t.Fatalf("formatDomainData is not stable: %q vs %q", got, first)
		}
	}
	if !strings.HasPrefix(first, "a: 1") {
		t.Errorf("keys not sorted: %q", first)
	}
}

func TestFormatDomainDataEmpty(t *testing.T) {
	if got := formatDomainData(nil); got != "(no data logged yet)" {
		t.Errorf("formatDomainData(nil) = %q", got)
	}
}

func TestBuildContentsReplaysHistoryOnlyInFollowUp(t *testing.T) {
	conv := testConversation()
	conv.History = []Turn{
		{Role: "user", Content: "first question"},
		{Role: "model", Content: "first answer"},
		{Role: "user", Content: "second question"},
	}

	followUp := buildContents(FollowUpQA, conv)
	if len(followUp) != len(conv.History)+1 {
		t.Fatalf("follow-up contents = %d entries, want %d", len(followUp), len(conv.History)+1)
	}
	if followUp[1].Role != "model" || followUp[1].Parts[0].Text != "first answer" {
		t.Errorf("history not replayed in order: %+v", followUp[1])
	}

	firstTurn := buildContents(FirstTurnQA, conv)
	if len(firstTurn) != 1 {
		t.Errorf("first-turn contents = %d entries, want 1", len(firstTurn))
	}
}
