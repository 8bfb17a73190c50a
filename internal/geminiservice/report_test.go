package geminiservice

import (
	"encoding/json"
	"errors"
	"testing"
)

func replyFromJSON(t *testing.T, raw string) *generateReply {
	t.Helper()
	var reply generateReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		t.Fatalf("bad test fixture: %v", err)
	}
	return &reply
}

func TestExtractReportTopLevelCall(t *testing.T) {
	reply := replyFromJSON(t, `{
		"functionCall": {"name": "generate_nutrition_report", "args": {"summary": "doing well"}}
	}`)
	report, err := ExtractReport(reply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report["summary"] != "doing well" {
		t.Errorf("report = %v", report)
	}
}

func TestExtractReportPartLevelCall(t *testing.T) {
	reply := replyFromJSON(t, `{
		"candidates": [{"content": {"parts": [
			{"functionCall": {"name": "generate_nutrition_report", "args": {"summary": "steady loss", "insights": ["protein is low"]}}}
		]}}]
	}`)
	report, err := ExtractReport(reply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report["summary"] != "steady loss" {
		t.Errorf("report = %v", report)
	}
}

func TestExtractReportFencedTextFallback(t *testing.T) {
	reply := replyFromJSON(t, `{
		"candidates": [{"content": {"parts": [
			{"text": "Here is your report:\n` + "```json\\n{\\\"x\\\":1}\\n```" + `\nHope it helps!"}
		]}}]
	}`)
	report, err := ExtractReport(reply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report["x"] != float64(1) {
		t.Errorf("report = %v, want {\"x\":1}", report)
	}
}

func TestExtractReportBareFenceWithoutLanguageTag(t *testing.T) {
	reply := replyFromJSON(t, `{
		"candidates": [{"content": {"parts": [
			{"text": "` + "```\\n{\\\"summary\\\":\\\"ok\\\"}\\n```" + `"}
		]}}]
	}`)
	report, err := ExtractReport(reply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report["summary"] != "ok" {
		t.Errorf("report = %v", report)
	}
}

func TestExtractReportPlainTextObject(t *testing.T) {
	reply := replyFromJSON(t, `{
		"candidates": [{"content": {"parts": [{"text": "{\"summary\": \"no fence at all\"}"}]}}]
	}`)
	report, err := ExtractReport(reply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report["summary"] != "no fence at all" {
		t.Errorf("report = %v", report)
	}
}

func TestExtractReportFirstMatchWins(t *testing.T) {
	// A function call and a text object in the same response: the call wins.
	reply := replyFromJSON(t, `{
		"candidates": [{"content": {"parts": [
			{"functionCall": {"name": "generate_nutrition_report", "args": {"source": "call"}}},
			{"text": "{\"source\": \"text\"}"}
		]}}]
	}`)
	report, err := ExtractReport(reply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report["source"] != "call" {
		t.Errorf("report = %v, want the function-call branch", report)
	}
}

func TestExtractReportEmptyCases(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"no candidates", `{}`},
		{"unknown function name", `{"functionCall": {"name": "other_function", "args": {"a": 1}}}`},
		{"empty args", `{"functionCall": {"name": "generate_nutrition_report", "args": {}}}`},
		{"unparseable text", `{"candidates": [{"content": {"parts": [{"text": "sorry, I cannot do that"}]}}]}`},
		{"empty object in text", `{"candidates": [{"content": {"parts": [{"text": "{}"}]}}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ExtractReport(replyFromJSON(t, tc.raw))
			if !errors.Is(err, ErrEmptyReport) {
				t.Errorf("err = %v, want ErrEmptyReport", err)
			}
		})
	}
}
