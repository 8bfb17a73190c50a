package geminiservice

import (
	"encoding/json"
	"errors"
	"strings"
)

// reportFunctionName is the function the model is forced to call in report
// mode. The argument object of that call is the report itself.
const reportFunctionName = "generate_nutrition_report"

// ErrEmptyReport means the model answered but produced no usable report
// object. Terminal and non-retryable for this request; callers should tell
// the end user the model output was unusable, which is a different failure
// than a network error.
var ErrEmptyReport = errors.New("model response contained no usable report")

// reportShape is one known way the upstream encodes a structured answer.
// Shapes are tried in declaration order; the first non-empty object wins and
// nothing is merged across shapes.
type reportShape func(*generateReply) (StructuredReport, bool)

var reportShapes = []reportShape{
	topLevelCall,
	partLevelCall,
	fencedTextObject,
}

// ExtractReport pulls the structured report out of a complete, non-streamed
// upstream response. Schema validation is the report consumer's concern;
// this only guarantees a non-empty object.
func ExtractReport(reply *generateReply) (StructuredReport, error) {
	for _, shape := range reportShapes {
		if report, ok := shape(reply); ok {
			return report, nil
		}
	}
	return nil, ErrEmptyReport
}

// topLevelCall handles the oldest response revision, where the forced call
// sat directly on the response envelope.
func topLevelCall(reply *generateReply) (StructuredReport, bool) {
	return callArgs(reply.FunctionCall)
}

// partLevelCall handles the current revision: the call arrives as a content
// part of the first candidate.
func partLevelCall(reply *generateReply) (StructuredReport, bool) {
	for _, cand := range reply.Candidates {
		for _, part := range cand.Content.Parts {
			if report, ok := callArgs(part.FunctionCall); ok {
				return report, true
			}
		}
	}
	return nil, false
}

// fencedTextObject is the free-text fallback: the model ignored the function
// directive and wrote the JSON into a text part, usually inside a fenced
// code block.
func fencedTextObject(reply *generateReply) (StructuredReport, bool) {
	for _, cand := range reply.Candidates {
		for _, part := range cand.Content.Parts {
			if part.Text == "" {
				continue
			}
			if report, ok := objectFromText(part.Text); ok {
				return report, true
			}
		}
	}
	return nil, false
}

func callArgs(call *functionCall) (StructuredReport, bool) {
	if call == nil || call.Name != reportFunctionName || len(call.Args) == 0 {
		return nil, false
	}
	return StructuredReport(call.Args), true
}

// objectFromText strips an optional ```-fence (with or without a language
// tag) out of free text, then parses the outermost {...} span it finds.
func objectFromText(text string) (StructuredReport, bool) {
	candidate := text
	if start := strings.Index(candidate, "```"); start >= 0 {
		candidate = candidate[start+3:]
		if end := strings.Index(candidate, "```"); end >= 0 {
			candidate = candidate[:end]
		}
		// The fence line may carry a language tag ("json"); drop it.
		if nl := strings.IndexByte(candidate, '\n'); nl >= 0 {
			tag := strings.TrimSpace(candidate[:nl])
			if tag != "" && !strings.ContainsAny(tag, "{}") {
				candidate = candidate[nl+1:]
			}
		}
	}

	open := strings.IndexByte(candidate, '{')
	last := strings.LastIndexByte(candidate, '}')
	if open < 0 || last <= open {
		return nil, false
	}

	var report StructuredReport
	if err := json.Unmarshal([]byte(candidate[open:last+1]), &report); err != nil {
		return nil, false
	}
	return report, len(report) > 0
}
