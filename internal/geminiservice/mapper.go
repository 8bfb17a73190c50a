package geminiservice

import "encoding/json"

// streamedReply mirrors the shape of one object inside Gemini's streamed
// response array. Only the fields the mapper reads are declared.
type streamedReply struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// deltaShape inspects one parsed response object and returns the text events
// it carries. Shapes are tried in order; the first one that yields events
// wins. New upstream response variants get a new entry here.
type deltaShape func(raw []byte) []DeltaEvent

var deltaShapes = []deltaShape{
	candidateParts,
}

// candidateParts handles the current streaming shape:
// candidates[].content.parts[].text.
func candidateParts(raw []byte) []DeltaEvent {
	var reply streamedReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil
	}
	var events []DeltaEvent
	for _, cand := range reply.Candidates {
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				events = append(events, TextEvent(part.Text))
			}
		}
	}
	return events
}

// MapDeltas turns one extracted object span into zero or more text events.
// A span that is not valid JSON at all is a malformed fragment: the error is
// returned so the relay can log it, and the stream continues. A span that
// parses but matches no known shape (usage metadata, safety blocks, ...)
// maps to nothing; that is expected traffic, not an error.
func MapDeltas(raw string) ([]DeltaEvent, error) {
	var probe interface{}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, err
	}
	for _, shape := range deltaShapes {
		if events := shape([]byte(raw)); len(events) > 0 {
			return events, nil
		}
	}
	return nil, nil
}
