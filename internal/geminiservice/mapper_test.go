package geminiservice

import (
	"reflect"
	"testing"
)

func TestMapDeltasCandidateParts(t *testing.T) {
	raw := `{"candidates":[{"content":{"parts":[{"text":"Hello"},{"text":" world"}]}}]}`
	events, err := MapDeltas(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []DeltaEvent{TextEvent("Hello"), TextEvent(" world")}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("MapDeltas = %v, want %v", events, want)
	}
}

func TestMapDeltasSkipsEmptyParts(t *testing.T) {
	raw := `{"candidates":[{"content":{"parts":[{"text":""},{"text":"x"}]}}]}`
	events, err := MapDeltas(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].Content != "x" {
		t.Errorf("MapDeltas = %v, want single %q event", events, "x")
	}
}

func TestMapDeltasMetadataOnlyObject(t *testing.T) {
	// Usage metadata carries no text; that is expected traffic, not an error.
	raw := `{"usageMetadata":{"promptTokenCount":12,"totalTokenCount":40}}`
	events, err := MapDeltas(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events != nil {
		t.Errorf("MapDeltas = %v, want no events", events)
	}
}

func TestMapDeltasMalformedFragment(t *testing.T) {
	// A balanced-but-invalid span must surface as an error the relay can
	// log, never as events.
	events, err := MapDeltas(`{not json}`)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if events != nil {
		t.Errorf("MapDeltas = %v, want no events", events)
	}
}
