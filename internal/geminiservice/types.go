package geminiservice

/* =================================================================================
						CORE TYPES FOR THE AI CHAT PIPELINE
=================================================================================*/

// Turn is one prior exchange entry in a conversation, as stored by the caller.
type Turn struct {
	// Role is either "user" or "model".
	Role string `json:"role"`

	// Content is the literal text of that turn.
	Content string `json:"content"`
}

// ConversationContext carries everything the pipeline needs for one request.
// It is built once per request by the transport layer and never mutated here.
type ConversationContext struct {
	// UserID identifies the already-authenticated caller (supplied upstream).
	UserID string

	// UserText is the message the user just sent.
	UserText string

	// DomainData is the caller-supplied health payload (weight logs, targets,
	// meal history, ...) injected verbatim into the prompt context. The
	// pipeline treats it as opaque key/value data.
	DomainData map[string]interface{}

	// Language is the BCP-47 tag the answer should be written in.
	Language string

	// History holds the prior turns of this conversation, oldest first.
	History []Turn

	// WantsReport requests a structured nutrition report instead of chat.
	WantsReport bool
}

// EventKind tags a DeltaEvent.
type EventKind int

const (
	// EventText carries one incremental fragment of model output.
	EventText EventKind = iota

	// EventDone marks the clean end of a stream. Exactly one is emitted.
	EventDone

	// EventError marks a terminal failure. It is always the last event.
	EventError
)

// DeltaEvent is the unit forwarded to the outbound stream serializer.
type DeltaEvent struct {
	Kind    EventKind
	Content string // set for EventText
	Message string // set for EventError
}

// TextEvent builds an EventText event.
func TextEvent(content string) DeltaEvent {
	return DeltaEvent{Kind: EventText, Content: content}
}

// DoneEvent builds the terminal completion event.
func DoneEvent() DeltaEvent {
	return DeltaEvent{Kind: EventDone}
}

// ErrorEvent builds a terminal error event.
func ErrorEvent(msg string) DeltaEvent {
	return DeltaEvent{Kind: EventError, Message: msg}
}

// StructuredReport is the parsed report object. The schema is owned by the
// report consumers; this package only guarantees it is non-empty.
type StructuredReport map[string]interface{}
