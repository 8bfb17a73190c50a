package geminiservice

// PromptMode selects which prompt strategy a request uses. It is chosen once
// per request and never re-evaluated mid-stream.
type PromptMode int

const (
	// ReportGeneration produces a single structured nutrition report.
	ReportGeneration PromptMode = iota

	// FirstTurnQA answers the opening question of a fresh conversation.
	FirstTurnQA

	// FollowUpQA continues an established conversation.
	FollowUpQA
)

// firstExchangeThreshold is the history length at or below which a
// conversation still counts as its first real exchange (a single exchange
// already occupies two entries: the user turn and the model turn).
const firstExchangeThreshold = 2

func (m PromptMode) String() string {
	switch m {
	case ReportGeneration:
		return "report_generation"
	case FirstTurnQA:
		return "first_turn_qa"
	case FollowUpQA:
		return "follow_up_qa"
	default:
		return "unknown"
	}
}

// SelectMode picks the prompt mode for a request. Pure function: a report is
// only ever generated on the first exchange, and an established conversation
// is never retroactively turned into a report request.
func SelectMode(historyLength int, wantsReport bool) PromptMode {
	if historyLength > firstExchangeThreshold {
		return FollowUpQA
	}
	if wantsReport {
		return ReportGeneration
	}
	return FirstTurnQA
}
