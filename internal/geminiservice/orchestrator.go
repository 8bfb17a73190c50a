package geminiservice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// reportCacheSize bounds the in-memory report cache. A report summarizes a
// whole tracking period, so serving the same user the same report twice in
// one day is correct and saves an upstream call.
const reportCacheSize = 256

// ChatResult is what one orchestrated request produces: a live event stream
// for the QA modes, or a complete report for report mode. Exactly one of
// Stream/Report is set.
type ChatResult struct {
	Mode   PromptMode
	Stream <-chan DeltaEvent
	Relay  *StreamRelay
	Report StructuredReport
}

// Orchestrator is the top-level entry point of the AI pipeline. One instance
// is shared across requests; per-request state (decoder, scanner, relay)
// is created fresh inside Run.
type Orchestrator struct {
	client  *Client
	reports *lru.Cache[string, StructuredReport]
}

// NewOrchestrator wires the orchestrator to an upstream client.
func NewOrchestrator(client *Client) (*Orchestrator, error) {
	cache, err := lru.New[string, StructuredReport](reportCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create report cache: %w", err)
	}
	return &Orchestrator{client: client, reports: cache}, nil
}

// Run selects the prompt mode, builds the request, and invokes the upstream
// model. For the QA modes the returned stream handle is live immediately;
// the caller may consume it before the upstream finishes, and cancelling ctx
// releases the upstream connection. For report mode Run blocks until the
// report is extracted or fails.
func (o *Orchestrator) Run(ctx context.Context, conv ConversationContext) (*ChatResult, error) {
	mode := SelectMode(len(conv.History), conv.WantsReport)
	logger := log.With().
		Str("request_id", uuid.NewString()).
		Str("user_id", conv.UserID).
		Str("mode", mode.String()).
		Logger()

	if mode == ReportGeneration {
		report, err := o.generateReport(ctx, conv, logger)
		if err != nil {
			return nil, err
		}
		return &ChatResult{Mode: mode, Report: report}, nil
	}

	payload := generatePayload{
		Contents:          buildContents(mode, conv),
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: SystemPrompt}}},
	}

	logger.Info().Msg("Opening streaming Gemini call...")
	body, err := o.client.StreamGenerate(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to open upstream stream: %w", err)
	}

	relay := NewStreamRelay(body, logger)
	return &ChatResult{
		Mode:   mode,
		Stream: relay.Events(ctx),
		Relay:  relay,
	}, nil
}

// generateReport runs the single-shot report path with the forced function
// call, consulting the per-user daily cache first.
func (o *Orchestrator) generateReport(ctx context.Context, conv ConversationContext, logger zerolog.Logger) (StructuredReport, error) {
	key := reportCacheKey(conv)
	if cached, ok := o.reports.Get(key); ok {
		logger.Info().Msg("Serving report from cache")
		return cached, nil
	}

	payload := generatePayload{
		Contents:          buildContents(ReportGeneration, conv),
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: SystemPrompt}}},
		Tools:             []geminiTool{{FunctionDeclarations: []functionDeclaration{reportFunction}}},
		ToolConfig: &toolConfig{
			FunctionCallingConfig: functionCallingConfig{
				Mode:                 "ANY",
				AllowedFunctionNames: []string{reportFunctionName},
			},
		},
	}

	logger.Info().Msg("Requesting structured report from Gemini...")
	reply, err := o.client.Generate(ctx, payload)
	if err != nil {
		return nil, err
	}

	report, err := ExtractReport(reply)
	if err != nil {
		logger.Warn().Err(err).Msg("Gemini response yielded no report")
		return nil, err
	}

	o.reports.Add(key, report)
	logger.Info().Int("fields", len(report)).Msg("Successfully generated report")
	return report, nil
}

func reportCacheKey(conv ConversationContext) string {
	return fmt.Sprintf("%s|%s|%s", conv.UserID, conv.Language, time.Now().UTC().Format("2006-01-02"))
}
