package geminiservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// --- Gemini API Configuration ---
const (
	geminiBaseURL   = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel    = "gemini-2.5-flash"
	maxRetries      = 3
	initialBackoff  = 1 * time.Second
	generateTimeout = 60 * time.Second
)

// --- Structs for Gemini API Request/Response ---
// (These are internal to this package)

type generatePayload struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
	Tools             []geminiTool      `json:"tools,omitempty"`
	ToolConfig        *toolConfig       `json:"toolConfig,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type generationConfig struct {
	Temperature *float64 `json:"temperature,omitempty"`
}

type geminiTool struct {
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations"`
}

type functionDeclaration struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Parameters  *GeminiSchema `json:"parameters,omitempty"`
}

// toolConfig with mode ANY restricted to one function is how Gemini is told
// "you must answer by calling this function".
type toolConfig struct {
	FunctionCallingConfig functionCallingConfig `json:"functionCallingConfig"`
}

type functionCallingConfig struct {
	Mode                 string   `json:"mode"`
	AllowedFunctionNames []string `json:"allowedFunctionNames,omitempty"`
}

type functionCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

type replyPart struct {
	Text         string        `json:"text,omitempty"`
	FunctionCall *functionCall `json:"functionCall,omitempty"`
}

// generateReply is the single-shot response envelope. Older API revisions
// surfaced a forced function call at the top level, newer ones deliver it as
// a content part; both fields are declared so the report extractor can try
// each shape in order.
type generateReply struct {
	FunctionCall *functionCall `json:"functionCall,omitempty"`
	Candidates   []struct {
		Content struct {
			Parts []replyPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Client talks to the Gemini text-generation API. One instance is shared
// across requests; it holds no per-request state.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// NewClientFromEnv builds a client from GEMINI_API_KEY and GEMINI_MODEL.
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Error().Msg("FATAL: GEMINI_API_KEY environment variable is not set.")
		return nil, fmt.Errorf("server is not configured for AI chat")
	}
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: geminiBaseURL,
		// No client-level timeout: it would cut off long streaming
		// responses. Single-shot calls get a per-request context timeout.
		http: &http.Client{},
	}, nil
}

// SetTestTransport points the client at a stand-in server. Test helper only.
func (c *Client) SetTestTransport(baseURL string) {
	c.baseURL = baseURL
}

// Generate performs a single-shot call with retry and exponential backoff.
// Used by report mode, where the whole response is needed before parsing.
func (c *Client) Generate(ctx context.Context, payload generatePayload) (*generateReply, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		reqCtx, cancel := context.WithTimeout(ctx, generateTimeout)
		reply, err := c.generateOnce(reqCtx, url, body)
		cancel()
		if err == nil {
			return reply, nil
		}
		lastErr = err
		log.Warn().Err(err).Msgf("Attempt %d: Gemini call failed", i+1)
		if ctx.Err() != nil {
			break
		}
		// Exponential backoff
		time.Sleep(initialBackoff * time.Duration(math.Pow(2, float64(i))))
	}
	return nil, fmt.Errorf("failed to call Gemini API after %d attempts: %w", maxRetries, lastErr)
}

func (c *Client) generateOnce(ctx context.Context, url string, body []byte) (*generateReply, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned non-200 status: %s, Body: %s", resp.Status, string(errBody))
	}

	var reply generateReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &reply, nil
}

// StreamGenerate opens a streaming call and hands back the raw response
// body. The payload of that body is a JSON array of response objects whose
// chunk boundaries never align with object boundaries; the StreamRelay owns
// decoding it. The caller owns closing the returned body. No retries here: a
// broken stream ends the user-visible stream with an error frame.
func (c *Client) StreamGenerate(ctx context.Context, payload generatePayload) (io.ReadCloser, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	url := fmt.Sprintf("%s/%s:streamGenerateContent?key=%s", c.baseURL, c.model, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("API returned non-200 status: %s, Body: %s", resp.Status, string(errBody))
	}
	return resp.Body, nil
}
