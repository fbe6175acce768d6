package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mcp-search-go/internal/tools"
)

// Defaults for the Anthropic Messages API.
const (
	DefaultAnthropicURL     = "https://api.anthropic.com/v1/messages"
	DefaultAnthropicModel   = "claude-3-opus-20240229"
	DefaultAnthropicVersion = "2023-06-01"
	DefaultMaxTokens        = 4096
)

// AnthropicConfig configures the Anthropic client.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	URL       string
	Version   string
	MaxTokens int
	Timeout   time.Duration
}

// Anthropic implements Model on the Anthropic Messages API.
type Anthropic struct {
	cfg    AnthropicConfig
	client *http.Client
	logger zerolog.Logger
}

// NewAnthropic creates a client. Zero config fields take the package defaults.
func NewAnthropic(cfg AnthropicConfig, logger zerolog.Logger) *Anthropic {
	if cfg.Model == "" {
		cfg.Model = DefaultAnthropicModel
	}
	if cfg.URL == "" {
		cfg.URL = DefaultAnthropicURL
	}
	if cfg.Version == "" {
		cfg.Version = DefaultAnthropicVersion
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &Anthropic{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "anthropic").Str("model", cfg.Model).Logger(),
	}
}

// ModelName returns the configured model identifier.
func (a *Anthropic) ModelName() string {
	return a.cfg.Model
}

type apiRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []apiMessage       `json:"messages"`
	Tools     []tools.Definition `json:"tools,omitempty"`
}

type apiMessage struct {
	Role    string       `json:"role"`
	Content []apiContent `json:"content"`
}

type apiContent struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type apiResponse struct {
	ID         string       `json:"id"`
	Role       string       `json:"role"`
	Content    []apiContent `json:"content"`
	StopReason string       `json:"stop_reason"`
	Usage      Usage        `json:"usage"`
}

type apiErrorBody struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements Model.
func (a *Anthropic) Complete(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(apiRequest{
		Model:     a.cfg.Model,
		MaxTokens: a.cfg.MaxTokens,
		System:    req.System,
		Messages:  encodeMessages(req.Messages),
		Tools:     req.Tools,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("x-api-key", a.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", a.cfg.Version)
	httpReq.Header.Set("content-type", "application/json")

	start := time.Now()
	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, &APIError{Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Cause: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp.StatusCode, data)
	}

	var out apiResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	response := decodeResponse(out)

	a.logger.Debug().
		Str("stop_reason", out.StopReason).
		Int("input_tokens", out.Usage.InputTokens).
		Int("output_tokens", out.Usage.OutputTokens).
		Dur("duration", time.Since(start)).
		Msg("Completion received")

	return response, nil
}

// encodeMessages maps the transcript onto Messages API blocks. The API
// rejects a request whose tool_use ids repeat, so a call id the model reused
// is sent under a fresh wire id, and its tool_result follows it.
func encodeMessages(messages []Message) []apiMessage {
	out := make([]apiMessage, 0, len(messages))
	used := make(map[string]bool)
	wireIDs := make(map[string]string)
	for _, m := range messages {
		switch m.Role {
		case RoleUser:
			out = append(out, apiMessage{Role: "user", Content: []apiContent{{Type: "text", Text: m.Content}}})

		case RoleAssistant:
			var blocks []apiContent
			if m.Content != "" {
				blocks = append(blocks, apiContent{Type: "text", Text: m.Content})
			}
			if d, ok := m.Directive(); ok {
				input := d.Arguments
				if !json.Valid(input) {
					input = json.RawMessage("{}")
				}
				id := uniqueWireID(d.CallID, used)
				wireIDs[d.CallID] = id
				blocks = append(blocks, apiContent{Type: "tool_use", ID: id, Name: d.ToolName, Input: input})
			}
			if len(blocks) == 0 {
				blocks = append(blocks, apiContent{Type: "text", Text: "(no content)"})
			}
			out = append(out, apiMessage{Role: "assistant", Content: blocks})

		case RoleTool:
			block := apiContent{Type: "tool_result", Content: m.Content}
			if m.Result != nil {
				block.ToolUseID = m.Result.CallID
				if id, ok := wireIDs[m.Result.CallID]; ok {
					block.ToolUseID = id
				}
				block.IsError = m.Result.IsError()
			}
			out = append(out, apiMessage{Role: "user", Content: []apiContent{block}})
		}
	}
	return out
}

func uniqueWireID(callID string, used map[string]bool) string {
	id := callID
	for n := 2; used[id]; n++ {
		id = fmt.Sprintf("%s_dup%d", callID, n)
	}
	used[id] = true
	return id
}

// decodeResponse keeps every text block and the first tool_use block.
func decodeResponse(out apiResponse) *Response {
	var text []string
	var action Action = NoToolCall{}

	for _, block := range out.Content {
		switch block.Type {
		case "text":
			if block.Text != "" {
				text = append(text, block.Text)
			}
		case "tool_use":
			if _, done := action.(ToolCallDirective); done {
				continue
			}
			args := block.Input
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			action = ToolCallDirective{CallID: block.ID, ToolName: block.Name, Arguments: args}
		}
	}

	return &Response{
		Message:    AssistantMessage(strings.Join(text, "\n"), action),
		StopReason: out.StopReason,
		Usage:      out.Usage,
	}
}

func decodeAPIError(status int, data []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var body apiErrorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Error.Message != "" {
		apiErr.Type = body.Error.Type
		apiErr.Message = body.Error.Message
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(data))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
