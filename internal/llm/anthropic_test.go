package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"mcp-search-go/internal/tools"
)

var searchDefinition = tools.Definition{
	Name:        "fetch_web_content",
	Description: "Retrieves info from website based on users queries",
	InputSchema: map[string]any{
		"type":       "object",
		"properties": map[string]any{"query": map[string]any{"type": "string"}},
		"required":   []string{"query"},
	},
}

func TestAnthropic_CompleteToolUse(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, DefaultAnthropicVersion, r.Header.Get("anthropic-version"))
		assert.Equal(t, "application/json", r.Header.Get("content-type"))

		var err error
		body, err = io.ReadAll(r.Body)
		require.NoError(t, err)

		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"role": "assistant",
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 12, "output_tokens": 7},
			"content": [
				{"type": "text", "text": "Let me look that up."},
				{"type": "tool_use", "id": "toolu_01", "name": "fetch_web_content", "input": {"query": "CEO of OpenAI"}},
				{"type": "tool_use", "id": "toolu_02", "name": "fetch_web_content", "input": {"query": "ignored"}}
			]
		}`))
	}))
	defer srv.Close()

	model := NewAnthropic(AnthropicConfig{APIKey: "test-key", URL: srv.URL}, zerolog.Nop())

	resp, err := model.Complete(context.Background(), Request{
		System:   "be brief",
		Messages: []Message{UserMessage("who is the CEO of OpenAI?")},
		Tools:    []tools.Definition{searchDefinition},
	})
	require.NoError(t, err)

	sent := gjson.ParseBytes(body)
	assert.Equal(t, DefaultAnthropicModel, sent.Get("model").String())
	assert.Equal(t, int64(DefaultMaxTokens), sent.Get("max_tokens").Int())
	assert.Equal(t, "be brief", sent.Get("system").String())
	assert.Equal(t, "who is the CEO of OpenAI?", sent.Get("messages.0.content.0.text").String())
	assert.Equal(t, "fetch_web_content", sent.Get("tools.0.name").String())
	assert.Equal(t, "query", sent.Get("tools.0.input_schema.required.0").String())

	assert.Equal(t, RoleAssistant, resp.Message.Role)
	assert.Equal(t, "Let me look that up.", resp.Message.Content)
	assert.Equal(t, "tool_use", resp.StopReason)
	assert.Equal(t, Usage{InputTokens: 12, OutputTokens: 7}, resp.Usage)

	directive, ok := resp.Message.Directive()
	require.True(t, ok)
	assert.Equal(t, "toolu_01", directive.CallID)
	assert.Equal(t, "fetch_web_content", directive.ToolName)
	assert.JSONEq(t, `{"query":"CEO of OpenAI"}`, string(directive.Arguments))
}

func TestAnthropic_CompleteText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"role":"assistant","stop_reason":"end_turn","content":[{"type":"text","text":"The CEO of OpenAI is Sam Altman."}]}`))
	}))
	defer srv.Close()

	resp, err := NewAnthropic(AnthropicConfig{URL: srv.URL}, zerolog.Nop()).
		Complete(context.Background(), Request{Messages: []Message{UserMessage("hi")}})
	require.NoError(t, err)

	assert.Equal(t, "The CEO of OpenAI is Sam Altman.", resp.Message.Content)
	assert.IsType(t, NoToolCall{}, resp.Message.Action)
}

func TestAnthropic_CompleteErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		errType   string
		retryable bool
	}{
		{name: "overloaded", status: 529, body: `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`, errType: "overloaded_error", retryable: true},
		{name: "rate limited", status: 429, body: `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`, errType: "rate_limit_error", retryable: true},
		{name: "bad key", status: 401, body: `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`, errType: "authentication_error"},
		{name: "plain body", status: 500, body: `oops`, retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewAnthropic(AnthropicConfig{URL: srv.URL}, zerolog.Nop()).
				Complete(context.Background(), Request{Messages: []Message{UserMessage("hi")}})

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.errType, apiErr.Type)
			assert.Equal(t, tt.retryable, IsRetryable(err))
		})
	}
}

func TestAnthropic_TransportErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewAnthropic(AnthropicConfig{URL: url}, zerolog.Nop()).
		Complete(context.Background(), Request{Messages: []Message{UserMessage("hi")}})
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
}

func TestEncodeMessages(t *testing.T) {
	failed := tools.Failed("toolu_01", tools.NewBackendUnavailableError(nil))
	messages := []Message{
		UserMessage("who is the CEO of OpenAI?"),
		AssistantMessage("", ToolCallDirective{CallID: "toolu_01", ToolName: "fetch_web_content", Arguments: json.RawMessage(`{"query":"CEO of OpenAI"}`)}),
		ToolMessage(failed),
		AssistantMessage("", ToolCallDirective{CallID: "toolu_02", ToolName: "fetch_web_content", Arguments: json.RawMessage(`{"query":`)}),
		AssistantMessage("", nil),
	}

	data, err := json.Marshal(encodeMessages(messages))
	require.NoError(t, err)
	encoded := gjson.ParseBytes(data)

	assert.Equal(t, "assistant", encoded.Get("1.role").String())
	assert.Equal(t, 1, len(encoded.Get("1.content").Array()))
	assert.Equal(t, "tool_use", encoded.Get("1.content.0.type").String())
	assert.Equal(t, "CEO of OpenAI", encoded.Get("1.content.0.input.query").String())

	assert.Equal(t, "user", encoded.Get("2.role").String())
	assert.Equal(t, "tool_result", encoded.Get("2.content.0.type").String())
	assert.Equal(t, "toolu_01", encoded.Get("2.content.0.tool_use_id").String())
	assert.True(t, encoded.Get("2.content.0.is_error").Bool())
	assert.Equal(t, "backend unavailable", encoded.Get("2.content.0.content").String())

	// Malformed arguments are replaced so the request stays valid JSON.
	assert.JSONEq(t, `{}`, encoded.Get("3.content.0.input").Raw)

	assert.Equal(t, "(no content)", encoded.Get("4.content.0.text").String())
}

func TestAnthropic_RepeatedCallIDGetsUniqueWireID(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		body, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		_, _ = w.Write([]byte(`{"role":"assistant","stop_reason":"end_turn","content":[{"type":"text","text":"Sam Altman."}]}`))
	}))
	defer srv.Close()

	search := func(id string) Message {
		return AssistantMessage("", ToolCallDirective{CallID: id, ToolName: "fetch_web_content", Arguments: json.RawMessage(`{"query":"CEO of OpenAI"}`)})
	}
	rejected := tools.Failed("toolu_X", tools.NewInvalidArgumentsError("call_id", "duplicate call_id toolu_X"))

	_, err := NewAnthropic(AnthropicConfig{URL: srv.URL}, zerolog.Nop()).Complete(context.Background(), Request{
		Messages: []Message{
			UserMessage("who is the CEO of OpenAI?"),
			search("toolu_X"),
			ToolMessage(tools.OK("toolu_X", json.RawMessage(`{"results":[]}`))),
			search("toolu_X"),
			ToolMessage(rejected),
			search("toolu_X_dup2"),
			ToolMessage(tools.OK("toolu_X_dup2", json.RawMessage(`{"results":[]}`))),
		},
	})
	require.NoError(t, err)

	messages := gjson.GetBytes(body, "messages").Array()
	require.Len(t, messages, 7)

	seen := map[string]bool{}
	var lastUse string
	for _, m := range messages {
		for _, block := range m.Get("content").Array() {
			switch block.Get("type").String() {
			case "tool_use":
				lastUse = block.Get("id").String()
				assert.False(t, seen[lastUse], "tool_use id %s sent twice", lastUse)
				seen[lastUse] = true
			case "tool_result":
				assert.Equal(t, lastUse, block.Get("tool_use_id").String())
			}
		}
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, "toolu_X", messages[1].Get("content.0.id").String())
	assert.True(t, messages[4].Get("content.0.is_error").Bool())
}
