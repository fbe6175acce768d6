// Package llm talks to the language model: transcript message types, the
// Anthropic Messages API client and retry and rate limit decorators.
package llm

import (
	"context"
	"encoding/json"

	"mcp-search-go/internal/tools"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Action is what an assistant message asks for next: either NoToolCall or
// a ToolCallDirective.
type Action interface {
	isAction()
}

// NoToolCall marks an assistant message that ends the exchange.
type NoToolCall struct{}

func (NoToolCall) isAction() {}

// ToolCallDirective asks for a tool to be run.
type ToolCallDirective struct {
	CallID    string
	ToolName  string
	Arguments json.RawMessage
}

func (ToolCallDirective) isAction() {}

// Call converts the directive to a tools.Call.
func (d ToolCallDirective) Call() tools.Call {
	return tools.Call{
		ID:        d.CallID,
		Name:      d.ToolName,
		Arguments: d.Arguments,
	}
}

// Message is a transcript entry. Action is set on assistant messages and
// Result on tool messages.
type Message struct {
	Role    Role
	Content string
	Action  Action
	Result  *tools.Result
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant message. A nil action means NoToolCall.
func AssistantMessage(content string, action Action) Message {
	if action == nil {
		action = NoToolCall{}
	}
	return Message{Role: RoleAssistant, Content: content, Action: action}
}

// ToolMessage creates a tool message carrying result.
func ToolMessage(result tools.Result) Message {
	return Message{Role: RoleTool, Content: result.Text(), Result: &result}
}

// Directive returns the tool call requested by m, if any.
func (m Message) Directive() (ToolCallDirective, bool) {
	d, ok := m.Action.(ToolCallDirective)
	return d, ok
}

// Usage reports token consumption of a single completion.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Request is one model round trip: the system prompt, the full transcript
// and the tools the model may call.
type Request struct {
	System   string
	Messages []Message
	Tools    []tools.Definition
}

// Response is the assistant message produced for a Request.
type Response struct {
	Message    Message
	StopReason string
	Usage      Usage
}

// Model completes a conversation.
type Model interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// ModelFunc adapts a function to the Model interface.
type ModelFunc func(ctx context.Context, req Request) (*Response, error)

// Complete implements Model.
func (f ModelFunc) Complete(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
