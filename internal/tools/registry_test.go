package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type echoTool struct {
	*DefaultTool
}

func newEchoTool(name string) *echoTool {
	return &echoTool{DefaultTool: NewDefaultTool(Definition{Name: name, Description: "echoes its arguments"})}
}

func (t *echoTool) Call(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	return args, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newEchoTool("echo"))

	tool, ok := registry.Get("echo")
	if !ok {
		t.Fatal("Expected tool to be registered")
	}
	if tool.Name() != "echo" {
		t.Errorf("Expected tool name 'echo', got %s", tool.Name())
	}

	if _, ok := registry.Get("missing"); ok {
		t.Error("Expected missing tool lookup to fail")
	}

	if len(registry.List()) != 1 {
		t.Errorf("Expected 1 tool, got %d", len(registry.List()))
	}
}

func TestRegistry_Call(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newEchoTool("echo"))

	out, err := registry.Call(context.Background(), "echo", json.RawMessage(`{"query":"mars"}`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(out) != `{"query":"mars"}` {
		t.Errorf("Expected echoed arguments, got %s", out)
	}
}

func TestRegistry_CallUnknownTool(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Call(context.Background(), "weather", nil)
	if err == nil {
		t.Fatal("Expected error for unknown tool")
	}

	var toolErr *Error
	if !errors.As(err, &toolErr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if toolErr.Kind != KindUnknownTool {
		t.Errorf("Expected kind %s, got %s", KindUnknownTool, toolErr.Kind)
	}
}

func TestRegistry_DefinitionsSorted(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newEchoTool("zeta"))
	registry.Register(newEchoTool("alpha"))

	defs := registry.Definitions()
	if len(defs) != 2 {
		t.Fatalf("Expected 2 definitions, got %d", len(defs))
	}
	if defs[0].Name != "alpha" || defs[1].Name != "zeta" {
		t.Errorf("Expected definitions ordered by name, got %s, %s", defs[0].Name, defs[1].Name)
	}
}

func TestDefaultTool_CallNotImplemented(t *testing.T) {
	tool := NewDefaultTool(Definition{Name: "noop"})

	_, err := tool.Call(context.Background(), nil)
	if KindOf(err) != KindInternal {
		t.Errorf("Expected internal error, got %v", err)
	}
}

func TestParseDefinition(t *testing.T) {
	data := []byte(`
name: fetch_web_content
description: Retrieves info
input_schema:
  type: object
  properties:
    query:
      type: string
      minLength: 1
  required: [query]
`)

	def, err := ParseDefinition(data)
	if err != nil {
		t.Fatalf("Failed to parse definition: %v", err)
	}
	if def.Name != "fetch_web_content" {
		t.Errorf("Expected name fetch_web_content, got %s", def.Name)
	}

	// The parsed schema must drive validation without conversion.
	if err := ValidateArguments(def.InputSchema, json.RawMessage(`{"query":"mars"}`)); err != nil {
		t.Errorf("Expected valid arguments, got %v", err)
	}
	if err := ValidateArguments(def.InputSchema, json.RawMessage(`{}`)); err == nil {
		t.Error("Expected missing query to fail validation")
	}

	encoded, err := json.Marshal(def.MCP())
	if err != nil {
		t.Fatalf("Failed to encode MCP definition: %v", err)
	}
	if len(encoded) == 0 {
		t.Error("Expected non-empty MCP definition")
	}
}

func TestParseDefinition_MissingName(t *testing.T) {
	if _, err := ParseDefinition([]byte("description: nameless\n")); err == nil {
		t.Error("Expected error for definition without a name")
	}
}
