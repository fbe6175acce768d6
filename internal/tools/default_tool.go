package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Definition is the static description of a tool: its name, what it does
// and the JSON schema of its arguments.
type Definition struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	InputSchema map[string]any `json:"input_schema" yaml:"input_schema"`
}

// ParseDefinition decodes a YAML tool definition.
func ParseDefinition(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("failed to parse tool definition: %w", err)
	}
	if def.Name == "" {
		return Definition{}, fmt.Errorf("tool definition has no name")
	}
	if def.InputSchema == nil {
		def.InputSchema = map[string]any{"type": "object"}
	}
	return def, nil
}

// MCP returns the definition in MCP tools/list format.
func (d Definition) MCP() map[string]any {
	return map[string]any{
		"name":        d.Name,
		"description": d.Description,
		"annotations": map[string]any{
			"title":         fmt.Sprintf("%s Tool", d.Name),
			"openWorldHint": true,
		},
		"inputSchema": d.InputSchema,
	}
}

// DefaultTool is a base implementation of the Tool interface that can be embedded in other tools.
type DefaultTool struct {
	definition Definition
}

// NewDefaultTool creates a new DefaultTool from a definition.
func NewDefaultTool(def Definition) *DefaultTool {
	return &DefaultTool{
		definition: def,
	}
}

// Name returns the name of the tool.
func (t *DefaultTool) Name() string {
	return t.definition.Name
}

// Definition returns the tool definition.
func (t *DefaultTool) Definition() Definition {
	return t.definition
}

// Call is the default implementation of the Tool interface.
// Tools should override this method with their specific implementation.
func (t *DefaultTool) Call(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	return nil, NewError(KindInternal, fmt.Sprintf("method not implemented for tool: %s", t.definition.Name), nil)
}
