package tools

import (
	"context"
	"encoding/json"
)

// Tool is the interface that all tools must implement.
type Tool interface {
	// Name returns the name of the tool.
	Name() string

	// Definition returns the static schema advertised to the model.
	Definition() Definition

	// Call executes the tool with the given arguments and context.
	// The arguments and return value are JSON-encoded data. Failures should be
	// reported as *Error so callers can classify them.
	Call(ctx context.Context, args json.RawMessage) (json.RawMessage, error)
}
