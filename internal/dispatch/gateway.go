// Package dispatch routes tool calls to registered tools, either in-process
// through a Gateway or over HTTP through a Client.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"mcp-search-go/internal/tools"
)

// Dispatcher runs a tool call and always returns a result envelope. Failures
// are reported inside the Result, never as a Go error.
type Dispatcher interface {
	Dispatch(ctx context.Context, call tools.Call) tools.Result
}

// Gateway validates calls against the tool registry and executes them.
// It holds no per-call state and is safe for concurrent use.
type Gateway struct {
	registry *tools.Registry
	logger   zerolog.Logger
}

// NewGateway creates a gateway over registry.
func NewGateway(registry *tools.Registry, logger zerolog.Logger) *Gateway {
	return &Gateway{
		registry: registry,
		logger:   logger.With().Str("component", "gateway").Logger(),
	}
}

// Definitions returns the definitions of every tool the gateway serves.
func (g *Gateway) Definitions() []tools.Definition {
	return g.registry.Definitions()
}

// Dispatch implements Dispatcher.
func (g *Gateway) Dispatch(ctx context.Context, call tools.Call) (result tools.Result) {
	start := time.Now()
	logger := g.logger.With().
		Str("call_id", call.ID).
		Str("tool_name", call.Name).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Tool panicked")
			result = tools.Failed(call.ID, tools.NewError(tools.KindInternal, fmt.Sprintf("tool panicked: %v", r), nil))
		}
	}()

	tool, ok := g.registry.Get(call.Name)
	if !ok {
		logger.Warn().Msg("Unknown tool requested")
		return tools.Failed(call.ID, tools.NewUnknownToolError(call.Name))
	}

	if err := tools.ValidateArguments(tool.Definition().InputSchema, call.Arguments); err != nil {
		logger.Warn().Err(err).Msg("Rejected tool arguments")
		return tools.Failed(call.ID, err)
	}

	payload, err := tool.Call(ctx, call.Arguments)
	if err != nil {
		logger.Info().
			Err(err).
			Str("error_kind", string(tools.KindOf(err))).
			Dur("duration", time.Since(start)).
			Msg("Tool call failed")
		return tools.Failed(call.ID, err)
	}

	logger.Info().
		Int("payload_bytes", len(payload)).
		Dur("duration", time.Since(start)).
		Msg("Tool call completed")

	return tools.OK(call.ID, payload)
}
