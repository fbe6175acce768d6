// Package agent runs the tool-call loop that turns a question into an answer.
package agent

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"mcp-search-go/internal/dispatch"
	"mcp-search-go/internal/llm"
	"mcp-search-go/internal/tools"
)

// DefaultMaxToolRounds bounds tool calls per query when none is configured.
const DefaultMaxToolRounds = 3

// DefaultSystemPrompt steers the model towards the search tool and asks it to
// summarize what the tool returned.
const DefaultSystemPrompt = "You are a helpful assistant. When a question needs current or factual " +
	"information, call the fetch_web_content tool with a short search query. When a tool result " +
	"arrives, summarize the information from it to answer the user directly. If the tool reports " +
	"an error, answer as well as you can and say that the search failed. Do not call the tool " +
	"again for information you already have."

// Config controls the loop.
type Config struct {
	// MaxToolRounds is the number of tool calls allowed per query.
	MaxToolRounds int
	// QueryTimeout bounds the whole query across all rounds. Zero means no limit.
	QueryTimeout time.Duration
	SystemPrompt string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxToolRounds: DefaultMaxToolRounds,
		QueryTimeout:  2 * time.Minute,
		SystemPrompt:  DefaultSystemPrompt,
	}
}

// Outcome describes a successfully answered query.
type Outcome struct {
	Answer     string
	Transcript []llm.Message
	ToolRounds int
	Usage      llm.Usage
	Duration   time.Duration
}

// Orchestrator answers queries by alternating model calls and tool dispatch.
// One Orchestrator can serve concurrent queries; each query owns its transcript.
type Orchestrator struct {
	model       llm.Model
	dispatcher  dispatch.Dispatcher
	definitions []tools.Definition
	cfg         Config
	logger      zerolog.Logger
}

// New creates an orchestrator. definitions is the tool schema sent with every model request.
func New(model llm.Model, dispatcher dispatch.Dispatcher, definitions []tools.Definition, cfg Config, logger zerolog.Logger) *Orchestrator {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = DefaultMaxToolRounds
	}
	return &Orchestrator{
		model:       model,
		dispatcher:  dispatcher,
		definitions: definitions,
		cfg:         cfg,
		logger:      logger.With().Str("component", "orchestrator").Logger(),
	}
}

// Answer returns the final answer to query or an *Error.
func (o *Orchestrator) Answer(ctx context.Context, query string) (string, error) {
	outcome, err := o.Run(ctx, query)
	if err != nil {
		return "", err
	}
	return outcome.Answer, nil
}

// Run is Answer with the transcript and accounting of the query.
func (o *Orchestrator) Run(ctx context.Context, query string) (*Outcome, error) {
	if o.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	transcript := NewTranscript()
	transcript.Append(llm.UserMessage(query))

	seen := make(map[string]bool)
	rounds := 0
	var usage llm.Usage

	for {
		if err := ctx.Err(); err != nil {
			return nil, NewCanceledError(rounds, err)
		}

		resp, err := o.model.Complete(ctx, llm.Request{
			System:   o.cfg.SystemPrompt,
			Messages: transcript.Messages(),
			Tools:    o.definitions,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, NewCanceledError(rounds, err)
			}
			o.logger.Error().Err(err).Int("rounds", rounds).Msg("Model call failed")
			return nil, NewModelUnavailableError(rounds, err)
		}

		usage.InputTokens += resp.Usage.InputTokens
		usage.OutputTokens += resp.Usage.OutputTokens

		msg := resp.Message
		msg.Role = llm.RoleAssistant
		if msg.Action == nil {
			msg.Action = llm.NoToolCall{}
		}
		transcript.Append(msg)

		directive, ok := msg.Directive()
		if !ok {
			o.logger.Debug().
				Int("rounds", rounds).
				Int("messages", transcript.Len()).
				Msg("Query answered")
			return &Outcome{
				Answer:     msg.Content,
				Transcript: transcript.Messages(),
				ToolRounds: rounds,
				Usage:      usage,
				Duration:   time.Since(start),
			}, nil
		}

		if rounds >= o.cfg.MaxToolRounds {
			o.logger.Warn().
				Int("limit", o.cfg.MaxToolRounds).
				Str("tool_name", directive.ToolName).
				Msg("Tool loop limit exceeded")
			return nil, NewToolLoopExceededError(o.cfg.MaxToolRounds)
		}
		rounds++

		result := o.execute(ctx, directive, seen)
		transcript.Append(llm.ToolMessage(result))
	}
}

// execute runs one directive. Duplicate call ids are rejected without dispatch.
func (o *Orchestrator) execute(ctx context.Context, directive llm.ToolCallDirective, seen map[string]bool) tools.Result {
	logger := o.logger.With().
		Str("call_id", directive.CallID).
		Str("tool_name", directive.ToolName).
		Logger()

	if seen[directive.CallID] {
		logger.Warn().Msg("Duplicate call_id from model")
		return tools.Failed(directive.CallID, tools.NewInvalidArgumentsError("call_id", "duplicate call_id "+directive.CallID))
	}
	seen[directive.CallID] = true

	result := o.dispatcher.Dispatch(ctx, directive.Call())
	result.CallID = directive.CallID

	logger.Debug().
		Str("status", string(result.Status)).
		Str("error_kind", string(result.ErrorKind)).
		Msg("Tool result received")

	return result
}
