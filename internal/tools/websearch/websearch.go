// Package websearch provides the fetch_web_content tool.
package websearch

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"mcp-search-go/internal/search"
	"mcp-search-go/internal/tools"
)

// Name is the registered name of the tool.
const Name = "fetch_web_content"

//go:embed definition.yaml
var definitionYAML []byte

// Args represents the arguments for the search tool.
type Args struct {
	Query string `json:"query"`
}

// Output is the payload returned on success.
type Output struct {
	Query   string           `json:"query"`
	Results []search.Snippet `json:"results"`
}

// Definition returns the static definition of the tool.
func Definition() (tools.Definition, error) {
	return tools.ParseDefinition(definitionYAML)
}

// Tool runs web searches against a search.Backend.
type Tool struct {
	*tools.DefaultTool
	backend search.Backend
	logger  zerolog.Logger
}

// New creates a new search tool.
func New(backend search.Backend, logger zerolog.Logger) (*Tool, error) {
	def, err := Definition()
	if err != nil {
		return nil, err
	}
	if def.Name != Name {
		return nil, fmt.Errorf("embedded definition names %q, expected %q", def.Name, Name)
	}

	return &Tool{
		DefaultTool: tools.NewDefaultTool(def),
		backend:     backend,
		logger:      logger.With().Str("component", "websearch").Logger(),
	}, nil
}

// Call executes the search tool with the given arguments.
func (t *Tool) Call(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	var params Args
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, tools.NewInvalidArgumentsError("", err.Error())
	}

	query := strings.TrimSpace(params.Query)
	if query == "" {
		return nil, tools.NewInvalidArgumentsError("query", "must not be empty")
	}

	snippets, err := t.backend.Search(ctx, query)
	if err != nil {
		t.logger.Warn().Err(err).Str("query", query).Msg("Search failed")
		return nil, tools.FromTransportError(ctx, err)
	}

	if len(snippets) == 0 {
		return nil, tools.NewEmptyResultError(query)
	}

	payload, err := json.Marshal(Output{Query: query, Results: snippets})
	if err != nil {
		return nil, tools.NewError(tools.KindInternal, "failed to encode results", err)
	}

	return payload, nil
}
