package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"mcp-search-go/internal/tools"
)

// DefaultGatewayURL is used when no gateway address is configured.
const DefaultGatewayURL = "http://localhost:5001"

// Client dispatches tool calls to a remote gateway over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient creates a client for the gateway at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultGatewayURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "gateway_client").Logger(),
	}
}

// BaseURL returns the gateway address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Dispatch implements Dispatcher. Transport failures become
// backend_unavailable or timeout results.
func (c *Client) Dispatch(ctx context.Context, call tools.Call) tools.Result {
	args := call.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if !json.Valid(args) {
		return tools.Failed(call.ID, tools.NewInvalidArgumentsError("", "arguments are not valid JSON"))
	}

	body, err := json.Marshal(ToolCallRequest{
		CallID:    call.ID,
		ToolName:  call.Name,
		Arguments: args,
	})
	if err != nil {
		return tools.Failed(call.ID, tools.NewError(tools.KindInternal, "failed to encode request", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tool_call", bytes.NewReader(body))
	if err != nil {
		return tools.Failed(call.ID, tools.NewError(tools.KindInternal, "failed to create request", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("call_id", call.ID).Msg("Gateway request failed")
		return tools.Failed(call.ID, tools.FromTransportError(ctx, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return tools.Failed(call.ID, tools.FromTransportError(ctx, err))
	}

	if resp.StatusCode != http.StatusOK {
		return tools.Failed(call.ID, statusError(resp.StatusCode, data))
	}

	var result tools.Result
	if err := json.Unmarshal(data, &result); err != nil || result.Status == "" {
		return tools.Failed(call.ID, tools.NewBackendUnavailableError(fmt.Errorf("invalid gateway response: %s", truncate(data))))
	}

	if result.CallID != call.ID {
		c.logger.Warn().
			Str("call_id", call.ID).
			Str("returned_call_id", result.CallID).
			Msg("Gateway returned a different call_id")
		result.CallID = call.ID
	}

	return result
}

// Health checks that the gateway answers GET /health.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway health check returned status %d", resp.StatusCode)
	}
	return nil
}

func statusError(status int, body []byte) *tools.Error {
	message := truncate(body)
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	if status == http.StatusBadRequest || status == http.StatusRequestEntityTooLarge {
		return tools.NewInvalidArgumentsError("", message)
	}
	return tools.NewBackendUnavailableError(fmt.Errorf("gateway returned status %d: %s", status, message))
}

func truncate(b []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "..."
	}
	return s
}
