package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mcp-search-go/internal/jsonrpc"
	"mcp-search-go/internal/tools"
)

const maxBodyBytes = 1 << 20

// ToolCallRequest is the body of POST /tool_call. The legacy name and
// parameters fields are accepted in place of tool_name and arguments.
type ToolCallRequest struct {
	CallID     string          `json:"call_id,omitempty"`
	ToolName   string          `json:"tool_name,omitempty"`
	Arguments  json.RawMessage `json:"arguments,omitempty"`
	Name       string          `json:"name,omitempty"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// Bind implements render.Binder.
func (req *ToolCallRequest) Bind(r *http.Request) error {
	if req.ToolName == "" {
		req.ToolName = req.Name
	}
	if len(req.Arguments) == 0 {
		req.Arguments = req.Parameters
	}
	req.Name, req.Parameters = "", nil

	if req.ToolName == "" {
		return errors.New("tool_name is required")
	}
	if req.CallID == "" {
		req.CallID = uuid.NewString()
	}
	return nil
}

// Call converts the request to a tools.Call.
func (req *ToolCallRequest) Call() tools.Call {
	return tools.Call{
		ID:        req.CallID,
		Name:      req.ToolName,
		Arguments: req.Arguments,
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail describes why a request was rejected.
type ErrorDetail struct {
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// Error codes for rejected requests
const (
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeBodyTooLarge   = "BODY_TOO_LARGE"
)

// Handler exposes a Dispatcher over HTTP.
type Handler struct {
	dispatcher Dispatcher
	registry   *tools.Registry
	logger     zerolog.Logger
}

// NewHandler creates a new handler. registry is used to list tools.
func NewHandler(dispatcher Dispatcher, registry *tools.Registry, logger zerolog.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		registry:   registry,
		logger:     logger.With().Str("component", "dispatch_handler").Logger(),
	}
}

// ToolCall handles POST /tool_call.
func (h *Handler) ToolCall(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req ToolCallRequest
	if err := render.Bind(r, &req); err != nil {
		h.logger.Debug().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Msg("Rejected tool call request")
		h.sendBindError(w, r, err)
		return
	}

	result := h.dispatcher.Dispatch(r.Context(), req.Call())

	render.Status(r, http.StatusOK)
	render.JSON(w, r, result)
}

// ListTools handles GET /tools.
func (h *Handler) ListTools(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"tools": h.registry.Definitions(),
	})
}

// RPC handles POST /rpc, an MCP-style JSON-RPC endpoint with the
// tools/list and tools/call methods.
func (h *Handler) RPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.sendRPC(w, r, http.StatusBadRequest, jsonrpc.NewErrorResponse(nil,
			jsonrpc.NewError(jsonrpc.ParseError, "could not read request body", err.Error())))
		return
	}

	msg, err := jsonrpc.ParseMessage(body)
	if err != nil {
		var rpcErr *jsonrpc.Error
		if !errors.As(err, &rpcErr) {
			rpcErr = jsonrpc.NewError(jsonrpc.ParseError, err.Error(), nil)
		}
		h.sendRPC(w, r, http.StatusBadRequest, jsonrpc.NewErrorResponse(nil, rpcErr))
		return
	}

	switch m := msg.(type) {
	case *jsonrpc.Notification:
		h.logger.Debug().Str("method", m.Method).Msg("Ignoring notification")
		w.WriteHeader(http.StatusAccepted)
	case *jsonrpc.Request:
		h.sendRPC(w, r, http.StatusOK, h.handleRPC(r.Context(), m))
	default:
		h.sendRPC(w, r, http.StatusBadRequest, jsonrpc.NewErrorResponse(nil,
			jsonrpc.NewError(jsonrpc.InvalidRequest, "responses are not accepted", nil)))
	}
}

type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
	CallID    string          `json:"call_id"`
}

type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type callToolResult struct {
	Content []textContent `json:"content"`
	IsError bool          `json:"isError"`
	tools.Result
}

func (h *Handler) handleRPC(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	switch req.Method {
	case "ping":
		return jsonrpc.NewResponse(req.ID, struct{}{})

	case "tools/list":
		defs := h.registry.Definitions()
		list := make([]map[string]any, 0, len(defs))
		for _, def := range defs {
			list = append(list, def.MCP())
		}
		return jsonrpc.NewResponse(req.ID, map[string]any{"tools": list})

	case "tools/call":
		var params callToolParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.NewError(jsonrpc.InvalidParams, "invalid params", err.Error()))
		}
		if params.Name == "" {
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.NewError(jsonrpc.InvalidParams, "name is required", nil))
		}
		if params.CallID == "" {
			params.CallID = uuid.NewString()
		}

		result := h.dispatcher.Dispatch(ctx, tools.Call{
			ID:        params.CallID,
			Name:      params.Name,
			Arguments: params.Arguments,
		})

		return jsonrpc.NewResponse(req.ID, callToolResult{
			Content: []textContent{{Type: "text", Text: result.Text()}},
			IsError: result.IsError(),
			Result:  result,
		})
	}

	return jsonrpc.NewErrorResponse(req.ID, jsonrpc.NewError(jsonrpc.MethodNotFound,
		fmt.Sprintf("method not found: %s", req.Method), nil))
}

func (h *Handler) sendBindError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadRequest
	code := ErrCodeInvalidRequest
	message := fmt.Sprintf("invalid request body: %v", err)

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		status = http.StatusRequestEntityTooLarge
		code = ErrCodeBodyTooLarge
		message = fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Message: message,
			Code:    code,
			Details: map[string]any{"expected": `{"tool_name": string, "arguments": object, "call_id": string}`},
		},
	})
}

func (h *Handler) sendRPC(w http.ResponseWriter, r *http.Request, status int, resp *jsonrpc.Response) {
	render.Status(r, status)
	render.JSON(w, r, resp)
}
