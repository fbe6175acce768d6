package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcp-search-go/internal/dispatch"
	"mcp-search-go/internal/telemetry"
	"mcp-search-go/internal/tools"
)

type echoTool struct {
	*tools.DefaultTool
}

func (t *echoTool) Call(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	return args, nil
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	return newLoggedTestServer(t, zerolog.Nop())
}

func newLoggedTestServer(t *testing.T, logger zerolog.Logger) *chi.Mux {
	t.Helper()

	registry := tools.NewRegistry()
	registry.Register(&echoTool{DefaultTool: tools.NewDefaultTool(tools.Definition{
		Name:        "fetch_web_content",
		Description: "echo",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string", "minLength": 1},
			},
			"required": []any{"query"},
		},
	})})

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	gateway := dispatch.NewGateway(registry, zerolog.Nop())

	handler, err := New(DefaultConfig(), Deps{
		Registry:   registry,
		Dispatcher: telemetry.NewInstrumentedDispatcher(gateway, metrics),
		Metrics:    metrics,
		Gatherer:   reg,
		Logger:     logger,
	})
	require.NoError(t, err)

	mux, ok := handler.(*chi.Mux)
	require.True(t, ok)
	return mux
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	w := serve(newTestServer(t), "GET", "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestServer_Index(t *testing.T) {
	w := serve(newTestServer(t), "GET", "/", "")
	require.Equal(t, http.StatusOK, w.Code)

	var index IndexResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &index))
	assert.Equal(t, "running", index.Status)

	paths := make([]string, 0, len(index.Endpoints))
	for _, e := range index.Endpoints {
		paths = append(paths, e.Path)
	}
	assert.Contains(t, paths, "/tool_call")
	assert.Contains(t, paths, "/metrics")
}

func TestServer_ToolCallWithoutContentType(t *testing.T) {
	h := newTestServer(t)

	w := serve(h, "POST", "/tool_call", `{"call_id":"c1","tool_name":"fetch_web_content","arguments":{"query":"go"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result tools.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "c1", result.CallID)
	assert.Equal(t, tools.StatusOK, result.Status)
	assert.JSONEq(t, `{"query":"go"}`, string(result.Payload))
}

func TestServer_ToolCallErrorsAreEnvelopes(t *testing.T) {
	h := newTestServer(t)

	w := serve(h, "POST", "/tool_call", `{"call_id":"c2","tool_name":"weather","arguments":{}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result tools.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, tools.StatusError, result.Status)
	assert.Equal(t, tools.KindUnknownTool, result.ErrorKind)

	w = serve(h, "POST", "/tool_call", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_MetricsRecordsDispatch(t *testing.T) {
	h := newTestServer(t)

	serve(h, "POST", "/tool_call", `{"call_id":"c1","tool_name":"fetch_web_content","arguments":{"query":"go"}}`)
	w := serve(h, "GET", "/metrics", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tool_dispatches_total")
	assert.Contains(t, w.Body.String(), `endpoint="/tool_call"`)
}

func TestServer_NotFound(t *testing.T) {
	w := serve(newTestServer(t), "GET", "/sse", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestServer_CORS(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest("OPTIONS", "/tool_call", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_PanicIsLoggedAndCounted(t *testing.T) {
	var logs bytes.Buffer
	mux := newLoggedTestServer(t, zerolog.New(&logs))
	mux.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	w := serve(mux, "GET", "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	assert.Contains(t, logs.String(), `"path":"/boom"`)
	assert.Contains(t, logs.String(), `"status":500`)

	metrics := serve(mux, "GET", "/metrics", "")
	assert.Contains(t, metrics.Body.String(), `endpoint="/boom",method="GET",status_code="500"`)
}
