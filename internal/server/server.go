package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"mcp-search-go/internal/dispatch"
	"mcp-search-go/internal/telemetry"
	"mcp-search-go/internal/tools"
)

// Config contains the server configuration.
type Config struct {
	Name           string
	AllowedOrigins []string
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Name:           "MCP server",
		AllowedOrigins: []string{"*"},
	}
}

// Deps are the components the server routes to.
type Deps struct {
	Registry   *tools.Registry
	Dispatcher dispatch.Dispatcher
	// Metrics and Gatherer are optional; without them /metrics is not served.
	Metrics  *telemetry.Metrics
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
}

// Endpoint describes a route in the index document.
type Endpoint struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

// IndexResponse is served on GET /.
type IndexResponse struct {
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	Endpoints []Endpoint `json:"endpoints"`
}

// New creates a new HTTP handler with the given configuration.
func New(cfg Config, deps Deps) (http.Handler, error) {
	if deps.Registry == nil {
		return nil, errors.New("server: tool registry is required")
	}
	if deps.Dispatcher == nil {
		return nil, errors.New("server: dispatcher is required")
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = DefaultConfig().AllowedOrigins
	}

	logger := deps.Logger.With().Str("component", "server").Logger()

	for name, tool := range deps.Registry.List() {
		logger.Info().
			Str("tool", name).
			Str("description", tool.Definition().Description).
			Msg("Registered tool")
	}

	toolHandler := dispatch.NewHandler(deps.Dispatcher, deps.Registry, deps.Logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	// Logging and metrics wrap Recoverer so a panicking request is still seen as a 500.
	r.Use(telemetry.RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(telemetry.HTTPMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Type", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	endpoints := []Endpoint{
		{Path: "/health", Methods: []string{"GET"}, Description: "health"},
		{Path: "/tools", Methods: []string{"GET"}, Description: "List the registered tools"},
		{Path: "/tool_call", Methods: []string{"POST"}, Description: "Handle the tool call"},
		{Path: "/rpc", Methods: []string{"POST"}, Description: "JSON-RPC tools/list and tools/call"},
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	r.Get("/tools", toolHandler.ListTools)

	// Bodies are JSON whatever the client declares.
	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Post("/tool_call", toolHandler.ToolCall)
		r.Post("/rpc", toolHandler.RPC)
	})

	if deps.Metrics != nil && deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
		endpoints = append(endpoints, Endpoint{Path: "/metrics", Methods: []string{"GET"}, Description: "Prometheus metrics"})
	}

	index := IndexResponse{Name: cfg.Name, Status: "running", Endpoints: endpoints}
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, index)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, dispatch.ErrorResponse{
			Error: dispatch.ErrorDetail{Message: "route not found: " + r.URL.Path, Code: "NOT_FOUND"},
		})
	})

	return r, nil
}
