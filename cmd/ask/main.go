package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"mcp-search-go/internal/agent"
	"mcp-search-go/internal/app"
	"mcp-search-go/internal/config"
	"mcp-search-go/internal/console"
	"mcp-search-go/internal/dispatch"
	"mcp-search-go/internal/llm"
	"mcp-search-go/internal/logging"
	"mcp-search-go/internal/telemetry"
	"mcp-search-go/internal/tools"
	"mcp-search-go/internal/tools/websearch"
)

const preflightTimeout = 3 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand(cfg).Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "answer a question, searching the web when the model needs to",
		ArgsUsage: "[question]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "gateway",
				Usage: "tool dispatch gateway URL",
				Value: cfg.Gateway.URL,
			},
			&cli.BoolFlag{
				Name:  "local",
				Usage: "run the tools in-process instead of calling the gateway",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "time limit for the whole query",
				Value: cfg.Agent.QueryTimeout,
			},
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "print the answer without markdown rendering or colors",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log debug output and print a usage summary",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "write model and tool metrics of this run to `FILE` in Prometheus text format",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return ask(ctx, cmd, cfg)
		},
	}
}

func ask(ctx context.Context, cmd *cli.Command, cfg *config.Config) error {
	ui, err := console.NewRenderer(os.Stdout, os.Stderr, cmd.Bool("plain"))
	if err != nil {
		return err
	}

	level := cfg.App.LogLevel
	if cmd.Bool("verbose") {
		level = zerolog.LevelDebugValue
	}
	logger := logging.New(level, cfg.App.LogFormat, os.Stderr).
		With().
		Str("query_id", uuid.NewString()).
		Logger()

	if err := cfg.RequireModelCredential(); err != nil {
		ui.Error(err)
		return cli.Exit("", 1)
	}

	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		query, err = console.ReadQuery(ctx, os.Stdin, os.Stderr)
		if err != nil {
			ui.Error(err)
			return cli.Exit("", 1)
		}
	}

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)

	dispatcher, definitions, cleanup, err := newDispatcher(ctx, cmd, cfg, ui, logger)
	if err != nil {
		ui.Error(err)
		return cli.Exit("", 1)
	}
	defer cleanup()

	orchestrator := agent.New(
		newModel(cfg, metrics, logger),
		telemetry.NewInstrumentedDispatcher(dispatcher, metrics),
		definitions,
		agent.Config{
			MaxToolRounds: cfg.Agent.MaxToolRounds,
			QueryTimeout:  cmd.Duration("timeout"),
			SystemPrompt:  agent.DefaultSystemPrompt,
		},
		logger,
	)

	outcome, err := orchestrator.Run(ctx, query)

	if path := cmd.String("metrics-file"); path != "" {
		if werr := prometheus.WriteToTextfile(path, reg); werr != nil {
			ui.Warn("failed to write metrics to %s: %v", path, werr)
		}
	}

	if err != nil {
		ui.Error(err)
		return cli.Exit("", 1)
	}

	if err := ui.Answer(outcome.Answer); err != nil {
		return err
	}

	if cmd.Bool("verbose") {
		ui.Summary(console.Summary{
			ToolRounds:   outcome.ToolRounds,
			InputTokens:  outcome.Usage.InputTokens,
			OutputTokens: outcome.Usage.OutputTokens,
			ResultBytes:  resultBytes(outcome.Transcript),
			Duration:     outcome.Duration,
		})
	}

	return nil
}

// newDispatcher returns the gateway client, or an in-process gateway with --local.
func newDispatcher(ctx context.Context, cmd *cli.Command, cfg *config.Config, ui *console.Renderer, logger zerolog.Logger) (dispatch.Dispatcher, []tools.Definition, func(), error) {
	if cmd.Bool("local") {
		toolset, err := app.NewTools(ctx, cfg, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		cleanup := func() { _ = toolset.Close() }
		return dispatch.NewGateway(toolset.Registry, logger), toolset.Registry.Definitions(), cleanup, nil
	}

	def, err := websearch.Definition()
	if err != nil {
		return nil, nil, nil, err
	}

	client := dispatch.NewClient(cmd.String("gateway"), cfg.Gateway.Timeout, logger)

	pingCtx, cancel := context.WithTimeout(ctx, preflightTimeout)
	defer cancel()
	if err := client.Health(pingCtx); err != nil {
		ui.Warn("gateway at %s is not reachable, tool calls will fail: %v", client.BaseURL(), err)
	}

	return client, []tools.Definition{def}, func() {}, nil
}

func newModel(cfg *config.Config, metrics *telemetry.Metrics, logger zerolog.Logger) llm.Model {
	anthropic := llm.NewAnthropic(llm.AnthropicConfig{
		APIKey:    cfg.Model.APIKey,
		Model:     cfg.Model.Name,
		URL:       cfg.Model.URL,
		MaxTokens: cfg.Model.MaxTokens,
		Timeout:   cfg.Model.Timeout,
	}, logger)

	return withPolicies(telemetry.NewInstrumentedModel(anthropic, anthropic.ModelName(), metrics), cfg, logger)
}

// withPolicies wraps model in the configured retry and rate limit. The
// limiter sits inside the retry loop so every attempt waits for a token.
func withPolicies(model llm.Model, cfg *config.Config, logger zerolog.Logger) llm.Model {
	policy := llm.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.Model.MaxAttempts
	policy.MinBackoff = cfg.Model.MinBackoff
	policy.MaxBackoff = cfg.Model.MaxBackoff

	return llm.WithRetry(llm.WithRateLimit(model, cfg.Model.RequestsPerMinute), policy, logger)
}

func resultBytes(transcript []llm.Message) int {
	n := 0
	for _, m := range transcript {
		if m.Result != nil {
			n += len(m.Result.Payload)
		}
	}
	return n
}
