package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"mcp-search-go/internal/config"
	"mcp-search-go/internal/llm"
	"mcp-search-go/internal/tools"
)

func TestResultBytes(t *testing.T) {
	transcript := []llm.Message{
		llm.UserMessage("Who is the CEO of OpenAI?"),
		llm.AssistantMessage("", llm.ToolCallDirective{CallID: "t1", ToolName: "fetch_web_content"}),
		llm.ToolMessage(tools.OK("t1", json.RawMessage(`{"results":[]}`))),
		llm.AssistantMessage("Sam Altman.", nil),
	}

	if got := resultBytes(transcript); got != len(`{"results":[]}`) {
		t.Errorf("Expected %d result bytes, got %d", len(`{"results":[]}`), got)
	}
}

func TestNewCommandDefaults(t *testing.T) {
	cfg := &config.Config{
		Gateway: config.GatewayConfig{URL: "http://gateway:5001"},
		Agent:   config.AgentConfig{QueryTimeout: 30 * time.Second},
	}

	var (
		gateway string
		timeout time.Duration
		local   bool
		args    []string
	)
	cmd := newCommand(cfg)
	cmd.Action = func(ctx context.Context, cmd *cli.Command) error {
		gateway = cmd.String("gateway")
		timeout = cmd.Duration("timeout")
		local = cmd.Bool("local")
		args = cmd.Args().Slice()
		return nil
	}

	if err := cmd.Run(context.Background(), []string{"ask", "weather", "in", "Paris"}); err != nil {
		t.Fatalf("Failed to run command: %v", err)
	}

	if gateway != "http://gateway:5001" {
		t.Errorf("Expected gateway default from config, got %s", gateway)
	}
	if timeout != 30*time.Second {
		t.Errorf("Expected timeout default from config, got %v", timeout)
	}
	if local {
		t.Error("Expected --local to be off by default")
	}
	if len(args) != 3 {
		t.Errorf("Expected 3 positional args, got %v", args)
	}
}

func TestNewCommandFlags(t *testing.T) {
	var (
		gateway string
		local   bool
	)
	cmd := newCommand(&config.Config{})
	cmd.Action = func(ctx context.Context, cmd *cli.Command) error {
		gateway = cmd.String("gateway")
		local = cmd.Bool("local")
		return nil
	}

	err := cmd.Run(context.Background(), []string{"ask", "--gateway", "http://other:9000", "--local", "question"})
	if err != nil {
		t.Fatalf("Failed to run command: %v", err)
	}

	if gateway != "http://other:9000" {
		t.Errorf("Expected overridden gateway, got %s", gateway)
	}
	if !local {
		t.Error("Expected --local to be set")
	}
}

func TestWithPoliciesLimitsEveryAttempt(t *testing.T) {
	cfg := &config.Config{Model: config.ModelConfig{
		MaxAttempts:       3,
		MinBackoff:        time.Millisecond,
		MaxBackoff:        2 * time.Millisecond,
		RequestsPerMinute: 6,
	}}

	calls := 0
	base := llm.ModelFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		calls++
		if calls == 1 {
			return nil, &llm.APIError{StatusCode: 429, Message: "rate limited"}
		}
		return &llm.Response{Message: llm.AssistantMessage("done", nil)}, nil
	})

	// The single token goes to the first attempt; the retry has to wait ten
	// seconds for the next one, which the deadline does not allow.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := withPolicies(base, cfg, zerolog.Nop()).Complete(ctx, llm.Request{})
	if err == nil {
		t.Fatal("Expected the retry to be held back by the rate limiter")
	}
	if calls != 1 {
		t.Errorf("Expected 1 model call, got %d", calls)
	}
}
