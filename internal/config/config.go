// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ErrMissingCredential is returned when the model API key is not configured.
var ErrMissingCredential = errors.New("CLAUDE_API_KEY is not set")

type Config struct {
	App     AppConfig
	Model   ModelConfig
	Gateway GatewayConfig
	Agent   AgentConfig
	Search  SearchConfig
	Redis   RedisConfig
}

type AppConfig struct {
	Name            string        `envconfig:"APP_NAME" default:"mcp-search-go"`
	Env             string        `envconfig:"APP_ENV" default:"development"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"console"` // console or json
	MetricsInterval time.Duration `envconfig:"METRICS_INTERVAL" default:"15s"`
}

type ModelConfig struct {
	APIKey            string        `envconfig:"CLAUDE_API_KEY"`
	Name              string        `envconfig:"CLAUDE_MODEL" default:"claude-3-opus-20240229"`
	URL               string        `envconfig:"CLAUDE_API_URL" default:"https://api.anthropic.com/v1/messages"`
	MaxTokens         int           `envconfig:"CLAUDE_MAX_TOKENS" default:"4096"`
	Timeout           time.Duration `envconfig:"MODEL_TIMEOUT" default:"60s"`
	MaxAttempts       int           `envconfig:"MODEL_MAX_ATTEMPTS" default:"3"`
	MinBackoff        time.Duration `envconfig:"MODEL_MIN_BACKOFF" default:"1s"`
	MaxBackoff        time.Duration `envconfig:"MODEL_MAX_BACKOFF" default:"10s"`
	RequestsPerMinute int           `envconfig:"MODEL_REQUESTS_PER_MINUTE" default:"50"`
}

type GatewayConfig struct {
	URL     string        `envconfig:"MCP_SERVER_URL" default:"http://localhost:5001"`
	Port    int           `envconfig:"PORT" default:"5001"`
	Timeout time.Duration `envconfig:"DISPATCH_TIMEOUT" default:"15s"`
}

// Addr returns the listen address of the gateway server.
func (c GatewayConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

type AgentConfig struct {
	MaxToolRounds int           `envconfig:"MAX_TOOL_ROUNDS" default:"3"`
	QueryTimeout  time.Duration `envconfig:"QUERY_TIMEOUT" default:"2m"`
}

type SearchConfig struct {
	Endpoint   string        `envconfig:"SEARCH_ENDPOINT" default:"https://api.duckduckgo.com/"`
	Timeout    time.Duration `envconfig:"SEARCH_TIMEOUT" default:"5s"`
	MaxResults int           `envconfig:"SEARCH_MAX_RESULTS" default:"5"`
	CacheTTL   time.Duration `envconfig:"SEARCH_CACHE_TTL" default:"10m"`
}

// RedisConfig configures the optional search cache. An empty Addr disables redis.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Enabled reports whether a redis server is configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects values the components cannot work with.
func (c *Config) Validate() error {
	if c.Agent.MaxToolRounds < 1 {
		return fmt.Errorf("MAX_TOOL_ROUNDS must be at least 1, got %d", c.Agent.MaxToolRounds)
	}
	if c.Model.MaxAttempts < 1 {
		return fmt.Errorf("MODEL_MAX_ATTEMPTS must be at least 1, got %d", c.Model.MaxAttempts)
	}
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Gateway.Port)
	}
	if c.Search.MaxResults < 1 {
		return fmt.Errorf("SEARCH_MAX_RESULTS must be at least 1, got %d", c.Search.MaxResults)
	}
	if c.Search.CacheTTL <= 0 {
		return fmt.Errorf("SEARCH_CACHE_TTL must be positive, got %v", c.Search.CacheTTL)
	}
	return nil
}

// RequireModelCredential fails when no model API key is configured.
func (c *Config) RequireModelCredential() error {
	if c.Model.APIKey == "" {
		return ErrMissingCredential
	}
	return nil
}
