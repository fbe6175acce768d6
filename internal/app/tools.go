// Package app assembles the search stack and tool registry used by the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"mcp-search-go/internal/config"
	"mcp-search-go/internal/search"
	"mcp-search-go/internal/tools"
	"mcp-search-go/internal/tools/websearch"
)

const redisKeyPrefix = "mcp-search:"

// Tools holds the registry and the resources behind it.
type Tools struct {
	Registry *tools.Registry

	closers []func() error
}

// Close releases the cache and its background sweeper.
func (t *Tools) Close() error {
	var firstErr error
	for i := len(t.closers) - 1; i >= 0; i-- {
		if err := t.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	t.closers = nil
	return firstErr
}

// NewTools builds the DuckDuckGo backend, wraps it in a cache and registers
// fetch_web_content. Redis is used when configured and reachable at startup;
// otherwise results are cached in memory.
func NewTools(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Tools, error) {
	t := &Tools{Registry: tools.NewRegistry()}

	backend := search.NewDuckDuckGo(cfg.Search.Endpoint, cfg.Search.Timeout, cfg.Search.MaxResults, logger)

	cache, err := t.newCache(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	tool, err := websearch.New(search.NewCachedBackend(backend, cache, cfg.Search.CacheTTL, logger), logger)
	if err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("failed to create %s tool: %w", websearch.Name, err)
	}
	t.Registry.Register(tool)

	return t, nil
}

func (t *Tools) newCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (search.Cache, error) {
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Using redis search cache")
		t.closers = append(t.closers, rdb.Close)
		return search.NewRedisCache(rdb, redisKeyPrefix), nil
	}

	cache := search.NewMemoryCache(logger)
	sweeper := search.NewSweeper(cache, cfg.Search.CacheTTL, logger)
	if err := sweeper.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start cache sweeper: %w", err)
	}
	logger.Info().Dur("ttl", cfg.Search.CacheTTL).Msg("Using in-memory search cache")
	t.closers = append(t.closers, cache.Close, sweeper.Stop)
	return cache, nil
}
