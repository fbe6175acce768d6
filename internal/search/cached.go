package search

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// CachedBackend serves repeated queries from a Cache. Cache failures are
// logged and fall through to the wrapped backend. Empty results are not cached.
type CachedBackend struct {
	backend Backend
	cache   Cache
	ttl     time.Duration
	logger  zerolog.Logger
}

// NewCachedBackend wraps backend with cache.
func NewCachedBackend(backend Backend, cache Cache, ttl time.Duration, logger zerolog.Logger) *CachedBackend {
	return &CachedBackend{
		backend: backend,
		cache:   cache,
		ttl:     ttl,
		logger:  logger.With().Str("component", "search_cache").Logger(),
	}
}

// Search implements Backend.
func (b *CachedBackend) Search(ctx context.Context, query string) ([]Snippet, error) {
	key := cacheKey(query)

	snippets, hit, err := b.cache.Get(ctx, key)
	if err != nil {
		b.logger.Warn().Err(err).Str("query", query).Msg("Cache lookup failed")
	} else if hit {
		b.logger.Debug().Str("query", query).Msg("Cache hit")
		return snippets, nil
	}

	snippets, err = b.backend.Search(ctx, query)
	if err != nil || len(snippets) == 0 {
		return snippets, err
	}

	if err := b.cache.Set(ctx, key, snippets, b.ttl); err != nil {
		b.logger.Warn().Err(err).Str("query", query).Msg("Cache store failed")
	}

	return snippets, nil
}

func cacheKey(query string) string {
	return "search:" + strings.ToLower(strings.Join(strings.Fields(query), " "))
}
