package search

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper periodically purges expired entries from a MemoryCache.
type Sweeper struct {
	cache    *MemoryCache
	interval time.Duration
	logger   zerolog.Logger

	stopCh    chan struct{}
	stoppedCh chan struct{}

	mutex   sync.RWMutex
	running bool
}

// NewSweeper creates a new sweeper for cache
func NewSweeper(cache *MemoryCache, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		cache:     cache,
		interval:  interval,
		logger:    logger.With().Str("component", "cache_sweeper").Logger(),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start begins the sweeper background goroutine
func (s *Sweeper) Start(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		s.logger.Warn().Msg("Cache sweeper is already running")
		return nil
	}

	s.logger.Info().
		Dur("interval", s.interval).
		Msg("Starting cache sweeper")

	s.running = true
	go s.run(ctx)

	return nil
}

// Stop gracefully stops the sweeper. It must not be restarted afterwards.
func (s *Sweeper) Stop() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.running {
		return nil
	}

	close(s.stopCh)
	<-s.stoppedCh

	s.running = false
	s.logger.Info().Msg("Cache sweeper stopped")

	return nil
}

// IsRunning returns whether the sweeper is currently running
func (s *Sweeper) IsRunning() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.running
}

// RunOnce performs a single purge
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	removed, err := s.cache.PurgeExpired(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Cache sweep failed")
		return 0, err
	}

	if removed > 0 {
		s.logger.Debug().
			Int("removed", removed).
			Msg("Cache sweep completed")
	}

	return removed, nil
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.stoppedCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Cache sweeper stopping due to context cancellation")
			return

		case <-s.stopCh:
			return

		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Sweep operation failed")
			}
		}
	}
}
