package cooldown

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultSweepInterval is how often expired entries are collected.
const DefaultSweepInterval = 30 * time.Second

// Sweeper periodically frees expired entries from a Store. It only reclaims
// memory; a Tracker handles expired entries on its own when they are reused.
type Sweeper struct {
	store    Store
	clock    Clock
	interval time.Duration
	log      zerolog.Logger
}

// NewSweeper returns a Sweeper. A non-positive interval falls back to
// DefaultSweepInterval.
func NewSweeper(store Store, clock Clock, interval time.Duration, log zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		store:    store,
		clock:    clock,
		interval: interval,
		log:      log.With().Str("component", "cooldown-sweeper").Logger(),
	}
}

// Interval returns the configured tick period.
func (s *Sweeper) Interval() time.Duration { return s.interval }

// Run sweeps on every tick until ctx is done. It always returns nil so it
// fits a job runner; sweep failures are logged and retried next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.log.Error().Err(err).Msg("sweep failed")
			}
		}
	}
}

// SweepOnce runs a single pass and returns the number of evicted entries.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	n, err := s.store.Sweep(ctx, s.clock.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Debug().Int("evicted", n).Msg("expired cooldowns cleared")
	}
	return n, nil
}
