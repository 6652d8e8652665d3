package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically removes expired sessions from the store.
type Sweeper struct {
	store    Store
	interval time.Duration
	log      *zap.Logger

	// OnSwept, when set, is called with the number of sessions each sweep
	// removed. Set before Run.
	OnSwept func(count int)
}

// NewSweeper creates a sweeper. The interval comes from
// session.sweep_interval in the config.
func NewSweeper(store Store, interval time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		log:      log.Named("session.sweeper"),
	}
}

// Run sweeps until the context is cancelled. It is meant to be started in
// its own goroutine from main.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	removed, err := s.store.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		s.log.Warn("sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.log.Info("swept expired sessions", zap.Int("removed", removed))
		if s.OnSwept != nil {
			s.OnSwept(removed)
		}
	}
}
