// Package sweeper periodically clears password reset tokens that expired
// without being used, along with other in-process state that ages out.
package sweeper

import (
	"context"
	"time"

	"github.com/weiawesome/wes-io-social/internal/config"
	pkglog "github.com/weiawesome/wes-io-social/pkg/log"
)

// ResetTokenStore clears expired reset tokens.
type ResetTokenStore interface {
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// Cleaner drops its own expired entries.
type Cleaner interface {
	Cleanup()
}

// Sweeper runs ClearExpiredResetTokens and every Cleaner on a fixed interval.
type Sweeper struct {
	store    ResetTokenStore
	cleaners []Cleaner
	cfg      config.SweeperConfig
	now      func() time.Time
	quit     chan struct{}
	doneCh   chan struct{}
}

// New creates a new Sweeper.
func New(store ResetTokenStore, cfg config.SweeperConfig, cleaners ...Cleaner) *Sweeper {
	return &Sweeper{
		store:    store,
		cleaners: cleaners,
		cfg:      cfg,
		now:      time.Now,
		quit:     make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the sweeper in a background goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
}

// Stop signals the sweeper to stop and returns immediately.
// Call Done() to wait for it to exit.
func (s *Sweeper) Stop() {
	close(s.quit)
}

// Done returns a channel that is closed when the sweeper has fully stopped.
func (s *Sweeper) Done() <-chan struct{} {
	return s.doneCh
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.doneCh)

	interval := s.cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep clears expired tokens once and returns how many users were touched.
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	l := pkglog.L()

	for _, c := range s.cleaners {
		c.Cleanup()
	}

	n, err := s.store.ClearExpiredResetTokens(ctx, s.now())
	if err != nil {
		l.Error().Err(err).Msg("sweeper: failed to clear expired reset tokens")
		return 0
	}
	if n > 0 {
		l.Info().Int64("count", n).Msg("sweeper: cleared expired reset tokens")
	}
	return n
}
