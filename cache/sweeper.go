package cache

import (
	"context"
	"time"
)

// DefaultSweepInterval is the interval used when Sweeper.Interval is zero.
const DefaultSweepInterval = time.Minute

// Sweeper periodically removes expired entries from a Store.
type Sweeper struct {
	Store    Store
	Interval time.Duration

	// OnSweep is called after every pass with the number of removed entries.
	OnSweep func(removed int)
}

// Run sweeps on every tick until ctx is cancelled. It returns ctx.Err().
func (s *Sweeper) Run(ctx context.Context) error {
	if s.Store == nil {
		return ErrNilCache
	}
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n := s.Store.SweepExpired(ctx)
			if s.OnSweep != nil {
				s.OnSweep(n)
			}
		}
	}
}
