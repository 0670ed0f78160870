package main

import (
	"context"
	"log/slog"
	"time"
)

type expirer interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// sweeper purges expired codes, refresh tokens, sessions, grants and
// revocation entries from the stores that do not expire on their own.
type sweeper struct {
	interval time.Duration
	logger   *slog.Logger
	stores   map[string]expirer
}

func (s *sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.sweep(ctx, now)
		}
	}
}

func (s *sweeper) sweep(ctx context.Context, now time.Time) {
	for name, store := range s.stores {
		n, err := store.DeleteExpired(ctx, now)
		if err != nil {
			s.logger.ErrorContext(ctx, "sweep failed", "store", name, "error", err)
			continue
		}
		if n > 0 {
			s.logger.DebugContext(ctx, "swept expired records", "store", name, "deleted", n)
		}
	}
}
