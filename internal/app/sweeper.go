package app

import (
	"context"
	"errors"
	"time"

	"capsule/internal/domain"

	"go.uber.org/zap"
)

// SweepResult counts what one sweep removed.
type SweepResult struct {
	Tokens   int `json:"tokens"`
	Sessions int `json:"sessions"`
}

// Sweeper periodically deletes expired check-in tokens and sessions.
type Sweeper struct {
	tokens   domain.TokenRepository
	sessions domain.SessionRepository
	interval time.Duration
	logger   *zap.Logger
}

// NewSweeper creates a Sweeper that runs every interval.
func NewSweeper(tokens domain.TokenRepository, sessions domain.SessionRepository, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{tokens: tokens, sessions: sessions, interval: interval, logger: logger}
}

// Sweep runs one pass. Both deletions are attempted even if the first fails.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	var errs []error

	n, err := s.tokens.CleanExpiredTokens(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	res.Tokens = n

	n, err = s.sessions.DeleteExpiredSessions(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	res.Sessions = n

	return res, errors.Join(errs...)
}

// Run sweeps immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		res, err := s.Sweep(ctx)
		if err != nil {
			s.logger.Error("sweep failed", zap.Error(err))
		} else if res.Tokens > 0 || res.Sessions > 0 {
			s.logger.Info("sweep removed expired records",
				zap.Int("tokens", res.Tokens),
				zap.Int("sessions", res.Sessions),
			)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
