package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"sitecms/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Scheduler: periodic metrics rollup and idle-session sweep
// ─────────────────────────────────────────────────────────────

type Scheduler struct {
	analytics *AnalyticsService
	auth      *AuthService
	logger    *zap.Logger
	now       func() time.Time
	cron      *cron.Cron
}

func NewScheduler(analytics *AnalyticsService, auth *AuthService, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{analytics: analytics, auth: auth, logger: logger, now: time.Now}
}

// Start registers the jobs and starts the cron loop. Expressions use the
// standard five-field syntax or descriptors such as "@every 5m".
func (s *Scheduler) Start(ctx context.Context, rollupSpec, sweepSpec string) error {
	s.Stop()
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(rollupSpec, func() { s.RollupRecent(ctx) }); err != nil {
		return fmt.Errorf("rollup schedule %q: %w", rollupSpec, err)
	}
	if _, err := c.AddFunc(sweepSpec, func() {
		if _, err := s.auth.SweepIdle(ctx); err != nil {
			s.logger.Error("session sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("sweep schedule %q: %w", sweepSpec, err)
	}
	c.Start()
	s.cron = c
	s.logger.Info("scheduler started", zap.String("rollup", rollupSpec), zap.String("sweep", sweepSpec))
	return nil
}

// RollupRecent recomputes yesterday, which is now complete, and today so far.
func (s *Scheduler) RollupRecent(ctx context.Context) {
	now := s.now().UTC()
	for _, day := range []time.Time{now.AddDate(0, 0, -1), now} {
		if _, err := s.analytics.Rollup(ctx, day); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				s.logger.Debug("rollup skipped", zap.Error(err))
				continue
			}
			s.logger.Error("scheduled rollup failed", zap.Time("day", day), zap.Error(err))
		}
	}
}

// Stop halts the cron loop and waits for running jobs to return.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
}
