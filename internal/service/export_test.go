package service

import "time"

func (s *AuthService) SetClock(now func() time.Time)      { s.now = now }
func (s *AnalyticsService) SetClock(now func() time.Time) { s.now = now }
func (s *PageService) SetClock(now func() time.Time)      { s.now = now }
func (s *Scheduler) SetClock(now func() time.Time)        { s.now = now }

// RollupGuard exposes the rollup guard to the external test package.
type RollupGuard = rollupGuard

// HoldRollup claims date as if a rollup were running and returns the release.
func (s *AnalyticsService) HoldRollup(date string) func() {
	if !s.guard.TryLock(date) {
		panic("rollup already held: " + date)
	}
	return func() { s.guard.Unlock(date) }
}
