package auth

import (
	"time"

	"sitecms/internal/domain"
)

// DefaultTimeout and DefaultWarning match the admin panel's auto-logout.
const (
	DefaultTimeout = 60 * time.Minute
	DefaultWarning = 5 * time.Minute
)

// Policy is the inactivity auto-logout rule.
type Policy struct {
	Timeout time.Duration
	Warning time.Duration
}

// Status is what the session timer shows.
type Status struct {
	RemainingSeconds int       `json:"remaining_seconds"`
	Warning          bool      `json:"warning"`
	Paused           bool      `json:"paused"`
	ExpiresAt        time.Time `json:"expires_at"`
}

func (p Policy) timeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultTimeout
	}
	return p.Timeout
}

// Expired reports whether the session has been idle longer than the timeout.
// Paused sessions never expire.
func (p Policy) Expired(s domain.AuthSession, now time.Time) bool {
	return !s.Paused && now.Sub(s.LastActivity) > p.timeout()
}

// Remaining returns the whole seconds left before auto-logout, never negative.
// A paused session keeps its full window.
func (p Policy) Remaining(s domain.AuthSession, now time.Time) int {
	if s.Paused {
		return int(p.timeout() / time.Second)
	}
	left := p.timeout() - now.Sub(s.LastActivity)
	if left < 0 {
		return 0
	}
	return int(left / time.Second)
}

func (p Policy) Status(s domain.AuthSession, now time.Time) Status {
	remaining := p.Remaining(s, now)
	warning := p.Warning
	if warning <= 0 {
		warning = DefaultWarning
	}
	st := Status{
		RemainingSeconds: remaining,
		Paused:           s.Paused,
		Warning:          !s.Paused && remaining <= int(warning/time.Second),
	}
	if !s.Paused {
		st.ExpiresAt = s.LastActivity.Add(p.timeout()).UTC()
	}
	return st
}
