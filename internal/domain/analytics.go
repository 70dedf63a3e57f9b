package domain

import (
	"context"
	"encoding/json"
	"time"
)

type EventType string

const (
	EventPageView   EventType = "page_view"
	EventClick      EventType = "click"
	EventConversion EventType = "conversion"
	EventEditSave   EventType = "edit_save"
)

// Valid reports whether t is one of the tracked event types.
func (t EventType) Valid() bool {
	switch t {
	case EventPageView, EventClick, EventConversion, EventEditSave:
		return true
	}
	return false
}

// VisitorSession is one browser visit, keyed by a client-held session id.
type VisitorSession struct {
	SessionID       string     `json:"session_id"`
	UserAgent       string     `json:"user_agent,omitempty"`
	IPAddress       string     `json:"ip_address,omitempty"`
	PageURL         string     `json:"page_url"`
	Referrer        string     `json:"referrer,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
	IsBounce        bool       `json:"is_bounce"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
}

// PageEvent is a single tracked interaction.
type PageEvent struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"session_id"`
	EventType   EventType       `json:"event_type"`
	PageURL     string          `json:"page_url"`
	ElementID   string          `json:"element_id,omitempty"`
	ElementText string          `json:"element_text,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DailyMetrics is the per-day rollup shown on the admin dashboard.
type DailyMetrics struct {
	Date               string  `json:"date"` // YYYY-MM-DD, UTC
	TotalVisits        int     `json:"total_visits"`
	UniqueVisitors     int     `json:"unique_visitors"`
	TotalPageViews     int     `json:"total_page_views"`
	TotalConversions   int     `json:"total_conversions"`
	TotalEdits         int     `json:"total_edits"`
	AvgSessionDuration float64 `json:"avg_session_duration"`
	BounceRate         float64 `json:"bounce_rate"`
}

type AnalyticsStore interface {
	CreateSession(ctx context.Context, s *VisitorSession) error
	UpdateSessionDuration(ctx context.Context, sessionID string, seconds int, endedAt time.Time) (bool, error)
	InsertEvent(ctx context.Context, e *PageEvent) error
	GetDailyMetrics(ctx context.Context, date string) (*DailyMetrics, error)
	ListDailyMetricsSince(ctx context.Context, date string) ([]DailyMetrics, error)
	ComputeDailyMetrics(ctx context.Context, day time.Time) (*DailyMetrics, error)
	UpsertDailyMetrics(ctx context.Context, m *DailyMetrics) error
}
