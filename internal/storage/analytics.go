package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"sitecms/internal/domain"
)

// AnalyticsStore implements domain.AnalyticsStore.
type AnalyticsStore struct {
	db *DB
}

func NewAnalyticsStore(db *DB) *AnalyticsStore {
	return &AnalyticsStore{db: db}
}

func (s *AnalyticsStore) CreateSession(ctx context.Context, v *domain.VisitorSession) error {
	if v.StartedAt.IsZero() {
		v.StartedAt = now()
	}
	v.StartedAt = v.StartedAt.UTC()
	v.IsBounce = true
	_, err := s.db.run().exec(ctx,
		`INSERT INTO user_sessions (session_id, user_agent, ip_address, page_url, referrer, duration_seconds, is_bounce, visit_day, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.SessionID, v.UserAgent, v.IPAddress, v.PageURL, v.Referrer, v.DurationSeconds, v.IsBounce, dayOf(v.StartedAt), v.StartedAt,
	)
	return translate(err, "create visitor session")
}

// UpdateSessionDuration records the final duration of a visit. It reports
// false when the session does not exist.
func (s *AnalyticsStore) UpdateSessionDuration(ctx context.Context, sessionID string, seconds int, endedAt time.Time) (bool, error) {
	res, err := s.db.run().exec(ctx,
		`UPDATE user_sessions SET duration_seconds = ?, ended_at = ?, is_bounce = ? WHERE session_id = ?`,
		seconds, endedAt.UTC(), false, sessionID,
	)
	if err != nil {
		return false, fmt.Errorf("update session duration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *AnalyticsStore) InsertEvent(ctx context.Context, e *domain.PageEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now()
	}
	e.CreatedAt = e.CreatedAt.UTC()
	_, err := s.db.run().exec(ctx,
		`INSERT INTO page_events (id, session_id, event_type, page_url, element_id, element_text, metadata, event_day, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, string(e.EventType), e.PageURL, e.ElementID, e.ElementText, rawOrEmpty(e.Metadata), dayOf(e.CreatedAt), e.CreatedAt,
	)
	return translate(err, "insert event")
}

const metricsColumns = `metric_date, total_visits, unique_visitors, total_page_views, total_conversions, total_edits, avg_session_duration, bounce_rate`

func scanMetrics(row scanner, m *domain.DailyMetrics) error {
	return row.Scan(&m.Date, &m.TotalVisits, &m.UniqueVisitors, &m.TotalPageViews, &m.TotalConversions, &m.TotalEdits, &m.AvgSessionDuration, &m.BounceRate)
}

func (s *AnalyticsStore) GetDailyMetrics(ctx context.Context, date string) (*domain.DailyMetrics, error) {
	m := &domain.DailyMetrics{}
	if err := scanMetrics(s.db.run().queryRow(ctx, `SELECT `+metricsColumns+` FROM daily_metrics WHERE metric_date = ?`, date), m); err != nil {
		return nil, translate(err, "get daily metrics "+date)
	}
	return m, nil
}

// ListDailyMetricsSince returns the rollups from date onward, oldest first.
func (s *AnalyticsStore) ListDailyMetricsSince(ctx context.Context, date string) ([]domain.DailyMetrics, error) {
	rows, err := s.db.run().query(ctx, `SELECT `+metricsColumns+` FROM daily_metrics WHERE metric_date >= ? ORDER BY metric_date ASC`, date)
	if err != nil {
		return nil, fmt.Errorf("list daily metrics: %w", err)
	}
	defer rows.Close()

	out := []domain.DailyMetrics{}
	for rows.Next() {
		var m domain.DailyMetrics
		if err := scanMetrics(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ComputeDailyMetrics aggregates the sessions and events of a UTC day.
// Unique visitors count distinct IP addresses, falling back to the session id
// when the IP is unknown.
func (s *AnalyticsStore) ComputeDailyMetrics(ctx context.Context, day time.Time) (*domain.DailyMetrics, error) {
	date := dayOf(day)
	m := &domain.DailyMetrics{Date: date}
	r := s.db.run()

	var avg sql.NullFloat64
	var bounces int
	err := r.queryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(DISTINCT COALESCE(NULLIF(ip_address, ''), session_id)),
		        AVG(duration_seconds),
		        COUNT(CASE WHEN is_bounce THEN 1 END)
		 FROM user_sessions WHERE visit_day = ?`, date,
	).Scan(&m.TotalVisits, &m.UniqueVisitors, &avg, &bounces)
	if err != nil {
		return nil, fmt.Errorf("aggregate sessions: %w", err)
	}

	err = r.queryRow(ctx,
		`SELECT COUNT(CASE WHEN event_type = 'page_view' THEN 1 END),
		        COUNT(CASE WHEN event_type = 'conversion' THEN 1 END),
		        COUNT(CASE WHEN event_type = 'edit_save' THEN 1 END)
		 FROM page_events WHERE event_day = ?`, date,
	).Scan(&m.TotalPageViews, &m.TotalConversions, &m.TotalEdits)
	if err != nil {
		return nil, fmt.Errorf("aggregate events: %w", err)
	}

	if avg.Valid {
		m.AvgSessionDuration = round2(avg.Float64)
	}
	if m.TotalVisits > 0 {
		m.BounceRate = round2(float64(bounces) * 100 / float64(m.TotalVisits))
	}
	return m, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *AnalyticsStore) UpsertDailyMetrics(ctx context.Context, m *domain.DailyMetrics) error {
	stmt := s.db.dialect.Upsert("daily_metrics",
		[]string{"metric_date", "total_visits", "unique_visitors", "total_page_views", "total_conversions", "total_edits", "avg_session_duration", "bounce_rate"},
		[]string{"metric_date"},
		[]string{"total_visits", "unique_visitors", "total_page_views", "total_conversions", "total_edits", "avg_session_duration", "bounce_rate"},
	)
	_, err := s.db.run().exec(ctx, stmt,
		m.Date, m.TotalVisits, m.UniqueVisitors, m.TotalPageViews, m.TotalConversions, m.TotalEdits, m.AvgSessionDuration, m.BounceRate,
	)
	return translate(err, "upsert daily metrics "+m.Date)
}
