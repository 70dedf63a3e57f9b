package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"sitecms/internal/analytics"
	"sitecms/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Analytics Service: visitor sessions, events and daily rollups
// ─────────────────────────────────────────────────────────────

// AnalyticsService records visits. Tracking never fails a page: store errors
// are logged and dropped. Mirror sinks receive a copy of accepted records.
type AnalyticsService struct {
	store   domain.AnalyticsStore
	sinks   []analytics.Sink
	logger  *zap.Logger
	emitter EventEmitter
	guard   rollupGuard
	now     func() time.Time
}

func NewAnalyticsService(store domain.AnalyticsStore, logger *zap.Logger, emitter EventEmitter, sinks ...analytics.Sink) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{store: store, sinks: sinks, logger: logger, emitter: emitter, now: time.Now}
}

// CreateSession starts a visit. An empty session id is generated.
func (s *AnalyticsService) CreateSession(ctx context.Context, in domain.VisitorSession) (*domain.VisitorSession, error) {
	in.SessionID = strings.TrimSpace(in.SessionID)
	if in.SessionID == "" {
		in.SessionID = analytics.NewSessionID(s.now())
	}
	in.StartedAt = s.now().UTC()
	if err := s.store.CreateSession(ctx, &in); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// The client re-announced a session it already started.
			return &in, nil
		}
		s.logger.Warn("create visitor session failed", zap.String("session_id", in.SessionID), zap.Error(err))
		return &in, nil
	}
	for _, sink := range s.sinks {
		if err := sink.RecordSession(ctx, in); err != nil {
			s.logger.Warn("mirror session failed", zap.String("session_id", in.SessionID), zap.Error(err))
		}
	}
	return &in, nil
}

// TrackEvent records one interaction. Only malformed input is reported.
func (s *AnalyticsService) TrackEvent(ctx context.Context, e domain.PageEvent) error {
	if !e.EventType.Valid() {
		return domain.Invalid("event_type", "unknown event type %q", e.EventType)
	}
	if strings.TrimSpace(e.SessionID) == "" {
		return domain.Invalid("session_id", "is required")
	}
	if len(e.Metadata) > 0 && !json.Valid(e.Metadata) {
		return domain.Invalid("metadata", "must be valid JSON")
	}
	e.ID = ""
	e.CreatedAt = s.now().UTC()
	if err := s.store.InsertEvent(ctx, &e); err != nil {
		s.logger.Warn("track event failed",
			zap.String("session_id", e.SessionID),
			zap.String("event_type", string(e.EventType)),
			zap.Error(err),
		)
		return nil
	}
	for _, sink := range s.sinks {
		if err := sink.RecordEvent(ctx, e); err != nil {
			s.logger.Warn("mirror event failed", zap.String("event_id", e.ID), zap.Error(err))
		}
	}
	return nil
}

func metadata(v map[string]any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

func (s *AnalyticsService) TrackPageView(ctx context.Context, sessionID, pageURL string) error {
	return s.TrackEvent(ctx, domain.PageEvent{SessionID: sessionID, EventType: domain.EventPageView, PageURL: pageURL})
}

func (s *AnalyticsService) TrackClick(ctx context.Context, sessionID, pageURL, elementID, elementText, elementType string) error {
	return s.TrackEvent(ctx, domain.PageEvent{
		SessionID:   sessionID,
		EventType:   domain.EventClick,
		PageURL:     pageURL,
		ElementID:   elementID,
		ElementText: elementText,
		Metadata:    metadata(map[string]any{"element_type": elementType}),
	})
}

func (s *AnalyticsService) TrackConversion(ctx context.Context, sessionID, pageURL, conversionType string, value float64) error {
	return s.TrackEvent(ctx, domain.PageEvent{
		SessionID:   sessionID,
		EventType:   domain.EventConversion,
		PageURL:     pageURL,
		ElementText: conversionType,
		Metadata:    metadata(map[string]any{"value": value, "conversion_type": conversionType}),
	})
}

// TrackEdit records a CMS save. extra is merged into the metadata.
func (s *AnalyticsService) TrackEdit(ctx context.Context, sessionID, pageURL, editType string, extra map[string]any) error {
	meta := map[string]any{"edit_type": editType}
	for k, v := range extra {
		meta[k] = v
	}
	return s.TrackEvent(ctx, domain.PageEvent{
		SessionID:   sessionID,
		EventType:   domain.EventEditSave,
		PageURL:     pageURL,
		ElementText: editType,
		Metadata:    metadata(meta),
	})
}

// UpdateSessionDuration closes a visit. It reports false for unknown sessions
// and on store errors.
func (s *AnalyticsService) UpdateSessionDuration(ctx context.Context, sessionID string, seconds int) bool {
	if sessionID == "" || seconds < 0 {
		return false
	}
	ended := s.now().UTC()
	ok, err := s.store.UpdateSessionDuration(ctx, sessionID, seconds, ended)
	if err != nil {
		s.logger.Warn("update session duration failed", zap.String("session_id", sessionID), zap.Error(err))
		return false
	}
	if ok {
		for _, sink := range s.sinks {
			if err := sink.RecordSessionEnd(ctx, sessionID, seconds, ended); err != nil {
				s.logger.Warn("mirror session end failed", zap.String("session_id", sessionID), zap.Error(err))
			}
		}
	}
	return ok
}

func day(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// TodayMetrics returns today's rollup, zero-valued when none was computed.
func (s *AnalyticsService) TodayMetrics(ctx context.Context) (*domain.DailyMetrics, error) {
	today := day(s.now())
	m, err := s.store.GetDailyMetrics(ctx, today)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.DailyMetrics{Date: today}, nil
	}
	return m, err
}

// WeeklyMetrics returns the rollups of the last seven days, oldest first.
func (s *AnalyticsService) WeeklyMetrics(ctx context.Context) ([]domain.DailyMetrics, error) {
	since := day(s.now().UTC().AddDate(0, 0, -6))
	return s.store.ListDailyMetricsSince(ctx, since)
}

// Rollup recomputes and stores the metrics of the UTC day containing t.
// A rollup already running for that day yields ErrConflict.
func (s *AnalyticsService) Rollup(ctx context.Context, t time.Time) (*domain.DailyMetrics, error) {
	date := day(t)
	var out *domain.DailyMetrics
	ran, err := s.guard.Do(date, func() error {
		m, err := s.store.ComputeDailyMetrics(ctx, t.UTC())
		if err != nil {
			return fmt.Errorf("compute metrics %s: %w", date, err)
		}
		if err := s.store.UpsertDailyMetrics(ctx, m); err != nil {
			return fmt.Errorf("store metrics %s: %w", date, err)
		}
		out = m
		return nil
	})
	if !ran {
		return nil, fmt.Errorf("rollup %s already running: %w", date, domain.ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("metrics rolled up",
		zap.String("date", date),
		zap.Int("visits", out.TotalVisits),
		zap.Int("page_views", out.TotalPageViews),
	)
	s.emitter.Emit(ctx, EventMetricsRolledUp, date)
	return out, nil
}

// Wait blocks until in-flight rollups finish or ctx is done.
func (s *AnalyticsService) Wait(ctx context.Context) {
	s.guard.WaitAll(ctx)
}

// Close closes the mirror sinks.
func (s *AnalyticsService) Close(ctx context.Context) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
