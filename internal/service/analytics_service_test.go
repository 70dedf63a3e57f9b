package service_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sitecms/internal/domain"
	"sitecms/internal/service"
	"sitecms/internal/storage"
)

type recordingSink struct {
	mu       sync.Mutex
	sessions []string
	ended    map[string]int
	events   []domain.EventType
	texts    []string
	closed   bool
}

func (s *recordingSink) RecordSession(_ context.Context, v domain.VisitorSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, v.SessionID)
	return nil
}

func (s *recordingSink) RecordSessionEnd(_ context.Context, id string, seconds int, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended == nil {
		s.ended = map[string]int{}
	}
	s.ended[id] = seconds
	return nil
}

func (s *recordingSink) RecordEvent(_ context.Context, e domain.PageEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e.EventType)
	s.texts = append(s.texts, e.ElementText)
	return nil
}

func (s *recordingSink) Close(context.Context) error {
	s.closed = true
	return nil
}

func newAnalytics(t *testing.T, env *testEnv, sink *recordingSink) *service.AnalyticsService {
	t.Helper()
	a := service.NewAnalyticsService(storage.NewAnalyticsStore(env.db), zap.NewNop(), env.emitter, sink)
	a.SetClock(env.clock.Now)
	return a
}

func TestAnalytics_CreateSessionGeneratesID(t *testing.T) {
	env := newEnv(t)
	sink := &recordingSink{}
	a := newAnalytics(t, env, sink)
	ctx := context.Background()

	s, err := a.CreateSession(ctx, domain.VisitorSession{PageURL: "/", UserAgent: "test"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.SessionID, "session_1773144000000_"), s.SessionID)
	assert.True(t, s.IsBounce)

	// Re-announcing the same session is accepted.
	_, err = a.CreateSession(ctx, domain.VisitorSession{SessionID: s.SessionID, PageURL: "/"})
	require.NoError(t, err)
	assert.Equal(t, []string{s.SessionID}, sink.sessions)
}

func TestAnalytics_TrackEventValidation(t *testing.T) {
	env := newEnv(t)
	a := newAnalytics(t, env, &recordingSink{})
	ctx := context.Background()

	err := a.TrackEvent(ctx, domain.PageEvent{SessionID: "s", EventType: "hover"})
	assert.True(t, domain.IsValidation(err))
	err = a.TrackEvent(ctx, domain.PageEvent{EventType: domain.EventClick})
	assert.True(t, domain.IsValidation(err))
	err = a.TrackEvent(ctx, domain.PageEvent{SessionID: "s", EventType: domain.EventClick, Metadata: json.RawMessage(`{`)})
	assert.True(t, domain.IsValidation(err))
}

func TestAnalytics_StoreFailuresAreSwallowed(t *testing.T) {
	env := newEnv(t)
	sink := &recordingSink{}
	a := newAnalytics(t, env, sink)
	ctx := context.Background()
	require.NoError(t, env.db.Close())

	assert.NoError(t, a.TrackPageView(ctx, "s", "/"))
	assert.False(t, a.UpdateSessionDuration(ctx, "s", 10))
	_, err := a.CreateSession(ctx, domain.VisitorSession{PageURL: "/"})
	assert.NoError(t, err)
	assert.Empty(t, sink.events)
}

func TestAnalytics_RollupAndMetrics(t *testing.T) {
	env := newEnv(t)
	sink := &recordingSink{}
	a := newAnalytics(t, env, sink)
	ctx := context.Background()

	today, err := a.TodayMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", today.Date)
	assert.Zero(t, today.TotalVisits)

	s1, err := a.CreateSession(ctx, domain.VisitorSession{IPAddress: "10.0.0.1", PageURL: "/"})
	require.NoError(t, err)
	_, err = a.CreateSession(ctx, domain.VisitorSession{IPAddress: "10.0.0.1", PageURL: "/ads"})
	require.NoError(t, err)

	require.NoError(t, a.TrackPageView(ctx, s1.SessionID, "/"))
	require.NoError(t, a.TrackClick(ctx, s1.SessionID, "/", "btn-1", "Contacto", "button"))
	require.NoError(t, a.TrackConversion(ctx, s1.SessionID, "/", "contact_form", 1))
	assert.True(t, a.UpdateSessionDuration(ctx, s1.SessionID, 40))
	assert.False(t, a.UpdateSessionDuration(ctx, "session_unknown", 40))

	m, err := a.Rollup(ctx, env.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, m.TotalVisits)
	assert.Equal(t, 1, m.UniqueVisitors)
	assert.Equal(t, 1, m.TotalPageViews)
	assert.Equal(t, 1, m.TotalConversions)
	assert.Equal(t, 20.0, m.AvgSessionDuration)
	assert.Equal(t, 50.0, m.BounceRate)

	today, err = a.TodayMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, today.TotalVisits)

	_, err = a.Rollup(ctx, env.clock.Now().AddDate(0, 0, -2))
	require.NoError(t, err)
	_, err = a.Rollup(ctx, env.clock.Now().AddDate(0, 0, -9))
	require.NoError(t, err)

	week, err := a.WeeklyMetrics(ctx)
	require.NoError(t, err)
	require.Len(t, week, 2)
	assert.Equal(t, "2026-03-08", week[0].Date)
	assert.Equal(t, "2026-03-10", week[1].Date)

	assert.Equal(t, 40, sink.ended[s1.SessionID])
	assert.Len(t, sink.events, 3)
	assert.Equal(t, []string{"", "Contacto", "contact_form"}, sink.texts)
	assert.Contains(t, env.emitter.Names(), service.EventMetricsRolledUp)

	require.NoError(t, a.Close(ctx))
	assert.True(t, sink.closed)
}

func TestAnalytics_RollupConflictWhileRunning(t *testing.T) {
	env := newEnv(t)
	a := newAnalytics(t, env, &recordingSink{})
	ctx := context.Background()

	release := a.HoldRollup("2026-03-10")
	_, err := a.Rollup(ctx, env.clock.Now())
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Other days are not blocked.
	_, err = a.Rollup(ctx, env.clock.Now().AddDate(0, 0, -1))
	require.NoError(t, err)

	release()
	m, err := a.Rollup(ctx, env.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", m.Date)
}
