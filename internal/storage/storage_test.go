package storage_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecms/internal/domain"
	"sitecms/internal/storage"
)

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	ctx := context.Background()

	db, err := storage.OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = storage.OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestOpen_RejectsMongoAsPrimary(t *testing.T) {
	_, err := storage.Open(context.Background(), domain.DatabaseConnection{Driver: domain.DatabaseDriverMongoDB, Host: "localhost"}, "")
	assert.Error(t, err)
}

func TestButtonStore_CRUDAndReorder(t *testing.T) {
	ctx := context.Background()
	s := storage.NewButtonStore(openTestDB(t))

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.CreateButton(ctx, &domain.HomeButton{ID: id, Text: strings.ToUpper(id), Href: "/" + id, OrderIndex: i + 1, IsActive: true}))
	}

	err := s.CreateButton(ctx, &domain.HomeButton{ID: "a", Text: "dup", Href: "#"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, s.ReorderButtons(ctx, []string{"c", "a", "b"}))
	list, err := s.ListButtons(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, 1, list[0].OrderIndex)
	assert.Equal(t, "b", list[2].ID)
	assert.Equal(t, 3, list[2].OrderIndex)

	err = s.ReorderButtons(ctx, []string{"a", "b"})
	assert.True(t, domain.IsValidation(err))
	err = s.ReorderButtons(ctx, []string{"a", "b", "zz"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// A failed reorder leaves the previous order intact.
	list, err = s.ListButtons(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c", list[0].ID)

	b, err := s.GetButton(ctx, "a")
	require.NoError(t, err)
	b.IsActive = false
	require.NoError(t, s.UpdateButton(ctx, b))
	b, err = s.GetButton(ctx, "a")
	require.NoError(t, err)
	assert.False(t, b.IsActive)

	require.NoError(t, s.DeleteButton(ctx, "a"))
	_, err = s.GetButton(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.DeleteButton(ctx, "a"), domain.ErrNotFound)
}

func TestButtonStore_Upsert(t *testing.T) {
	ctx := context.Background()
	s := storage.NewButtonStore(openTestDB(t))

	require.NoError(t, s.UpsertButtons(ctx, []domain.HomeButton{
		{ID: "x", Text: "One", Href: "#", OrderIndex: 1, IsActive: true},
	}))
	require.NoError(t, s.UpsertButtons(ctx, []domain.HomeButton{
		{ID: "x", Text: "Uno", Href: "#", OrderIndex: 1, IsActive: true},
		{ID: "y", Text: "Dos", Href: "#", OrderIndex: 2, IsActive: true},
	}))

	list, err := s.ListButtons(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Uno", list[0].Text)
}

func TestSectionStore(t *testing.T) {
	ctx := context.Background()
	s := storage.NewSectionStore(openTestDB(t))

	require.NoError(t, s.CreateService(ctx, &domain.Service{ID: "s1", Title: "SEO", OrderIndex: 2, IsActive: true}))
	require.NoError(t, s.CreateService(ctx, &domain.Service{ID: "s2", Title: "Ads", OrderIndex: 1, IsActive: true}))
	services, err := s.ListServices(ctx)
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, "Ads", services[0].Title)

	require.NoError(t, s.CreateStep(ctx, &domain.ProcessStep{ID: "p1", StepNumber: "01", Title: "Análisis", OrderIndex: 1, IsActive: true}))
	step, err := s.GetStep(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "01", step.StepNumber)
	assert.ErrorIs(t, s.DeleteStep(ctx, "nope"), domain.ErrNotFound)
}

func TestPageStore_SlugUniqueAndCascade(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	pages := storage.NewPageStore(db)
	content := storage.NewContentStore(db)
	undo := storage.NewUndoStore(db, 0)

	p := &domain.Page{ID: "p1", Name: "Home", Slug: "/home", Status: domain.PageStatusPublished}
	require.NoError(t, pages.CreatePage(ctx, p))
	err := pages.CreatePage(ctx, &domain.Page{ID: "p2", Name: "Other", Slug: "/home", Status: domain.PageStatusDraft})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := pages.GetPageBySlug(ctx, "/home")
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(got.Content))
	assert.Equal(t, domain.PageStatusPublished, got.Status)

	require.NoError(t, content.CreateContent(ctx, &domain.EditableContent{PageID: "p1", ElementID: "e1", ContentType: "heading", Content: "Hi"}))
	require.NoError(t, undo.Save(ctx, &storage.UndoHistory{PageID: "p1", Entries: []storage.UndoEntry{{Label: "open", SnapshotJSON: "[]"}}}))

	require.NoError(t, pages.DeletePage(ctx, "p1"))
	items, err := content.ListContent(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, items)
	h, err := undo.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, h)
	assert.ErrorIs(t, pages.DeletePage(ctx, "p1"), domain.ErrNotFound)
}

func TestContentStore_ReplaceAndUpsert(t *testing.T) {
	ctx := context.Background()
	s := storage.NewContentStore(openTestDB(t))

	require.NoError(t, s.ReplacePageContent(ctx, "p1", []domain.EditableContent{
		{ElementID: "a", ContentType: "heading", Content: "A", OrderIndex: 0},
		{ElementID: "b", ContentType: "paragraph", Content: "B", OrderIndex: 1, Styles: json.RawMessage(`{"style":{"color":"red"}}`)},
	}))
	require.NoError(t, s.ReplacePageContent(ctx, "p1", []domain.EditableContent{
		{ElementID: "b", ContentType: "paragraph", Content: "B2", OrderIndex: 0},
	}))
	items, err := s.ListContent(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "B2", items[0].Content)
	assert.Equal(t, "p1", items[0].PageID)

	// A duplicate element id aborts the replace without losing the old rows.
	err = s.ReplacePageContent(ctx, "p1", []domain.EditableContent{
		{ElementID: "x", ContentType: "span"},
		{ElementID: "x", ContentType: "span"},
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	items, err = s.ListContent(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "B2", items[0].Content)

	require.NoError(t, s.UpsertContent(ctx, []domain.EditableContent{
		{PageID: "p1", ElementID: "b", ContentType: "paragraph", Content: "B3"},
		{PageID: "p1", ElementID: "c", ContentType: "span", Content: "C", OrderIndex: 1},
	}))
	items, err = s.ListContent(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "B3", items[0].Content)

	require.NoError(t, s.DeleteContentByPage(ctx, "p1"))
	items, err = s.ListContent(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSiteConfigStore_Upsert(t *testing.T) {
	ctx := context.Background()
	s := storage.NewSiteConfigStore(openTestDB(t))

	require.NoError(t, s.SetConfig(ctx, &domain.SiteConfigEntry{Key: "contact_email", Value: "a@b.co"}))
	require.NoError(t, s.SetConfig(ctx, &domain.SiteConfigEntry{Key: "contact_email", Value: "x@y.co", Description: "Contacto"}))

	e, err := s.GetConfig(ctx, "contact_email")
	require.NoError(t, err)
	assert.Equal(t, "x@y.co", e.Value)
	assert.Equal(t, "Contacto", e.Description)

	_, err = s.GetConfig(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnalyticsStore_Rollup(t *testing.T) {
	ctx := context.Background()
	s := storage.NewAnalyticsStore(openTestDB(t))
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateSession(ctx, &domain.VisitorSession{SessionID: "s1", IPAddress: "1.1.1.1", PageURL: "/", StartedAt: day}))
	require.NoError(t, s.CreateSession(ctx, &domain.VisitorSession{SessionID: "s2", IPAddress: "1.1.1.1", PageURL: "/", StartedAt: day.Add(time.Minute)}))
	require.NoError(t, s.CreateSession(ctx, &domain.VisitorSession{SessionID: "s3", PageURL: "/ads", StartedAt: day.Add(2 * time.Minute)}))
	require.NoError(t, s.CreateSession(ctx, &domain.VisitorSession{SessionID: "other-day", PageURL: "/", StartedAt: day.AddDate(0, 0, 1)}))

	ok, err := s.UpdateSessionDuration(ctx, "s1", 90, day.Add(90*time.Second))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.UpdateSessionDuration(ctx, "missing", 10, day)
	require.NoError(t, err)
	assert.False(t, ok)

	for _, e := range []domain.PageEvent{
		{SessionID: "s1", EventType: domain.EventPageView, PageURL: "/", CreatedAt: day},
		{SessionID: "s2", EventType: domain.EventPageView, PageURL: "/", CreatedAt: day},
		{SessionID: "s1", EventType: domain.EventConversion, PageURL: "/", CreatedAt: day},
		{SessionID: "s1", EventType: domain.EventEditSave, PageURL: "/", CreatedAt: day},
		{SessionID: "s1", EventType: domain.EventClick, PageURL: "/", CreatedAt: day},
	} {
		require.NoError(t, s.InsertEvent(ctx, &e))
	}

	m, err := s.ComputeDailyMetrics(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", m.Date)
	assert.Equal(t, 3, m.TotalVisits)
	assert.Equal(t, 2, m.UniqueVisitors)
	assert.Equal(t, 2, m.TotalPageViews)
	assert.Equal(t, 1, m.TotalConversions)
	assert.Equal(t, 1, m.TotalEdits)
	assert.Equal(t, 30.0, m.AvgSessionDuration)
	assert.Equal(t, 66.67, m.BounceRate)

	require.NoError(t, s.UpsertDailyMetrics(ctx, m))
	m.TotalVisits = 4
	require.NoError(t, s.UpsertDailyMetrics(ctx, m))
	got, err := s.GetDailyMetrics(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, 4, got.TotalVisits)

	list, err := s.ListDailyMetricsSince(ctx, "2026-03-01")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.GetDailyMetrics(ctx, "2026-03-11")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAuthStore_IdleSweep(t *testing.T) {
	ctx := context.Background()
	s := storage.NewAuthStore(openTestDB(t))
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateUser(ctx, &domain.AdminUser{ID: "u1", Email: "admin@site.test", PasswordHash: "h"}))
	assert.ErrorIs(t, s.CreateUser(ctx, &domain.AdminUser{ID: "u2", Email: "admin@site.test", PasswordHash: "h"}), domain.ErrConflict)

	require.NoError(t, s.RecordLogin(ctx, "u1", base))
	u, err := s.GetUserByEmail(ctx, "admin@site.test")
	require.NoError(t, err)
	require.NotNil(t, u.LastLoginAt)
	assert.True(t, base.Equal(*u.LastLoginAt))

	require.NoError(t, s.CreateAuthSession(ctx, &domain.AuthSession{ID: "old", UserID: "u1", LastActivity: base, CreatedAt: base}))
	require.NoError(t, s.CreateAuthSession(ctx, &domain.AuthSession{ID: "paused", UserID: "u1", LastActivity: base, CreatedAt: base}))
	require.NoError(t, s.SetAuthSessionPaused(ctx, "paused", true, base))
	require.NoError(t, s.CreateAuthSession(ctx, &domain.AuthSession{ID: "fresh", UserID: "u1", LastActivity: base.Add(2 * time.Hour), CreatedAt: base}))

	n, err := s.DeleteIdleAuthSessions(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.GetAuthSession(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	p, err := s.GetAuthSession(ctx, "paused")
	require.NoError(t, err)
	assert.True(t, p.Paused)

	assert.ErrorIs(t, s.TouchAuthSession(ctx, "old", base), domain.ErrNotFound)
}

func TestUndoStore_PrunesAndKeepsPosition(t *testing.T) {
	ctx := context.Background()
	s := storage.NewUndoStore(openTestDB(t), 3)

	entries := make([]storage.UndoEntry, 5)
	for i := range entries {
		entries[i] = storage.UndoEntry{Label: string(rune('a' + i)), SnapshotJSON: "[]"}
	}
	require.NoError(t, s.Save(ctx, &storage.UndoHistory{PageID: "p", Entries: entries, Current: 3}))

	h, err := s.Load(ctx, "p")
	require.NoError(t, err)
	require.NotNil(t, h)
	require.Len(t, h.Entries, 3)
	assert.Equal(t, "c", h.Entries[0].Label)
	assert.Equal(t, 1, h.Current)

	require.NoError(t, s.Clear(ctx, "p"))
	h, err = s.Load(ctx, "p")
	require.NoError(t, err)
	assert.Nil(t, h)
}
