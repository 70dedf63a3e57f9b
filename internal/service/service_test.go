package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sitecms/internal/auth"
	"sitecms/internal/service"
	"sitecms/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Shared fixtures
// ─────────────────────────────────────────────────────────────

type testEnv struct {
	db      *storage.DB
	svc     *service.Services
	emitter *service.MockEmitter
	clock   *fakeClock
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newEnv(t *testing.T) *testEnv {
	return newEnvWithLimit(t, 40)
}

func newEnvWithLimit(t *testing.T, limit int) *testEnv {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	db, err := storage.OpenSQLite(ctx, filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	blobs, err := storage.NewBlobStore(filepath.Join(dir, "files"))
	require.NoError(t, err)

	clock := &fakeClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	signer, err := auth.NewSigner(testKey, 24*time.Hour, clock.Now)
	require.NoError(t, err)

	emitter := &service.MockEmitter{}
	svc := service.NewServices(db, blobs, service.Options{
		PublicBaseURL:      "https://example.test",
		EditorHistoryLimit: limit,
		Signer:             signer,
		Policy:             auth.Policy{Timeout: 60 * time.Minute, Warning: 5 * time.Minute},
	}, nil, emitter)
	svc.Auth.SetClock(clock.Now)
	svc.Analytics.SetClock(clock.Now)
	svc.Pages.SetClock(clock.Now)
	return &testEnv{db: db, svc: svc, emitter: emitter, clock: clock}
}

// ─────────────────────────────────────────────────────────────
// RollupGuard tests
// ─────────────────────────────────────────────────────────────

func TestRollupGuard_TryLock(t *testing.T) {
	var g service.RollupGuard

	if !g.TryLock("2026-03-10") {
		t.Fatal("expected first TryLock to succeed")
	}
	if g.TryLock("2026-03-10") {
		t.Fatal("expected second TryLock for same key to fail")
	}
	if !g.TryLock("2026-03-11") {
		t.Fatal("expected TryLock for different key to succeed")
	}
	g.Unlock("2026-03-10")
	g.Unlock("2026-03-11")

	if !g.TryLock("2026-03-10") {
		t.Fatal("expected TryLock to succeed after unlock")
	}
	g.Unlock("2026-03-10")
}

func TestRollupGuard_Do(t *testing.T) {
	var g service.RollupGuard
	boom := errors.New("boom")

	ran, err := g.Do("k", func() error { return boom })
	if !ran || !errors.Is(err, boom) {
		t.Fatalf("expected run with error, got ran=%v err=%v", ran, err)
	}

	g.TryLock("k")
	ran, err = g.Do("k", func() error { t.Fatal("must not run"); return nil })
	if ran || err != nil {
		t.Fatalf("expected skipped run, got ran=%v err=%v", ran, err)
	}
	g.Unlock("k")
}

func TestRollupGuard_WaitAll(t *testing.T) {
	var g service.RollupGuard

	if !g.TryLock("job-a") {
		t.Fatal("expected lock to succeed")
	}

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		g.WaitAll(ctx)
		close(done)
	}()

	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Unlock("job-a")
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("WaitAll timed out")
	}
}

// ─────────────────────────────────────────────────────────────
// MockEmitter tests
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "test:event", map[string]string{"foo": "bar"})
	m.Emit(ctx, "test:event2", nil)

	if len(m.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(m.Events))
	}
	if m.Events[0].Event != "test:event" {
		t.Errorf("expected 'test:event', got %q", m.Events[0].Event)
	}
	if got := m.Names(); got[1] != "test:event2" {
		t.Errorf("expected 'test:event2', got %q", got[1])
	}
}
