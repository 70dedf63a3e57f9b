package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecms/internal/config"
	"sitecms/internal/domain"
	"sitecms/internal/secret"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Addr:               "127.0.0.1:0",
		DataDir:            t.TempDir(),
		LogLevel:           "info",
		DBDriver:           "sqlite",
		SessionTimeout:     time.Hour,
		SessionWarning:     5 * time.Minute,
		RollupSchedule:     "5 0 * * *",
		SweepSchedule:      "@every 5m",
		EditorHistoryLimit: 40,
	}
}

func TestStartupSeedsAndPersistsSigningKey(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a := New(cfg, nil, "test")
	require.NoError(t, a.Startup(ctx))
	pages, err := a.Services().Pages.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, pages)

	keyPath := filepath.Join(cfg.SecretsDir(), secret.KeySigningKey)
	first, err := os.ReadFile(keyPath)
	require.NoError(t, err)
	assert.Len(t, first, 32)
	a.Shutdown(ctx)

	// A restart keeps the same key, so issued sessions stay valid.
	b := New(cfg, nil, "test")
	require.NoError(t, b.Startup(ctx))
	defer b.Shutdown(ctx)
	second, err := os.ReadFile(keyPath)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	again, err := b.Services().Pages.List(ctx)
	require.NoError(t, err)
	assert.Len(t, again, len(pages))
}

func TestAddUserAndRollup(t *testing.T) {
	ctx := context.Background()
	a := New(testConfig(t), nil, "test")
	require.NoError(t, a.Startup(ctx))
	defer a.Shutdown(ctx)

	u, created, err := a.AddUser(ctx, "Admin@Example.test", "s3cret-pass")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "admin@example.test", u.Email)

	_, created, err = a.AddUser(ctx, "admin@example.test", "another-pass")
	require.NoError(t, err)
	assert.False(t, created)

	_, _, err = a.AddUser(ctx, "admin@example.test", "short")
	assert.True(t, domain.IsValidation(err))

	m, err := a.Rollup(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, m.TotalVisits)
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.TemplateDir = t.TempDir()
	a := New(cfg, nil, "test")
	require.NoError(t, a.Startup(ctx))
	defer a.Shutdown(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- a.Serve(runCtx) }()
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
