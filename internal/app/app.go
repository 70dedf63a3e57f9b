package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"sitecms/internal/analytics"
	"sitecms/internal/auth"
	"sitecms/internal/config"
	"sitecms/internal/domain"
	mcpserver "sitecms/internal/mcp"
	"sitecms/internal/secret"
	"sitecms/internal/service"
	"sitecms/internal/storage"
	"sitecms/internal/web"
)

// Session tokens are refused after this long regardless of activity.
const tokenMaxAge = 24 * time.Hour

// App owns the storage handles and the service graph shared by every command.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	emitter service.EventEmitter
	version string

	db      *storage.DB
	secrets secret.SecretStore
	svc     *service.Services
}

// New creates a new App. Call Startup before using it.
func New(cfg config.Config, logger *zap.Logger, version string) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:     cfg,
		logger:  logger,
		emitter: service.LogEmitter{Logger: logger.Named("events")},
		version: version,
	}
}

// Startup opens storage, loads secrets, builds the services and seeds the
// system pages.
func (a *App) Startup(ctx context.Context) error {
	if err := os.MkdirAll(a.cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	files, err := secret.NewFileStore(a.cfg.SecretsDir())
	if err != nil {
		return err
	}
	a.secrets = secret.Chain{secret.NewEnvStore("SITECMS_SECRET_"), files}

	dbPassword, err := a.secrets.Get(secret.KeyDBPassword)
	if err != nil {
		return fmt.Errorf("read database password: %w", err)
	}
	conn := a.cfg.DatabaseConnection()
	db, err := storage.Open(ctx, conn, string(dbPassword))
	if err != nil {
		return err
	}
	a.db = db
	a.logger.Info("database ready", zap.String("driver", string(conn.Driver)), zap.String("name", conn.Name))

	blobs, err := storage.NewBlobStore(a.cfg.BlobDir())
	if err != nil {
		return err
	}

	key, err := secret.EnsureRandom(a.secrets, secret.KeySigningKey, 32)
	if err != nil {
		return fmt.Errorf("session signing key: %w", err)
	}
	signer, err := auth.NewSigner(key, tokenMaxAge, nil)
	if err != nil {
		return err
	}

	var sinks []analytics.Sink
	if mirrorConn, ok := a.cfg.MirrorConnection(); ok {
		mongoPassword, err := a.secrets.Get(secret.KeyMongoPassword)
		if err != nil {
			return fmt.Errorf("read mongo password: %w", err)
		}
		sink, err := analytics.NewMongoSink(ctx, mirrorConn, string(mongoPassword), a.logger.Named("mongo"))
		if err != nil {
			// The mirror is optional; the SQL store stays authoritative.
			a.logger.Warn("analytics mirror disabled", zap.Error(err))
		} else {
			sinks = append(sinks, sink)
		}
	}

	a.svc = service.NewServices(db, blobs, service.Options{
		PublicBaseURL:      a.cfg.PublicBaseURL,
		EditorHistoryLimit: a.cfg.EditorHistoryLimit,
		Signer:             signer,
		Policy:             auth.Policy{Timeout: a.cfg.SessionTimeout, Warning: a.cfg.SessionWarning},
	}, a.logger, a.emitter, sinks...)

	n, err := service.SeedSystemPages(ctx, a.svc.PageStore, a.svc.ContentStore)
	if err != nil {
		return fmt.Errorf("seed system pages: %w", err)
	}
	if n > 0 {
		a.logger.Info("seeded system pages", zap.Int("count", n))
	}
	return nil
}

// Shutdown waits for in-flight background work and closes the stores.
func (a *App) Shutdown(ctx context.Context) {
	if a.svc != nil {
		a.svc.Analytics.Wait(ctx)
		if err := a.svc.Analytics.Close(ctx); err != nil {
			a.logger.Warn("close analytics", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database", zap.Error(err))
		}
	}
}

// Services exposes the service graph built by Startup.
func (a *App) Services() *service.Services {
	return a.svc
}

// Serve runs the HTTP server, the scheduler and, when an override directory
// is configured, the template watcher until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	templates, err := web.LoadTemplates(a.cfg.TemplateDir)
	if err != nil {
		return err
	}
	if dir := templates.Dir(); dir != "" {
		watcher := service.NewTemplateWatcher(dir, templates.Reload, a.logger.Named("templates"))
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer watcher.Close()
	}

	scheduler := service.NewScheduler(a.svc.Analytics, a.svc.Auth, a.logger.Named("scheduler"))
	if err := scheduler.Start(ctx, a.cfg.RollupSchedule, a.cfg.SweepSchedule); err != nil {
		return err
	}
	defer scheduler.Stop()

	srv := web.NewServer(a.svc, templates, a.logger.Named("http"), web.Options{
		Addr:         a.cfg.Addr,
		CookieSecure: a.cfg.CookieSecure,
		TrustProxy:   a.cfg.TrustProxy,
	})
	return srv.ListenAndServe(ctx)
}

// ServeMCP runs the MCP server on stdin/stdout.
func (a *App) ServeMCP(ctx context.Context) error {
	srv := mcpserver.New(mcpserver.Deps{
		Services: a.svc,
		Emitter:  a.emitter,
		Logger:   a.logger.Named("mcp"),
		Version:  a.version,
	})
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

// AddUser creates an admin account or rotates its password.
func (a *App) AddUser(ctx context.Context, email, password string) (*domain.AdminUser, bool, error) {
	return a.svc.Auth.EnsureUser(ctx, email, password)
}

// Rollup computes the daily metrics for day.
func (a *App) Rollup(ctx context.Context, day time.Time) (*domain.DailyMetrics, error) {
	return a.svc.Analytics.Rollup(ctx, day)
}
