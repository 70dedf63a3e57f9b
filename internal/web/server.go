// Package web serves the public site, the analytics endpoints and the admin
// JSON API.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"sitecms/internal/service"
)

// Options configure the HTTP server.
type Options struct {
	Addr         string
	CookieSecure bool
	// TrustProxy honors X-Forwarded-For and X-Real-IP for visitor addresses.
	TrustProxy bool
}

type Server struct {
	svc       *service.Services
	templates *Templates
	logger    *zap.Logger
	opts      Options
	server    *http.Server
}

func NewServer(svc *service.Services, templates *Templates, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{svc: svc, templates: templates, logger: logger, opts: opts}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok"))
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	// Public site
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /acceso-dashboard", s.handleLoginPage)
	mux.HandleFunc("GET /admin", s.handleAdminPage)
	mux.HandleFunc("GET /{slug...}", s.handlePage)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.HandleFunc("GET /files/{bucket}/{path...}", s.handleFile)

	// Public JSON
	mux.HandleFunc("GET /api/buttons", s.handlePublicButtons)
	mux.HandleFunc("GET /api/pages/state", s.handlePublicPageState)
	mux.HandleFunc("POST /api/analytics/sessions", s.handleCreateVisitorSession)
	mux.HandleFunc("POST /api/analytics/sessions/{id}/duration", s.handleSessionDuration)
	mux.HandleFunc("POST /api/analytics/events", s.handleTrackEvent)
	mux.HandleFunc("POST /api/analytics/pageviews", s.handleTrackPageView)
	mux.HandleFunc("POST /api/analytics/clicks", s.handleTrackClick)
	mux.HandleFunc("POST /api/analytics/conversions", s.handleTrackConversion)

	s.adminRoutes(mux)
	return mux
}

// Handler returns the full handler chain.
func (s *Server) Handler() http.Handler {
	return s.recoverer(s.requestLogger(s.setupRoutes()))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.opts.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
