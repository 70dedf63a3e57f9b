package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sitecms/internal/auth"
	"sitecms/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Auth Service: admin sign-in and inactivity auto-logout
// ─────────────────────────────────────────────────────────────

// Principal is an authenticated admin request.
type Principal struct {
	UserID  string
	Session domain.AuthSession
	Status  auth.Status
}

// SignInResult is returned by a successful sign-in.
type SignInResult struct {
	Token  string            `json:"token"`
	User   *domain.AdminUser `json:"user"`
	Status auth.Status       `json:"session"`
}

type AuthService struct {
	users    domain.UserStore
	sessions domain.AuthSessionStore
	signer   *auth.Signer
	policy   auth.Policy
	logger   *zap.Logger
	emitter  EventEmitter
	now      func() time.Time
}

func NewAuthService(
	users domain.UserStore,
	sessions domain.AuthSessionStore,
	signer *auth.Signer,
	policy auth.Policy,
	logger *zap.Logger,
	emitter EventEmitter,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		signer:   signer,
		policy:   policy,
		logger:   logger,
		emitter:  emitter,
		now:      time.Now,
	}
}

// Policy returns the inactivity rule in force.
func (s *AuthService) Policy() auth.Policy {
	return s.policy
}

// SignIn checks the credentials and opens a server-side session. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	email = auth.NormalizeEmail(email)
	if !auth.ValidEmail(email) {
		return nil, domain.Invalid("email", "is not a valid address")
	}
	if password == "" {
		return nil, domain.Invalid("password", "is required")
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Info("sign-in rejected", zap.String("email", email), zap.String("reason", "unknown user"))
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		s.logger.Info("sign-in rejected", zap.String("email", email), zap.String("reason", "bad password"))
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	now := s.now().UTC()
	sess := &domain.AuthSession{ID: uuid.NewString(), UserID: user.ID, LastActivity: now, CreatedAt: now}
	if err := s.sessions.CreateAuthSession(ctx, sess); err != nil {
		return nil, err
	}
	if err := s.users.RecordLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("record login failed", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLoginAt = &now
	}
	token, err := s.signer.Issue(sess.ID, user.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("admin signed in", zap.String("user_id", user.ID), zap.String("session_id", sess.ID))
	return &SignInResult{Token: token, User: user, Status: s.policy.Status(*sess, now)}, nil
}

// SignOut ends the session behind token. Invalid or already closed tokens
// are not an error.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.DeleteAuthSession(ctx, claims.SessionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// Authenticate resolves token to a live session and registers activity,
// resetting the inactivity window unless the session is paused.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	return s.resolve(ctx, token, true)
}

// Inspect is Authenticate without registering activity. It is what the
// session timer polls.
func (s *AuthService) Inspect(ctx context.Context, token string) (*Principal, error) {
	return s.resolve(ctx, token, false)
}

func (s *AuthService) resolve(ctx context.Context, token string, touch bool) (*Principal, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.GetAuthSession(ctx, claims.SessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("session closed: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if s.policy.Expired(*sess, now) {
		if err := s.sessions.DeleteAuthSession(ctx, sess.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("delete expired session failed", zap.String("session_id", sess.ID), zap.Error(err))
		}
		s.logger.Info("session expired", zap.String("session_id", sess.ID), zap.Time("last_activity", sess.LastActivity))
		s.emitter.Emit(ctx, EventSessionExpired, sess.ID)
		return nil, domain.ErrSessionExpired
	}
	if touch && !sess.Paused {
		if err := s.sessions.TouchAuthSession(ctx, sess.ID, now); err != nil {
			return nil, err
		}
		sess.LastActivity = now
	}
	return &Principal{UserID: sess.UserID, Session: *sess, Status: s.policy.Status(*sess, now)}, nil
}

// Extend registers activity explicitly ("stay signed in").
func (s *AuthService) Extend(ctx context.Context, sessionID string) (auth.Status, error) {
	now := s.now().UTC()
	if err := s.sessions.TouchAuthSession(ctx, sessionID, now); err != nil {
		return auth.Status{}, err
	}
	return s.status(ctx, sessionID, now)
}

// Pause suspends the inactivity timer, as while the visual editor is open.
func (s *AuthService) Pause(ctx context.Context, sessionID string) (auth.Status, error) {
	return s.setPaused(ctx, sessionID, true)
}

// Resume restarts the timer with a full window.
func (s *AuthService) Resume(ctx context.Context, sessionID string) (auth.Status, error) {
	return s.setPaused(ctx, sessionID, false)
}

func (s *AuthService) setPaused(ctx context.Context, sessionID string, paused bool) (auth.Status, error) {
	now := s.now().UTC()
	if err := s.sessions.SetAuthSessionPaused(ctx, sessionID, paused, now); err != nil {
		return auth.Status{}, err
	}
	return s.status(ctx, sessionID, now)
}

func (s *AuthService) status(ctx context.Context, sessionID string, now time.Time) (auth.Status, error) {
	sess, err := s.sessions.GetAuthSession(ctx, sessionID)
	if err != nil {
		return auth.Status{}, err
	}
	return s.policy.Status(*sess, now), nil
}

// SweepIdle deletes sessions idle past the timeout. Paused sessions stay.
func (s *AuthService) SweepIdle(ctx context.Context) (int, error) {
	timeout := s.policy.Timeout
	if timeout <= 0 {
		timeout = auth.DefaultTimeout
	}
	n, err := s.sessions.DeleteIdleAuthSessions(ctx, s.now().UTC().Add(-timeout))
	if err != nil {
		return 0, fmt.Errorf("sweep idle sessions: %w", err)
	}
	if n > 0 {
		s.logger.Info("idle sessions swept", zap.Int("count", n))
	}
	return n, nil
}

// EnsureUser creates an admin account, or rotates the password of an existing
// one. It reports whether the account was created.
func (s *AuthService) EnsureUser(ctx context.Context, email, password string) (*domain.AdminUser, bool, error) {
	email = auth.NormalizeEmail(email)
	if !auth.ValidEmail(email) {
		return nil, false, domain.Invalid("email", "is not a valid address")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, false, err
	}
	existing, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.users.UpdatePassword(ctx, existing.ID, hash); err != nil {
			return nil, false, err
		}
		existing.PasswordHash = hash
		return existing, false, nil
	case errors.Is(err, domain.ErrNotFound):
		u := &domain.AdminUser{ID: uuid.NewString(), Email: email, PasswordHash: hash}
		if err := s.users.CreateUser(ctx, u); err != nil {
			return nil, false, err
		}
		return u, true, nil
	default:
		return nil, false, err
	}
}
