package domain

import (
	"context"
	"time"
)

// AdminUser is an operator allowed into the admin panel.
type AdminUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string     `json:"-"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// AuthSession is a server-side login. LastActivity drives the inactivity
// auto-logout; Paused suspends it while the visual editor is open.
type AuthSession struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	LastActivity time.Time `json:"last_activity"`
	Paused       bool      `json:"paused"`
	CreatedAt    time.Time `json:"created_at"`
}

type UserStore interface {
	CreateUser(ctx context.Context, u *AdminUser) error
	GetUserByEmail(ctx context.Context, email string) (*AdminUser, error)
	GetUser(ctx context.Context, id string) (*AdminUser, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	RecordLogin(ctx context.Context, id string, at time.Time) error
}

type AuthSessionStore interface {
	CreateAuthSession(ctx context.Context, s *AuthSession) error
	GetAuthSession(ctx context.Context, id string) (*AuthSession, error)
	TouchAuthSession(ctx context.Context, id string, at time.Time) error
	SetAuthSessionPaused(ctx context.Context, id string, paused bool, at time.Time) error
	DeleteAuthSession(ctx context.Context, id string) error
	DeleteIdleAuthSessions(ctx context.Context, before time.Time) (int, error)
}
