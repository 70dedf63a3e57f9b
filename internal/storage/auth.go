package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sitecms/internal/domain"
)

// AuthStore implements domain.UserStore and domain.AuthSessionStore.
type AuthStore struct {
	db *DB
}

func NewAuthStore(db *DB) *AuthStore {
	return &AuthStore{db: db}
}

const userColumns = `id, email, password_hash, last_login_at, created_at, updated_at`

func scanUser(row scanner, u *domain.AdminUser) error {
	var last sql.NullTime
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &last, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return err
	}
	if last.Valid {
		t := last.Time
		u.LastLoginAt = &t
	}
	return nil
}

func (s *AuthStore) CreateUser(ctx context.Context, u *domain.AdminUser) error {
	t := now()
	u.CreatedAt = t
	u.UpdatedAt = t
	_, err := s.db.run().exec(ctx,
		`INSERT INTO admin_users (id, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	return translate(err, "create user")
}

func (s *AuthStore) GetUserByEmail(ctx context.Context, email string) (*domain.AdminUser, error) {
	u := &domain.AdminUser{}
	if err := scanUser(s.db.run().queryRow(ctx, `SELECT `+userColumns+` FROM admin_users WHERE email = ?`, email), u); err != nil {
		return nil, translate(err, "get user by email")
	}
	return u, nil
}

func (s *AuthStore) GetUser(ctx context.Context, id string) (*domain.AdminUser, error) {
	u := &domain.AdminUser{}
	if err := scanUser(s.db.run().queryRow(ctx, `SELECT `+userColumns+` FROM admin_users WHERE id = ?`, id), u); err != nil {
		return nil, translate(err, "get user")
	}
	return u, nil
}

func (s *AuthStore) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := s.db.run().exec(ctx, `UPDATE admin_users SET password_hash = ?, updated_at = ? WHERE id = ?`, hash, now(), id)
	if err != nil {
		return translate(err, "update password")
	}
	return mustAffect(res, "update password")
}

func (s *AuthStore) RecordLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.run().exec(ctx, `UPDATE admin_users SET last_login_at = ? WHERE id = ?`, at.UTC(), id)
	return translate(err, "record login")
}

func (s *AuthStore) CreateAuthSession(ctx context.Context, a *domain.AuthSession) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now()
	}
	if a.LastActivity.IsZero() {
		a.LastActivity = a.CreatedAt
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.LastActivity = a.LastActivity.UTC()
	_, err := s.db.run().exec(ctx,
		`INSERT INTO auth_sessions (id, user_id, last_activity, paused, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.LastActivity, a.Paused, a.CreatedAt,
	)
	return translate(err, "create auth session")
}

func (s *AuthStore) GetAuthSession(ctx context.Context, id string) (*domain.AuthSession, error) {
	a := &domain.AuthSession{}
	err := s.db.run().queryRow(ctx,
		`SELECT id, user_id, last_activity, paused, created_at FROM auth_sessions WHERE id = ?`, id,
	).Scan(&a.ID, &a.UserID, &a.LastActivity, &a.Paused, &a.CreatedAt)
	if err != nil {
		return nil, translate(err, "get auth session")
	}
	return a, nil
}

func (s *AuthStore) TouchAuthSession(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.run().exec(ctx, `UPDATE auth_sessions SET last_activity = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return translate(err, "touch auth session")
	}
	return mustAffect(res, "touch auth session")
}

// SetAuthSessionPaused toggles the inactivity pause. Activity is registered
// at the same time so resuming starts a fresh window.
func (s *AuthStore) SetAuthSessionPaused(ctx context.Context, id string, paused bool, at time.Time) error {
	res, err := s.db.run().exec(ctx, `UPDATE auth_sessions SET paused = ?, last_activity = ? WHERE id = ?`, paused, at.UTC(), id)
	if err != nil {
		return translate(err, "pause auth session")
	}
	return mustAffect(res, "pause auth session")
}

func (s *AuthStore) DeleteAuthSession(ctx context.Context, id string) error {
	_, err := s.db.run().exec(ctx, `DELETE FROM auth_sessions WHERE id = ?`, id)
	return translate(err, "delete auth session")
}

// DeleteIdleAuthSessions removes unpaused sessions idle since before.
func (s *AuthStore) DeleteIdleAuthSessions(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.run().exec(ctx, `DELETE FROM auth_sessions WHERE paused = ? AND last_activity < ?`, false, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete idle auth sessions: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
