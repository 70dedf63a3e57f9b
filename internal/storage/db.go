package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sitecms/internal/domain"
)

var errNoRows = sql.ErrNoRows

// DB wraps the relational connection and the dialect used to talk to it.
type DB struct {
	conn    *sql.DB
	dialect Dialect
}

// Open connects to the configured backend and runs the migrations.
// The password must be provided separately (from the secret store).
func Open(ctx context.Context, conn domain.DatabaseConnection, password string) (*DB, error) {
	driver, dsn, dialect, err := driverFor(conn, password)
	if err != nil {
		return nil, err
	}
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if dialect == DialectSQLite {
		// SQLite only supports one writer; a single connection avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	db := &DB{conn: sqlDB, dialect: dialect}
	if err := db.migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// OpenSQLite is shorthand for a file-backed SQLite database.
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	return Open(ctx, domain.DatabaseConnection{Name: "default", Driver: domain.DatabaseDriverSQLite, Host: path}, "")
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Ping reports whether the backend is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// runner rebinds queries for the dialect before handing them to a
// connection or a transaction.
type runner struct {
	x execer
	d Dialect
}

func (r runner) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.x.ExecContext(ctx, r.d.Rebind(query), args...)
}

func (r runner) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.x.QueryContext(ctx, r.d.Rebind(query), args...)
}

func (r runner) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.x.QueryRowContext(ctx, r.d.Rebind(query), args...)
}

func (db *DB) run() runner {
	return runner{x: db.conn, d: db.dialect}
}

// inTx runs fn in a transaction, committing when it returns nil.
func (db *DB) inTx(ctx context.Context, fn func(r runner) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(runner{x: tx, d: db.dialect}); err != nil {
		return err
	}
	return tx.Commit()
}

// mustAffect turns a zero-row update or delete into ErrNotFound.
func mustAffect(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}

// dayOf is the UTC calendar day used to bucket analytics rows.
func dayOf(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

func (db *DB) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS home_buttons (
			id {{id}} PRIMARY KEY,
			text {{str}} NOT NULL,
			href {{str}} NOT NULL,
			icon {{str}} NOT NULL DEFAULT '',
			color {{str}} NOT NULL DEFAULT 'blue',
			order_index {{int}} NOT NULL DEFAULT 0,
			is_active {{bool}} NOT NULL DEFAULT TRUE,
			created_at {{ts}} NOT NULL,
			updated_at {{ts}} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS services (
			id {{id}} PRIMARY KEY,
			title {{str}} NOT NULL,
			description {{text}} NOT NULL DEFAULT '',
			icon {{str}} NOT NULL DEFAULT '',
			order_index {{int}} NOT NULL DEFAULT 0,
			is_active {{bool}} NOT NULL DEFAULT TRUE,
			created_at {{ts}} NOT NULL,
			updated_at {{ts}} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS process_steps (
			id {{id}} PRIMARY KEY,
			step_number {{str}} NOT NULL DEFAULT '',
			title {{str}} NOT NULL,
			description {{text}} NOT NULL DEFAULT '',
			order_index {{int}} NOT NULL DEFAULT 0,
			is_active {{bool}} NOT NULL DEFAULT TRUE,
			created_at {{ts}} NOT NULL,
			updated_at {{ts}} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			id {{id}} PRIMARY KEY,
			name {{str}} NOT NULL,
			slug {{str}} NOT NULL,
			content {{text}} NOT NULL DEFAULT '{}',
			status {{str}} NOT NULL DEFAULT 'draft',
			is_system_page {{bool}} NOT NULL DEFAULT FALSE,
			created_at {{ts}} NOT NULL,
			updated_at {{ts}} NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_pages_slug ON pages(slug)`,
		`CREATE TABLE IF NOT EXISTS editable_content (
			id {{id}} PRIMARY KEY,
			page_id {{id}} NOT NULL,
			element_id {{str}} NOT NULL,
			content_type {{str}} NOT NULL,
			content {{text}} NOT NULL DEFAULT '',
			styles {{text}} NOT NULL DEFAULT '{}',
			order_index {{int}} NOT NULL DEFAULT 0,
			created_at {{ts}} NOT NULL,
			updated_at {{ts}} NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_content_page_element ON editable_content(page_id, element_id)`,
		`CREATE TABLE IF NOT EXISTS site_config (
			config_key {{str}} PRIMARY KEY,
			config_value {{text}} NOT NULL DEFAULT '',
			description {{text}} NOT NULL DEFAULT '',
			updated_at {{ts}} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_sessions (
			session_id {{str}} PRIMARY KEY,
			user_agent {{text}} NOT NULL DEFAULT '',
			ip_address {{str}} NOT NULL DEFAULT '',
			page_url {{text}} NOT NULL DEFAULT '',
			referrer {{text}} NOT NULL DEFAULT '',
			duration_seconds {{int}} NOT NULL DEFAULT 0,
			is_bounce {{bool}} NOT NULL DEFAULT TRUE,
			visit_day {{str}} NOT NULL,
			started_at {{ts}} NOT NULL,
			ended_at {{ts}}
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_day ON user_sessions(visit_day)`,
		`CREATE TABLE IF NOT EXISTS page_events (
			id {{id}} PRIMARY KEY,
			session_id {{str}} NOT NULL,
			event_type {{str}} NOT NULL,
			page_url {{text}} NOT NULL DEFAULT '',
			element_id {{str}} NOT NULL DEFAULT '',
			element_text {{text}} NOT NULL DEFAULT '',
			metadata {{text}} NOT NULL DEFAULT '{}',
			event_day {{str}} NOT NULL,
			created_at {{ts}} NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_day ON page_events(event_day)`,
		`CREATE TABLE IF NOT EXISTS daily_metrics (
			metric_date {{str}} PRIMARY KEY,
			total_visits {{int}} NOT NULL DEFAULT 0,
			unique_visitors {{int}} NOT NULL DEFAULT 0,
			total_page_views {{int}} NOT NULL DEFAULT 0,
			total_conversions {{int}} NOT NULL DEFAULT 0,
			total_edits {{int}} NOT NULL DEFAULT 0,
			avg_session_duration {{real}} NOT NULL DEFAULT 0,
			bounce_rate {{real}} NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS admin_users (
			id {{id}} PRIMARY KEY,
			email {{str}} NOT NULL,
			password_hash {{str}} NOT NULL,
			created_at {{ts}} NOT NULL,
			updated_at {{ts}} NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_admin_users_email ON admin_users(email)`,
		// Added after the first release.
		`ALTER TABLE admin_users ADD COLUMN last_login_at {{ts}}`,
		`CREATE TABLE IF NOT EXISTS auth_sessions (
			id {{id}} PRIMARY KEY,
			user_id {{id}} NOT NULL,
			last_activity {{ts}} NOT NULL,
			paused {{bool}} NOT NULL DEFAULT FALSE,
			created_at {{ts}} NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_auth_sessions_activity ON auth_sessions(last_activity)`,
		// Editor history: one row per snapshot plus the current position.
		`CREATE TABLE IF NOT EXISTS editor_history (
			page_id {{id}} NOT NULL,
			seq {{int}} NOT NULL,
			label {{str}} NOT NULL,
			snapshot_json {{text}} NOT NULL,
			created_at {{ts}} NOT NULL,
			PRIMARY KEY (page_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS editor_history_state (
			page_id {{id}} PRIMARY KEY,
			current_seq {{int}} NOT NULL
		)`,
	}

	r := db.run()
	for _, m := range migrations {
		stmt := db.dialect.DDL(m)
		if _, err := r.exec(ctx, stmt); err != nil {
			if db.dialect.ignorable(stmt, err) {
				continue
			}
			return fmt.Errorf("migration failed: %s: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}
