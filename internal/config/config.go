// Package config loads the runtime settings from SITECMS_* environment
// variables.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"sitecms/internal/domain"
)

// Config is the full runtime configuration.
type Config struct {
	Addr          string `env:"SITECMS_ADDR" envDefault:":8080"`
	DataDir       string `env:"SITECMS_DATA_DIR" envDefault:"./data"`
	PublicBaseURL string `env:"SITECMS_PUBLIC_URL"`
	TemplateDir   string `env:"SITECMS_TEMPLATE_DIR"`
	LogLevel      string `env:"SITECMS_LOG_LEVEL" envDefault:"info"`
	CookieSecure  bool   `env:"SITECMS_COOKIE_SECURE" envDefault:"false"`
	TrustProxy    bool   `env:"SITECMS_TRUST_PROXY" envDefault:"false"`

	DBDriver  string `env:"SITECMS_DB_DRIVER" envDefault:"sqlite"`
	DBHost    string `env:"SITECMS_DB_HOST"`
	DBPort    int    `env:"SITECMS_DB_PORT"`
	DBName    string `env:"SITECMS_DB_NAME" envDefault:"sitecms"`
	DBUser    string `env:"SITECMS_DB_USER"`
	DBSSLMode string `env:"SITECMS_DB_SSLMODE"`

	// Optional analytics mirror.
	MongoURI      string `env:"SITECMS_MONGO_URI"`
	MongoDatabase string `env:"SITECMS_MONGO_DATABASE" envDefault:"sitecms"`

	SessionTimeout time.Duration `env:"SITECMS_SESSION_TIMEOUT" envDefault:"60m"`
	SessionWarning time.Duration `env:"SITECMS_SESSION_WARNING" envDefault:"5m"`

	RollupSchedule string `env:"SITECMS_ROLLUP_SCHEDULE" envDefault:"5 0 * * *"`
	SweepSchedule  string `env:"SITECMS_SWEEP_SCHEDULE" envDefault:"@every 5m"`

	EditorHistoryLimit int `env:"SITECMS_EDITOR_HISTORY_LIMIT" envDefault:"40"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch domain.DatabaseDriver(c.DBDriver) {
	case domain.DatabaseDriverSQLite, domain.DatabaseDriverPostgres, domain.DatabaseDriverMySQL:
	default:
		return fmt.Errorf("SITECMS_DB_DRIVER: unsupported driver %q", c.DBDriver)
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("SITECMS_SESSION_TIMEOUT must be positive")
	}
	if c.SessionWarning < 0 || c.SessionWarning >= c.SessionTimeout {
		return fmt.Errorf("SITECMS_SESSION_WARNING must be shorter than the session timeout")
	}
	if c.EditorHistoryLimit < 1 {
		return fmt.Errorf("SITECMS_EDITOR_HISTORY_LIMIT must be at least 1")
	}
	return nil
}

// DatabaseConnection describes the primary store. SQLite lives in the data
// directory unless a host path is given.
func (c Config) DatabaseConnection() domain.DatabaseConnection {
	conn := domain.DatabaseConnection{
		Name:     "primary",
		Driver:   domain.DatabaseDriver(c.DBDriver),
		Host:     c.DBHost,
		Port:     c.DBPort,
		Database: c.DBName,
		Username: c.DBUser,
		SSLMode:  c.DBSSLMode,
	}
	if conn.Driver == domain.DatabaseDriverSQLite && conn.Host == "" {
		conn.Host = filepath.Join(c.DataDir, "sitecms.db")
	}
	return conn
}

// MirrorConnection describes the MongoDB analytics mirror, if configured.
func (c Config) MirrorConnection() (domain.DatabaseConnection, bool) {
	if c.MongoURI == "" {
		return domain.DatabaseConnection{}, false
	}
	return domain.DatabaseConnection{
		Name:     "analytics-mirror",
		Driver:   domain.DatabaseDriverMongoDB,
		Host:     c.MongoURI,
		Database: c.MongoDatabase,
	}, true
}

func (c Config) BlobDir() string {
	return filepath.Join(c.DataDir, "files")
}

func (c Config) SecretsDir() string {
	return filepath.Join(c.DataDir, "secrets")
}
