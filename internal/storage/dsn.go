package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"sitecms/internal/domain"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// driverFor resolves the database/sql driver name, DSN and dialect for conn.
// The password comes from the secret store, never from the connection record.
func driverFor(conn domain.DatabaseConnection, password string) (string, string, Dialect, error) {
	switch conn.Driver {
	case domain.DatabaseDriverSQLite, "":
		dsn, err := buildSQLiteDSN(conn)
		return "sqlite", dsn, DialectSQLite, err
	case domain.DatabaseDriverPostgres:
		return "postgres", buildPostgresDSN(conn, password), DialectPostgres, nil
	case domain.DatabaseDriverMySQL:
		return "mysql", buildMySQLDSN(conn, password), DialectMySQL, nil
	case domain.DatabaseDriverMongoDB:
		return "", "", "", fmt.Errorf("driver %s can only back the analytics mirror", conn.Driver)
	default:
		return "", "", "", fmt.Errorf("unsupported driver: %s", conn.Driver)
	}
}

// buildSQLiteDSN treats Host as the database file path and creates its
// directory.
func buildSQLiteDSN(conn domain.DatabaseConnection) (string, error) {
	path := conn.Host
	if path == "" {
		return "", fmt.Errorf("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create db directory: %w", err)
	}
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite", nil
}

func buildPostgresDSN(conn domain.DatabaseConnection, password string) string {
	port := conn.Port
	if port == 0 {
		port = 5432
	}
	sslMode := conn.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		conn.Host, port, conn.Username, password, conn.Database, sslMode,
	)
}

func buildMySQLDSN(conn domain.DatabaseConnection, password string) string {
	port := conn.Port
	if port == 0 {
		port = 3306
	}
	// parseTime makes DATETIME columns scan into time.Time; clientFoundRows
	// reports matched rather than changed rows on UPDATE.
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC&clientFoundRows=true",
		conn.Username, password, conn.Host, port, conn.Database,
	)
	if conn.SSLMode == "require" {
		dsn += "&tls=true"
	}
	return dsn
}
