package storage

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"sitecms/internal/domain"
)

// Dialect captures the few places where SQLite, PostgreSQL and MySQL differ.
// Queries are written once with ? placeholders and type tokens in DDL.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

var ddlTypes = map[Dialect]*strings.Replacer{
	DialectSQLite: strings.NewReplacer(
		"{{id}}", "VARCHAR(64)", "{{str}}", "VARCHAR(255)", "{{text}}", "TEXT",
		"{{ts}}", "DATETIME", "{{bool}}", "BOOLEAN", "{{int}}", "INTEGER", "{{real}}", "REAL",
	),
	DialectPostgres: strings.NewReplacer(
		"{{id}}", "VARCHAR(64)", "{{str}}", "VARCHAR(255)", "{{text}}", "TEXT",
		"{{ts}}", "TIMESTAMPTZ", "{{bool}}", "BOOLEAN", "{{int}}", "INTEGER", "{{real}}", "DOUBLE PRECISION",
	),
	DialectMySQL: strings.NewReplacer(
		"{{id}}", "VARCHAR(64)", "{{str}}", "VARCHAR(255)", "{{text}}", "TEXT",
		"{{ts}}", "DATETIME(6)", "{{bool}}", "BOOLEAN", "{{int}}", "INT", "{{real}}", "DOUBLE",
	),
}

// MySQL rejects literal defaults on TEXT columns.
var textDefault = regexp.MustCompile(`\{\{text\}\}( NOT NULL)? DEFAULT '[^']*'`)

// DDL expands the type tokens of a migration statement.
func (d Dialect) DDL(stmt string) string {
	if d == DialectMySQL {
		stmt = textDefault.ReplaceAllString(stmt, "{{text}}$1")
		stmt = strings.Replace(stmt, "INDEX IF NOT EXISTS", "INDEX", 1)
	}
	return ddlTypes[d].Replace(stmt)
}

// Rebind rewrites ? placeholders to $n for PostgreSQL.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Upsert builds an insert that updates the update columns when a row with the
// same key already exists.
func (d Dialect) Upsert(table string, cols, key, update []string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), placeholders)

	sets := make([]string, len(update))
	if d == DialectMySQL {
		for i, c := range update {
			sets[i] = fmt.Sprintf("%s = VALUES(%s)", c, c)
		}
		return stmt + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	}
	for i, c := range update {
		sets[i] = fmt.Sprintf("%s = excluded.%s", c, c)
	}
	return stmt + fmt.Sprintf(" ON CONFLICT(%s) DO UPDATE SET %s", strings.Join(key, ", "), strings.Join(sets, ", "))
}

// ignorable reports whether a migration error means the change is already
// applied.
func (d Dialect) ignorable(stmt string, err error) bool {
	msg := strings.ToLower(err.Error())
	if strings.Contains(stmt, "ALTER TABLE") &&
		(strings.Contains(msg, "duplicate column") || strings.Contains(msg, "already exists")) {
		return true
	}
	return d == DialectMySQL && strings.Contains(msg, "duplicate key name")
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// translate maps driver errors onto domain errors.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errNoRows):
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", what, domain.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
