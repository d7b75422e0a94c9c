// Package sqlstore provides a database/sql backed source, destination and
// hook. SQLite (modernc.org/sqlite) and PostgreSQL (pgx) drivers are
// registered by importing the package.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Placeholder renders the bind parameter for the i-th (1-based) argument.
type Placeholder func(i int) string

// Question renders "?" placeholders (SQLite, MySQL).
func Question(int) string { return "?" }

// Dollar renders "$1", "$2", ... placeholders (PostgreSQL).
func Dollar(i int) string { return "$" + strconv.Itoa(i) }

// DriverName normalizes common aliases to a registered driver name.
func DriverName(driver string) string {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return DriverSQLite
	case "pgx", "postgres", "postgresql":
		return DriverPostgres
	default:
		return driver
	}
}

// PlaceholderFor returns the placeholder style of driver.
func PlaceholderFor(driver string) Placeholder {
	if DriverName(driver) == DriverPostgres {
		return Dollar
	}
	return Question
}

// SQLiteBusyTimeout is how long, in milliseconds, a SQLite connection waits
// for a lock held by another connection or process.
const SQLiteBusyTimeout = 5000

// Open connects to dsn with driver and verifies the connection. Every SQLite
// connection in the pool gets a busy timeout so several workers can share one
// file, unless dsn already sets one.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	driver = DriverName(driver)
	if driver == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("crunch/sqlstore: open %s: %w", driver, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("crunch/sqlstore: ping %s: %w", driver, err)
	}
	return db, nil
}

// sqliteDSN adds the busy timeout pragma to dsn. modernc.org/sqlite applies
// _pragma parameters to each new connection.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(" + strconv.Itoa(SQLiteBusyTimeout) + ")"
}

// quoteIdent quotes a possibly schema-qualified identifier.
func quoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

// sqlValue converts a record field into a bindable value. Nested objects and
// lists are stored as JSON text.
func sqlValue(v any) (any, error) {
	switch v.(type) {
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	default:
		return v, nil
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
