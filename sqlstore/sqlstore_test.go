package sqlstore_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bjaus/crunch"
	"github.com/bjaus/crunch/sqlstore"
)

func openDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlstore.Open(context.Background(), "sqlite3", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, dsn
}

func seedUsers(t *testing.T, db *sql.DB, n int) {
	t.Helper()
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)
	for i := 1; i <= n; i++ {
		_, err := db.ExecContext(ctx, `INSERT INTO users (id, name) VALUES (?, ?)`, i, "user")
		require.NoError(t, err)
	}
}

func readAll(t *testing.T, src crunch.Source) []crunch.Record {
	t.Helper()
	var out []crunch.Record
	for r, err := range src.Records(context.Background()) {
		require.NoError(t, err)
		out = append(out, r)
	}
	return out
}

// =============================================================================
// Source
// =============================================================================

func TestSource_YieldsRowsAsMaps(t *testing.T) {
	db, _ := openDB(t)
	seedUsers(t, db, 2)

	src := sqlstore.NewSource(db, `SELECT id, name FROM users ORDER BY id`)
	require.Equal(t, []crunch.Record{
		map[string]any{"id": int64(1), "name": "user"},
		map[string]any{"id": int64(2), "name": "user"},
	}, readAll(t, src))
}

func TestSource_QueryArgs(t *testing.T) {
	db, _ := openDB(t)
	seedUsers(t, db, 5)

	src := sqlstore.NewSource(db, `SELECT id FROM users WHERE id > ? ORDER BY id`, 3)
	require.Len(t, readAll(t, src), 2)
}

func TestSource_PartitionsAreCompleteAndExclusive(t *testing.T) {
	db, _ := openDB(t)
	seedUsers(t, db, 10)

	seen := make(map[int64]int)
	for index := range 3 {
		src := sqlstore.NewSource(db, `SELECT id FROM users ORDER BY id`)
		require.NoError(t, src.Partition(3, index))
		for _, r := range readAll(t, src) {
			seen[r.(map[string]any)["id"].(int64)]++
		}
	}

	require.Len(t, seen, 10)
	for id, n := range seen {
		require.Equal(t, 1, n, "row %d", id)
	}
}

func TestSource_InvalidPartition(t *testing.T) {
	db, _ := openDB(t)
	src := sqlstore.NewSource(db, `SELECT 1`)
	require.ErrorIs(t, src.Partition(2, 2), crunch.ErrConfiguration)
}

func TestSource_QueryError(t *testing.T) {
	db, _ := openDB(t)
	src := sqlstore.NewSource(db, `SELECT * FROM missing`)
	for _, err := range src.Records(context.Background()) {
		require.ErrorContains(t, err, "crunch/sqlstore: query")
	}
}

func TestOpenSource_OwnsConnection(t *testing.T) {
	db, dsn := openDB(t)
	seedUsers(t, db, 1)

	src, err := sqlstore.OpenSource(context.Background(), "sqlite", dsn, `SELECT name FROM users`)
	require.NoError(t, err)
	require.Equal(t, []crunch.Record{map[string]any{"name": "user"}}, readAll(t, src))
	require.NoError(t, src.Close())
}

// =============================================================================
// Table
// =============================================================================

func TestTable_InsertsRecordsAndBatches(t *testing.T) {
	db, _ := openDB(t)
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `CREATE TABLE out (id INTEGER, name TEXT, tags TEXT)`)
	require.NoError(t, err)

	table, err := sqlstore.NewTable(db, "out")
	require.NoError(t, err)

	require.NoError(t, table.Write(ctx, map[string]any{"id": 1, "name": "a", "tags": []any{"x"}}))
	require.NoError(t, table.Write(ctx, []crunch.Record{
		map[string]any{"id": 2, "name": "b", "tags": nil},
		map[string]any{"id": 3, "name": "c", "tags": nil, "ignored": true},
	}))
	require.NoError(t, table.Close())

	got := readAll(t, sqlstore.NewSource(db, `SELECT id, name, tags FROM out ORDER BY id`))
	require.Equal(t, []crunch.Record{
		map[string]any{"id": int64(1), "name": "a", "tags": `["x"]`},
		map[string]any{"id": int64(2), "name": "b", "tags": nil},
		map[string]any{"id": int64(3), "name": "c", "tags": nil},
	}, got)
}

func TestTable_WithColumnsInsertsNullForMissingKeys(t *testing.T) {
	db, _ := openDB(t)
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `CREATE TABLE out (id INTEGER, name TEXT)`)
	require.NoError(t, err)

	table, err := sqlstore.NewTable(db, "out", sqlstore.WithColumns("id", "name"))
	require.NoError(t, err)
	require.NoError(t, table.Write(ctx, map[string]any{"id": 7}))

	got := readAll(t, sqlstore.NewSource(db, `SELECT id, name FROM out`))
	require.Equal(t, []crunch.Record{map[string]any{"id": int64(7), "name": nil}}, got)
}

func TestTable_BatchRollsBackOnError(t *testing.T) {
	db, _ := openDB(t)
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `CREATE TABLE out (id INTEGER)`)
	require.NoError(t, err)

	table, err := sqlstore.NewTable(db, "out")
	require.NoError(t, err)

	err = table.Write(ctx, []crunch.Record{map[string]any{"id": 1}, "not a map"})
	require.ErrorContains(t, err, "want map[string]any")

	require.Empty(t, readAll(t, sqlstore.NewSource(db, `SELECT id FROM out`)))
}

func TestTable_InsertError(t *testing.T) {
	db, _ := openDB(t)
	table, err := sqlstore.NewTable(db, "missing")
	require.NoError(t, err)

	err = table.Write(context.Background(), map[string]any{"id": 1})
	require.ErrorContains(t, err, "insert into missing")
}

func TestNewTable_Validation(t *testing.T) {
	_, err := sqlstore.NewTable(nil, "out")
	require.Error(t, err)

	db, _ := openDB(t)
	_, err = sqlstore.NewTable(db, "")
	require.Error(t, err)
}

func TestOpenTable_OwnsConnection(t *testing.T) {
	db, dsn := openDB(t)
	_, err := db.ExecContext(context.Background(), `CREATE TABLE out (id INTEGER)`)
	require.NoError(t, err)

	table, err := sqlstore.OpenTable(context.Background(), "sqlite", dsn, "out")
	require.NoError(t, err)
	require.Equal(t, "sql.table(out)", table.Name())
	require.NoError(t, table.Write(context.Background(), map[string]any{"id": 1}))
	require.NoError(t, table.Close())

	require.Len(t, readAll(t, sqlstore.NewSource(db, `SELECT id FROM out`)), 1)
}

// =============================================================================
// Exec
// =============================================================================

func TestExec_RunsStatement(t *testing.T) {
	db, _ := openDB(t)
	hook := sqlstore.NewExec(db, `CREATE TABLE created (id INTEGER)`)
	require.NoError(t, hook.Run(context.Background()))
	require.NoError(t, hook.Close())

	_, err := db.ExecContext(context.Background(), `INSERT INTO created (id) VALUES (1)`)
	require.NoError(t, err)

	err = hook.Run(context.Background())
	require.ErrorContains(t, err, "crunch/sqlstore: exec")
}

// =============================================================================
// Helpers
// =============================================================================

func TestDriverName(t *testing.T) {
	tests := map[string]string{
		"sqlite":     sqlstore.DriverSQLite,
		"SQLite3":    sqlstore.DriverSQLite,
		"postgres":   sqlstore.DriverPostgres,
		"postgresql": sqlstore.DriverPostgres,
		"pgx":        sqlstore.DriverPostgres,
		"mysql":      "mysql",
	}
	for in, want := range tests {
		require.Equal(t, want, sqlstore.DriverName(in), in)
	}
}

func TestPlaceholderFor(t *testing.T) {
	require.Equal(t, "$3", sqlstore.PlaceholderFor("postgres")(3))
	require.Equal(t, "?", sqlstore.PlaceholderFor("sqlite")(3))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := sqlstore.Open(context.Background(), "nope", "")
	require.ErrorContains(t, err, "crunch/sqlstore: open nope")
}

func busyTimeout(t *testing.T, conn *sql.Conn) int {
	t.Helper()
	var ms int
	require.NoError(t, conn.QueryRowContext(context.Background(), `PRAGMA busy_timeout`).Scan(&ms))
	return ms
}

func TestOpen_BusyTimeoutOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	db, _ := openDB(t)

	// Hold the first connection so the pool has to open a second one.
	first, err := db.Conn(ctx)
	require.NoError(t, err)
	defer first.Close()
	second, err := db.Conn(ctx)
	require.NoError(t, err)
	defer second.Close()

	require.Equal(t, sqlstore.SQLiteBusyTimeout, busyTimeout(t, first))
	require.Equal(t, sqlstore.SQLiteBusyTimeout, busyTimeout(t, second))
}

func TestOpen_BusyTimeoutFromDSN(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(250)"
	db, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, dsn)
	require.NoError(t, err)
	defer db.Close()

	conn, err := db.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()
	require.Equal(t, 250, busyTimeout(t, conn))
}
