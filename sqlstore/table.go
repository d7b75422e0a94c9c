package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/bjaus/crunch"
)

var _ crunch.Destination = (*Table)(nil)

// Table is a destination that inserts map[string]any records as rows. A
// batch ([]crunch.Record) is inserted in a single transaction.
//
// Columns are fixed by [WithColumns] or, without it, taken from the sorted
// keys of the first record written. Keys outside the column set are ignored
// and missing keys insert NULL.
type Table struct {
	db          *sql.DB
	owned       bool
	table       string
	columns     []string
	placeholder Placeholder
	insert      string
}

// TableOption configures a Table.
type TableOption func(*Table)

// WithColumns fixes the inserted columns.
func WithColumns(cols ...string) TableOption {
	return func(t *Table) { t.columns = cols }
}

// WithPlaceholder sets the bind parameter style. The default is [Question].
func WithPlaceholder(p Placeholder) TableOption {
	return func(t *Table) {
		if p != nil {
			t.placeholder = p
		}
	}
}

// NewTable creates a destination inserting into table. The caller owns db.
func NewTable(db *sql.DB, table string, opts ...TableOption) (*Table, error) {
	if db == nil {
		return nil, errors.New("crunch/sqlstore: db is nil")
	}
	if table == "" {
		return nil, errors.New("crunch/sqlstore: table name is required")
	}
	t := &Table{db: db, table: table, placeholder: Question}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// OpenTable connects with [Open] and creates a table destination that owns
// the connection. The placeholder style follows the driver unless
// overridden.
func OpenTable(ctx context.Context, driver, dsn, table string, opts ...TableOption) (*Table, error) {
	db, err := Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	opts = append([]TableOption{WithPlaceholder(PlaceholderFor(driver))}, opts...)
	t, err := NewTable(db, table, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	t.owned = true
	return t, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (t *Table) Write(ctx context.Context, r crunch.Record) error {
	batch, ok := r.([]crunch.Record)
	if !ok {
		return t.insertRow(ctx, t.db, r)
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("crunch/sqlstore: begin: %w", err)
	}
	for _, row := range batch {
		if err := t.insertRow(ctx, tx, row); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("crunch/sqlstore: commit: %w", err)
	}
	return nil
}

func (t *Table) insertRow(ctx context.Context, db execer, r crunch.Record) error {
	row, ok := r.(map[string]any)
	if !ok {
		return fmt.Errorf("crunch/sqlstore: %s: record is %T, want map[string]any", t.table, r)
	}

	if t.insert == "" {
		if len(t.columns) == 0 {
			t.columns = sortedKeys(row)
		}
		t.insert = t.insertStatement()
	}

	args := make([]any, len(t.columns))
	for i, col := range t.columns {
		v, err := sqlValue(row[col])
		if err != nil {
			return fmt.Errorf("crunch/sqlstore: %s.%s: %w", t.table, col, err)
		}
		args[i] = v
	}

	if _, err := db.ExecContext(ctx, t.insert, args...); err != nil {
		return fmt.Errorf("crunch/sqlstore: insert into %s: %w", t.table, err)
	}
	return nil
}

func (t *Table) insertStatement() string {
	cols := make([]string, len(t.columns))
	params := make([]string, len(t.columns))
	for i, col := range t.columns {
		cols[i] = quoteIdent(col)
		params[i] = t.placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(t.table), strings.Join(cols, ", "), strings.Join(params, ", "))
}

// Close releases the connection if the table opened it.
func (t *Table) Close() error {
	if !t.owned {
		return nil
	}
	return t.db.Close()
}

func (t *Table) Name() string { return "sql.table(" + t.table + ")" }
