package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bjaus/crunch"
)

var _ crunch.Hook = (*Exec)(nil)

// Exec is a hook that runs one SQL statement, typically to prepare a target
// table before a run or to swap it into place afterwards.
type Exec struct {
	db        *sql.DB
	owned     bool
	statement string
	args      []any
}

// NewExec creates a hook running statement against db. The caller owns db.
func NewExec(db *sql.DB, statement string, args ...any) *Exec {
	return &Exec{db: db, statement: statement, args: args}
}

// OpenExec connects with [Open] and creates a hook that owns the connection.
func OpenExec(ctx context.Context, driver, dsn, statement string, args ...any) (*Exec, error) {
	db, err := Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	e := NewExec(db, statement, args...)
	e.owned = true
	return e, nil
}

func (e *Exec) Run(ctx context.Context) error {
	if _, err := e.db.ExecContext(ctx, e.statement, e.args...); err != nil {
		return fmt.Errorf("crunch/sqlstore: exec: %w", err)
	}
	return nil
}

// Close releases the connection if the hook opened it.
func (e *Exec) Close() error {
	if !e.owned {
		return nil
	}
	return e.db.Close()
}

func (e *Exec) Name() string { return "sql.exec" }
