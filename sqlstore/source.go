package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"iter"

	"github.com/bjaus/crunch"
)

var _ crunch.PartitionedSource = (*Source)(nil)

// Source yields the rows of a query as map[string]any records keyed by
// column name. Byte columns are returned as strings.
//
// With several workers, each worker runs the same query and keeps the rows
// whose position modulo the worker count equals its index. The query must
// therefore return rows in a stable order (use ORDER BY).
type Source struct {
	db    *sql.DB
	owned bool
	query string
	args  []any

	total int
	index int
}

// NewSource creates a source running query against db. The caller owns db.
func NewSource(db *sql.DB, query string, args ...any) *Source {
	return &Source{db: db, query: query, args: args, total: 1}
}

// OpenSource connects with [Open] and creates a source that owns the
// connection; Close releases it.
func OpenSource(ctx context.Context, driver, dsn, query string, args ...any) (*Source, error) {
	db, err := Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	s := NewSource(db, query, args...)
	s.owned = true
	return s, nil
}

func (s *Source) Records(ctx context.Context) iter.Seq2[crunch.Record, error] {
	return func(yield func(crunch.Record, error) bool) {
		rows, err := s.db.QueryContext(ctx, s.query, s.args...)
		if err != nil {
			yield(nil, fmt.Errorf("crunch/sqlstore: query: %w", err))
			return
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			yield(nil, fmt.Errorf("crunch/sqlstore: columns: %w", err))
			return
		}

		for pos := 0; rows.Next(); pos++ {
			if s.total > 1 && pos%s.total != s.index {
				continue
			}
			rec, err := scanRow(rows, cols)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("crunch/sqlstore: rows: %w", err))
		}
	}
}

func scanRow(rows *sql.Rows, cols []string) (map[string]any, error) {
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("crunch/sqlstore: scan: %w", err)
	}

	rec := make(map[string]any, len(cols))
	for i, col := range cols {
		if b, ok := values[i].([]byte); ok {
			rec[col] = string(b)
			continue
		}
		rec[col] = values[i]
	}
	return rec, nil
}

// Partition restricts the source to worker index of total.
func (s *Source) Partition(total, index int) error {
	if err := crunch.ValidatePartition(total, index); err != nil {
		return err
	}
	s.total, s.index = total, index
	return nil
}

// Close releases the connection if the source opened it.
func (s *Source) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func (s *Source) Name() string { return "sql.query" }
