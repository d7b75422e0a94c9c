package builtin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bjaus/crunch"
	"github.com/bjaus/crunch/jobfile"
	"github.com/bjaus/crunch/sqlstore"
)

// logHook: message, level = debug|info|warn|error, fields = {...}
func (c *config) logHook(_ context.Context, p jobfile.Params) (any, error) {
	if err := p.Require("message"); err != nil {
		return nil, err
	}
	msg, err := p.String("message")
	if err != nil {
		return nil, err
	}
	levelName, err := p.StringOr("level", "info")
	if err != nil {
		return nil, err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return nil, fmt.Errorf("builtin: log: %w", err)
	}
	fields, err := p.StringMap("fields")
	if err != nil {
		return nil, err
	}

	attrs := make([]slog.Attr, 0, len(fields))
	for _, k := range sortedKeys(fields) {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}

	logger := c.logger
	return crunch.HookFunc(func(ctx context.Context) error {
		logger.LogAttrs(ctx, level, msg, attrs...)
		return nil
	}), nil
}

// sqlExecHook: driver, dsn, statement, args
func sqlExecHook(ctx context.Context, p jobfile.Params) (any, error) {
	if err := p.Require("dsn", "statement"); err != nil {
		return nil, err
	}
	driver, dsn, err := connParams(p)
	if err != nil {
		return nil, err
	}
	stmt, err := p.String("statement")
	if err != nil {
		return nil, err
	}
	args, err := p.Slice("args")
	if err != nil {
		return nil, err
	}
	return sqlstore.OpenExec(ctx, driver, dsn, stmt, args...)
}
