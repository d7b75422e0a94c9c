package builtin

import (
	"context"

	"github.com/bjaus/crunch/fsio"
	"github.com/bjaus/crunch/jobfile"
	"github.com/bjaus/crunch/redisqueue"
	"github.com/bjaus/crunch/sqlstore"
)

// stdoutDestination: format = jsonl|lines
func (c *config) stdoutDestination(_ context.Context, p jobfile.Params) (any, error) {
	format, err := formatParam(p)
	if err != nil {
		return nil, err
	}
	return fsio.NewStreamWriter(c.stdout, format), nil
}

// fileDestination: path, format
func fileDestination(_ context.Context, p jobfile.Params) (any, error) {
	if err := p.Require("path"); err != nil {
		return nil, err
	}
	path, err := p.String("path")
	if err != nil {
		return nil, err
	}
	format, err := formatParam(p)
	if err != nil {
		return nil, err
	}
	return fsio.OpenWriter(path, format)
}

// sqlDestination: driver, dsn, table, columns
func sqlDestination(ctx context.Context, p jobfile.Params) (any, error) {
	if err := p.Require("dsn", "table"); err != nil {
		return nil, err
	}
	driver, dsn, err := connParams(p)
	if err != nil {
		return nil, err
	}
	table, err := p.String("table")
	if err != nil {
		return nil, err
	}
	columns, err := p.StringSlice("columns")
	if err != nil {
		return nil, err
	}

	var opts []sqlstore.TableOption
	if len(columns) > 0 {
		opts = append(opts, sqlstore.WithColumns(columns...))
	}
	return sqlstore.OpenTable(ctx, driver, dsn, table, opts...)
}

// redisDestination: url, queue, codec
func (c *config) redisDestination(_ context.Context, p jobfile.Params) (any, error) {
	url, queue, opts, err := c.redisParams(p)
	if err != nil {
		return nil, err
	}
	return redisqueue.DialWriter(url, queue, opts...)
}
