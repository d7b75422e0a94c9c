package builtin

import (
	"context"

	"github.com/bjaus/crunch"
	"github.com/bjaus/crunch/fsio"
	"github.com/bjaus/crunch/jobfile"
	"github.com/bjaus/crunch/redisqueue"
	"github.com/bjaus/crunch/sqlstore"
)

// DefaultRedisURL is used when a redis.queue component has no url.
const DefaultRedisURL = "redis://localhost:6379/0"

// valuesSource: records = [...]
func valuesSource(_ context.Context, p jobfile.Params) (any, error) {
	if err := p.Require("records"); err != nil {
		return nil, err
	}
	records, err := p.Slice("records")
	if err != nil {
		return nil, err
	}
	return crunch.Slice(records...), nil
}

// fileSource: path (glob), format = jsonl|lines
func fileSource(_ context.Context, p jobfile.Params) (any, error) {
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
	return fsio.NewSource(path, format), nil
}

// sqlSource: driver, dsn, query, args
func sqlSource(ctx context.Context, p jobfile.Params) (any, error) {
	if err := p.Require("dsn", "query"); err != nil {
		return nil, err
	}
	driver, dsn, err := connParams(p)
	if err != nil {
		return nil, err
	}
	query, err := p.String("query")
	if err != nil {
		return nil, err
	}
	args, err := p.Slice("args")
	if err != nil {
		return nil, err
	}
	return sqlstore.OpenSource(ctx, driver, dsn, query, args...)
}

// redisSource: url, queue, codec, blocking, poll_timeout
func (c *config) redisSource(_ context.Context, p jobfile.Params) (any, error) {
	url, queue, opts, err := c.redisParams(p)
	if err != nil {
		return nil, err
	}
	blocking, err := p.Bool("blocking")
	if err != nil {
		return nil, err
	}
	poll, err := p.Duration("poll_timeout")
	if err != nil {
		return nil, err
	}
	opts = append(opts, redisqueue.WithBlocking(blocking), redisqueue.WithPollTimeout(poll))
	return redisqueue.DialReader(url, queue, opts...)
}

func (c *config) redisParams(p jobfile.Params) (string, string, []redisqueue.Option, error) {
	if err := p.Require("queue"); err != nil {
		return "", "", nil, err
	}
	url, err := p.StringOr("url", DefaultRedisURL)
	if err != nil {
		return "", "", nil, err
	}
	queue, err := p.String("queue")
	if err != nil {
		return "", "", nil, err
	}
	name, err := p.String("codec")
	if err != nil {
		return "", "", nil, err
	}
	codec, err := redisqueue.CodecByName(name)
	if err != nil {
		return "", "", nil, err
	}
	return url, queue, []redisqueue.Option{redisqueue.WithCodec(codec), redisqueue.WithLogger(c.logger)}, nil
}

func connParams(p jobfile.Params) (driver, dsn string, err error) {
	if driver, err = p.StringOr("driver", sqlstore.DriverSQLite); err != nil {
		return "", "", err
	}
	if dsn, err = p.String("dsn"); err != nil {
		return "", "", err
	}
	return driver, dsn, nil
}

func formatParam(p jobfile.Params) (fsio.Format, error) {
	name, err := p.String("format")
	if err != nil {
		return "", err
	}
	return fsio.ParseFormat(name)
}
