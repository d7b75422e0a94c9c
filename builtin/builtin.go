// Package builtin registers the stock components available to job files.
//
// Sources: values, file, sql.query, redis.queue.
// Transformations: identity, pick, rename, set, where.
// Destinations: stdout, file, sql.table, redis.queue.
// Hooks: log, sql.exec.
//
// Record-shaping transformations work on map[string]any records and apply
// element-wise to batches emitted by buffers.
package builtin

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/bjaus/crunch/jobfile"
)

// Option configures the registered components.
type Option func(*config)

type config struct {
	stdout io.Writer
	logger *slog.Logger
}

// WithStdout redirects the stdout destination.
func WithStdout(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.stdout = w
		}
	}
}

// WithLogger sets the logger used by the log hook and the redis reader.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Register adds every builtin component to r.
func Register(r *jobfile.Registry, opts ...Option) error {
	cfg := &config{stdout: os.Stdout, logger: slog.Default()}
	for _, o := range opts {
		o(cfg)
	}

	var errs []error
	add := func(kind jobfile.Kind, name string, f jobfile.Factory) {
		errs = append(errs, r.Register(kind, name, f))
	}

	add(jobfile.KindSource, "values", valuesSource)
	add(jobfile.KindSource, "file", fileSource)
	add(jobfile.KindSource, "sql.query", sqlSource)
	add(jobfile.KindSource, "redis.queue", cfg.redisSource)

	add(jobfile.KindTransformation, "identity", identity)
	add(jobfile.KindTransformation, "pick", pick)
	add(jobfile.KindTransformation, "rename", rename)
	add(jobfile.KindTransformation, "set", set)
	add(jobfile.KindTransformation, "where", where)

	add(jobfile.KindDestination, "stdout", cfg.stdoutDestination)
	add(jobfile.KindDestination, "file", fileDestination)
	add(jobfile.KindDestination, "sql.table", sqlDestination)
	add(jobfile.KindDestination, "redis.queue", cfg.redisDestination)

	add(jobfile.KindHook, "log", cfg.logHook)
	add(jobfile.KindHook, "sql.exec", sqlExecHook)

	return errors.Join(errs...)
}

// Registry returns a new registry holding every builtin component.
func Registry(opts ...Option) *jobfile.Registry {
	r := jobfile.NewRegistry()
	if err := Register(r, opts...); err != nil {
		panic(err)
	}
	return r
}
