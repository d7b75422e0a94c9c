package redisqueue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPollTimeout bounds a single BLPOP call in blocking mode. Between
// calls the reader checks its context.
const DefaultPollTimeout = time.Second

// ErrNoQueue is returned when a reader or writer is created without a queue name.
var ErrNoQueue = errors.New("crunch/redisqueue: queue name is required")

// Client is the subset of Redis commands the queue needs. *redis.Client,
// *redis.ClusterClient and every redis.Cmdable satisfy it.
type Client interface {
	LPop(ctx context.Context, key string) *redis.StringCmd
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	RPush(ctx context.Context, key string, values ...any) *redis.IntCmd
}

// Option configures a Reader or a Writer.
type Option func(*config)

type config struct {
	codec       Codec
	blocking    bool
	pollTimeout time.Duration
	logger      *slog.Logger
}

func newConfig(opts []Option) config {
	c := config{
		codec:       JSONCodec{},
		pollTimeout: DefaultPollTimeout,
		logger:      slog.Default(),
	}
	for _, o := range opts {
		o(&c)
	}
	return c
}

// WithCodec sets the payload codec. The default is JSON.
func WithCodec(c Codec) Option {
	return func(cfg *config) {
		if c != nil {
			cfg.codec = c
		}
	}
}

// WithBlocking makes a Reader wait for new items instead of stopping when
// the queue is empty. The reader then runs until its context is cancelled.
// Ignored by writers.
func WithBlocking(blocking bool) Option {
	return func(cfg *config) { cfg.blocking = blocking }
}

// WithPollTimeout sets how long one BLPOP call may block. Ignored unless
// blocking.
func WithPollTimeout(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.pollTimeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// dial opens a client for a redis:// or rediss:// URL.
func dial(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("crunch/redisqueue: parse url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func closeOwned(c io.Closer) error {
	if c == nil {
		return nil
	}
	if err := c.Close(); err != nil {
		return fmt.Errorf("crunch/redisqueue: close client: %w", err)
	}
	return nil
}
