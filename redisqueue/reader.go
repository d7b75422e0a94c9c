package redisqueue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/bjaus/crunch"
)

var _ crunch.PartitionedSource = (*Reader)(nil)

// Reader is a source that pops records off the head of a Redis list.
type Reader struct {
	client Client
	owned  io.Closer
	queue  string
	cfg    config
}

// NewReader creates a reader on queue. The caller owns the client.
func NewReader(client Client, queue string, opts ...Option) (*Reader, error) {
	if client == nil {
		return nil, errors.New("crunch/redisqueue: client is nil")
	}
	if queue == "" {
		return nil, ErrNoQueue
	}
	return &Reader{client: client, queue: queue, cfg: newConfig(opts)}, nil
}

// DialReader connects to the Redis server at url and creates a reader on
// queue. The reader owns the connection; Close releases it.
func DialReader(url, queue string, opts ...Option) (*Reader, error) {
	if queue == "" {
		return nil, ErrNoQueue
	}
	client, err := dial(url)
	if err != nil {
		return nil, err
	}
	r, _ := NewReader(client, queue, opts...)
	r.owned = client
	return r, nil
}

// Records pops and decodes items until the queue is empty. In blocking mode
// it keeps waiting for new items and ends, without error, once ctx is done.
func (r *Reader) Records(ctx context.Context) iter.Seq2[crunch.Record, error] {
	return func(yield func(crunch.Record, error) bool) {
		for {
			payload, ok, err := r.pop(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			if !ok {
				return
			}
			v, err := r.cfg.codec.Decode([]byte(payload))
			if err != nil {
				err = fmt.Errorf("crunch/redisqueue: decode %s payload from %q: %w", r.cfg.codec.Name(), r.queue, err)
			}
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// pop returns the next payload. ok is false once the reader should stop.
func (r *Reader) pop(ctx context.Context) (payload string, ok bool, err error) {
	if !r.cfg.blocking {
		payload, err = r.client.LPop(ctx, r.queue).Result()
		switch {
		case errors.Is(err, redis.Nil):
			return "", false, nil
		case err != nil:
			return "", false, fmt.Errorf("crunch/redisqueue: lpop %q: %w", r.queue, err)
		}
		return payload, true, nil
	}

	for ctx.Err() == nil {
		res, err := r.client.BLPop(ctx, r.cfg.pollTimeout, r.queue).Result()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case ctx.Err() != nil:
			return "", false, nil
		case err != nil:
			return "", false, fmt.Errorf("crunch/redisqueue: blpop %q: %w", r.queue, err)
		}
		// BLPOP replies with [key, value].
		if len(res) == 2 {
			return res[1], true, nil
		}
	}
	r.cfg.logger.DebugContext(ctx, "queue reader stopped", slog.String("queue", r.queue))
	return "", false, nil
}

// Partition validates the worker options. Pops are atomic, so workers
// sharing a queue never see the same item and nothing else is needed.
func (r *Reader) Partition(total, index int) error {
	return crunch.ValidatePartition(total, index)
}

// Close releases the connection if the reader opened it.
func (r *Reader) Close() error { return closeOwned(r.owned) }

func (r *Reader) Name() string { return "redis.queue(" + r.queue + ")" }
