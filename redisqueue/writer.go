package redisqueue

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bjaus/crunch"
)

var _ crunch.Destination = (*Writer)(nil)

// Writer is a destination that appends records to the tail of a Redis list.
// A batch ([]crunch.Record) is pushed as one item per element in a single
// RPUSH.
type Writer struct {
	client Client
	owned  io.Closer
	queue  string
	cfg    config
}

// NewWriter creates a writer on queue. The caller owns the client and Close
// leaves it open.
func NewWriter(client Client, queue string, opts ...Option) (*Writer, error) {
	if client == nil {
		return nil, errors.New("crunch/redisqueue: client is nil")
	}
	if queue == "" {
		return nil, ErrNoQueue
	}
	return &Writer{client: client, queue: queue, cfg: newConfig(opts)}, nil
}

// DialWriter connects to the Redis server at url and creates a writer on
// queue. Close releases the connection.
func DialWriter(url, queue string, opts ...Option) (*Writer, error) {
	if queue == "" {
		return nil, ErrNoQueue
	}
	client, err := dial(url)
	if err != nil {
		return nil, err
	}
	w, _ := NewWriter(client, queue, opts...)
	w.owned = client
	return w, nil
}

func (w *Writer) Write(ctx context.Context, r crunch.Record) error {
	items := []crunch.Record{r}
	if batch, ok := r.([]crunch.Record); ok {
		items = batch
	}

	values := make([]any, 0, len(items))
	for _, item := range items {
		data, err := w.cfg.codec.Encode(item)
		if err != nil {
			return fmt.Errorf("crunch/redisqueue: encode %s payload for %q: %w", w.cfg.codec.Name(), w.queue, err)
		}
		values = append(values, data)
	}
	if len(values) == 0 {
		return nil
	}

	if err := w.client.RPush(ctx, w.queue, values...).Err(); err != nil {
		return fmt.Errorf("crunch/redisqueue: rpush %q: %w", w.queue, err)
	}
	return nil
}

// Close releases the connection if the writer opened it.
func (w *Writer) Close() error { return closeOwned(w.owned) }

func (w *Writer) Name() string { return "redis.queue(" + w.queue + ")" }
