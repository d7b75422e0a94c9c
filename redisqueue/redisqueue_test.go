package redisqueue_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/crunch"
	"github.com/bjaus/crunch/redisqueue"
	"github.com/bjaus/crunch/sqlstore"
)

// fakeClient is an in-memory list keyed by queue name.
type fakeClient struct {
	lists   map[string][]string
	blpops  int
	pushErr error
	popErr  error
	onBLPop func()
}

func newFakeClient() *fakeClient {
	return &fakeClient{lists: make(map[string][]string)}
}

func (f *fakeClient) LPop(_ context.Context, key string) *redis.StringCmd {
	if f.popErr != nil {
		return redis.NewStringResult("", f.popErr)
	}
	items := f.lists[key]
	if len(items) == 0 {
		return redis.NewStringResult("", redis.Nil)
	}
	f.lists[key] = items[1:]
	return redis.NewStringResult(items[0], nil)
}

func (f *fakeClient) BLPop(ctx context.Context, _ time.Duration, keys ...string) *redis.StringSliceCmd {
	f.blpops++
	if f.onBLPop != nil {
		f.onBLPop()
	}
	if err := ctx.Err(); err != nil {
		return redis.NewStringSliceResult(nil, err)
	}
	key := keys[0]
	items := f.lists[key]
	if len(items) == 0 {
		return redis.NewStringSliceResult(nil, redis.Nil)
	}
	f.lists[key] = items[1:]
	return redis.NewStringSliceResult([]string{key, items[0]}, nil)
}

func (f *fakeClient) RPush(_ context.Context, key string, values ...any) *redis.IntCmd {
	if f.pushErr != nil {
		return redis.NewIntResult(0, f.pushErr)
	}
	for _, v := range values {
		f.lists[key] = append(f.lists[key], string(v.([]byte)))
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func drain(ctx context.Context, t *testing.T, src crunch.Source) ([]crunch.Record, error) {
	t.Helper()
	var out []crunch.Record
	for r, err := range src.Records(ctx) {
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}

// =============================================================================
// Reader
// =============================================================================

func TestReader_DrainsUntilEmpty(t *testing.T) {
	client := newFakeClient()
	client.lists["in"] = []string{`{"id":1}`, `"two"`, `3`}

	r, err := redisqueue.NewReader(client, "in")
	require.NoError(t, err)

	got, err := drain(context.Background(), t, r)
	require.NoError(t, err)
	require.Equal(t, []crunch.Record{map[string]any{"id": float64(1)}, "two", float64(3)}, got)
	require.Empty(t, client.lists["in"])
}

func TestReader_EmptyQueue(t *testing.T) {
	r, err := redisqueue.NewReader(newFakeClient(), "in")
	require.NoError(t, err)

	got, err := drain(context.Background(), t, r)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestReader_DecodeError(t *testing.T) {
	client := newFakeClient()
	client.lists["in"] = []string{`{"id":1}`, `not json`, `{"id":3}`}

	r, err := redisqueue.NewReader(client, "in")
	require.NoError(t, err)

	got, err := drain(context.Background(), t, r)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode json payload")
	require.Len(t, got, 1)
	require.Equal(t, []string{`{"id":3}`}, client.lists["in"], "reader stops at the bad item")
}

func TestReader_PopError(t *testing.T) {
	client := newFakeClient()
	client.popErr = errors.New("connection refused")

	r, err := redisqueue.NewReader(client, "in")
	require.NoError(t, err)

	_, err = drain(context.Background(), t, r)
	require.ErrorContains(t, err, "connection refused")
}

func TestReader_BlockingRunsUntilCancelled(t *testing.T) {
	client := newFakeClient()
	client.lists["in"] = []string{`1`, `2`}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Two empty polls after the items are gone, then stop.
	client.onBLPop = func() {
		if client.blpops == 5 {
			cancel()
		}
	}

	r, err := redisqueue.NewReader(client, "in",
		redisqueue.WithBlocking(true),
		redisqueue.WithPollTimeout(time.Millisecond),
	)
	require.NoError(t, err)

	got, err := drain(ctx, t, r)
	require.NoError(t, err)
	require.Equal(t, []crunch.Record{float64(1), float64(2)}, got)
	require.Equal(t, 5, client.blpops)
}

func TestReader_InterruptedPipelineWritesBufferedRecords(t *testing.T) {
	client := newFakeClient()
	client.lists["in"] = []string{`{"id":1}`, `{"id":2}`, `{"id":3}`}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One empty poll after the items are gone, then the signal arrives.
	client.onBLPop = func() {
		if client.blpops == 5 {
			cancel()
		}
	}

	reader, err := redisqueue.NewReader(client, "in",
		redisqueue.WithBlocking(true),
		redisqueue.WithPollTimeout(time.Millisecond),
	)
	require.NoError(t, err)

	dsn := filepath.Join(t.TempDir(), "out.db")
	db, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.ExecContext(context.Background(), `CREATE TABLE out (id INTEGER)`)
	require.NoError(t, err)

	table, err := sqlstore.OpenTable(context.Background(), sqlstore.DriverSQLite, dsn, "out")
	require.NoError(t, err)

	identity := crunch.TransformFunc(func(_ context.Context, r crunch.Record) (crunch.Record, error) { return r, nil })
	job := crunch.NewJob("interrupted", nil)
	require.NoError(t, job.AddSource(reader))
	require.NoError(t, job.AddTransformation(identity, crunch.WithBuffer(10)))
	require.NoError(t, job.AddDestination(table))

	p, err := crunch.New(job, crunch.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	require.NoError(t, p.Run(ctx))

	var rows int
	require.NoError(t, db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM out`).Scan(&rows))
	require.Equal(t, 3, rows, "records popped before the interrupt are written")
	require.Empty(t, client.lists["in"])

	err = table.Write(context.Background(), map[string]any{"id": 4})
	require.Error(t, err, "the table's connection is closed at the end of the run")
}

func TestReader_Partition(t *testing.T) {
	r, err := redisqueue.NewReader(newFakeClient(), "in")
	require.NoError(t, err)

	require.NoError(t, r.Partition(3, 2))
	require.ErrorIs(t, r.Partition(3, 3), crunch.ErrConfiguration)
}

func TestReader_WorkersShareQueueExactlyOnce(t *testing.T) {
	client := newFakeClient()
	client.lists["in"] = []string{`1`, `2`, `3`, `4`}

	// Workers interleave pops on the same list; together they see every item once.
	w0, err := redisqueue.NewReader(client, "in")
	require.NoError(t, err)
	w1, err := redisqueue.NewReader(client, "in")
	require.NoError(t, err)
	require.NoError(t, w0.Partition(2, 0))
	require.NoError(t, w1.Partition(2, 1))

	var seen []crunch.Record
	for r, err := range w0.Records(context.Background()) {
		require.NoError(t, err)
		seen = append(seen, r)
		if len(seen) == 2 {
			break
		}
	}
	rest, err := drain(context.Background(), t, w1)
	require.NoError(t, err)
	seen = append(seen, rest...)

	require.ElementsMatch(t, []crunch.Record{float64(1), float64(2), float64(3), float64(4)}, seen)
}

func TestNewReader_Validation(t *testing.T) {
	_, err := redisqueue.NewReader(newFakeClient(), "")
	require.ErrorIs(t, err, redisqueue.ErrNoQueue)

	_, err = redisqueue.NewReader(nil, "in")
	require.Error(t, err)

	_, err = redisqueue.DialReader("redis://localhost:6379/0", "")
	require.ErrorIs(t, err, redisqueue.ErrNoQueue)

	_, err = redisqueue.DialReader("://bad", "in")
	require.Error(t, err)
}

func TestDialReader_OwnsClient(t *testing.T) {
	// Connecting is lazy, so no server is needed to build and close the reader.
	r, err := redisqueue.DialReader("redis://localhost:6379/0", "in")
	require.NoError(t, err)
	require.Equal(t, "redis.queue(in)", r.Name())
	require.NoError(t, r.Close())
}

// =============================================================================
// Writer
// =============================================================================

func TestWriter_PushesEncodedRecords(t *testing.T) {
	client := newFakeClient()
	w, err := redisqueue.NewWriter(client, "out")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.Write(ctx, map[string]any{"id": 1}))
	require.NoError(t, w.Write(ctx, "plain"))
	require.NoError(t, w.Close())

	require.Equal(t, []string{`{"id":1}`, `"plain"`}, client.lists["out"])
}

func TestWriter_BatchPushesEachElement(t *testing.T) {
	client := newFakeClient()
	w, err := redisqueue.NewWriter(client, "out")
	require.NoError(t, err)

	require.NoError(t, w.Write(context.Background(), []crunch.Record{1, 2, 3}))
	require.Equal(t, []string{`1`, `2`, `3`}, client.lists["out"])
}

func TestWriter_PushError(t *testing.T) {
	client := newFakeClient()
	client.pushErr = errors.New("READONLY")
	w, err := redisqueue.NewWriter(client, "out")
	require.NoError(t, err)

	err = w.Write(context.Background(), 1)
	require.ErrorContains(t, err, "READONLY")
	require.ErrorContains(t, err, `rpush "out"`)
}

func TestWriterReader_Msgpack(t *testing.T) {
	client := newFakeClient()
	codec := redisqueue.WithCodec(redisqueue.MsgpackCodec{})

	w, err := redisqueue.NewWriter(client, "q", codec)
	require.NoError(t, err)
	require.NoError(t, w.Write(context.Background(), map[string]any{"name": "ada"}))

	r, err := redisqueue.NewReader(client, "q", codec)
	require.NoError(t, err)
	got, err := drain(context.Background(), t, r)
	require.NoError(t, err)
	require.Equal(t, []crunch.Record{map[string]any{"name": "ada"}}, got)
}

// =============================================================================
// Codec
// =============================================================================

func TestCodecByName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "", want: redisqueue.CodecNameJSON},
		{name: "json", want: redisqueue.CodecNameJSON},
		{name: "msgpack", want: redisqueue.CodecNameMsgpack},
	}

	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.name, func(t *testing.T) {
			c, err := redisqueue.CodecByName(tt.name)
			require.NoError(t, err)
			require.Equal(t, tt.want, c.Name())
		})
	}

	_, err := redisqueue.CodecByName("protobuf")
	require.Error(t, err)
}
