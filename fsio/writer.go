package fsio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/gofrs/flock"

	"github.com/bjaus/crunch"
)

var _ crunch.Destination = (*Writer)(nil)

// Writer appends one line per record. A batch ([]crunch.Record) is written
// as one line per element.
//
// Writers opened with [OpenWriter] hold an advisory lock (path + ".lock")
// around every append, so workers of the same job can share an output file
// without interleaving lines.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	file   *os.File
	lock   *flock.Flock
	format Format
	name   string
}

// OpenWriter opens path for appending, creating it if needed.
func OpenWriter(path string, format Format) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("crunch/fsio: open %s: %w", path, err)
	}
	w := NewStreamWriter(f, format)
	w.file = f
	w.lock = flock.New(path + ".lock")
	w.name = "file(" + path + ")"
	return w, nil
}

// NewStreamWriter writes to w, which the caller owns. No lock is taken.
func NewStreamWriter(w io.Writer, format Format) *Writer {
	if format == "" {
		format = JSONLines
	}
	return &Writer{w: w, format: format, name: "stream"}
}

func (w *Writer) Write(_ context.Context, r crunch.Record) error {
	items := []crunch.Record{r}
	if batch, ok := r.([]crunch.Record); ok {
		items = batch
	}

	var buf bytes.Buffer
	for _, item := range items {
		line, err := w.format.encode(item)
		if err != nil {
			return fmt.Errorf("crunch/fsio: encode: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.lock != nil {
		if err := w.lock.Lock(); err != nil {
			return fmt.Errorf("crunch/fsio: acquire lock: %w", err)
		}
		defer func() { _ = w.lock.Unlock() }()
	}

	if _, err := w.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("crunch/fsio: write %s: %w", w.name, err)
	}
	return nil
}

// Close closes the file opened by OpenWriter. Stream writers are left open.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	if lerr := w.lock.Close(); err == nil {
		err = lerr
	}
	return err
}

func (w *Writer) Name() string { return w.name }
