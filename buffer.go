package crunch

import "fmt"

// Buffer is a stateful stage that accumulates records and emits them as one
// batch ([]Record) once its capacity policy triggers. Remaining records are
// emitted by [Buffer.Flush] at the end of each source.
//
// A Buffer is not safe for concurrent use; the pipeline drives it from a
// single goroutine.
type Buffer struct {
	pending []Record
	full    func(pending []Record) bool
	label   string
}

// NewBuffer returns a buffer that emits a batch every size records.
func NewBuffer(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, configErr("buffer", fmt.Sprintf("size must be a positive integer, got %d", size))
	}
	return &Buffer{
		full:  SizeCapacity(size),
		label: fmt.Sprintf("buffer(%d)", size),
	}, nil
}

// NewBufferWhen returns a buffer that emits a batch as soon as full reports
// true for the pending records. full is evaluated after every append.
//
// Example:
//
//	// Emit once the batch carries 1 MiB of payload
//	buf, err := crunch.NewBufferWhen(crunch.WeightCapacity(payloadSize, 1<<20))
func NewBufferWhen(full func(pending []Record) bool) (*Buffer, error) {
	if full == nil {
		return nil, configErr("buffer", "capacity predicate is nil")
	}
	return &Buffer{full: full, label: "buffer(func)"}, nil
}

// Push appends r to the pending records. If the capacity policy triggers,
// Push returns every pending record as one []Record batch and starts over;
// otherwise it returns [None].
func (b *Buffer) Push(r Record) Record {
	b.pending = append(b.pending, r)
	if !b.full(b.pending) {
		return None
	}
	batch := b.pending
	b.pending = nil
	return batch
}

// Flush returns the pending records, possibly none, and empties the buffer.
// The returned slice is never nil.
func (b *Buffer) Flush() []Record {
	batch := b.pending
	b.pending = nil
	if batch == nil {
		return []Record{}
	}
	return batch
}

// Len returns the number of pending records.
func (b *Buffer) Len() int { return len(b.pending) }

// Name implements [Namer].
func (b *Buffer) Name() string { return b.label }
