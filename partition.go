package crunch

import (
	"context"
	"fmt"
	"hash/fnv"
	"iter"
)

// PartitionedSource is a [Source] that can restrict itself to one worker's
// share of the records. When a pipeline runs with more than one worker, each
// source must implement it; Partition is called once, right before the source
// is drained.
//
// Implementations choose the partitioning rule (position modulo, key hash,
// range split, ...) but must guarantee that, for a fixed total, every record
// of the unpartitioned source is produced by exactly one worker index.
type PartitionedSource interface {
	Source

	// Partition configures the source for worker index out of total workers.
	Partition(total, index int) error
}

// PartitionOptions identify one worker among the independent processes
// running the same job.
type PartitionOptions struct {
	Total int // number of workers, at least 1
	Index int // this worker, in [0, Total)
}

// Validate reports whether the options describe a valid worker.
func (o PartitionOptions) Validate() error {
	return ValidatePartition(o.Total, o.Index)
}

// ValidatePartition checks that total >= 1 and 0 <= index < total.
func ValidatePartition(total, index int) error {
	if total < 1 {
		return configErr("partition", fmt.Sprintf("total workers must be at least 1, got %d", total))
	}
	if index < 0 || index >= total {
		return configErr("partition", fmt.Sprintf("worker index must be in [0, %d), got %d", total, index))
	}
	return nil
}

// Slice returns an in-memory source over records. It supports partitioning by
// position: worker i of n produces the records at positions p with
// p % n == i.
func Slice(records ...Record) PartitionedSource {
	return ModuloPartition(SourceFunc(func(context.Context) iter.Seq2[Record, error] {
		return func(yield func(Record, error) bool) {
			for _, r := range records {
				if !yield(r, nil) {
					return
				}
			}
		}
	}))
}

// ModuloPartition makes any source partitionable by position. Worker index of
// total keeps the records whose zero-based position p satisfies
// p % total == index. The wrapped source must produce the same sequence in
// every worker for the result to be complete and exclusive.
func ModuloPartition(src Source) PartitionedSource {
	return &partitioned{
		src:   src,
		total: 1,
		keep: func(pos int, _ Record, total, index int) bool {
			return pos%total == index
		},
	}
}

// HashPartition makes any source partitionable by key. Worker index of total
// keeps the records whose key hashes (FNV-1a) to index modulo total, so all
// records sharing a key land on the same worker regardless of order.
//
// Example:
//
//	src := crunch.HashPartition(orders, func(r crunch.Record) string {
//	    return r.(Order).CustomerID
//	})
func HashPartition(src Source, key func(Record) string) PartitionedSource {
	return &partitioned{
		src:   src,
		total: 1,
		keep: func(_ int, r Record, total, index int) bool {
			return int(hashKey(key(r))%uint64(total)) == index
		},
	}
}

type partitioned struct {
	src   Source
	total int
	index int
	keep  func(pos int, r Record, total, index int) bool
}

func (p *partitioned) Partition(total, index int) error {
	if err := ValidatePartition(total, index); err != nil {
		return err
	}
	p.total, p.index = total, index
	return nil
}

func (p *partitioned) Records(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		pos := 0
		for r, err := range p.src.Records(ctx) {
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			keep := p.total == 1 || p.keep(pos, r, p.total, p.index)
			pos++
			if keep && !yield(r, nil) {
				return
			}
		}
	}
}

func (p *partitioned) Name() string { return componentName(p.src) }

// hashKey produces a uint64 hash for any comparable key using FNV-1a
// over its fmt.Sprint representation.
func hashKey[K comparable](key K) uint64 {
	h := fnv.New64a()
	_, _ = fmt.Fprint(h, key)
	return h.Sum64()
}
