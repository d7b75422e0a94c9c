package jobfile

import (
	"errors"

	"github.com/spf13/cast"

	"github.com/bjaus/crunch"
)

// BufferWhen declares a buffer that emits by capacity rather than by a fixed
// count. Every limit that is set applies and the buffer emits as soon as any
// of them is reached:
//
//	[[transformations]]
//	use = "sql.table"
//	buffer_when = { size = 500, key = "tenant", max_keys = 10 }
//
// Weight and Key name fields of map records. A missing or non-numeric weight
// counts as zero.
type BufferWhen struct {
	Size      int    `toml:"size" yaml:"size"`
	Weight    string `toml:"weight" yaml:"weight"`
	MaxWeight int    `toml:"max_weight" yaml:"max_weight"`
	Key       string `toml:"key" yaml:"key"`
	MaxKeys   int    `toml:"max_keys" yaml:"max_keys"`
}

func (b *BufferWhen) validate() error {
	var errs []error
	if b.Size < 0 || b.MaxWeight < 0 || b.MaxKeys < 0 {
		errs = append(errs, errors.New("buffer_when limits must not be negative"))
	}
	if (b.Weight == "") != (b.MaxWeight == 0) {
		errs = append(errs, errors.New("buffer_when weight and max_weight must be set together"))
	}
	if (b.Key == "") != (b.MaxKeys == 0) {
		errs = append(errs, errors.New("buffer_when key and max_keys must be set together"))
	}
	if b.Size == 0 && b.MaxWeight == 0 && b.MaxKeys == 0 {
		errs = append(errs, errors.New("buffer_when needs size, max_weight or max_keys"))
	}
	return errors.Join(errs...)
}

// Capacity returns the capacity predicate for the declared limits.
func (b *BufferWhen) Capacity() (crunch.CapacityFunc, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	var policies []crunch.CapacityFunc
	if b.Size > 0 {
		policies = append(policies, crunch.SizeCapacity(b.Size))
	}
	if b.MaxWeight > 0 {
		field := b.Weight
		policies = append(policies, crunch.WeightCapacity(func(r crunch.Record) int {
			return cast.ToInt(fieldOf(r, field))
		}, b.MaxWeight))
	}
	if b.MaxKeys > 0 {
		field := b.Key
		policies = append(policies, crunch.DistinctKeyCapacity(func(r crunch.Record) string {
			return cast.ToString(fieldOf(r, field))
		}, b.MaxKeys))
	}

	if len(policies) == 1 {
		return policies[0], nil
	}
	return crunch.AnyCapacity(policies...), nil
}

func fieldOf(r crunch.Record, field string) any {
	if m, ok := r.(map[string]any); ok {
		return m[field]
	}
	return nil
}
