package jobfile

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// ErrMissingParam is returned by Params.Require for absent parameters.
var ErrMissingParam = errors.New("jobfile: missing parameter")

// Params are the parameters of one component. Values are coerced on read,
// so `size = "10"` and `size = 10` both satisfy Int.
//
// Getters return the zero value for an absent key and an error for a
// present value that cannot be coerced.
type Params map[string]any

// Has reports whether key is set.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Require fails if any of keys is absent.
func (p Params) Require(keys ...string) error {
	var errs []error
	for _, k := range keys {
		if !p.Has(k) {
			errs = append(errs, fmt.Errorf("%w %q", ErrMissingParam, k))
		}
	}
	return errors.Join(errs...)
}

func (p Params) String(key string) (string, error) {
	return get(p, key, cast.ToStringE)
}

// StringOr returns the value of key, or def when it is absent.
func (p Params) StringOr(key, def string) (string, error) {
	if !p.Has(key) {
		return def, nil
	}
	return p.String(key)
}

func (p Params) Int(key string) (int, error) {
	return get(p, key, cast.ToIntE)
}

// IntOr returns the value of key, or def when it is absent.
func (p Params) IntOr(key string, def int) (int, error) {
	if !p.Has(key) {
		return def, nil
	}
	return p.Int(key)
}

func (p Params) Bool(key string) (bool, error) {
	return get(p, key, cast.ToBoolE)
}

// Duration accepts Go duration strings ("1.5s") and integer nanoseconds.
func (p Params) Duration(key string) (time.Duration, error) {
	return get(p, key, cast.ToDurationE)
}

func (p Params) StringSlice(key string) ([]string, error) {
	return get(p, key, cast.ToStringSliceE)
}

func (p Params) StringMap(key string) (map[string]any, error) {
	return get(p, key, cast.ToStringMapE)
}

func (p Params) StringMapString(key string) (map[string]string, error) {
	return get(p, key, cast.ToStringMapStringE)
}

func (p Params) Slice(key string) ([]any, error) {
	return get(p, key, cast.ToSliceE)
}

// Value returns the raw value of key.
func (p Params) Value(key string) any { return p[key] }

func get[T any](p Params, key string, conv func(any) (T, error)) (T, error) {
	v, ok := p[key]
	if !ok {
		var zero T
		return zero, nil
	}
	out, err := conv(v)
	if err != nil {
		return out, fmt.Errorf("jobfile: parameter %q: %w", key, err)
	}
	return out, nil
}
