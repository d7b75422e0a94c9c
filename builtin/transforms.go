package builtin

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cast"

	"github.com/bjaus/crunch"
	"github.com/bjaus/crunch/jobfile"
)

// mapTransform applies fn to map[string]any records. A batch is transformed
// element by element and elements fn drops are removed from it.
type mapTransform struct {
	name string
	fn   func(m map[string]any) (crunch.Record, error)
}

func (t mapTransform) Transform(_ context.Context, r crunch.Record) (crunch.Record, error) {
	batch, ok := r.([]crunch.Record)
	if !ok {
		return t.apply(r)
	}

	out := make([]crunch.Record, 0, len(batch))
	for _, item := range batch {
		v, err := t.apply(item)
		if err != nil {
			return nil, err
		}
		if !crunch.IsEmpty(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (t mapTransform) apply(r crunch.Record) (crunch.Record, error) {
	m, ok := r.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("builtin: %s: record is %T, want map[string]any", t.name, r)
	}
	return t.fn(m)
}

func (t mapTransform) Name() string { return t.name }

func identity(context.Context, jobfile.Params) (any, error) {
	return crunch.TransformFunc(func(_ context.Context, r crunch.Record) (crunch.Record, error) {
		return r, nil
	}), nil
}

// pick: fields = [...] keeps only the named fields.
func pick(_ context.Context, p jobfile.Params) (any, error) {
	if err := p.Require("fields"); err != nil {
		return nil, err
	}
	fields, err := p.StringSlice("fields")
	if err != nil {
		return nil, err
	}
	return mapTransform{name: "pick", fn: func(m map[string]any) (crunch.Record, error) {
		out := make(map[string]any, len(fields))
		for _, f := range fields {
			if v, ok := m[f]; ok {
				out[f] = v
			}
		}
		return out, nil
	}}, nil
}

// rename: fields = {old = "new"}
func rename(_ context.Context, p jobfile.Params) (any, error) {
	if err := p.Require("fields"); err != nil {
		return nil, err
	}
	fields, err := p.StringMapString("fields")
	if err != nil {
		return nil, err
	}
	return mapTransform{name: "rename", fn: func(m map[string]any) (crunch.Record, error) {
		out := maps.Clone(m)
		for from, to := range fields {
			if v, ok := out[from]; ok {
				delete(out, from)
				out[to] = v
			}
		}
		return out, nil
	}}, nil
}

// set: values = {field = value}
func set(_ context.Context, p jobfile.Params) (any, error) {
	if err := p.Require("values"); err != nil {
		return nil, err
	}
	values, err := p.StringMap("values")
	if err != nil {
		return nil, err
	}
	return mapTransform{name: "set", fn: func(m map[string]any) (crunch.Record, error) {
		out := maps.Clone(m)
		maps.Copy(out, values)
		return out, nil
	}}, nil
}

// where: field plus exactly one of equals, not_equals, exists. Values are
// compared by their string form, so 1, 1.0 and "1" are equal. Records that
// do not match are dropped.
func where(_ context.Context, p jobfile.Params) (any, error) {
	if err := p.Require("field"); err != nil {
		return nil, err
	}
	field, err := p.String("field")
	if err != nil {
		return nil, err
	}

	var conds []string
	for _, k := range []string{"equals", "not_equals", "exists"} {
		if p.Has(k) {
			conds = append(conds, k)
		}
	}
	if len(conds) != 1 {
		return nil, fmt.Errorf("builtin: where: want exactly one of equals, not_equals, exists; got %v", conds)
	}

	var match func(v any, ok bool) bool
	switch conds[0] {
	case "equals":
		want := cast.ToString(p.Value("equals"))
		match = func(v any, ok bool) bool { return ok && cast.ToString(v) == want }
	case "not_equals":
		want := cast.ToString(p.Value("not_equals"))
		match = func(v any, ok bool) bool { return !ok || cast.ToString(v) != want }
	case "exists":
		want, err := p.Bool("exists")
		if err != nil {
			return nil, err
		}
		match = func(_ any, ok bool) bool { return ok == want }
	}

	return mapTransform{name: "where", fn: func(m map[string]any) (crunch.Record, error) {
		v, ok := m[field]
		if !match(v, ok) {
			return crunch.None, nil
		}
		return m, nil
	}}, nil
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
