package crunch

import "reflect"

type none struct{}

func (none) String() string { return "<none>" }

// None is the absence marker: "no record to propagate". Buffers return it
// while accumulating, and transformations return it to drop a record.
var None Record = none{}

// IsEmpty reports whether v is empty. Empty values never advance past a
// transformation and never reach destinations.
//
// A value is empty when it is nil, [None], the empty string, or a slice, map
// or array of length zero. Empty containers are treated exactly like None, so
// a transformation returning an empty slice drops the record.
func IsEmpty(v Record) bool {
	switch x := v.(type) {
	case nil:
		return true
	case none:
		return true
	case string:
		return x == ""
	case []Record:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.IsNil() || rv.Len() == 0
	case reflect.Array:
		return rv.Len() == 0
	case reflect.String:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// isNil reports whether a component is nil, including typed nils such as a
// nil TransformFunc stored in an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
