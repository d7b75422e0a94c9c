package crunch

import (
	"context"
	"fmt"
	"iter"
)

// Record is one unit of data flowing through a pipeline. The engine imposes
// no schema on records; it only asks whether a value is empty (see [IsEmpty]).
type Record = any

// Phase identifies where in a run the pipeline currently is, or where an
// error occurred.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhasePreProcessing  Phase = "pre-processing"
	PhasePartitioning   Phase = "partitioning"
	PhaseDraining       Phase = "draining"
	PhaseFlushing       Phase = "flushing"
	PhaseClosing        Phase = "closing"
	PhasePostProcessing Phase = "post-processing"
	PhaseDone           Phase = "done"
	PhaseFailed         Phase = "failed"
)

// Source produces the records of a job. The sequence may be lazy and even
// infinite; whether it can be iterated more than once is up to the
// implementation. An error yielded by the sequence aborts the run.
//
// Example:
//
//	func (s *UserSource) Records(ctx context.Context) iter.Seq2[crunch.Record, error] {
//	    return func(yield func(crunch.Record, error) bool) {
//	        for _, u := range s.users {
//	            if !yield(u, nil) {
//	                return
//	            }
//	        }
//	    }
//	}
type Source interface {
	Records(ctx context.Context) iter.Seq2[Record, error]
}

// Destination receives every record that survives the transformation chain.
// Close is called exactly once by the pipeline, after all sources have been
// drained and flushed. Implementations need not make Close idempotent.
type Destination interface {
	Write(ctx context.Context, r Record) error
	Close() error
}

// Transformation maps a record to a record. Returning [None], nil, or any
// other empty value drops the record: later transformations are skipped and
// nothing reaches the destinations.
type Transformation interface {
	Transform(ctx context.Context, r Record) (Record, error)
}

// TransformFunc adapts a plain function to the [Transformation] interface.
//
// Example:
//
//	upper := crunch.TransformFunc(func(_ context.Context, r crunch.Record) (crunch.Record, error) {
//	    return strings.ToUpper(r.(string)), nil
//	})
type TransformFunc func(ctx context.Context, r Record) (Record, error)

func (f TransformFunc) Transform(ctx context.Context, r Record) (Record, error) {
	return f(ctx, r)
}

// SourceFunc adapts a sequence constructor to the [Source] interface.
type SourceFunc func(ctx context.Context) iter.Seq2[Record, error]

func (f SourceFunc) Records(ctx context.Context) iter.Seq2[Record, error] {
	return f(ctx)
}

// Namer is implemented by components that want a readable name in logs and
// error diagnostics. Components without it are named after their type.
type Namer interface {
	Name() string
}

// componentName returns the diagnostic name of a pipeline component.
func componentName(v any) string {
	if n, ok := v.(Namer); ok {
		if name := n.Name(); name != "" {
			return name
		}
	}
	return fmt.Sprintf("%T", v)
}

// AsSource checks that v satisfies the source capability contract.
func AsSource(v any) (Source, error) {
	if v == nil {
		return nil, configErr("source", "source is nil")
	}
	s, ok := v.(Source)
	if !ok {
		return nil, configErr(componentName(v), "does not implement Records(ctx) iter.Seq2[Record, error]")
	}
	return s, nil
}

// AsDestination checks that v satisfies the destination capability contract.
// The error names every missing capability.
func AsDestination(v any) (Destination, error) {
	if v == nil {
		return nil, configErr("destination", "destination is nil")
	}
	if d, ok := v.(Destination); ok {
		return d, nil
	}

	var missing []string
	if _, ok := v.(interface {
		Write(ctx context.Context, r Record) error
	}); !ok {
		missing = append(missing, "Write(ctx, Record) error")
	}
	if _, ok := v.(interface{ Close() error }); !ok {
		missing = append(missing, "Close() error")
	}
	return nil, configErr(componentName(v), fmt.Sprintf("does not implement %v", missing))
}

// AsHook checks that v satisfies the hook capability contract.
func AsHook(v any) (Hook, error) {
	if v == nil {
		return nil, configErr("hook", "hook is nil")
	}
	h, ok := v.(Hook)
	if !ok {
		return nil, configErr(componentName(v), "does not implement Run(ctx) error")
	}
	return h, nil
}

// AsTransformation checks that v satisfies the transformation capability
// contract.
func AsTransformation(v any) (Transformation, error) {
	if v == nil {
		return nil, configErr("transformation", "transformation is nil")
	}
	t, ok := v.(Transformation)
	if !ok {
		return nil, configErr(componentName(v), "does not implement Transform(ctx, Record) (Record, error)")
	}
	return t, nil
}
