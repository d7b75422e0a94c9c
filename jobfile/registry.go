package jobfile

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// ErrUnknownComponent is returned when a job file uses a name nothing was
// registered under.
var ErrUnknownComponent = errors.New("jobfile: unknown component")

// Kind is the role a factory fills in a job.
type Kind string

const (
	KindSource         Kind = "source"
	KindDestination    Kind = "destination"
	KindTransformation Kind = "transformation"
	KindHook           Kind = "hook"
)

// Kinds lists every kind in job file order.
var Kinds = []Kind{KindHook, KindSource, KindTransformation, KindDestination}

// Factory creates a component from its parameters. The result is checked
// against the capability contract of its kind when the job is built.
type Factory func(ctx context.Context, p Params) (any, error)

// Registry maps component names to factories, per kind. It is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[Kind]map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[Kind]map[string]Factory, len(Kinds))}
	for _, k := range Kinds {
		r.factories[k] = make(map[string]Factory)
	}
	return r
}

// Register adds a factory. Registering a name twice for the same kind is an
// error.
func (r *Registry) Register(kind Kind, name string, f Factory) error {
	if name == "" {
		return errors.New("jobfile: register: name is required")
	}
	if f == nil {
		return fmt.Errorf("jobfile: register %s %q: factory is nil", kind, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byName, ok := r.factories[kind]
	if !ok {
		return fmt.Errorf("jobfile: register %q: unknown kind %q", name, kind)
	}
	if _, dup := byName[name]; dup {
		return fmt.Errorf("jobfile: %s %q already registered", kind, name)
	}
	byName[name] = f
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(kind Kind, name string, f Factory) {
	if err := r.Register(kind, name, f); err != nil {
		panic(err)
	}
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(kind Kind, name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[kind][name]
	return f, ok
}

// Names returns the sorted names registered for kind.
func (r *Registry) Names(kind Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories[kind]))
}

// New creates the component registered under name.
func (r *Registry) New(ctx context.Context, kind Kind, name string, p Params) (any, error) {
	f, ok := r.Lookup(kind, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", ErrUnknownComponent, kind, name)
	}
	if p == nil {
		p = Params{}
	}
	v, err := f(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", kind, name, err)
	}
	return v, nil
}
