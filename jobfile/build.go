package jobfile

import (
	"context"
	"io"

	"github.com/bjaus/crunch"
)

// Build parses args against the file's options and creates every component
// through reg, in file order.
//
// Sources and hooks that implement io.Closer (typically because they opened
// their own connection) are closed by post-process hooks appended after the
// declared ones. If building fails, everything created so far is closed.
func (f *File) Build(ctx context.Context, reg *Registry, args []string) (*crunch.Job, error) {
	vals, err := f.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	var created []io.Closer
	job, err := crunch.Define(f.Name, args, func(j *crunch.Job) error {
		newComponent := func(kind Kind, c Component) (any, error) {
			v, err := reg.New(ctx, kind, c.Use, vals.expandParams(c.Params))
			if err != nil {
				return nil, err
			}
			if closer, ok := v.(io.Closer); ok {
				created = append(created, closer)
			}
			return v, nil
		}

		var owned []io.Closer
		addHooks := func(cs []Component, add func(crunch.Hook) error) error {
			for _, c := range cs {
				v, err := newComponent(KindHook, c)
				if err != nil {
					return err
				}
				h, err := crunch.AsHook(v)
				if err != nil {
					return err
				}
				if err := add(h); err != nil {
					return err
				}
				if closer, ok := v.(io.Closer); ok {
					owned = append(owned, closer)
				}
			}
			return nil
		}

		if err := addHooks(f.PreProcess, j.AddPreProcess); err != nil {
			return err
		}

		for _, c := range f.Sources {
			v, err := newComponent(KindSource, c)
			if err != nil {
				return err
			}
			src, err := crunch.AsSource(v)
			if err != nil {
				return err
			}
			if err := j.AddSource(src); err != nil {
				return err
			}
			if closer, ok := v.(io.Closer); ok {
				owned = append(owned, closer)
			}
		}

		for _, t := range f.Transformations {
			v, err := newComponent(KindTransformation, t.Component)
			if err != nil {
				return err
			}
			tr, err := crunch.AsTransformation(v)
			if err != nil {
				return err
			}
			var opts []crunch.TransformOption
			if t.Name != "" {
				opts = append(opts, crunch.WithName(t.Name))
			}
			if t.Buffer > 0 {
				opts = append(opts, crunch.WithBuffer(t.Buffer))
			}
			if t.BufferWhen != nil {
				capacity, err := t.BufferWhen.Capacity()
				if err != nil {
					return err
				}
				opts = append(opts, crunch.WithBufferWhen(capacity))
			}
			if err := j.AddTransformation(tr, opts...); err != nil {
				return err
			}
		}

		for _, c := range f.Destinations {
			v, err := newComponent(KindDestination, c)
			if err != nil {
				return err
			}
			dst, err := crunch.AsDestination(v)
			if err != nil {
				return err
			}
			if err := j.AddDestination(dst); err != nil {
				return err
			}
		}

		if err := addHooks(f.PostProcess, j.AddPostProcess); err != nil {
			return err
		}
		for _, c := range owned {
			if err := j.AddPostProcess(closeHook{c}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		for _, c := range created {
			_ = c.Close()
		}
		return nil, err
	}
	return job, nil
}

// closeHook releases a component's resources after a successful run.
type closeHook struct{ c io.Closer }

func (h closeHook) Run(context.Context) error { return h.c.Close() }

func (h closeHook) Name() string {
	if n, ok := h.c.(crunch.Namer); ok {
		return "close " + n.Name()
	}
	return "close"
}

// LoadJob loads the job file at path and builds it.
func LoadJob(ctx context.Context, path string, reg *Registry, args []string) (*crunch.Job, error) {
	f, err := Load(path)
	if err != nil {
		return nil, err
	}
	return f.Build(ctx, reg, args)
}
