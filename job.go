package crunch

import (
	"fmt"
	"slices"
)

// StageKind distinguishes the two kinds of stages in a transformation chain.
type StageKind string

const (
	StageTransformation StageKind = "transformation"
	StageBuffer         StageKind = "buffer"
)

// Stage is one element of a job's transformation chain: either a plain
// transformation or a buffer inserted in front of one.
type Stage struct {
	name      string
	transform Transformation
	buffer    *Buffer
}

// Kind reports whether the stage is a transformation or a buffer.
func (s Stage) Kind() StageKind {
	if s.buffer != nil {
		return StageBuffer
	}
	return StageTransformation
}

// Name returns the diagnostic name of the stage.
func (s Stage) Name() string { return s.name }

// Buffer returns the stage's buffer, or nil for a transformation stage.
func (s Stage) Buffer() *Buffer { return s.buffer }

// Transformation returns the stage's transformation, or nil for a buffer stage.
func (s Stage) Transformation() Transformation { return s.transform }

// Job is the executable plan of a pipeline: sources, destinations, hooks and
// one ordered transformation chain. Every registration is validated as it is
// made; an invalid component is rejected with a *ConfigurationError and the
// job is left unchanged.
//
// Registration order is execution order. A Job is built once and handed to
// [New]; it must not be shared between pipelines because buffer stages carry
// state.
type Job struct {
	name string
	args []string

	sources       []Source
	destinations  []Destination
	preProcesses  []Hook
	postProcesses []Hook
	stages        []Stage
}

// NewJob returns an empty job. name identifies the job in logs and
// diagnostics (typically the job file path); args is the job-specific
// argument vector.
func NewJob(name string, args []string) *Job {
	return &Job{name: name, args: slices.Clone(args)}
}

// Define builds a job by evaluating build against a fresh [Job]. It is the
// programmatic entry point; declarative job files are built the same way by
// the jobfile package.
//
// Example:
//
//	job, err := crunch.Define("copy-users", os.Args[1:], func(j *crunch.Job) error {
//	    return errors.Join(
//	        j.AddSource(users),
//	        j.AddTransformation(normalize, crunch.WithBuffer(500)),
//	        j.AddDestination(warehouse),
//	    )
//	})
func Define(name string, args []string, build func(j *Job) error) (*Job, error) {
	j := NewJob(name, args)
	if build == nil {
		return j, nil
	}
	if err := build(j); err != nil {
		if name == "" {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return j, nil
}

// Name returns the job name given to [NewJob] or [Define].
func (j *Job) Name() string { return j.name }

// Args returns the job-specific argument vector.
func (j *Job) Args() []string { return slices.Clone(j.args) }

// AddSource appends a source.
func (j *Job) AddSource(s Source) error {
	if isNil(s) {
		return configErr("source", "source is nil")
	}
	j.sources = append(j.sources, s)
	return nil
}

// AddDestination appends a destination.
func (j *Job) AddDestination(d Destination) error {
	if isNil(d) {
		return configErr("destination", "destination is nil")
	}
	j.destinations = append(j.destinations, d)
	return nil
}

// AddPreProcess appends a hook that runs before any source is read.
func (j *Job) AddPreProcess(h Hook) error {
	if isNil(h) {
		return configErr("pre-process hook", "hook is nil")
	}
	j.preProcesses = append(j.preProcesses, h)
	return nil
}

// AddPostProcess appends a hook that runs after every destination is closed.
func (j *Job) AddPostProcess(h Hook) error {
	if isNil(h) {
		return configErr("post-process hook", "hook is nil")
	}
	j.postProcesses = append(j.postProcesses, h)
	return nil
}

// TransformOption configures a transformation registration.
type TransformOption func(*transformConfig)

type transformConfig struct {
	name       string
	bufferSize *int
	bufferWhen func([]Record) bool
	whenSet    bool
}

// WithBuffer inserts a buffer of the given size immediately before the
// transformation, so it receives batches ([]Record) of size records. Records
// left over when a source is exhausted are flushed as a final, smaller batch.
// size must be positive.
func WithBuffer(size int) TransformOption {
	return func(c *transformConfig) { c.bufferSize = &size }
}

// WithBufferWhen inserts a buffer driven by a capacity predicate immediately
// before the transformation. See [SizeCapacity], [WeightCapacity] and friends.
func WithBufferWhen(full func(pending []Record) bool) TransformOption {
	return func(c *transformConfig) {
		c.bufferWhen = full
		c.whenSet = true
	}
}

// WithName names the transformation in logs and error diagnostics.
func WithName(name string) TransformOption {
	return func(c *transformConfig) { c.name = name }
}

// AddTransformation appends t to the transformation chain, preceded by a
// buffer stage when WithBuffer or WithBufferWhen is given.
func (j *Job) AddTransformation(t Transformation, opts ...TransformOption) error {
	if isNil(t) {
		return configErr("transformation", "transformation is nil")
	}

	var cfg transformConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var buf *Buffer
	switch {
	case cfg.bufferSize != nil && cfg.whenSet:
		return configErr("transformation", "WithBuffer and WithBufferWhen are mutually exclusive")
	case cfg.bufferSize != nil:
		b, err := NewBuffer(*cfg.bufferSize)
		if err != nil {
			return err
		}
		buf = b
	case cfg.whenSet:
		b, err := NewBufferWhen(cfg.bufferWhen)
		if err != nil {
			return err
		}
		buf = b
	}

	name := cfg.name
	if name == "" {
		name = componentName(t)
	}

	if buf != nil {
		j.stages = append(j.stages, Stage{name: buf.Name(), buffer: buf})
	}
	j.stages = append(j.stages, Stage{name: name, transform: t})
	return nil
}

// Sources returns the registered sources in order.
func (j *Job) Sources() []Source { return slices.Clone(j.sources) }

// Destinations returns the registered destinations in order.
func (j *Job) Destinations() []Destination { return slices.Clone(j.destinations) }

// PreProcesses returns the registered pre-process hooks in order.
func (j *Job) PreProcesses() []Hook { return slices.Clone(j.preProcesses) }

// PostProcesses returns the registered post-process hooks in order.
func (j *Job) PostProcesses() []Hook { return slices.Clone(j.postProcesses) }

// Stages returns the transformation chain in execution order.
func (j *Job) Stages() []Stage { return slices.Clone(j.stages) }
