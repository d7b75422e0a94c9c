package crunch

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Pipeline executes a [Job]. A run moves through these phases:
//
//	Idle → PreProcessing → {Partitioning? → Draining → Flushing}* → Closing → PostProcessing → Done
//
// Each source, in registration order, is drained record by record: a record
// is pushed through the whole chain and, if the result is non-empty, written
// to every destination before the next record is pulled. Once a source is
// exhausted a flush pass forces every buffer to emit what it holds.
//
// A Pipeline runs once. It is driven by the calling goroutine and performs no
// concurrency of its own; scale out by running several processes with
// distinct [WithPartition] indexes.
type Pipeline struct {
	job *Job

	partition      PartitionOptions
	logger         *slog.Logger
	tracer         trace.Tracer
	progress       ProgressReporter
	reportInterval *int
	runID          string

	phase atomic.Value
	ran   atomic.Bool
	stats *Stats
}

// New creates a Pipeline for the given job. It fails with a
// *ConfigurationError if the job is nil or the partition options are invalid.
func New(job *Job, opts ...Option) (*Pipeline, error) {
	if job == nil {
		return nil, configErr("job", "job is nil")
	}

	p := &Pipeline{
		job:       job,
		partition: PartitionOptions{Total: DefaultTotalWorkers, Index: DefaultWorkerIndex},
		logger:    slog.Default(),
		tracer:    defaultTracer(),
		runID:     uuid.NewString(),
		stats:     &Stats{},
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.partition.Validate(); err != nil {
		return nil, err
	}

	p.logger = p.logger.With(
		slog.String("job", job.Name()),
		slog.String("run_id", p.runID),
	)
	p.phase.Store(PhaseIdle)

	return p, nil
}

// Phase returns the phase the pipeline is currently in.
func (p *Pipeline) Phase() Phase { return p.phase.Load().(Phase) }

// Stats returns the live statistics of the run.
func (p *Pipeline) Stats() *Stats { return p.stats }

// RunID returns the identifier attached to this run's logs and spans.
func (p *Pipeline) RunID() string { return p.runID }

// Partition returns the worker options the pipeline runs with.
func (p *Pipeline) Partition() PartitionOptions { return p.partition }

// Run executes the job. Any error from a hook, source, transformation or
// destination write aborts the run immediately; records already written are
// not rolled back and destinations are not closed. Close failures are
// collected into a *CloseError after every destination has been tried.
//
// ctx is handed to every component. The pipeline adds no timeout of its own:
// a component that blocks, blocks the whole run. Once a source has ended, its
// flush pass, the closing of destinations and the post-process hooks run on a
// context that is not cancelled with ctx, so a source that stops on
// cancellation still has its buffered records written.
func (p *Pipeline) Run(ctx context.Context) (err error) {
	if !p.ran.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}

	ctx, span := p.tracer.Start(ctx, "crunch.run",
		trace.WithAttributes(
			attribute.String("crunch.job", p.job.Name()),
			attribute.String("crunch.run_id", p.runID),
			attribute.Int("crunch.workers", p.partition.Total),
			attribute.Int("crunch.worker_index", p.partition.Index),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	started := time.Now()
	defer func() {
		endSpan(span, err)
		if err != nil {
			p.setPhase(ctx, PhaseFailed)
			p.logger.ErrorContext(ctx, "pipeline failed",
				slog.Any("error", err),
				slog.Any("stats", p.stats),
				slog.Duration("elapsed", time.Since(started)),
			)
		}
	}()

	p.logger.InfoContext(ctx, "pipeline starting",
		slog.Int("sources", len(p.job.sources)),
		slog.Int("stages", len(p.job.stages)),
		slog.Int("destinations", len(p.job.destinations)),
		slog.Int("workers", p.partition.Total),
		slog.Int("worker_index", p.partition.Index),
	)

	if err := p.runHooks(ctx, PhasePreProcessing, "pre-process hook", p.job.preProcesses); err != nil {
		return err
	}

	for i, src := range p.job.sources {
		if err := p.runSource(ctx, i, src); err != nil {
			return err
		}
	}

	if err := p.closeDestinations(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	if err := p.runHooks(context.WithoutCancel(ctx), PhasePostProcessing, "post-process hook", p.job.postProcesses); err != nil {
		return err
	}

	p.setPhase(ctx, PhaseDone)
	p.logger.InfoContext(ctx, "pipeline complete",
		slog.Any("stats", p.stats),
		slog.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func (p *Pipeline) runHooks(ctx context.Context, phase Phase, kind string, hooks []Hook) error {
	p.setPhase(ctx, phase)
	for i, h := range hooks {
		if err := h.Run(ctx); err != nil {
			return &StageError{Phase: phase, Kind: kind, Index: i, Name: componentName(h), Err: err}
		}
	}
	return nil
}

// runSource partitions, drains and flushes one source.
func (p *Pipeline) runSource(ctx context.Context, index int, src Source) (err error) {
	name := componentName(src)
	ctx, span := p.tracer.Start(ctx, "crunch.source",
		trace.WithAttributes(
			attribute.Int("crunch.source.index", index),
			attribute.String("crunch.source.name", name),
		),
	)
	defer func() { endSpan(span, err) }()

	if p.partition.Total > 1 {
		p.setPhase(ctx, PhasePartitioning)
		ps, ok := src.(PartitionedSource)
		if !ok {
			return &PartitionUnsupportedError{Source: name, Index: index}
		}
		if perr := ps.Partition(p.partition.Total, p.partition.Index); perr != nil {
			return &StageError{Phase: PhasePartitioning, Kind: "source", Index: index, Name: name, Err: perr}
		}
	}

	p.setPhase(ctx, PhaseDraining)
	reportEvery := int64(p.resolveReportInterval())
	var read int64
	for r, rerr := range src.Records(ctx) {
		if rerr != nil {
			return &StageError{Phase: PhaseDraining, Kind: "source", Index: index, Name: name, Err: rerr}
		}
		read++
		total := p.stats.incRead(1)
		if perr := p.process(ctx, r, false); perr != nil {
			return perr
		}
		if p.progress != nil && total%reportEvery == 0 {
			p.progress.OnProgress(ctx, p.stats)
		}
	}

	p.setPhase(ctx, PhaseFlushing)
	if ferr := p.process(context.WithoutCancel(ctx), nil, true); ferr != nil {
		return ferr
	}

	span.SetAttributes(attribute.Int64("crunch.source.records", read))
	p.logger.DebugContext(ctx, "source drained",
		slog.Int("source", index),
		slog.String("name", name),
		slog.Int64("records", read),
	)
	return nil
}

// process runs one value through the chain and writes a non-empty result to
// every destination. In flush mode v is ignored by construction: every buffer
// replaces it.
func (p *Pipeline) process(ctx context.Context, v Record, flush bool) error {
	out, err := p.apply(ctx, v, flush)
	if err != nil {
		return err
	}

	if IsEmpty(out) {
		if !flush {
			p.stats.incDropped(1)
		}
		return nil
	}

	phase := PhaseDraining
	if flush {
		phase = PhaseFlushing
		p.stats.incFlushed(1)
	}
	for i, d := range p.job.destinations {
		if err := d.Write(ctx, out); err != nil {
			return &StageError{Phase: phase, Kind: "destination", Index: i, Name: componentName(d), Err: err}
		}
	}
	p.stats.incWritten(1)
	return nil
}

// apply runs the transformation chain over v.
//
// Normal mode: a non-empty value is pushed into buffers and passed to
// transformations; once the value is empty it is carried to the end of the
// chain unchanged. Flush mode: every buffer replaces the value with its
// flushed remainder and transformations are skipped.
func (p *Pipeline) apply(ctx context.Context, v Record, flush bool) (Record, error) {
	for i, st := range p.job.stages {
		switch {
		case flush && st.buffer != nil:
			v = st.buffer.Flush()
		case flush:
			// transformations do not run during a flush pass
		case IsEmpty(v):
			// empty values skip every remaining stage
		case st.buffer != nil:
			v = st.buffer.Push(v)
		default:
			out, err := st.transform.Transform(ctx, v)
			if err != nil {
				return nil, &StageError{Phase: PhaseDraining, Kind: "transformation", Index: i, Name: st.name, Err: err}
			}
			p.stats.incTransformed(1)
			v = out
		}
	}
	return v, nil
}

// closeDestinations closes every destination in order, even when some fail.
func (p *Pipeline) closeDestinations(ctx context.Context) error {
	p.setPhase(ctx, PhaseClosing)

	var failed []*StageError
	for i, d := range p.job.destinations {
		if err := d.Close(); err != nil {
			name := componentName(d)
			p.logger.WarnContext(ctx, "destination close failed",
				slog.Int("destination", i),
				slog.String("name", name),
				slog.Any("error", err),
			)
			failed = append(failed, &StageError{Phase: PhaseClosing, Kind: "destination", Index: i, Name: name, Err: err})
		}
	}

	if len(failed) > 0 {
		return &CloseError{Errs: failed}
	}
	return nil
}

func (p *Pipeline) setPhase(ctx context.Context, phase Phase) {
	p.phase.Store(phase)
	p.logger.DebugContext(ctx, "pipeline phase", slog.String("phase", string(phase)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
