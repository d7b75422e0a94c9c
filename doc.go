// Package crunch is a small, single-threaded Extract-Transform-Load engine.
//
// A [Job] is a declarative bundle of components: sources that produce
// records, an ordered chain of transformations, destinations that receive the
// surviving records, and hooks that run before and after the data flow. A
// [Pipeline] executes a job.
//
// # Quick Start
//
//	job, err := crunch.Define("users", os.Args[1:], func(j *crunch.Job) error {
//	    if err := j.AddSource(crunch.Slice("alice", "bob")); err != nil {
//	        return err
//	    }
//	    if err := j.AddTransformation(crunch.TransformFunc(upper)); err != nil {
//	        return err
//	    }
//	    return j.AddDestination(out)
//	})
//	if err != nil {
//	    return err
//	}
//
//	p, err := crunch.New(job)
//	if err != nil {
//	    return err
//	}
//	return p.Run(ctx)
//
// # Records and Emptiness
//
// A [Record] is any value. The only thing the engine asks of it is whether it
// is empty: nil, [None], the empty string and zero-length slices, maps and
// arrays are empty (see [IsEmpty]). A transformation drops a record by
// returning an empty value; the remaining transformations are skipped and
// nothing is written.
//
// # Execution Model
//
// Sources are drained one after another in registration order. Each record is
// carried through the whole chain, and if the result is non-empty it is
// written to every destination in registration order, before the next record
// is pulled. There is no concurrency inside a pipeline.
//
//	Idle → PreProcessing → {Partitioning? → Draining → Flushing}* → Closing → PostProcessing → Done
//
// Any error from a hook, source, transformation or destination write aborts
// the run at once with a *[StageError] naming the phase and component.
// Destinations are closed only on a successful data flow; close failures are
// collected into a *[CloseError] after every destination has been tried.
//
// # Buffering
//
// [WithBuffer] and [WithBufferWhen] insert a [Buffer] in front of a
// transformation. The buffer accumulates records and emits them as a
// []Record batch once full; in between it emits [None], which ends the chain
// for that record. Capacity predicates compose:
//
//	j.AddTransformation(bulkInsert, crunch.WithBufferWhen(crunch.AnyCapacity(
//	    crunch.SizeCapacity(1000),
//	    crunch.WeightCapacity(rowBytes, 4<<20),
//	)))
//
// When a source is exhausted the pipeline runs a flush pass: every buffer in
// the chain replaces the carried value with its remainder and
// transformations do not run. The last buffer's remainder, if non-empty, is
// written to the destinations as one batch.
//
// # Partitioning
//
// The engine never spawns workers. To scale out, run the same job in several
// processes with [WithPartition]; each source must then implement
// [PartitionedSource] and produce a disjoint share of the records. [Slice],
// [ModuloPartition] and [HashPartition] cover the common cases.
//
//	p, err := crunch.New(job, crunch.WithPartition(4, workerIndex))
//
// # Observability
//
// Pipelines log through log/slog ([WithLogger]) and trace through
// OpenTelemetry ([WithTracer]). Every run carries a run identifier
// ([WithRunID]). A [ProgressReporter] receives the live [Stats] every
// report interval:
//
//	p, err := crunch.New(job,
//	    crunch.WithProgressReporter(crunch.ProgressFunc(func(ctx context.Context, s *crunch.Stats) {
//	        slog.InfoContext(ctx, "progress", "stats", s)
//	    })),
//	    crunch.WithReportInterval(50000),
//	)
//
// # Job Files
//
// The jobfile package loads jobs from TOML or YAML files that reference
// registered component factories; the builtin package provides the stock
// components and cmd/crunch runs job files from the command line.
package crunch
