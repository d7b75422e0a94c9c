package crunch

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Default configuration values.
const (
	DefaultReportInterval = 10000
	DefaultTotalWorkers   = 1
	DefaultWorkerIndex    = 0
)

// tracerName is the instrumentation scope name for pipeline tracing.
const tracerName = "github.com/bjaus/crunch"

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPartition runs the pipeline as worker index of total independent
// workers. With total > 1, every source must implement [PartitionedSource].
// The values are validated by New.
//
// The pipeline never starts the other workers: run total processes of the same
// job, each with a distinct index.
func WithPartition(total, index int) Option {
	return func(p *Pipeline) {
		p.partition = PartitionOptions{Total: total, Index: index}
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithTracer sets the OpenTelemetry tracer. The default is the global
// tracer provider's tracer, which is a no-op unless one is installed.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.tracer = t
		}
	}
}

// WithProgressReporter registers a reporter called every report interval.
func WithProgressReporter(r ProgressReporter) Option {
	return func(p *Pipeline) { p.progress = r }
}

// WithReportInterval overrides how often to report progress (in records read).
// Priority: this option > ProgressReporter's ReportInterval > DefaultReportInterval.
// Values less than 1 are ignored.
func WithReportInterval(n int) Option {
	return func(p *Pipeline) {
		if n >= 1 {
			p.reportInterval = &n
		}
	}
}

// WithRunID overrides the generated run identifier attached to logs and spans.
func WithRunID(id string) Option {
	return func(p *Pipeline) {
		if id != "" {
			p.runID = id
		}
	}
}

func defaultTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// resolveReportInterval returns the effective report interval.
// Priority: WithReportInterval > ReportInterval interface > DefaultReportInterval.
func (p *Pipeline) resolveReportInterval() int {
	if p.reportInterval != nil {
		return *p.reportInterval
	}
	if r, ok := p.progress.(ReportInterval); ok {
		if n := r.ReportInterval(); n >= 1 {
			return n
		}
	}
	return DefaultReportInterval
}
