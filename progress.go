package crunch

import "context"

// ReportInterval controls how often progress is reported, measured in records
// read. A ProgressReporter may implement it to choose its own interval.
//
// The value can be overridden via WithReportInterval, which takes precedence
// over this interface. If neither is set, DefaultReportInterval (10,000
// records) is used.
type ReportInterval interface {
	// ReportInterval returns how often to call OnProgress (in records read).
	ReportInterval() int
}

// ProgressReporter receives periodic progress updates while a pipeline runs.
// Register one with WithProgressReporter to log throughput, emit metrics, or
// act as a heartbeat for long-running streaming jobs.
//
// OnProgress is called each time the cumulative read count crosses a report
// interval boundary, on the pipeline goroutine, between two records. A slow
// reporter therefore slows the pipeline down.
//
// Example:
//
//	type logProgress struct{ log *slog.Logger }
//
//	func (p logProgress) OnProgress(ctx context.Context, stats *crunch.Stats) {
//	    p.log.InfoContext(ctx, "progress", "stats", stats)
//	}
type ProgressReporter interface {
	// OnProgress is called periodically during execution.
	OnProgress(ctx context.Context, stats *Stats)
}

// ProgressFunc adapts a plain function to the [ProgressReporter] interface.
type ProgressFunc func(ctx context.Context, stats *Stats)

func (f ProgressFunc) OnProgress(ctx context.Context, stats *Stats) {
	f(ctx, stats)
}
