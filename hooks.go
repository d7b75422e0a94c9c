package crunch

import "context"

// Hook runs outside the per-record path, either before any source is read
// (pre-process) or after every destination has been closed (post-process).
//
// Use pre-process hooks for:
//   - Creating tables, queues, or output directories
//   - Truncating staging data from a previous run
//   - Logging the start of a job
//
// Use post-process hooks for:
//   - Swapping a staging table into place once every write has committed
//   - Sending completion notifications
//   - Logging final state
//
// A hook error aborts the run. A failing pre-process hook runs before any
// source is touched; a failing post-process hook runs after every write has
// already committed, so nothing is rolled back.
//
// Example:
//
//	err := job.AddPreProcess(crunch.HookFunc(func(ctx context.Context) error {
//	    _, err := db.ExecContext(ctx, "DELETE FROM staging_users")
//	    return err
//	}))
type Hook interface {
	Run(ctx context.Context) error
}

// HookFunc adapts a plain function to the [Hook] interface.
type HookFunc func(ctx context.Context) error

func (f HookFunc) Run(ctx context.Context) error {
	return f(ctx)
}
