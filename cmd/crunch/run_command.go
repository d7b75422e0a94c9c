package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bjaus/crunch"
	"github.com/bjaus/crunch/builtin"
	"github.com/bjaus/crunch/jobfile"
)

func newRunCommand(root *rootOptions) *cobra.Command {
	var (
		workers       int
		workerIndex   int
		progressEvery int
		runID         string
	)

	cmd := &cobra.Command{
		Use:   "run FILE [-- JOB_OPTIONS...]",
		Short: "Run a job file",
		Long: "Run a job file. Arguments after -- are passed to the job and parsed " +
			"against the options it declares.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, jobArgs, err := splitJobArgs(cmd, args)
			if err != nil {
				return err
			}

			logger, err := newLogger(cmd.ErrOrStderr(), root.logLevel)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			reg := builtin.Registry(
				builtin.WithStdout(cmd.OutOrStdout()),
				builtin.WithLogger(logger),
			)
			job, err := jobfile.LoadJob(ctx, file, reg, jobArgs)
			if err != nil {
				var usage *jobfile.UsageError
				if errors.As(err, &usage) {
					fmt.Fprint(cmd.ErrOrStderr(), usage.Usage)
				}
				return err
			}

			p, err := crunch.New(job,
				crunch.WithPartition(workers, workerIndex),
				crunch.WithLogger(logger),
				crunch.WithRunID(runID),
				crunch.WithProgressReporter(progressLogger{logger: logger}),
				crunch.WithReportInterval(progressEvery),
			)
			if err != nil {
				return err
			}
			return p.Run(ctx)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", crunch.DefaultTotalWorkers, "Total number of workers running this job")
	cmd.Flags().IntVar(&workerIndex, "worker-index", crunch.DefaultWorkerIndex, "Index of this worker, from 0 to workers-1")
	cmd.Flags().IntVar(&progressEvery, "progress-every", 0, "Log progress every N records read (default 10000)")
	cmd.Flags().StringVar(&runID, "run-id", "", "Run identifier attached to logs (default random)")

	return cmd
}

// splitJobArgs separates the job file from the arguments after "--".
func splitJobArgs(cmd *cobra.Command, args []string) (string, []string, error) {
	dash := cmd.ArgsLenAtDash()
	files := args
	var jobArgs []string
	if dash >= 0 {
		files, jobArgs = args[:dash], args[dash:]
	}
	switch len(files) {
	case 0:
		return "", nil, errors.New("a job file is required")
	case 1:
		return files[0], jobArgs, nil
	default:
		return "", nil, fmt.Errorf("exactly one job file is required, got %d", len(files))
	}
}

type progressLogger struct {
	logger *slog.Logger
}

func (p progressLogger) OnProgress(ctx context.Context, stats *crunch.Stats) {
	p.logger.InfoContext(ctx, "progress", slog.Any("stats", stats))
}
