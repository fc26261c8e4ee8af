package cmd

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/Swind/go-substrate/core"
	"github.com/spf13/cobra"
)

var workersJobs int

var workersCmd = &cobra.Command{
	Use:   "workers",
	Short: "Run increments through the shared-queue WorkerPool",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := setup(ctx)
		if err != nil {
			return err
		}
		defer e.close()

		counter, sum, err := runWorkers(ctx, e, workersJobs)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "jobs=%d counter=%d task_sum=%d\n", workersJobs, counter, sum)
		return nil
	},
}

func init() {
	workersCmd.Flags().IntVarP(&workersJobs, "jobs", "n", 100, "number of increment jobs")
	rootCmd.AddCommand(workersCmd)
}

// runWorkers enqueues jobs increments plus one future-returning task per
// job, then drains the pool gracefully.
func runWorkers(ctx context.Context, e *env, jobs int) (int64, int, error) {
	pool := core.NewWorkerPoolWithConfig("workers", e.cfg.Workers.Threads, &core.WorkerPoolConfig{
		QueueCapacity: e.cfg.Workers.QueueCapacity,
		Metrics:       e.metrics(),
		Logger:        e.logger,
	})
	if e.poller != nil {
		e.poller.AddPool(pool.ID(), pool)
	}
	pool.Start(ctx)

	var counter atomic.Int64
	futures := make([]*core.Future[int], 0, jobs)
	policy := core.DefaultRetryPolicy()

	for i := 0; i < jobs; i++ {
		if err := pool.EnqueueJobWithRetry(ctx, func() { counter.Add(1) }, policy); err != nil {
			pool.Stop()
			return 0, 0, err
		}
		f, err := core.EnqueueTaskWithRetry(ctx, pool, func() (int, error) { return i, nil }, policy)
		if err != nil {
			pool.Stop()
			return 0, 0, err
		}
		futures = append(futures, f)
	}

	if err := pool.StopGraceful(e.cfg.Workers.StopTimeout.Duration); err != nil {
		return counter.Load(), 0, err
	}

	sum := 0
	for _, f := range futures {
		v, err := f.Wait(ctx)
		if err != nil {
			return counter.Load(), sum, err
		}
		sum += v
	}
	return counter.Load(), sum, nil
}
