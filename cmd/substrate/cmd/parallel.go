package cmd

import (
	"context"
	"fmt"

	"github.com/Swind/go-substrate/core"
	"github.com/spf13/cobra"
)

var parallelJobs int

var parallelCmd = &cobra.Command{
	Use:   "parallel",
	Short: "Fill ParallelPool job lists, signal each worker and collect results",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := setup(ctx)
		if err != nil {
			return err
		}
		defer e.close()

		results, err := runParallel(ctx, e, parallelJobs)
		if err != nil {
			return err
		}
		for id, rs := range results {
			fmt.Fprintf(cmd.OutOrStdout(), "worker=%d results=%v\n", id, rs)
		}
		return nil
	},
}

func init() {
	parallelCmd.Flags().IntVarP(&parallelJobs, "jobs", "n", 5, "result jobs per worker")
	rootCmd.AddCommand(parallelCmd)
}

// runParallel gives every idle worker jobs returning 1..jobs, signals them
// and returns each worker's results.
func runParallel(ctx context.Context, e *env, jobs int) ([][]float64, error) {
	pool := core.NewParallelPoolWithConfig[float64](e.cfg.Parallel.Workers, &core.ParallelPoolConfig{
		Name:    "parallel",
		Reserve: e.cfg.Parallel.Reserve,
		Metrics: e.metrics(),
		Logger:  e.logger,
	})
	if e.poller != nil {
		e.poller.AddParallelPool(pool.Name(), pool)
	}
	pool.Start()
	defer pool.Stop()

	var targets []int
	pool.Each(func(id int) bool {
		list := pool.GetPool(id)
		for n := 1; n <= jobs; n++ {
			list.EnqueueResult(func() float64 { return float64(n) })
		}
		targets = append(targets, id)
		return true
	})

	for _, id := range targets {
		pool.Signal(id)
	}

	results := make([][]float64, pool.WorkerCount())
	for _, id := range targets {
		if err := pool.WaitIdle(ctx, id); err != nil {
			return nil, err
		}
		results[id] = pool.ExtractResult(id)
	}
	return results, nil
}
