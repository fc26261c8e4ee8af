package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Swind/go-substrate/core"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	ringItems    int
	ringCapacity int
)

var ringCmd = &cobra.Command{
	Use:   "ring",
	Short: "Measure single-producer/single-consumer RingQueue throughput",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := setup(ctx)
		if err != nil {
			return err
		}
		defer e.close()

		res, err := runRing(ctx, e, ringItems, ringCapacity)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "items=%d capacity=%d sum=%d elapsed=%v rate=%.0f/s\n",
			res.items, res.capacity, res.sum, res.elapsed, float64(res.items)/res.elapsed.Seconds())
		return nil
	},
}

func init() {
	ringCmd.Flags().IntVarP(&ringItems, "items", "n", 1_000_000, "items to pass through the queue")
	ringCmd.Flags().IntVar(&ringCapacity, "capacity", 1024, "queue capacity (rounded up to a power of two)")
	rootCmd.AddCommand(ringCmd)
}

type ringResult struct {
	items    int
	capacity int
	sum      uint64
	elapsed  time.Duration
}

// runRing pushes 0..items-1 from one goroutine and pops them from another.
// The consumer checks FIFO order as it goes.
func runRing(ctx context.Context, e *env, items, capacity int) (ringResult, error) {
	q := core.NewRingQueue[uint64](capacity)
	if e.poller != nil {
		e.poller.AddQueue("ring", q)
	}

	start := time.Now()
	var sum uint64
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for i := 0; i < items; i++ {
			if err := q.EnqueueContext(gctx, uint64(i)); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		for want := uint64(0); want < uint64(items); want++ {
			got, err := q.DequeueContext(gctx)
			if err != nil {
				return err
			}
			if got != want {
				return fmt.Errorf("ring order broken: got %d, want %d", got, want)
			}
			sum += got
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		q.Shutdown()
		return ringResult{}, err
	}
	res := ringResult{items: items, capacity: q.Capacity(), sum: sum, elapsed: time.Since(start)}
	e.logger.Info("ring run finished",
		core.F("items", items),
		core.F("capacity", res.capacity),
		core.F("elapsed", res.elapsed))
	return res, nil
}
