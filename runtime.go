package substrate

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Swind/go-substrate/config"
	"github.com/Swind/go-substrate/core"
	"golang.org/x/sync/errgroup"
)

// SystemsDomain tags the index domain of per-frame system state.
type SystemsDomain struct{}

// ResourcesDomain tags the index domain of shared singleton resources.
type ResourcesDomain struct{}

// UnboundedSlots as Options.SlotCapacity lets the stores hold values of any size.
const UnboundedSlots = ^uintptr(0)

// Options configures NewRuntime. Zero fields take defaults.
type Options struct {
	// Workers is the WorkerPool size. Defaults to GOMAXPROCS.
	Workers int
	// QueueCapacity is the WorkerPool ring size.
	QueueCapacity int
	// ParallelWorkers is the ParallelPool size. Defaults to Workers.
	ParallelWorkers int
	// Reserve is the initial per-worker job list capacity of the ParallelPool.
	Reserve int
	// SlotCapacity bounds the size, in bytes, of values kept in the stores.
	// Zero means core.DefaultSlotCapacity and UnboundedSlots turns the check
	// off. Any other value must be at least 8.
	SlotCapacity uintptr
	// StopTimeout bounds the graceful drain in Close.
	StopTimeout time.Duration

	Logger       core.Logger
	Metrics      core.Metrics
	PanicHandler core.PanicHandler
}

// DefaultOptions returns Options with every default filled in.
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

// OptionsFromConfig maps a loaded configuration onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Workers:         cfg.Workers.Threads,
		QueueCapacity:   cfg.Workers.QueueCapacity,
		ParallelWorkers: cfg.Parallel.Workers,
		Reserve:         cfg.Parallel.Reserve,
		SlotCapacity:    uintptr(cfg.Store.SlotCapacity),
		StopTimeout:     cfg.Workers.StopTimeout.Duration,
	}
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.QueueCapacity <= 0 {
		o.QueueCapacity = core.DefaultQueueCapacity
	}
	if o.ParallelWorkers <= 0 {
		o.ParallelWorkers = o.Workers
	}
	if o.Reserve <= 0 {
		o.Reserve = core.DefaultJobReserve
	}
	if o.SlotCapacity == 0 {
		o.SlotCapacity = core.DefaultSlotCapacity
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = 5 * time.Second
	}
	if o.Logger == nil {
		o.Logger = core.NewNoOpLogger()
	}
	if o.Metrics == nil {
		o.Metrics = &core.NilMetrics{}
	}
	if o.PanicHandler == nil {
		o.PanicHandler = &core.DefaultPanicHandler{}
	}
	return o
}

// Runtime bundles one TypeIndexer, a store per index domain and both pools.
// Pools are started by NewRuntime and stopped by Close.
type Runtime struct {
	Types     *core.TypeIndexer
	Systems   *core.Store[SystemsDomain]
	Resources *core.Store[ResourcesDomain]
	Workers   *core.WorkerPool
	Parallel  *core.ParallelPool[float64]

	logger      core.Logger
	stopTimeout time.Duration
	closeOnce   sync.Once
	closeErr    error
}

// NewRuntime builds and starts a Runtime.
func NewRuntime(opts Options) (*Runtime, error) {
	opts = opts.withDefaults()
	storeCfg := core.StoreConfig{SlotCapacity: opts.SlotCapacity}
	switch {
	case opts.SlotCapacity == UnboundedSlots:
		storeCfg.SlotCapacity = 0
	case opts.SlotCapacity < 8:
		return nil, fmt.Errorf("runtime: slot capacity %d is too small", opts.SlotCapacity)
	}

	types := core.NewTypeIndexerWithLogger(opts.Logger)

	rt := &Runtime{
		Types:     types,
		Systems:   core.NewStoreWithConfig[SystemsDomain](types, storeCfg),
		Resources: core.NewStoreWithConfig[ResourcesDomain](types, storeCfg),
		Workers: core.NewWorkerPoolWithConfig("workers", opts.Workers, &core.WorkerPoolConfig{
			QueueCapacity: opts.QueueCapacity,
			PanicHandler:  opts.PanicHandler,
			Metrics:       opts.Metrics,
			Logger:        opts.Logger,
		}),
		Parallel: core.NewParallelPoolWithConfig[float64](opts.ParallelWorkers, &core.ParallelPoolConfig{
			Name:         "parallel",
			Reserve:      opts.Reserve,
			PanicHandler: opts.PanicHandler,
			Metrics:      opts.Metrics,
			Logger:       opts.Logger,
		}),
		logger:      opts.Logger,
		stopTimeout: opts.StopTimeout,
	}

	rt.Workers.Start(context.Background())
	rt.Parallel.Start()
	return rt, nil
}

// Close drains the WorkerPool, stops the ParallelPool and clears both
// stores. It returns the WorkerPool drain error, if any. Safe to call more
// than once.
func (rt *Runtime) Close() error {
	rt.closeOnce.Do(func() {
		var g errgroup.Group
		g.Go(func() error {
			return rt.Workers.StopGraceful(rt.stopTimeout)
		})
		g.Go(func() error {
			rt.Parallel.Stop()
			return nil
		})
		rt.closeErr = g.Wait()

		rt.Systems.Clear()
		rt.Resources.Clear()
		rt.logger.Info("runtime closed")
	})
	return rt.closeErr
}
