package core

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// WorkerPool runs fire-and-forget jobs on a fixed set of worker goroutines.
// Jobs are queued on a bounded RingQueue; a full queue rejects instead of
// blocking the caller.
//
// A pool is started once. After Stop or StopGraceful it cannot be restarted.
type WorkerPool struct {
	id        string
	workers   int
	scheduler *jobScheduler
	logger    Logger
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	running   bool
	stopped   bool
	runningMu sync.RWMutex
	stopOnce  sync.Once
}

// NewWorkerPool creates a pool with the default handlers. workers <= 0 means
// GOMAXPROCS. An empty id gets a generated one.
func NewWorkerPool(id string, workers, queueCapacity int) *WorkerPool {
	config := DefaultWorkerPoolConfig()
	if queueCapacity > 0 {
		config.QueueCapacity = queueCapacity
	}
	return NewWorkerPoolWithConfig(id, workers, config)
}

// NewWorkerPoolWithConfig creates a pool. Nil fields of config take defaults.
func NewWorkerPoolWithConfig(id string, workers int, config *WorkerPoolConfig) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if id == "" {
		id = "pool-" + uuid.NewString()[:8]
	}
	cfg := config.withDefaults()
	return &WorkerPool{
		id:        id,
		workers:   workers,
		scheduler: newJobScheduler(id, workers, cfg),
		logger:    cfg.Logger,
	}
}

// Start starts all worker goroutines. It is a no-op if the pool is running
// or has been stopped. Cancelling ctx stops the pool as Stop does.
func (p *WorkerPool) Start(ctx context.Context) {
	p.runningMu.Lock()
	defer p.runningMu.Unlock()

	if p.running || p.stopped {
		return
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.running = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.workerLoop(i, p.ctx)
	}
	go p.stopOnDone(p.ctx)
	p.logger.Info("worker pool started",
		F("pool", p.id),
		F("workers", p.workers),
		F("capacity", p.scheduler.queue.Capacity()))
}

// Stop stops the pool immediately. Running jobs finish; queued jobs are
// dropped and their futures fail with ErrPoolShutdown. Safe to call more
// than once and on a pool that was never started.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		p.scheduler.shutdown()
		p.halt()
	})
}

// StopGraceful stops accepting jobs and waits up to timeout for the queued
// and running ones to finish, then stops the workers. On timeout the
// remaining jobs are dropped as in Stop and an error is returned.
func (p *WorkerPool) StopGraceful(timeout time.Duration) error {
	var err error
	p.stopOnce.Do(func() {
		if p.IsRunning() {
			err = p.scheduler.drain(timeout)
		}
		p.scheduler.shutdown()
		p.halt()
	})
	return err
}

// halt cancels the workers, waits for them and abandons whatever is left.
func (p *WorkerPool) halt() {
	p.runningMu.Lock()
	p.stopped = true
	wasRunning := p.running
	p.running = false
	p.runningMu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	if n := p.scheduler.abandonQueued(); n > 0 {
		p.logger.Warn("worker pool dropped queued jobs", F("pool", p.id), F("dropped", n))
	}
	if wasRunning {
		p.logger.Info("worker pool stopped", F("pool", p.id))
	}
}

// stopOnDone stops the pool once ctx is done. halt cancels ctx too, in which
// case Stop is already running and this call is a no-op.
func (p *WorkerPool) stopOnDone(ctx context.Context) {
	<-ctx.Done()
	p.Stop()
}

// workerLoop is the main loop for each worker
func (p *WorkerPool) workerLoop(id int, ctx context.Context) {
	defer p.wg.Done()
	stopCh := ctx.Done()

	for {
		j, ok := p.scheduler.getWork(stopCh)
		if !ok {
			return
		}
		p.scheduler.execute(id, j)
	}
}

// EnqueueJob queues fn without waiting. It returns ErrQueueFull when the
// ring is full and ErrPoolShutdown once the pool is stopping. Jobs may be
// queued before Start; they run once workers exist.
func (p *WorkerPool) EnqueueJob(fn func()) error {
	if fn == nil {
		return nil
	}
	return p.scheduler.post(job{run: fn})
}

// EnqueueJobWithRetry is EnqueueJob that backs off and retries while the
// queue is full, following policy. Shutdown and ctx cancellation end the
// retries early.
func (p *WorkerPool) EnqueueJobWithRetry(ctx context.Context, fn func(), policy RetryPolicy) error {
	return p.retryFull(ctx, policy, func() error { return p.EnqueueJob(fn) })
}

// EnqueueTaskWithRetry is EnqueueTask with EnqueueJobWithRetry's retries.
func EnqueueTaskWithRetry[R any](ctx context.Context, p *WorkerPool, fn func() (R, error), policy RetryPolicy) (*Future[R], error) {
	var f *Future[R]
	err := p.retryFull(ctx, policy, func() (err error) {
		f, err = EnqueueTask(p, fn)
		return err
	})
	return f, err
}

func (p *WorkerPool) retryFull(ctx context.Context, policy RetryPolicy, enqueue func() error) error {
	err := enqueue()
	for attempt := 0; attempt < policy.MaxRetries && errors.Is(err, ErrQueueFull); attempt++ {
		timer := time.NewTimer(policy.calculateDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		err = enqueue()
	}
	if errors.Is(err, ErrQueueFull) && policy.MaxRetries > 0 {
		return fmt.Errorf("enqueue on %s failed after %d retries: %w", p.id, policy.MaxRetries, err)
	}
	return err
}

// EnqueueTask queues fn and returns a Future for its result. A panic in fn
// completes the future with a *PanicError. If the pool stops before fn runs
// the future completes with ErrPoolShutdown.
func EnqueueTask[R any](p *WorkerPool, fn func() (R, error)) (*Future[R], error) {
	f := newFuture[R]()
	var zero R
	err := p.scheduler.post(job{
		run: func() {
			defer func() {
				if r := recover(); r != nil {
					f.complete(zero, &PanicError{Value: r, Stack: debug.Stack()})
					panic(r)
				}
			}()
			f.complete(fn())
		},
		abandon: func() {
			f.complete(zero, ErrPoolShutdown)
		},
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// WaitIdle blocks until no job is queued or running, or ctx is done. It
// returns ErrPoolNotStarted if jobs are queued on a pool that is not running.
func (p *WorkerPool) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for !p.scheduler.idle() {
		if !p.IsRunning() {
			return ErrPoolNotStarted
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// ID returns the ID of the pool
func (p *WorkerPool) ID() string {
	return p.id
}

// IsRunning returns whether the pool is running
func (p *WorkerPool) IsRunning() bool {
	p.runningMu.RLock()
	defer p.runningMu.RUnlock()
	return p.running
}

// WorkerCount returns the number of workers
func (p *WorkerPool) WorkerCount() int {
	return p.workers
}

func (p *WorkerPool) QueuedJobCount() int {
	return p.scheduler.QueuedJobCount()
}

func (p *WorkerPool) ActiveJobCount() int {
	return p.scheduler.ActiveJobCount()
}

// Stats returns a snapshot of the pool state.
func (p *WorkerPool) Stats() PoolStats {
	return PoolStats{
		ID:       p.id,
		Workers:  p.workers,
		Queued:   p.QueuedJobCount(),
		Active:   p.ActiveJobCount(),
		Capacity: p.scheduler.queue.Capacity(),
		Running:  p.IsRunning(),
	}
}
