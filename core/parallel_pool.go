package core

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

type parallelWorker[R any] struct {
	mu       sync.Mutex
	cond     *sync.Cond
	signaled bool
	busy     atomic.Bool

	jobs *JobList[R]

	resultMu sync.Mutex
	results  []R
}

// ParallelPool is a set of workers that each own a private job list.
//
// Nothing runs when a job is enqueued. The caller fills a worker's list via
// GetPool and then calls Signal to make that worker drain it. Jobs added with
// EnqueueResult contribute to that worker's result list.
type ParallelPool[R any] struct {
	name    string
	workers []*parallelWorker[R]

	panicHandler PanicHandler
	metrics      Metrics
	logger       Logger

	started  atomic.Bool
	shutdown atomic.Bool
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewParallelPool creates a pool with workers workers, each job list
// preallocated to reserve entries. workers <= 0 panics.
func NewParallelPool[R any](workers, reserve int) *ParallelPool[R] {
	config := DefaultParallelPoolConfig()
	if reserve > 0 {
		config.Reserve = reserve
	}
	return NewParallelPoolWithConfig[R](workers, config)
}

// NewParallelPoolWithConfig creates a pool. Nil fields of config take defaults.
func NewParallelPoolWithConfig[R any](workers int, config *ParallelPoolConfig) *ParallelPool[R] {
	if workers <= 0 {
		usagePanic("NewParallelPool", "", ErrInvalidWorker)
	}
	cfg := config.withDefaults()
	p := &ParallelPool[R]{
		name:         cfg.Name,
		workers:      make([]*parallelWorker[R], workers),
		panicHandler: cfg.PanicHandler,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
	}
	for i := range p.workers {
		w := &parallelWorker[R]{jobs: newJobList[R](cfg.Reserve)}
		w.cond = sync.NewCond(&w.mu)
		p.workers[i] = w
	}
	return p
}

// Start launches the worker goroutines. Calling it again, or after Stop, is
// a no-op.
func (p *ParallelPool[R]) Start() {
	if p.shutdown.Load() || !p.started.CompareAndSwap(false, true) {
		return
	}
	for i, w := range p.workers {
		p.wg.Add(1)
		go p.workerLoop(i, w)
	}
	p.logger.Info("parallel pool started", F("pool", p.name), F("workers", len(p.workers)))
}

func (p *ParallelPool[R]) workerLoop(id int, w *parallelWorker[R]) {
	defer p.wg.Done()

	for {
		w.mu.Lock()
		w.busy.Store(false)
		for !w.signaled && !p.shutdown.Load() {
			w.cond.Wait()
		}
		w.signaled = false
		w.busy.Store(true)
		w.mu.Unlock()

		if p.shutdown.Load() {
			w.busy.Store(false)
			return
		}
		p.drain(id, w)
	}
}

// drain runs every job in w's list, including ones added while draining.
func (p *ParallelPool[R]) drain(id int, w *parallelWorker[R]) {
	for {
		e, ok := w.jobs.pop()
		if !ok {
			return
		}
		p.run(id, w, e)
	}
}

func (p *ParallelPool[R]) run(id int, w *parallelWorker[R], e listEntry[R]) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.panicHandler.HandlePanic(p.name, id, r, debug.Stack())
			p.metrics.RecordJobPanic(p.name, r)
		}
		p.metrics.RecordJobDuration(p.name, time.Since(start))
	}()

	if e.result == nil {
		e.run()
		return
	}
	v := e.result()
	w.resultMu.Lock()
	w.results = append(w.results, v)
	w.resultMu.Unlock()
}

func (p *ParallelPool[R]) worker(op string, id int) *parallelWorker[R] {
	if id < 0 || id >= len(p.workers) {
		usagePanic(op, "", ErrInvalidWorker)
	}
	return p.workers[id]
}

// GetPool returns worker id's job list. It panics if id is out of range.
func (p *ParallelPool[R]) GetPool(id int) *JobList[R] {
	return p.worker("GetPool", id).jobs
}

// Signal wakes worker id so it drains its job list.
func (p *ParallelPool[R]) Signal(id int) {
	w := p.worker("Signal", id)
	p.metrics.RecordQueueDepth(p.name, w.jobs.Len())

	w.mu.Lock()
	w.signaled = true
	w.cond.Signal()
	w.mu.Unlock()
}

// SignalAll wakes every worker.
func (p *ParallelPool[R]) SignalAll() {
	for i := range p.workers {
		p.Signal(i)
	}
}

// Each calls fn with the id of every currently idle worker, highest id
// first, until fn returns false. A worker reported idle may become busy
// before the caller acts on it.
func (p *ParallelPool[R]) Each(fn func(id int) bool) {
	for i := len(p.workers) - 1; i >= 0; i-- {
		if p.workers[i].busy.Load() {
			continue
		}
		if !fn(i) {
			return
		}
	}
}

// ExtractResult moves worker id's accumulated results out, in the order
// their jobs ran, leaving the list empty.
func (p *ParallelPool[R]) ExtractResult(id int) []R {
	w := p.worker("ExtractResult", id)
	w.resultMu.Lock()
	defer w.resultMu.Unlock()
	out := w.results
	w.results = nil
	return out
}

// WaitIdle blocks until worker id has handled its last Signal and is waiting
// again, or ctx is done.
func (p *ParallelPool[R]) WaitIdle(ctx context.Context, id int) error {
	w := p.worker("WaitIdle", id)
	ticker := time.NewTicker(100 * time.Microsecond)
	defer ticker.Stop()
	for {
		w.mu.Lock()
		idle := !w.signaled && !w.busy.Load()
		w.mu.Unlock()
		if idle {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Stop flags every worker for shutdown and joins them. A worker finishes its
// current drain first. Jobs never drained are dropped. Idempotent.
func (p *ParallelPool[R]) Stop() {
	p.stopOnce.Do(func() {
		p.shutdown.Store(true)
		for _, w := range p.workers {
			w.mu.Lock()
			w.cond.Broadcast()
			w.mu.Unlock()
		}
		p.wg.Wait()

		dropped := 0
		for _, w := range p.workers {
			dropped += w.jobs.clear()
		}
		if dropped > 0 {
			p.logger.Warn("parallel pool dropped pending jobs", F("pool", p.name), F("dropped", dropped))
		}
		if p.started.Load() {
			p.logger.Info("parallel pool stopped", F("pool", p.name))
		}
	})
}

// Name returns the pool's name.
func (p *ParallelPool[R]) Name() string {
	return p.name
}

// WorkerCount returns the number of workers
func (p *ParallelPool[R]) WorkerCount() int {
	return len(p.workers)
}

// Stats returns a snapshot of the pool state.
func (p *ParallelPool[R]) Stats() ParallelStats {
	s := ParallelStats{
		Name:    p.name,
		Workers: len(p.workers),
		Running: p.started.Load() && !p.shutdown.Load(),
	}
	for _, w := range p.workers {
		if w.busy.Load() {
			s.Busy++
		}
		s.Pending += w.jobs.Len()
	}
	return s
}
