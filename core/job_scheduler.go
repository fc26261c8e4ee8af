package core

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"
)

// job is one unit of work queued on a WorkerPool.
type job struct {
	run func()
	// abandon is called instead of run when the job is dropped at shutdown.
	abandon func()
}

// jobScheduler feeds a WorkerPool's workers from a single RingQueue.
//
// The ring is single-producer/single-consumer, while the pool has many of
// both. Each side is therefore serialised by its own Spinlock, which keeps
// the ring itself lock-free and the critical sections a few instructions long.
type jobScheduler struct {
	name  string
	queue *RingQueue[job]

	produceMu Spinlock
	consumeMu Spinlock

	// signal wakes idle workers; sends never block
	signal chan struct{}

	metricActive atomic.Int32

	panicHandler       PanicHandler
	metrics            Metrics
	rejectedJobHandler RejectedJobHandler
	logger             Logger

	// closed rejects new jobs; stopping also makes workers drop queued ones
	closed   atomic.Bool
	stopping atomic.Bool
}

func newJobScheduler(name string, workerCount int, config WorkerPoolConfig) *jobScheduler {
	return &jobScheduler{
		name:               name,
		queue:              NewRingQueue[job](config.QueueCapacity),
		signal:             make(chan struct{}, workerCount*2),
		panicHandler:       config.PanicHandler,
		metrics:            config.Metrics,
		rejectedJobHandler: config.RejectedJobHandler,
		logger:             config.Logger,
	}
}

// post queues j without waiting. It fails with ErrQueueFull or ErrPoolShutdown.
func (s *jobScheduler) post(j job) error {
	if s.closed.Load() {
		s.reject(RejectReasonShutdown)
		return ErrPoolShutdown
	}

	s.produceMu.Lock()
	ok := s.queue.TryEnqueue(j)
	s.produceMu.Unlock()

	if !ok {
		if s.queue.IsShutdown() {
			s.reject(RejectReasonShutdown)
			return ErrPoolShutdown
		}
		s.reject(RejectReasonQueueFull)
		return ErrQueueFull
	}
	s.metrics.RecordQueueDepth(s.name, s.queue.Size())

	select {
	case s.signal <- struct{}{}:
	default:
		// Signal channel full; enough wakeups are already pending
	}
	return nil
}

func (s *jobScheduler) reject(reason string) {
	s.rejectedJobHandler.HandleRejectedJob(s.name, reason)
	s.metrics.RecordJobRejected(s.name, reason)
}

// getWork is called by workers. It blocks until a job is available or stopCh
// is closed. A returned job has already been counted as active.
func (s *jobScheduler) getWork(stopCh <-chan struct{}) (job, bool) {
	for {
		s.consumeMu.Lock()
		s.metricActive.Add(1)
		j, ok := s.queue.TryDequeue()
		if !ok {
			s.metricActive.Add(-1)
		}
		s.consumeMu.Unlock()

		if ok {
			if s.stopping.Load() {
				s.metricActive.Add(-1)
				if j.abandon != nil {
					j.abandon()
				}
				return job{}, false
			}
			return j, true
		}

		select {
		case <-s.signal:
			continue
		case <-stopCh:
			return job{}, false
		}
	}
}

// execute runs j on worker workerID, recovering panics.
func (s *jobScheduler) execute(workerID int, j job) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.panicHandler.HandlePanic(s.name, workerID, r, debug.Stack())
			s.metrics.RecordJobPanic(s.name, r)
		}
		s.metrics.RecordJobDuration(s.name, time.Since(start))
		s.metricActive.Add(-1)
	}()
	j.run()
}

// shutdown stops accepting work and releases blocked workers. Queued jobs
// are left for abandonQueued once the workers have exited.
func (s *jobScheduler) shutdown() {
	s.closed.Store(true)
	s.stopping.Store(true)
	s.queue.Shutdown()
}

// abandonQueued drops every job still queued. Callers must ensure no worker
// is running. Both locks are held so a producer already inside TryEnqueue
// either lands before the drain or sees the ring shut down.
func (s *jobScheduler) abandonQueued() int {
	s.produceMu.Lock()
	s.consumeMu.Lock()
	var dropped []job
	n := s.queue.Drain(func(j job) { dropped = append(dropped, j) })
	s.consumeMu.Unlock()
	s.produceMu.Unlock()

	for _, j := range dropped {
		if j.abandon != nil {
			j.abandon()
		}
	}
	s.metrics.RecordQueueDepth(s.name, 0)
	return n
}

// drain stops accepting work and waits until queued and active jobs are done.
func (s *jobScheduler) drain(timeout time.Duration) error {
	s.closed.Store(true)

	deadline := time.After(timeout)
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for {
		if s.idle() {
			return nil
		}
		select {
		case <-deadline:
			return fmt.Errorf("graceful stop of %s timed out after %v: %d queued, %d active",
				s.name, timeout, s.QueuedJobCount(), s.ActiveJobCount())
		case <-ticker.C:
		}
	}
}

// idle reads the queue before the active count: a worker bumps active before
// it advances the queue tail, so an in-flight job is always visible.
func (s *jobScheduler) idle() bool {
	return s.QueuedJobCount() == 0 && s.ActiveJobCount() == 0
}

func (s *jobScheduler) QueuedJobCount() int { return s.queue.Size() }
func (s *jobScheduler) ActiveJobCount() int { return int(s.metricActive.Load()) }
