package core

import "sync"

const (
	compactMinCap       = 64 // Don't compact if capacity is less than this
	compactShrinkFactor = 4  // Trigger compaction when len < cap/4
)

type listEntry[R any] struct {
	run    func()
	result func() R
}

// JobList is one ParallelPool worker's private FIFO of jobs.
//
// Enqueue never wakes the worker; the owner of the pool calls Signal once the
// batch is in place.
type JobList[R any] struct {
	mu      sync.Mutex
	jobs    []listEntry[R]
	reserve int
}

func newJobList[R any](reserve int) *JobList[R] {
	return &JobList[R]{
		jobs:    make([]listEntry[R], 0, reserve),
		reserve: reserve,
	}
}

// Enqueue appends a job whose outcome is not collected.
func (l *JobList[R]) Enqueue(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.jobs = append(l.jobs, listEntry[R]{run: fn})
}

// EnqueueResult appends a job whose return value is appended to the worker's
// result list, retrievable with ParallelPool.ExtractResult.
func (l *JobList[R]) EnqueueResult(fn func() R) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.jobs = append(l.jobs, listEntry[R]{result: fn})
}

// Len returns the number of jobs not yet taken by the worker.
func (l *JobList[R]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.jobs)
}

// pop removes the oldest job.
func (l *JobList[R]) pop() (listEntry[R], bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.jobs) == 0 {
		return listEntry[R]{}, false
	}

	e := l.jobs[0]
	// Zero out the element in the underlying array to prevent memory leak
	l.jobs[0] = listEntry[R]{}
	l.jobs = l.jobs[1:]
	l.maybeCompactLocked()

	return e, true
}

func (l *JobList[R]) maybeCompactLocked() {
	n := len(l.jobs)
	c := cap(l.jobs)

	if c < compactMinCap {
		return
	}
	if n == 0 {
		l.jobs = make([]listEntry[R], 0, l.reserve)
		return
	}
	if n*compactShrinkFactor >= c {
		return
	}

	newSlice := make([]listEntry[R], n, max(c/2, l.reserve, n))
	copy(newSlice, l.jobs)
	l.jobs = newSlice
}

// clear drops every pending job.
func (l *JobList[R]) clear() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.jobs)
	l.jobs = make([]listEntry[R], 0, l.reserve)
	return n
}
