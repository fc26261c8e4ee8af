package core

import (
	"context"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// RingQueue is a bounded single-producer/single-consumer FIFO.
//
// head and tail are monotonically increasing cursors; cells are addressed by
// cursor&mask so the cursors themselves never wrap back to zero. Occupancy is
// head-tail, which never exceeds Capacity. With exactly one producer and one
// consumer no lock is needed. Callers that have more of either side must
// serialise that side externally (see WorkerPool).
type RingQueue[T any] struct {
	_    cpu.CacheLinePad
	head atomic.Uint64 // next cell to write; advanced by the producer
	_    cpu.CacheLinePad
	tail atomic.Uint64 // next cell to read; advanced by the consumer
	_    cpu.CacheLinePad

	shutdown atomic.Bool
	mask     uint64
	cells    []T
}

// QueueStats is a point-in-time snapshot of a RingQueue.
type QueueStats struct {
	Size     int
	Capacity int
	Shutdown bool
}

// NewRingQueue creates a queue holding at least capacity items. The capacity
// is rounded up to a power of two. It panics if capacity < 1.
func NewRingQueue[T any](capacity int) *RingQueue[T] {
	if capacity < 1 {
		panic("RingQueue: capacity must be at least 1")
	}
	n := 1
	for n < capacity {
		n <<= 1
	}
	return &RingQueue[T]{
		mask:  uint64(n - 1),
		cells: make([]T, n),
	}
}

// Capacity returns the number of cells.
func (q *RingQueue[T]) Capacity() int {
	return len(q.cells)
}

// Size returns the number of queued items. It is a snapshot.
func (q *RingQueue[T]) Size() int {
	return int(q.head.Load() - q.tail.Load())
}

// Empty reports whether the queue holds no items.
func (q *RingQueue[T]) Empty() bool {
	return q.head.Load() == q.tail.Load()
}

// Full reports whether the queue holds Capacity items.
func (q *RingQueue[T]) Full() bool {
	return q.Size() >= len(q.cells)
}

// Stats returns a snapshot of the queue state.
func (q *RingQueue[T]) Stats() QueueStats {
	return QueueStats{
		Size:     q.Size(),
		Capacity: q.Capacity(),
		Shutdown: q.IsShutdown(),
	}
}

// TryEnqueue appends item if there is room. It returns false when the queue
// is full or shut down.
func (q *RingQueue[T]) TryEnqueue(item T) bool {
	if q.shutdown.Load() {
		return false
	}
	head := q.head.Load()
	if head-q.tail.Load() >= uint64(len(q.cells)) {
		return false
	}
	q.cells[head&q.mask] = item
	q.head.Store(head + 1)
	return true
}

// Enqueue appends item, waiting while the queue is full. It returns false if
// the queue is shut down before room becomes available.
func (q *RingQueue[T]) Enqueue(item T) bool {
	var b backoff
	for {
		if q.TryEnqueue(item) {
			return true
		}
		if q.shutdown.Load() {
			return false
		}
		b.wait()
	}
}

// EnqueueContext is Enqueue that also gives up when ctx is done.
func (q *RingQueue[T]) EnqueueContext(ctx context.Context, item T) error {
	var b backoff
	for {
		if q.TryEnqueue(item) {
			return nil
		}
		if q.shutdown.Load() {
			return ErrQueueShutdown
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		b.wait()
	}
}

// TryDequeue removes the oldest item if there is one.
func (q *RingQueue[T]) TryDequeue() (T, bool) {
	var zero T
	if q.shutdown.Load() {
		return zero, false
	}
	tail := q.tail.Load()
	if tail == q.head.Load() {
		return zero, false
	}
	idx := tail & q.mask
	item := q.cells[idx]
	q.cells[idx] = zero
	q.tail.Store(tail + 1)
	return item, true
}

// Dequeue removes the oldest item, waiting while the queue is empty. It
// returns false if the queue is shut down first.
func (q *RingQueue[T]) Dequeue() (T, bool) {
	var b backoff
	for {
		if item, ok := q.TryDequeue(); ok {
			return item, true
		}
		if q.shutdown.Load() {
			var zero T
			return zero, false
		}
		b.wait()
	}
}

// DequeueContext is Dequeue that also gives up when ctx is done.
func (q *RingQueue[T]) DequeueContext(ctx context.Context) (T, error) {
	var b backoff
	for {
		if item, ok := q.TryDequeue(); ok {
			return item, nil
		}
		var zero T
		if q.shutdown.Load() {
			return zero, ErrQueueShutdown
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		b.wait()
	}
}

// Shutdown makes every blocked and future Enqueue/Dequeue fail. Idempotent.
func (q *RingQueue[T]) Shutdown() {
	q.shutdown.Store(true)
}

// IsShutdown reports whether Shutdown has been called.
func (q *RingQueue[T]) IsShutdown() bool {
	return q.shutdown.Load()
}

// Drain discards every queued item and returns how many were dropped. If
// discard is non-nil it is called with each item, oldest first. Drain must
// only be called once producers and consumers have stopped, typically after
// Shutdown.
func (q *RingQueue[T]) Drain(discard func(T)) int {
	var zero T
	tail, head := q.tail.Load(), q.head.Load()
	n := int(head - tail)
	for ; tail != head; tail++ {
		idx := tail & q.mask
		if discard != nil {
			discard(q.cells[idx])
		}
		q.cells[idx] = zero
	}
	q.tail.Store(head)
	return n
}
