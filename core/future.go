package core

import (
	"context"
	"sync"
)

// Future is the result channel of a task submitted with EnqueueTask.
// It is completed exactly once, by the worker that runs the task.
type Future[R any] struct {
	done  chan struct{}
	once  sync.Once
	value R
	err   error
}

func newFuture[R any]() *Future[R] {
	return &Future[R]{done: make(chan struct{})}
}

func (f *Future[R]) complete(value R, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Done is closed once the result is available.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task finishes or ctx is done.
func (f *Future[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// TryResult returns the result without blocking. ok is false while the task
// has not finished.
func (f *Future[R]) TryResult() (value R, ok bool, err error) {
	select {
	case <-f.done:
		return f.value, true, f.err
	default:
		var zero R
		return zero, false, nil
	}
}
