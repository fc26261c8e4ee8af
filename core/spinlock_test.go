package core

import (
	"errors"
	"sync"
	"testing"
)

var _ sync.Locker = (*Spinlock)(nil)

// expectUsagePanic runs fn and fails unless it panics with a *UsageError
// wrapping want.
func expectUsagePanic(t *testing.T, want error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected panic wrapping %v, got none", want)
		}
		err, ok := r.(*UsageError)
		if !ok {
			t.Fatalf("panic value = %T(%v), want *UsageError", r, r)
		}
		if !errors.Is(err, want) {
			t.Fatalf("panic error = %v, want %v", err, want)
		}
	}()
	fn()
}

// TestSpinlock_MutualExclusion verifies the lock serialises critical sections
// Given: 8 goroutines each incrementing a shared counter 1000 times
// When: Every increment is done under the Spinlock
// Then: No increment is lost
func TestSpinlock_MutualExclusion(t *testing.T) {
	// Arrange
	var (
		l       Spinlock
		counter int
		wg      sync.WaitGroup
	)
	const goroutines, iterations = 8, 1000

	// Act
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range iterations {
				l.Lock()
				counter++
				l.Unlock()
			}
		}()
	}
	wg.Wait()

	// Assert
	if counter != goroutines*iterations {
		t.Errorf("counter = %d, want %d", counter, goroutines*iterations)
	}
	if l.IsLocked() {
		t.Error("lock still held after all goroutines finished")
	}
}

// TestSpinlock_TryLock verifies non-blocking acquisition
// Given: A held Spinlock
// When: TryLock is called
// Then: It fails until the holder unlocks
func TestSpinlock_TryLock(t *testing.T) {
	var l Spinlock

	if !l.TryLock() {
		t.Fatal("TryLock on zero Spinlock failed")
	}
	if !l.IsLocked() {
		t.Error("IsLocked = false after TryLock")
	}
	if l.TryLock() {
		t.Error("TryLock succeeded on held lock")
	}

	l.Unlock()
	if l.IsLocked() {
		t.Error("IsLocked = true after Unlock")
	}
	if !l.TryLock() {
		t.Error("TryLock failed after Unlock")
	}
	l.Unlock()
}

// TestSpinlock_LockWaitsForHolder verifies Lock blocks while held
func TestSpinlock_LockWaitsForHolder(t *testing.T) {
	var l Spinlock
	l.Lock()

	acquired := make(chan struct{})
	go func() {
		l.Lock()
		close(acquired)
		l.Unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock acquired a held lock")
	default:
	}

	l.Unlock()
	<-acquired
}
