package core

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Spinlock is a test-and-test-and-set lock for very short critical sections.
//
// It has no owner tracking, is not reentrant and gives no fairness guarantee.
// Unlocking an unlocked Spinlock panics only in substrate_debug builds.
// The zero value is an unlocked Spinlock. It satisfies sync.Locker.
type Spinlock struct {
	_     cpu.CacheLinePad
	state atomic.Uint32
	_     cpu.CacheLinePad
}

// Lock spins until the lock is acquired. While the lock is visibly held it
// polls with plain loads so waiters don't bounce the cache line with CAS.
func (l *Spinlock) Lock() {
	if l.state.CompareAndSwap(0, 1) {
		return
	}
	var b backoff
	for {
		for l.state.Load() != 0 {
			b.wait()
		}
		if l.state.CompareAndSwap(0, 1) {
			return
		}
	}
}

// TryLock acquires the lock if it is free, without waiting.
func (l *Spinlock) TryLock() bool {
	return l.state.Load() == 0 && l.state.CompareAndSwap(0, 1)
}

// Unlock releases the lock.
func (l *Spinlock) Unlock() {
	if debugAssertions {
		if l.state.Swap(0) != 1 {
			usagePanic("Spinlock.Unlock", "", errUnlockUnlocked)
		}
		return
	}
	l.state.Store(0)
}

// IsLocked reports whether the lock is currently held. Diagnostic only.
func (l *Spinlock) IsLocked() bool {
	return l.state.Load() != 0
}
