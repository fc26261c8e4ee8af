package core

import (
	"errors"
	"fmt"
)

// Capacity and shutdown failures. These are returned as values and are
// expected to be handled by callers.
var (
	ErrQueueFull      = errors.New("queue is full")
	ErrQueueShutdown  = errors.New("queue is shut down")
	ErrPoolShutdown   = errors.New("pool is shut down")
	ErrPoolNotStarted = errors.New("pool is not started")
)

// Precondition violations. These are never returned; they are carried by a
// *UsageError panic value.
var (
	ErrSlotOccupied  = errors.New("slot already occupied")
	ErrNotPresent    = errors.New("type not present")
	ErrTypeMismatch  = errors.New("slot type mismatch")
	ErrSlotTooLarge  = errors.New("type exceeds slot capacity")
	ErrInvalidWorker = errors.New("invalid worker id")

	errUnlockUnlocked = errors.New("unlock of unlocked spinlock")
)

// UsageError describes a programming error: using the API in a way its
// preconditions forbid. It is raised with panic, never returned.
type UsageError struct {
	Op   string
	Type string
	Err  error
}

func (e *UsageError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Type, e.Err)
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

func usagePanic(op, typ string, err error) {
	panic(&UsageError{Op: op, Type: typ, Err: err})
}

// PanicError wraps a value recovered from a panicking job.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("job panicked: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
