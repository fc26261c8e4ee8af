package substrate

import "github.com/Swind/go-substrate/core"

// Re-export commonly used types from core package for convenience.
// Generic helpers (Create, Get, EnqueueTask, ...) stay in core because Go
// cannot alias generic functions.

// TypeIndexer assigns stable per-domain indices to types
type TypeIndexer = core.TypeIndexer

// TypeInfo describes a registered type
type TypeInfo = core.TypeInfo

// Store is a heterogeneous one-value-per-type container
type Store[D any] = core.Store[D]

// StoreConfig bounds the size of stored values
type StoreConfig = core.StoreConfig

// Spinlock is a busy-waiting mutual exclusion lock
type Spinlock = core.Spinlock

// RingQueue is a bounded SPSC FIFO
type RingQueue[T any] = core.RingQueue[T]

// WorkerPool runs jobs from a shared ring queue
type WorkerPool = core.WorkerPool

// WorkerPoolConfig configures a WorkerPool
type WorkerPoolConfig = core.WorkerPoolConfig

// ParallelPool runs jobs from per-worker lists on Signal
type ParallelPool[R any] = core.ParallelPool[R]

// ParallelPoolConfig configures a ParallelPool
type ParallelPoolConfig = core.ParallelPoolConfig

// Future is the pending result of EnqueueTask
type Future[R any] = core.Future[R]

// RetryPolicy controls EnqueueJobWithRetry
type RetryPolicy = core.RetryPolicy

// Logger is the structured logging interface used throughout
type Logger = core.Logger

// Metrics receives job measurements
type Metrics = core.Metrics

// Error sentinels
var (
	ErrQueueFull      = core.ErrQueueFull
	ErrQueueShutdown  = core.ErrQueueShutdown
	ErrPoolShutdown   = core.ErrPoolShutdown
	ErrPoolNotStarted = core.ErrPoolNotStarted
	ErrSlotOccupied   = core.ErrSlotOccupied
	ErrNotPresent     = core.ErrNotPresent
	ErrTypeMismatch   = core.ErrTypeMismatch
	ErrSlotTooLarge   = core.ErrSlotTooLarge
	ErrInvalidWorker  = core.ErrInvalidWorker
)

// DefaultRetryPolicy suits waiting out a briefly full queue
var DefaultRetryPolicy = core.DefaultRetryPolicy
