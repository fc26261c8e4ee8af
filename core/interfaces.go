package core

import (
	"fmt"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling job panics
// =============================================================================

// PanicHandler is called when a job panics on a pool worker.
//
// Implementations should be thread-safe as they may be called concurrently.
type PanicHandler interface {
	// HandlePanic is called when a job panics.
	//
	// Parameters:
	// - poolName: The name of the pool that ran the job
	// - workerID: The index of the worker goroutine
	// - panicInfo: The panic value recovered from the job
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(poolName string, workerID int, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler prints panic information to stdout.
type DefaultPanicHandler struct{}

// HandlePanic prints panic information to stdout.
func (h *DefaultPanicHandler) HandlePanic(poolName string, workerID int, panicInfo any, stackTrace []byte) {
	fmt.Printf("[Worker %d @ %s] Panic: %v\nStack trace:\n%s", workerID, poolName, panicInfo, stackTrace)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics receives job execution measurements from the pools.
// Methods should be non-blocking and fast; they run on worker goroutines.
type Metrics interface {
	// RecordJobDuration records how long a job took to execute.
	RecordJobDuration(poolName string, duration time.Duration)

	// RecordJobPanic records that a job panicked during execution.
	RecordJobPanic(poolName string, panicInfo any)

	// RecordQueueDepth records the current number of queued jobs.
	RecordQueueDepth(poolName string, depth int)

	// RecordJobRejected records that a job could not be queued.
	// reason is "queue_full" or "shutdown".
	RecordJobRejected(poolName string, reason string)
}

// NilMetrics is a no-op Metrics. It is the default.
type NilMetrics struct{}

func (m *NilMetrics) RecordJobDuration(poolName string, duration time.Duration) {}
func (m *NilMetrics) RecordJobPanic(poolName string, panicInfo any)             {}
func (m *NilMetrics) RecordQueueDepth(poolName string, depth int)               {}
func (m *NilMetrics) RecordJobRejected(poolName string, reason string)          {}

// =============================================================================
// RejectedJobHandler: Interface for handling rejected jobs
// =============================================================================

// RejectedJobHandler is called when EnqueueJob or EnqueueTask cannot queue a
// job, because the ring queue is full or the pool is shutting down.
//
// Implementations should be thread-safe as they may be called concurrently.
type RejectedJobHandler interface {
	HandleRejectedJob(poolName string, reason string)
}

// NilRejectedJobHandler ignores rejections. The caller still gets an error.
type NilRejectedJobHandler struct{}

// HandleRejectedJob is a no-op.
func (h *NilRejectedJobHandler) HandleRejectedJob(poolName string, reason string) {}

// Rejection reasons passed to RejectedJobHandler and Metrics.
const (
	RejectReasonQueueFull = "queue_full"
	RejectReasonShutdown  = "shutdown"
)

// =============================================================================
// Pool configuration
// =============================================================================

// DefaultQueueCapacity is the ring queue size used when none is configured.
const DefaultQueueCapacity = 1024

// WorkerPoolConfig holds configuration options for WorkerPool.
// Nil handlers are replaced by defaults.
type WorkerPoolConfig struct {
	// QueueCapacity is the ring queue size, rounded up to a power of two.
	QueueCapacity int

	// PanicHandler is called when a job panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler

	// Metrics records job execution metrics. Defaults to NilMetrics.
	Metrics Metrics

	// RejectedJobHandler is called when a job is rejected. Defaults to NilRejectedJobHandler.
	RejectedJobHandler RejectedJobHandler

	// Logger receives lifecycle messages. Defaults to NoOpLogger.
	Logger Logger
}

// DefaultWorkerPoolConfig returns a config with default handlers.
func DefaultWorkerPoolConfig() *WorkerPoolConfig {
	return &WorkerPoolConfig{
		QueueCapacity:      DefaultQueueCapacity,
		PanicHandler:       &DefaultPanicHandler{},
		Metrics:            &NilMetrics{},
		RejectedJobHandler: &NilRejectedJobHandler{},
		Logger:             NewNoOpLogger(),
	}
}

func (c *WorkerPoolConfig) withDefaults() WorkerPoolConfig {
	out := *DefaultWorkerPoolConfig()
	if c == nil {
		return out
	}
	if c.QueueCapacity > 0 {
		out.QueueCapacity = c.QueueCapacity
	}
	if c.PanicHandler != nil {
		out.PanicHandler = c.PanicHandler
	}
	if c.Metrics != nil {
		out.Metrics = c.Metrics
	}
	if c.RejectedJobHandler != nil {
		out.RejectedJobHandler = c.RejectedJobHandler
	}
	if c.Logger != nil {
		out.Logger = c.Logger
	}
	return out
}

// DefaultJobReserve is the initial per-worker job list capacity of a ParallelPool.
const DefaultJobReserve = 16

// ParallelPoolConfig holds configuration options for ParallelPool.
type ParallelPoolConfig struct {
	// Name labels the pool in logs and metrics.
	Name string

	// Reserve is the initial capacity of each worker's job list.
	Reserve int

	// PanicHandler is called when a job panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler

	// Metrics records job execution metrics. Defaults to NilMetrics.
	Metrics Metrics

	// Logger receives lifecycle messages. Defaults to NoOpLogger.
	Logger Logger
}

// DefaultParallelPoolConfig returns a config with default handlers.
func DefaultParallelPoolConfig() *ParallelPoolConfig {
	return &ParallelPoolConfig{
		Name:         "parallel",
		Reserve:      DefaultJobReserve,
		PanicHandler: &DefaultPanicHandler{},
		Metrics:      &NilMetrics{},
		Logger:       NewNoOpLogger(),
	}
}

func (c *ParallelPoolConfig) withDefaults() ParallelPoolConfig {
	out := *DefaultParallelPoolConfig()
	if c == nil {
		return out
	}
	if c.Name != "" {
		out.Name = c.Name
	}
	if c.Reserve > 0 {
		out.Reserve = c.Reserve
	}
	if c.PanicHandler != nil {
		out.PanicHandler = c.PanicHandler
	}
	if c.Metrics != nil {
		out.Metrics = c.Metrics
	}
	if c.Logger != nil {
		out.Logger = c.Logger
	}
	return out
}
