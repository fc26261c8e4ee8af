package substrate

import (
	"context"
	"sync"

	"github.com/Swind/go-substrate/core"
)

// =============================================================================
// Global Worker Pool Helper (Singleton)
// =============================================================================

var (
	globalWorkerPool *core.WorkerPool
	globalMu         sync.Mutex
)

// InitGlobalWorkerPool initializes the global worker pool with the specified
// number of workers and the default queue capacity. It starts the pool
// immediately. Later calls are no-ops until ShutdownGlobalWorkerPool.
func InitGlobalWorkerPool(workers int) {
	InitGlobalWorkerPoolWithConfig(workers, nil)
}

// InitGlobalWorkerPoolWithConfig is InitGlobalWorkerPool with explicit
// handlers and queue capacity.
func InitGlobalWorkerPoolWithConfig(workers int, config *core.WorkerPoolConfig) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalWorkerPool != nil {
		return // Already initialized
	}

	globalWorkerPool = core.NewWorkerPoolWithConfig("global-pool", workers, config)
	globalWorkerPool.Start(context.Background())
}

// GetGlobalWorkerPool returns the global worker pool instance.
// It panics if InitGlobalWorkerPool has not been called.
func GetGlobalWorkerPool() *core.WorkerPool {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalWorkerPool == nil {
		panic("GlobalWorkerPool not initialized. Call InitGlobalWorkerPool() first.")
	}
	return globalWorkerPool
}

// ShutdownGlobalWorkerPool stops the global worker pool. Queued jobs that
// have not started are dropped.
func ShutdownGlobalWorkerPool() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalWorkerPool != nil {
		globalWorkerPool.Stop()
		globalWorkerPool = nil
	}
}

// EnqueueJob queues fn on the global worker pool.
func EnqueueJob(fn func()) error {
	return GetGlobalWorkerPool().EnqueueJob(fn)
}

// EnqueueTask queues fn on the global worker pool and returns its Future.
func EnqueueTask[R any](fn func() (R, error)) (*core.Future[R], error) {
	return core.EnqueueTask(GetGlobalWorkerPool(), fn)
}
