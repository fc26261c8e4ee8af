// Package substrate provides the low-level runtime pieces an engine or
// simulation loop is built on: a type-indexed heterogeneous store, a bounded
// lock-free ring queue, a spinlock and two worker pools.
//
// The building blocks live in the core package; this package re-exports the
// common types and adds a Runtime that wires them together.
//
// # Quick Start
//
// Initialize the global worker pool at application startup:
//
//	substrate.InitGlobalWorkerPool(4) // 4 workers
//	defer substrate.ShutdownGlobalWorkerPool()
//
//	substrate.GetGlobalWorkerPool().EnqueueJob(func() {
//		// runs on a pool worker
//	})
//
// # Key Concepts
//
// TypeIndexer: gives each Go type a dense, stable index inside an index
// domain. Domains are plain tag types, so unrelated subsystems number their
// types independently.
//
// Store: a heterogeneous container holding at most one value per type,
// addressed by that type's index. Lookups are a slice access and a type
// check; no map or interface boxing on the hot path.
//
// RingQueue: a bounded single-producer/single-consumer FIFO with
// power-of-two capacity.
//
// WorkerPool: N workers sharing one RingQueue. Jobs are fire-and-forget or
// return a Future. A full queue rejects rather than blocks.
//
// ParallelPool: N workers each owning a private job list. Nothing runs until
// the caller signals a worker, which then drains its list and collects any
// results.
//
// # Thread Safety
//
// TypeIndexer, RingQueue (one producer, one consumer), WorkerPool and
// ParallelPool are safe for concurrent use. A Store is owned by one logical
// owner and must be synchronised externally if shared.
//
// # Example
//
//	import (
//		"context"
//		substrate "github.com/Swind/go-substrate"
//		"github.com/Swind/go-substrate/core"
//	)
//
//	type Gravity struct{ G float64 }
//
//	func main() {
//		rt, err := substrate.NewRuntime(substrate.DefaultOptions())
//		if err != nil {
//			panic(err)
//		}
//		defer rt.Close()
//
//		core.Create(rt.Resources, Gravity{G: 9.81})
//		g := core.Get[Gravity](rt.Resources)
//
//		fut, _ := core.EnqueueTask(rt.Workers, func() (float64, error) {
//			return g.G * 2, nil
//		})
//		v, _ := fut.Wait(context.Background())
//		println(v)
//	}
package substrate
