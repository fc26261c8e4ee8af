package substrate

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Swind/go-substrate/core"
)

func TestGlobalWorkerPool_Lifecycle(t *testing.T) {
	InitGlobalWorkerPool(2)
	defer ShutdownGlobalWorkerPool()

	first := GetGlobalWorkerPool()
	InitGlobalWorkerPool(8)
	if GetGlobalWorkerPool() != first {
		t.Error("second InitGlobalWorkerPool replaced the pool")
	}
	if first.WorkerCount() != 2 || !first.IsRunning() {
		t.Errorf("WorkerCount, IsRunning = %d, %v", first.WorkerCount(), first.IsRunning())
	}

	var counter atomic.Int32
	for range 10 {
		if err := EnqueueJob(func() { counter.Add(1) }); err != nil {
			t.Fatalf("EnqueueJob: %v", err)
		}
	}
	f, err := EnqueueTask(func() (int, error) { return 6 * 7, nil })
	if err != nil {
		t.Fatalf("EnqueueTask: %v", err)
	}
	if v, err := f.Wait(context.Background()); err != nil || v != 42 {
		t.Errorf("Wait = (%d, %v), want (42, nil)", v, err)
	}
	if err := first.WaitIdle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if counter.Load() != 10 {
		t.Errorf("counter = %d, want 10", counter.Load())
	}

	ShutdownGlobalWorkerPool()
	if first.IsRunning() {
		t.Error("pool still running after ShutdownGlobalWorkerPool")
	}
	ShutdownGlobalWorkerPool()
}

func TestGetGlobalWorkerPool_PanicsWhenUninitialized(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("GetGlobalWorkerPool did not panic")
		}
	}()
	GetGlobalWorkerPool()
}

func TestInitGlobalWorkerPoolWithConfig(t *testing.T) {
	InitGlobalWorkerPoolWithConfig(1, &core.WorkerPoolConfig{QueueCapacity: 3})
	defer ShutdownGlobalWorkerPool()

	if got := GetGlobalWorkerPool().Stats().Capacity; got != 4 {
		t.Errorf("Capacity = %d, want 4", got)
	}
	if err := GetGlobalWorkerPool().StopGraceful(time.Second); err != nil {
		t.Error(err)
	}
	if err := EnqueueJob(func() {}); err != ErrPoolShutdown {
		t.Errorf("EnqueueJob on stopped global pool = %v, want ErrPoolShutdown", err)
	}
}
