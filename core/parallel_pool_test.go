package core

import (
	"context"
	"slices"
	"sync/atomic"
	"testing"
	"time"
)

func newQuietParallelPool[R any](workers int) *ParallelPool[R] {
	cfg := DefaultParallelPoolConfig()
	cfg.PanicHandler = &recordingPanicHandler{}
	return NewParallelPoolWithConfig[R](workers, cfg)
}

// TestParallelPool_ResultsInOrder verifies a signalled worker drains its list
// Given: A started pool with 2 workers
// When: Worker 0 gets five result jobs returning 1..5 and is signalled
// Then: ExtractResult returns [1 2 3 4 5] and a second call returns nothing
func TestParallelPool_ResultsInOrder(t *testing.T) {
	// Arrange
	pool := newQuietParallelPool[int](2)
	pool.Start()
	defer pool.Stop()

	// Act
	for i := 1; i <= 5; i++ {
		pool.GetPool(0).EnqueueResult(func() int { return i })
	}
	pool.Signal(0)
	if err := pool.WaitIdle(context.Background(), 0); err != nil {
		t.Fatal(err)
	}

	// Assert
	got := pool.ExtractResult(0)
	if !slices.Equal(got, []int{1, 2, 3, 4, 5}) {
		t.Errorf("ExtractResult = %v, want [1 2 3 4 5]", got)
	}
	if again := pool.ExtractResult(0); len(again) != 0 {
		t.Errorf("second ExtractResult = %v, want empty", again)
	}
	if other := pool.ExtractResult(1); len(other) != 0 {
		t.Errorf("worker 1 results = %v, want empty", other)
	}
}

// TestParallelPool_NothingRunsWithoutSignal verifies enqueueing does not wake a worker
func TestParallelPool_NothingRunsWithoutSignal(t *testing.T) {
	pool := newQuietParallelPool[int](1)
	pool.Start()
	defer pool.Stop()
	var ran atomic.Bool

	pool.GetPool(0).Enqueue(func() { ran.Store(true) })
	time.Sleep(20 * time.Millisecond)

	if ran.Load() {
		t.Fatal("job ran before Signal")
	}
	if n := pool.GetPool(0).Len(); n != 1 {
		t.Errorf("Len = %d, want 1", n)
	}

	pool.Signal(0)
	if err := pool.WaitIdle(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	if !ran.Load() {
		t.Error("job did not run after Signal")
	}
	if pool.ExtractResult(0) != nil {
		t.Error("plain Enqueue produced a result")
	}
}

// TestParallelPool_EachVisitsIdleWorkersInReverse verifies visiting order and early stop
func TestParallelPool_EachVisitsIdleWorkersInReverse(t *testing.T) {
	pool := newQuietParallelPool[int](4)

	var all []int
	pool.Each(func(id int) bool {
		all = append(all, id)
		return true
	})
	if !slices.Equal(all, []int{3, 2, 1, 0}) {
		t.Errorf("Each visited %v, want [3 2 1 0]", all)
	}

	var some []int
	pool.Each(func(id int) bool {
		some = append(some, id)
		return len(some) < 2
	})
	if !slices.Equal(some, []int{3, 2}) {
		t.Errorf("Each with early stop visited %v, want [3 2]", some)
	}
	pool.Stop()
}

// TestParallelPool_EachSkipsBusyWorkers verifies a draining worker is not offered
func TestParallelPool_EachSkipsBusyWorkers(t *testing.T) {
	pool := newQuietParallelPool[int](2)
	pool.Start()
	defer pool.Stop()
	release := make(chan struct{})
	started := make(chan struct{})

	pool.GetPool(1).Enqueue(func() { close(started); <-release })
	pool.Signal(1)
	<-started

	var seen []int
	pool.Each(func(id int) bool {
		seen = append(seen, id)
		return true
	})
	if stats := pool.Stats(); stats.Busy != 1 || !stats.Running {
		t.Errorf("Stats = %+v, want 1 busy and running", stats)
	}
	close(release)

	if !slices.Equal(seen, []int{0}) {
		t.Errorf("Each visited %v, want [0]", seen)
	}
}

// TestParallelPool_SignalAllAndPanic verifies every worker drains and panics are contained
// Given: 3 workers, each with a result job, and worker 1 with a panicking job in front
// When: SignalAll is called
// Then: Every worker yields its result and the panic handler sees one panic
func TestParallelPool_SignalAllAndPanic(t *testing.T) {
	// Arrange
	handler := &recordingPanicHandler{}
	metrics := NewTestMetrics()
	pool := NewParallelPoolWithConfig[string](3, &ParallelPoolConfig{
		Name:         "signal-all",
		PanicHandler: handler,
		Metrics:      metrics,
	})
	pool.Start()
	defer pool.Stop()

	pool.GetPool(1).Enqueue(func() { panic("boom") })
	for id, name := range []string{"a", "b", "c"} {
		pool.GetPool(id).EnqueueResult(func() string { return name })
	}

	// Act
	pool.SignalAll()
	for id := range 3 {
		if err := pool.WaitIdle(context.Background(), id); err != nil {
			t.Fatal(err)
		}
	}

	// Assert
	for id, want := range []string{"a", "b", "c"} {
		if got := pool.ExtractResult(id); !slices.Equal(got, []string{want}) {
			t.Errorf("worker %d results = %v, want [%s]", id, got, want)
		}
	}
	if handler.count() != 1 {
		t.Errorf("panic handler called %d times, want 1", handler.count())
	}
	if durations, panics, depths, _ := metrics.counts(); durations != 4 || panics != 1 || depths != 3 {
		t.Errorf("durations, panics, depths = %d, %d, %d, want 4, 1, 3", durations, panics, depths)
	}
}

// TestParallelPool_InvalidWorkerPanics verifies id checks
func TestParallelPool_InvalidWorkerPanics(t *testing.T) {
	pool := newQuietParallelPool[int](2)
	defer pool.Stop()

	expectUsagePanic(t, ErrInvalidWorker, func() { pool.GetPool(2) })
	expectUsagePanic(t, ErrInvalidWorker, func() { pool.Signal(-1) })
	expectUsagePanic(t, ErrInvalidWorker, func() { pool.ExtractResult(5) })
	expectUsagePanic(t, ErrInvalidWorker, func() { _ = pool.WaitIdle(context.Background(), 2) })
	expectUsagePanic(t, ErrInvalidWorker, func() { NewParallelPool[int](0, 0) })
}

// TestParallelPool_StopLifecycle verifies Stop is idempotent and drops undrained jobs
func TestParallelPool_StopLifecycle(t *testing.T) {
	neverStarted := newQuietParallelPool[int](2)
	neverStarted.GetPool(0).Enqueue(func() {})
	neverStarted.Stop()
	neverStarted.Stop()
	if n := neverStarted.GetPool(0).Len(); n != 0 {
		t.Errorf("Len after Stop = %d, want 0", n)
	}
	neverStarted.Start()
	if neverStarted.Stats().Running {
		t.Error("Start revived a stopped pool")
	}

	pool := NewParallelPool[int](2, 4)
	pool.Start()
	pool.Start()
	pool.GetPool(1).Enqueue(func() {})
	if got := pool.Stats(); got != (ParallelStats{Name: "parallel", Workers: 2, Pending: 1, Running: true}) {
		t.Errorf("Stats = %+v", got)
	}
	pool.Stop()
	if pool.Stats().Running {
		t.Error("Running after Stop")
	}
	if pool.Name() != "parallel" || pool.WorkerCount() != 2 {
		t.Errorf("Name, WorkerCount = %q, %d", pool.Name(), pool.WorkerCount())
	}
}

// TestParallelPool_JobsAddedDuringDrainRun verifies a job can feed its own list
func TestParallelPool_JobsAddedDuringDrainRun(t *testing.T) {
	pool := newQuietParallelPool[int](1)
	pool.Start()
	defer pool.Stop()
	list := pool.GetPool(0)

	list.EnqueueResult(func() int {
		list.EnqueueResult(func() int { return 2 })
		return 1
	})
	pool.Signal(0)
	if err := pool.WaitIdle(context.Background(), 0); err != nil {
		t.Fatal(err)
	}

	if got := pool.ExtractResult(0); !slices.Equal(got, []int{1, 2}) {
		t.Errorf("ExtractResult = %v, want [1 2]", got)
	}
}
