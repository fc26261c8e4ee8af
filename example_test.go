package substrate_test

import (
	"context"
	"fmt"

	substrate "github.com/Swind/go-substrate"
	"github.com/Swind/go-substrate/core"
)

type Gravity struct{ G float64 }

// ExampleNewRuntime stores a resource and reads it from a pool job.
func ExampleNewRuntime() {
	rt, err := substrate.NewRuntime(substrate.Options{Workers: 2})
	if err != nil {
		panic(err)
	}
	defer rt.Close()

	core.Create(rt.Resources, Gravity{G: 9.81})
	g := core.Get[Gravity](rt.Resources)

	fut, _ := core.EnqueueTask(rt.Workers, func() (float64, error) {
		return g.G * 2, nil
	})
	v, _ := fut.Wait(context.Background())
	fmt.Printf("%.2f\n", v)

	// Output:
	// 19.62
}

// ExampleParallelPool fills one worker's list and collects the results.
func ExampleParallelPool() {
	pool := core.NewParallelPool[int](2, 0)
	pool.Start()
	defer pool.Stop()

	list := pool.GetPool(0)
	for i := 1; i <= 5; i++ {
		list.EnqueueResult(func() int { return i })
	}
	pool.Signal(0)
	_ = pool.WaitIdle(context.Background(), 0)

	fmt.Println(pool.ExtractResult(0))

	// Output:
	// [1 2 3 4 5]
}

// ExampleRingQueue shows the rejecting behaviour of a full queue.
func ExampleRingQueue() {
	q := core.NewRingQueue[int](4)
	for _, v := range []int{10, 20, 30, 40, 50} {
		fmt.Println(v, q.TryEnqueue(v))
	}
	for !q.Empty() {
		v, _ := q.TryDequeue()
		fmt.Print(v, " ")
	}
	fmt.Println()

	// Output:
	// 10 true
	// 20 true
	// 30 true
	// 40 true
	// 50 false
	// 10 20 30 40
}

// ExampleTypeIndexer numbers types per domain.
func ExampleTypeIndexer() {
	ix := core.NewTypeIndexer()
	fmt.Println(core.GetIndex[Gravity, substrate.ResourcesDomain](ix))
	fmt.Println(core.GetIndex[int, substrate.ResourcesDomain](ix))
	fmt.Println(core.GetIndex[int, substrate.SystemsDomain](ix))
	fmt.Println(core.GetIndex[Gravity, substrate.ResourcesDomain](ix))

	// Output:
	// 0
	// 1
	// 0
	// 0
}
