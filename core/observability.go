package core

// PoolStats represents runtime observability state for a WorkerPool.
type PoolStats struct {
	ID       string
	Workers  int
	Queued   int
	Active   int
	Capacity int
	Running  bool
}

// ParallelStats represents runtime observability state for a ParallelPool.
type ParallelStats struct {
	Name    string
	Workers int
	Busy    int
	Pending int // jobs enqueued but not yet taken, summed over workers
	Running bool
}
