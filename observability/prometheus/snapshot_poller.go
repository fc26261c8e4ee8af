package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-substrate/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// PoolSnapshotProvider provides current WorkerPool stats snapshots.
type PoolSnapshotProvider interface {
	Stats() core.PoolStats
}

// ParallelSnapshotProvider provides current ParallelPool stats snapshots.
type ParallelSnapshotProvider interface {
	Stats() core.ParallelStats
}

// QueueSnapshotProvider provides current RingQueue stats snapshots.
type QueueSnapshotProvider interface {
	Stats() core.QueueStats
}

// TypeCountProvider reports registered type counts per index domain.
type TypeCountProvider interface {
	DomainCounts() map[string]int
}

var (
	_ PoolSnapshotProvider     = (*core.WorkerPool)(nil)
	_ ParallelSnapshotProvider = (*core.ParallelPool[float64])(nil)
	_ QueueSnapshotProvider    = (*core.RingQueue[int])(nil)
	_ TypeCountProvider        = (*core.TypeIndexer)(nil)
)

// SnapshotPoller periodically exports Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	mu       sync.RWMutex
	pools    map[string]PoolSnapshotProvider
	parallel map[string]ParallelSnapshotProvider
	queues   map[string]QueueSnapshotProvider
	indexers map[string]TypeCountProvider

	poolQueued   *prom.GaugeVec
	poolActive   *prom.GaugeVec
	poolCapacity *prom.GaugeVec
	poolWorkers  *prom.GaugeVec
	poolRunning  *prom.GaugeVec

	parallelBusy    *prom.GaugeVec
	parallelPending *prom.GaugeVec
	parallelWorkers *prom.GaugeVec
	parallelRunning *prom.GaugeVec

	queueSize     *prom.GaugeVec
	queueCapacity *prom.GaugeVec
	queueShutdown *prom.GaugeVec

	typesRegistered *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func newGauge(namespace, name, help string, labels ...string) *prom.GaugeVec {
	return prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors
// under namespace. An empty namespace means DefaultNamespace.
func NewSnapshotPoller(namespace string, reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	p := &SnapshotPoller{
		interval: interval,
		pools:    make(map[string]PoolSnapshotProvider),
		parallel: make(map[string]ParallelSnapshotProvider),
		queues:   make(map[string]QueueSnapshotProvider),
		indexers: make(map[string]TypeCountProvider),

		poolQueued:   newGauge(namespace, "pool_queued", "Queued jobs per worker pool.", "pool"),
		poolActive:   newGauge(namespace, "pool_active", "Running jobs per worker pool.", "pool"),
		poolCapacity: newGauge(namespace, "pool_capacity", "Ring queue capacity per worker pool.", "pool"),
		poolWorkers:  newGauge(namespace, "pool_workers", "Worker count per worker pool.", "pool"),
		poolRunning:  newGauge(namespace, "pool_running", "Worker pool running state (1=running, 0=stopped).", "pool"),

		parallelBusy:    newGauge(namespace, "parallel_busy", "Busy workers per parallel pool.", "pool"),
		parallelPending: newGauge(namespace, "parallel_pending", "Jobs waiting in parallel pool job lists.", "pool"),
		parallelWorkers: newGauge(namespace, "parallel_workers", "Worker count per parallel pool.", "pool"),
		parallelRunning: newGauge(namespace, "parallel_running", "Parallel pool running state (1=running, 0=stopped).", "pool"),

		queueSize:     newGauge(namespace, "ring_size", "Items held per ring queue.", "queue"),
		queueCapacity: newGauge(namespace, "ring_capacity", "Capacity per ring queue.", "queue"),
		queueShutdown: newGauge(namespace, "ring_shutdown", "Ring queue shutdown state (1=shut down, 0=open).", "queue"),

		typesRegistered: newGauge(namespace, "types_registered", "Types registered per index domain.", "indexer", "domain"),
	}

	for _, g := range []**prom.GaugeVec{
		&p.poolQueued, &p.poolActive, &p.poolCapacity, &p.poolWorkers, &p.poolRunning,
		&p.parallelBusy, &p.parallelPending, &p.parallelWorkers, &p.parallelRunning,
		&p.queueSize, &p.queueCapacity, &p.queueShutdown,
		&p.typesRegistered,
	} {
		registered, err := registerCollector(reg, *g)
		if err != nil {
			return nil, err
		}
		*g = registered
	}
	return p, nil
}

// AddPool adds or replaces a worker pool snapshot provider by name.
func (p *SnapshotPoller) AddPool(name string, provider PoolSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	p.mu.Lock()
	p.pools[normalizeLabel(name, "pool")] = provider
	p.mu.Unlock()
}

// AddParallelPool adds or replaces a parallel pool snapshot provider by name.
func (p *SnapshotPoller) AddParallelPool(name string, provider ParallelSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	p.mu.Lock()
	p.parallel[normalizeLabel(name, "parallel")] = provider
	p.mu.Unlock()
}

// AddQueue adds or replaces a ring queue snapshot provider by name.
func (p *SnapshotPoller) AddQueue(name string, provider QueueSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	p.mu.Lock()
	p.queues[normalizeLabel(name, "queue")] = provider
	p.mu.Unlock()
}

// AddIndexer adds or replaces a type indexer by name.
func (p *SnapshotPoller) AddIndexer(name string, provider TypeCountProvider) {
	if p == nil || provider == nil {
		return
	}
	p.mu.Lock()
	p.indexers[normalizeLabel(name, "indexer")] = provider
	p.mu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for name, provider := range p.pools {
		stats := provider.Stats()
		p.poolQueued.WithLabelValues(name).Set(float64(stats.Queued))
		p.poolActive.WithLabelValues(name).Set(float64(stats.Active))
		p.poolCapacity.WithLabelValues(name).Set(float64(stats.Capacity))
		p.poolWorkers.WithLabelValues(name).Set(float64(stats.Workers))
		p.poolRunning.WithLabelValues(name).Set(boolGauge(stats.Running))
	}

	for name, provider := range p.parallel {
		stats := provider.Stats()
		p.parallelBusy.WithLabelValues(name).Set(float64(stats.Busy))
		p.parallelPending.WithLabelValues(name).Set(float64(stats.Pending))
		p.parallelWorkers.WithLabelValues(name).Set(float64(stats.Workers))
		p.parallelRunning.WithLabelValues(name).Set(boolGauge(stats.Running))
	}

	for name, provider := range p.queues {
		stats := provider.Stats()
		p.queueSize.WithLabelValues(name).Set(float64(stats.Size))
		p.queueCapacity.WithLabelValues(name).Set(float64(stats.Capacity))
		p.queueShutdown.WithLabelValues(name).Set(boolGauge(stats.Shutdown))
	}

	for name, provider := range p.indexers {
		for domain, n := range provider.DomainCounts() {
			p.typesRegistered.WithLabelValues(name, domain).Set(float64(n))
		}
	}
}
