package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/Swind/go-substrate/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every collector when none is given.
const DefaultNamespace = "substrate"

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	jobDurationSeconds *prom.HistogramVec
	jobPanicTotal      *prom.CounterVec
	jobRejectedTotal   *prom.CounterVec
	queueDepth         *prom.GaugeVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		// Jobs are short; start the buckets at 1µs
		buckets = prom.ExponentialBuckets(1e-6, 4, 12)
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Job execution duration in seconds.",
		Buckets:   buckets,
	}, []string{"pool"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "job_panic_total",
		Help:      "Total number of job panics.",
	}, []string{"pool"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "job_rejected_total",
		Help:      "Total number of rejected jobs.",
	}, []string{"pool", "reason"})
	queueDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Queue depth observed at the last enqueue or signal.",
	}, []string{"pool"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}
	if queueDepthVec, err = registerCollector(reg, queueDepthVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		jobDurationSeconds: durationVec,
		jobPanicTotal:      panicVec,
		jobRejectedTotal:   rejectedVec,
		queueDepth:         queueDepthVec,
	}, nil
}

// RecordJobDuration records job execution duration.
func (m *MetricsExporter) RecordJobDuration(poolName string, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobDurationSeconds.WithLabelValues(normalizeLabel(poolName, "unknown")).Observe(duration.Seconds())
}

// RecordJobPanic records job panic events.
func (m *MetricsExporter) RecordJobPanic(poolName string, panicInfo any) {
	if m == nil {
		return
	}
	m.jobPanicTotal.WithLabelValues(normalizeLabel(poolName, "unknown")).Inc()
}

// RecordQueueDepth records queue depth.
func (m *MetricsExporter) RecordQueueDepth(poolName string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(normalizeLabel(poolName, "unknown")).Set(float64(depth))
}

// RecordJobRejected records job rejection events.
func (m *MetricsExporter) RecordJobRejected(poolName string, reason string) {
	if m == nil {
		return
	}
	m.jobRejectedTotal.WithLabelValues(normalizeLabel(poolName, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
