// Package worker provides a keyed worker pool: one serialized queue and
// goroutine per key, so work items for the same key never run concurrently
// or out of submission order. Keys map to store entry names in the
// pipeline, where per-entry write order is a correctness requirement, not
// an optimization.
package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/reductstore/ros-reductstore-demo/metric"
)

// KeyedPool fans work out by key while keeping each key's stream strictly
// ordered. The zero value is not usable; construct with NewKeyedPool.
type KeyedPool[T any] struct {
	// Configuration
	queueSize int
	processor func(context.Context, string, T) error

	// Runtime state
	group  *errgroup.Group
	ctx    context.Context
	queues map[string]chan T
	qmu    sync.Mutex

	// Lifecycle management
	lifecycleMu sync.Mutex
	started     bool
	stopped     bool

	// Statistics (atomic)
	submitted int64
	processed int64
	failed    int64

	// Metrics configuration
	metricsRegistry *metric.Registry
	metricsPrefix   string
	metrics         *Metrics
}

// Metrics holds Prometheus metrics for pool monitoring.
type Metrics struct {
	queueDepth     *prometheus.GaugeVec
	submitted      prometheus.Counter
	processed      prometheus.Counter
	failed         prometheus.Counter
	processingTime *prometheus.HistogramVec
}

// Option represents a configuration option for the pool.
type Option[T any] func(*KeyedPool[T])

// WithMetricsRegistry configures the pool to register metrics.
func WithMetricsRegistry[T any](registry *metric.Registry, prefix string) Option[T] {
	return func(p *KeyedPool[T]) {
		p.metricsRegistry = registry
		p.metricsPrefix = prefix
	}
}

// NewKeyedPool creates a keyed pool. The processor runs once per submitted
// item, serialized per key.
func NewKeyedPool[T any](queueSize int, processor func(context.Context, string, T) error,
	opts ...Option[T]) *KeyedPool[T] {

	if queueSize <= 0 {
		queueSize = 64
	}
	if processor == nil {
		panic(ErrNilProcessor)
	}

	pool := &KeyedPool[T]{
		queueSize: queueSize,
		processor: processor,
		queues:    make(map[string]chan T),
	}

	for _, opt := range opts {
		opt(pool)
	}

	if pool.metricsRegistry != nil && pool.metricsPrefix != "" {
		pool.initializeMetrics()
	}

	return pool
}

// initializeMetrics creates and registers pool metrics.
func (p *KeyedPool[T]) initializeMetrics() {
	prefix := p.metricsPrefix

	queueDepth := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: prefix + "_queue_depth",
		Help: "Buffered work items per key",
	}, []string{"key"})
	submitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: prefix + "_submitted_total",
		Help: "Total work items submitted",
	})
	processed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: prefix + "_processed_total",
		Help: "Total work items processed",
	})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: prefix + "_failed_total",
		Help: "Total work items that failed processing",
	})
	processingTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    prefix + "_processing_duration_seconds",
		Help:    "Time spent processing work items",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"status"})

	component := "worker_pool"
	_ = p.metricsRegistry.Register(component, prefix+"_queue_depth", queueDepth)
	_ = p.metricsRegistry.Register(component, prefix+"_submitted_total", submitted)
	_ = p.metricsRegistry.Register(component, prefix+"_processed_total", processed)
	_ = p.metricsRegistry.Register(component, prefix+"_failed_total", failed)
	_ = p.metricsRegistry.Register(component, prefix+"_processing_duration_seconds", processingTime)

	p.metrics = &Metrics{
		queueDepth:     queueDepth,
		submitted:      submitted,
		processed:      processed,
		failed:         failed,
		processingTime: processingTime,
	}
}

// Start starts the pool. Key workers spawn lazily on first submit.
func (p *KeyedPool[T]) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.started {
		return ErrPoolAlreadyStarted
	}

	p.group, p.ctx = errgroup.WithContext(ctx)
	p.started = true
	return nil
}

// Submit enqueues work for a key, blocking when that key's queue is full.
// Items for one key are processed in submission order by a single worker.
func (p *KeyedPool[T]) Submit(key string, work T) error {
	p.lifecycleMu.Lock()
	if !p.started {
		p.lifecycleMu.Unlock()
		return ErrPoolNotStarted
	}
	if p.stopped {
		p.lifecycleMu.Unlock()
		return ErrPoolStopped
	}
	p.lifecycleMu.Unlock()

	queue := p.queueFor(key)

	select {
	case queue <- work:
	case <-p.ctx.Done():
		return p.ctx.Err()
	}

	atomic.AddInt64(&p.submitted, 1)
	if p.metrics != nil {
		p.metrics.submitted.Inc()
		p.metrics.queueDepth.WithLabelValues(key).Set(float64(len(queue)))
	}
	return nil
}

// queueFor returns the key's queue, spawning its worker on first use.
func (p *KeyedPool[T]) queueFor(key string) chan T {
	p.qmu.Lock()
	defer p.qmu.Unlock()

	if queue, ok := p.queues[key]; ok {
		return queue
	}

	queue := make(chan T, p.queueSize)
	p.queues[key] = queue
	p.group.Go(func() error {
		return p.worker(key, queue)
	})
	return queue
}

// worker drains one key's queue until it closes or the context ends. The
// first processor error cancels the whole pool.
func (p *KeyedPool[T]) worker(key string, queue chan T) error {
	for {
		select {
		case <-p.ctx.Done():
			return p.ctx.Err()
		case work, ok := <-queue:
			if !ok {
				return nil
			}

			start := time.Now()
			err := p.processor(p.ctx, key, work)
			duration := time.Since(start)

			atomic.AddInt64(&p.processed, 1)
			if err != nil {
				atomic.AddInt64(&p.failed, 1)
			}

			if p.metrics != nil {
				p.metrics.processed.Inc()
				status := "success"
				if err != nil {
					p.metrics.failed.Inc()
					status = "error"
				}
				p.metrics.processingTime.WithLabelValues(status).Observe(duration.Seconds())
				p.metrics.queueDepth.WithLabelValues(key).Set(float64(len(queue)))
			}

			if err != nil {
				return err
			}
		}
	}
}

// Close drains all queues and waits for the workers. It returns the first
// processor error, if any.
func (p *KeyedPool[T]) Close() error {
	p.lifecycleMu.Lock()
	if !p.started || p.stopped {
		p.lifecycleMu.Unlock()
		return nil
	}
	p.stopped = true
	p.lifecycleMu.Unlock()

	p.qmu.Lock()
	for _, queue := range p.queues {
		close(queue)
	}
	p.qmu.Unlock()

	return p.group.Wait()
}

// Stats returns current pool statistics.
func (p *KeyedPool[T]) Stats() PoolStats {
	p.qmu.Lock()
	keys := len(p.queues)
	depth := 0
	for _, queue := range p.queues {
		depth += len(queue)
	}
	p.qmu.Unlock()

	return PoolStats{
		Keys:       keys,
		QueueSize:  p.queueSize,
		QueueDepth: depth,
		Submitted:  atomic.LoadInt64(&p.submitted),
		Processed:  atomic.LoadInt64(&p.processed),
		Failed:     atomic.LoadInt64(&p.failed),
	}
}

// PoolStats represents pool statistics.
type PoolStats struct {
	Keys       int   `json:"keys"`
	QueueSize  int   `json:"queue_size"`
	QueueDepth int   `json:"queue_depth"`
	Submitted  int64 `json:"submitted"`
	Processed  int64 `json:"processed"`
	Failed     int64 `json:"failed"`
}
