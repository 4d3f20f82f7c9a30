package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/reductstore/ros-reductstore-demo/errors"
	"github.com/reductstore/ros-reductstore-demo/metric"
	"github.com/reductstore/ros-reductstore-demo/pkg/worker"
)

// Sink is the destination the pipeline writes records into. The
// reductstore Bucket satisfies it; tests substitute an in-memory fake.
type Sink interface {
	Write(ctx context.Context, entry string, payload []byte, tsUs int64,
		labels map[string]string, contentType string) error
	Entries(ctx context.Context) ([]string, error)
	RemoveEntry(ctx context.Context, entry string) error
}

// writeJob is one record queued for a store entry. The timestamp is
// already allocated; jobs for the same entry must be submitted in
// allocation order.
type writeJob struct {
	payload     []byte
	tsUs        int64
	labels      map[string]string
	contentType string
}

// writer fans records out to the sink through per-entry queues. A
// duplicate timestamp means the record is already in the store and is
// treated as written; every other write error stops the run.
type writer struct {
	sink    Sink
	logger  *slog.Logger
	metrics *metric.Metrics
	pool    *worker.KeyedPool[writeJob]

	written    atomic.Int64
	duplicates atomic.Int64
}

func newWriter(sink Sink, logger *slog.Logger, metrics *metric.Metrics,
	opts ...worker.Option[writeJob]) *writer {

	w := &writer{sink: sink, logger: logger, metrics: metrics}
	w.pool = worker.NewKeyedPool(64, w.process, opts...)
	return w
}

func (w *writer) start(ctx context.Context) error {
	return w.pool.Start(ctx)
}

func (w *writer) submit(entry string, job writeJob) error {
	return w.pool.Submit(entry, job)
}

// close drains every queue and returns the first write error, if any.
func (w *writer) close() error {
	return w.pool.Close()
}

func (w *writer) process(ctx context.Context, entry string, job writeJob) error {
	start := time.Now()
	err := w.sink.Write(ctx, entry, job.payload, job.tsUs, job.labels, job.contentType)
	if err != nil {
		if errors.IsDuplicateTimestamp(err) {
			w.duplicates.Add(1)
			w.metrics.RecordStoreWrite(entry, "duplicate", len(job.payload), time.Since(start))
			w.logger.Warn("record already present, skipping",
				"entry", entry, "ts_us", job.tsUs)
			return nil
		}
		w.metrics.RecordStoreWrite(entry, "error", len(job.payload), time.Since(start))
		return errors.Wrap(err, "writer", "process", "write "+entry)
	}

	w.written.Add(1)
	w.metrics.RecordStoreWrite(entry, "ok", len(job.payload), time.Since(start))
	return nil
}
