// Package worker provides a keyed worker pool for ordered concurrent
// processing.
//
// # Overview
//
// The pool manages one goroutine and one bounded queue per key, created
// lazily on first submit. Work submitted under the same key is processed
// strictly in submission order by a single worker; work under different
// keys runs concurrently. The pipeline uses store entry names as keys, so
// per-entry write order is preserved while independent entries overlap.
//
// # Core Concepts
//
// Ordered fan-out:
//
//	pool := worker.NewKeyedPool[WriteJob](
//	    64, // per-key queue size
//	    func(ctx context.Context, entry string, job WriteJob) error {
//	        return bucket.Write(ctx, entry, job.Payload, job.TsUs, job.Labels, job.ContentType)
//	    },
//	)
//
//	pool.Start(ctx)
//	pool.Submit("episodes", job1) // serialized with job2
//	pool.Submit("episodes", job2)
//	pool.Submit("imu", job3)      // concurrent with episodes
//	err := pool.Close()           // drain and surface the first failure
//
// Error propagation:
//
// The first processor error cancels the pool context and stops all
// workers; Close returns it. A failed write is not skippable here, so
// fail-fast is the correct behavior rather than drop-and-continue.
//
// Submit blocks when the key's queue is full, giving natural backpressure
// against a slow store instead of dropping records.
//
// # Observability
//
// Statistics are always tracked with atomics and available via Stats().
// Prometheus metrics are opt-in through WithMetricsRegistry and expose
// per-key queue depth, submitted/processed/failed totals, and a
// processing duration histogram.
//
// # Thread Safety
//
// All public methods are safe for concurrent use. Submitting concurrently
// with Close is not supported; finish submitting before closing.
package worker
