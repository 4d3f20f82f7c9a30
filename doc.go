// Package rosreductstoredemo seeds a ReductStore bucket with realistic robot
// telemetry by replaying a short recorded sensor clip across a schedule of
// virtual sessions.
//
// # Architecture
//
// The seeder is a batch pipeline with one consume goroutine and per-entry
// write queues:
//
//	┌──────────┐   ┌──────────┐   ┌──────────┐   ┌──────────┐
//	│   bag    │──►│ classify │──►│ throttle │──►│  window  │
//	│  (clip)  │   │ (topics) │   │ (rates)  │   │(episodes)│
//	└──────────┘   └──────────┘   └──────────┘   └────┬─────┘
//	                                                  │
//	               ┌──────────┐   ┌──────────┐   ┌────▼─────┐
//	               │reductstore◄──│ tsalloc  │◄──│  labels  │
//	               │  (sink)  │   │ (ts µs)  │   │ (context)│
//	               └──────────┘   └──────────┘   └──────────┘
//
// A session is a scheduled time slot on the wall clock; the clip loops to
// fill it. Each session is cut into fixed-duration episodes written as one
// blob each, alongside per-category records: images, point clouds, and
// per-channel JSON batches of flattened structured telemetry.
//
// # Packages
//
// Domain:
//   - bag: source clip reading and episode blob encoding
//   - classify: channel inclusion and output category rules
//   - throttle: deterministic per-channel decimation
//   - window: session schedule, episode windowing, episode statistics
//   - flatten: structured payload flattening and JSON batching
//   - labels: session context, statistic labels, synthetic telemetry
//   - tsalloc: strictly increasing per-entry store timestamps
//   - reductstore: HTTP client for the store API
//   - pipeline: run orchestration and the per-entry writer pool
//
// Infrastructure:
//   - config: file loading, schema checks, semantic validation
//   - errors: classified error handling
//   - metric: Prometheus instrumentation
//   - pkg/retry: startup retry policies
//   - pkg/timeunit: nanosecond/microsecond conversions
//   - pkg/worker: keyed worker pool with per-key ordering
//
// # Binary
//
// Build and run the seeder:
//
//	go build -o bin/seeder ./cmd/seeder
//	./bin/seeder --config configs/seeder.json --robot orion
//
// The run is idempotent against an already seeded bucket: existing entries
// are wiped at start (unless --no-wipe), and a record that already exists
// at a timestamp is treated as written.
package rosreductstoredemo
