// Package pipeline orchestrates a seeding run: it loads the source clip,
// classifies its channels, computes the decimation plan, provisions the
// destination bucket, and replays the clip into every scheduled session as
// episode blobs and per-category records.
//
// The pipeline consumes the clip on a single goroutine. Classification,
// decimation, windowing, and timestamp allocation all happen there, in
// that order; only the store writes fan out, through per-entry serialized
// queues so each entry observes its records in allocation order.
package pipeline
