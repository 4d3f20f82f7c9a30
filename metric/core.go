package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the pipeline-level metrics shared by every stage.
type Metrics struct {
	// Source and filtering metrics
	RecordsRead    *prometheus.CounterVec
	RecordsKept    *prometheus.CounterVec
	RecordsDropped *prometheus.CounterVec
	DecodeFailures *prometheus.CounterVec

	// Episode metrics
	EpisodesClosed  *prometheus.CounterVec
	EpisodeMessages prometheus.Histogram
	EpisodeBytes    prometheus.Histogram
	SessionsDone    prometheus.Counter

	// Store metrics
	StoreWrites       *prometheus.CounterVec
	StoreWriteBytes   *prometheus.CounterVec
	StoreWriteSeconds *prometheus.HistogramVec
	TimestampNudges   *prometheus.CounterVec
	StoreConnected    prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all pipeline metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RecordsRead: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "seeder",
				Subsystem: "source",
				Name:      "records_read_total",
				Help:      "Total source records read, by category",
			},
			[]string{"category"},
		),

		RecordsKept: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "seeder",
				Subsystem: "throttle",
				Name:      "records_kept_total",
				Help:      "Records kept after classification and decimation",
			},
			[]string{"category"},
		),

		RecordsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "seeder",
				Subsystem: "throttle",
				Name:      "records_dropped_total",
				Help:      "Records dropped, by reason (excluded, decimated, suppressed)",
			},
			[]string{"reason"},
		),

		DecodeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "seeder",
				Subsystem: "flatten",
				Name:      "decode_failures_total",
				Help:      "Structured payloads that failed to decode",
			},
			[]string{"channel"},
		),

		EpisodesClosed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "seeder",
				Subsystem: "window",
				Name:      "episodes_closed_total",
				Help:      "Episodes closed, by outcome (written, empty)",
			},
			[]string{"outcome"},
		),

		EpisodeMessages: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "seeder",
				Subsystem: "window",
				Name:      "episode_messages",
				Help:      "Messages per closed episode",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
		),

		EpisodeBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "seeder",
				Subsystem: "window",
				Name:      "episode_bytes",
				Help:      "Serialized bytes per closed episode",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
			},
		),

		SessionsDone: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "seeder",
				Subsystem: "window",
				Name:      "sessions_completed_total",
				Help:      "Sessions fully replayed and flushed",
			},
		),

		StoreWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "seeder",
				Subsystem: "store",
				Name:      "writes_total",
				Help:      "Store write attempts, by entry and status (ok, duplicate, error)",
			},
			[]string{"entry", "status"},
		),

		StoreWriteBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "seeder",
				Subsystem: "store",
				Name:      "write_bytes_total",
				Help:      "Payload bytes written to the store, by entry",
			},
			[]string{"entry"},
		),

		StoreWriteSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "seeder",
				Subsystem: "store",
				Name:      "write_duration_seconds",
				Help:      "Store write duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"entry"},
		),

		TimestampNudges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "seeder",
				Subsystem: "store",
				Name:      "timestamp_nudges_total",
				Help:      "Allocated timestamps bumped past a collision, by entry",
			},
			[]string{"entry"},
		),

		StoreConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "seeder",
				Subsystem: "store",
				Name:      "connected",
				Help:      "Store connection status (0=disconnected, 1=connected)",
			},
		),
	}
}

// RecordRead increments the read counter for a category.
func (c *Metrics) RecordRead(category string) {
	c.RecordsRead.WithLabelValues(category).Inc()
}

// RecordKept increments the kept counter for a category.
func (c *Metrics) RecordKept(category string) {
	c.RecordsKept.WithLabelValues(category).Inc()
}

// RecordDropped increments the dropped counter for a reason.
func (c *Metrics) RecordDropped(reason string) {
	c.RecordsDropped.WithLabelValues(reason).Inc()
}

// RecordDecodeFailure increments the decode failure counter for a channel.
func (c *Metrics) RecordDecodeFailure(channel string) {
	c.DecodeFailures.WithLabelValues(channel).Inc()
}

// RecordEpisodeClosed records one closed episode and its size.
func (c *Metrics) RecordEpisodeClosed(outcome string, messages, bytes int) {
	c.EpisodesClosed.WithLabelValues(outcome).Inc()
	c.EpisodeMessages.Observe(float64(messages))
	c.EpisodeBytes.Observe(float64(bytes))
}

// RecordSessionDone increments the completed session counter.
func (c *Metrics) RecordSessionDone() {
	c.SessionsDone.Inc()
}

// RecordStoreWrite records one write attempt.
func (c *Metrics) RecordStoreWrite(entry, status string, bytes int, duration time.Duration) {
	c.StoreWrites.WithLabelValues(entry, status).Inc()
	if status == "ok" {
		c.StoreWriteBytes.WithLabelValues(entry).Add(float64(bytes))
	}
	c.StoreWriteSeconds.WithLabelValues(entry).Observe(duration.Seconds())
}

// RecordTimestampNudge increments the collision counter for an entry.
func (c *Metrics) RecordTimestampNudge(entry string) {
	c.TimestampNudges.WithLabelValues(entry).Inc()
}

// RecordStoreStatus updates the store connection gauge.
func (c *Metrics) RecordStoreStatus(connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	c.StoreConnected.Set(value)
}
