package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/reductstore/ros-reductstore-demo/bag"
	"github.com/reductstore/ros-reductstore-demo/classify"
	"github.com/reductstore/ros-reductstore-demo/config"
	"github.com/reductstore/ros-reductstore-demo/errors"
	"github.com/reductstore/ros-reductstore-demo/flatten"
	"github.com/reductstore/ros-reductstore-demo/labels"
	"github.com/reductstore/ros-reductstore-demo/metric"
	"github.com/reductstore/ros-reductstore-demo/pkg/retry"
	"github.com/reductstore/ros-reductstore-demo/pkg/worker"
	"github.com/reductstore/ros-reductstore-demo/reductstore"
	"github.com/reductstore/ros-reductstore-demo/throttle"
	"github.com/reductstore/ros-reductstore-demo/tsalloc"
	"github.com/reductstore/ros-reductstore-demo/window"
)

// Store entry names for the fixed output categories. Structured channels
// get per-channel entries from the flatten namer instead.
const (
	episodeEntry    = "episodes"
	imageEntry      = "image"
	pointCloudEntry = "point_cloud"
)

// Summary reports what a completed run wrote.
type Summary struct {
	Sessions         int
	Episodes         int
	EmptyEpisodes    int
	Images           int
	PointClouds      int
	JSONRows         int
	JSONBatches      int
	RecordsWritten   int64
	DuplicateRecords int64
}

// Runner executes one seeding run. Build it with New and call Run once;
// a Runner is not reusable.
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *metric.Registry
	metrics  *metric.Metrics
	encoder  bag.Encoder
	clock    func() time.Time
}

// Option adjusts a Runner at construction.
type Option func(*Runner)

// WithRegistry attaches a metrics registry; without one the runner still
// counts, just into unexported collectors.
func WithRegistry(registry *metric.Registry) Option {
	return func(r *Runner) {
		r.registry = registry
		r.metrics = registry.CoreMetrics()
	}
}

// WithEncoder overrides the episode blob encoder.
func WithEncoder(encoder bag.Encoder) Option {
	return func(r *Runner) { r.encoder = encoder }
}

// WithClock fixes the wall clock the session schedule is built from.
func WithClock(clock func() time.Time) Option {
	return func(r *Runner) { r.clock = clock }
}

// New creates a runner for a validated configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:     cfg,
		logger:  logger,
		metrics: metric.NewMetrics(),
		encoder: bag.ClipEncoder{},
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run loads the clip, provisions the bucket, and seeds every scheduled
// session. It returns the run summary on success and the first error
// otherwise; a store write failure aborts the run.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	clip, err := r.loadClip()
	if err != nil {
		return nil, err
	}

	sink, err := r.provision(ctx)
	if err != nil {
		return nil, err
	}

	return r.seed(ctx, clip, sink)
}

// loadClip reads the whole source clip into memory and logs its shape.
func (r *Runner) loadClip() (*bag.Clip, error) {
	path := r.cfg.Source.ClipPath
	r.logger.Info("opening clip", "path", path)

	reader, err := bag.OpenJSONL(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	clip, err := bag.LoadClip(reader)
	if err != nil {
		return nil, err
	}

	r.logger.Info("clip loaded",
		"messages", len(clip.Records),
		"channels", len(clip.Topics),
		"duration_seconds", fmt.Sprintf("%.2f", time.Duration(clip.DurationNs()).Seconds()))
	return clip, nil
}

// provision connects to the store, creates the bucket, and wipes existing
// entries when configured. Startup retries ride out a store that is still
// coming up; credential rejections abort immediately.
func (r *Runner) provision(ctx context.Context) (Sink, error) {
	client, err := reductstore.NewClient(r.cfg.Store)
	if err != nil {
		return nil, err
	}

	err = retry.Do(ctx, retry.Startup(), func() error {
		if err := client.Alive(ctx); err != nil {
			if stderrors.Is(err, errors.ErrUnauthorized) {
				return retry.NonRetryable(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		r.metrics.RecordStoreStatus(false)
		return nil, errors.Wrap(err, "Runner", "provision", "reach store")
	}
	r.metrics.RecordStoreStatus(true)

	bucketName := r.cfg.BucketName()
	bucket, err := retry.DoWithResult(ctx, retry.Startup(), func() (*reductstore.Bucket, error) {
		b, err := client.EnsureBucket(ctx, bucketName)
		if err != nil && stderrors.Is(err, errors.ErrUnauthorized) {
			return nil, retry.NonRetryable(err)
		}
		return b, err
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("bucket ready", "bucket", bucketName, "url", r.cfg.Store.URL)

	if r.cfg.WipeBucket {
		if err := r.wipe(ctx, bucket); err != nil {
			return nil, err
		}
	}
	return bucket, nil
}

// wipe removes every existing entry so the run starts from an empty
// namespace.
func (r *Runner) wipe(ctx context.Context, sink Sink) error {
	entries, err := sink.Entries(ctx)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		r.logger.Info("removing entry", "entry", entry)
		if err := sink.RemoveEntry(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// seed replays the clip into every scheduled session.
func (r *Runner) seed(ctx context.Context, clip *bag.Clip, sink Sink) (*Summary, error) {
	decisions := classify.New(r.cfg.Topics.ClassifierConfig()).Map(clip.Topics)
	r.logDecisions(decisions, clip.Topics)

	refDuration := time.Duration(clip.DurationNs())
	if refDuration <= 0 {
		refDuration = time.Second
	}
	plan, err := throttle.ComputeRatios(clip.ChannelCounts(), refDuration, r.throttleTargets(decisions))
	if err != nil {
		return nil, err
	}
	for channel, keep := range plan.Ratios() {
		if keep > 1 {
			r.logger.Info("throttling channel", "channel", channel, "keep_every", keep)
		}
	}

	starts := window.SessionStarts(r.clock(),
		time.Duration(r.cfg.Session.StartOffsetHours)*time.Hour,
		time.Duration(r.cfg.Session.EndOffsetHours)*time.Hour,
		time.Duration(r.cfg.Session.IntervalSeconds)*time.Second)
	r.logger.Info("session schedule built",
		"sessions", len(starts),
		"session_seconds", r.cfg.Session.DurationSeconds,
		"episode_seconds", r.cfg.Session.EpisodeSeconds)

	composer := labels.NewUnseededComposer()
	if r.cfg.Seed != nil {
		composer = labels.NewComposer(*r.cfg.Seed)
	}

	var poolOpts []worker.Option[writeJob]
	if r.registry != nil {
		poolOpts = append(poolOpts, worker.WithMetricsRegistry[writeJob](r.registry, "writer"))
	}
	w := newWriter(sink, r.logger, r.metrics, poolOpts...)
	if err := w.start(ctx); err != nil {
		return nil, err
	}

	run := &sessionRun{
		runner:    r,
		clip:      clip,
		decisions: decisions,
		decimator: throttle.NewDecimator(plan),
		alloc:     tsalloc.New(),
		composer:  composer,
		namer:     flatten.NewNamer(r.cfg.Topics.EntryNames),
		writer:    w,
		summary:   &Summary{},
	}

	for i, startNs := range starts {
		session := &window.Session{
			Index:      i,
			StartNs:    startNs,
			DurationNs: int64(r.cfg.Session.DurationSeconds) * int64(time.Second),
			Context:    composer.SessionContext(r.cfg.Robot),
		}
		if err := run.play(ctx, session); err != nil {
			// A canceled submit means a writer already failed; the pool
			// holds the original error.
			if cerr := w.close(); cerr != nil {
				return nil, cerr
			}
			return nil, err
		}
		run.summary.Sessions++
		r.metrics.RecordSessionDone()
	}

	if err := w.close(); err != nil {
		return nil, err
	}

	summary := run.summary
	summary.RecordsWritten = w.written.Load()
	summary.DuplicateRecords = w.duplicates.Load()
	r.logger.Info("seeding complete",
		"sessions", summary.Sessions,
		"episodes", summary.Episodes,
		"empty_episodes", summary.EmptyEpisodes,
		"images", summary.Images,
		"point_clouds", summary.PointClouds,
		"json_rows", summary.JSONRows,
		"records_written", summary.RecordsWritten,
		"duplicates", summary.DuplicateRecords)
	return summary, nil
}

// throttleTargets maps category rate targets onto channels, with
// per-channel overrides taking precedence.
func (r *Runner) throttleTargets(decisions map[string]classify.Decision) map[string]float64 {
	targets := make(map[string]float64)
	for channel, decision := range decisions {
		if !decision.Include {
			continue
		}
		switch decision.Category {
		case classify.Image:
			targets[channel] = r.cfg.Throttle.ImageHz
		case classify.PointData:
			targets[channel] = r.cfg.Throttle.PointCloudHz
		}
	}
	for channel, target := range r.cfg.Throttle.PerChannel {
		targets[channel] = target
	}
	return targets
}

func (r *Runner) logDecisions(decisions map[string]classify.Decision, topics map[string]string) {
	included := 0
	for channel, decision := range decisions {
		if decision.Include {
			included++
			r.logger.Debug("channel included",
				"channel", channel, "type", topics[channel],
				"category", decision.Category.String())
		} else {
			r.logger.Debug("channel excluded", "channel", channel, "type", topics[channel])
		}
	}
	r.logger.Info("channels classified", "included", included, "excluded", len(decisions)-included)
}

// formatLabel derives the episode format label from the encoder's content
// type, e.g. "application/x-ndjson" -> "ndjson".
func formatLabel(contentType string) string {
	format := contentType
	if i := strings.LastIndex(format, "/"); i >= 0 {
		format = format[i+1:]
	}
	return strings.TrimPrefix(format, "x-")
}
