package pipeline

import (
	"context"
	"strconv"

	"github.com/reductstore/ros-reductstore-demo/bag"
	"github.com/reductstore/ros-reductstore-demo/classify"
	"github.com/reductstore/ros-reductstore-demo/errors"
	"github.com/reductstore/ros-reductstore-demo/flatten"
	"github.com/reductstore/ros-reductstore-demo/labels"
	"github.com/reductstore/ros-reductstore-demo/pkg/timeunit"
	"github.com/reductstore/ros-reductstore-demo/throttle"
	"github.com/reductstore/ros-reductstore-demo/tsalloc"
	"github.com/reductstore/ros-reductstore-demo/window"
)

// sessionRun carries the state shared across all sessions of one run.
// Decimation counters and the timestamp allocator live for the whole run;
// windower, remapper, and JSON batches are per session.
type sessionRun struct {
	runner    *Runner
	clip      *bag.Clip
	decisions map[string]classify.Decision
	decimator *throttle.Decimator
	alloc     *tsalloc.Allocator
	composer  *labels.Composer
	namer     *flatten.Namer
	writer    *writer
	summary   *Summary
}

// play replays the clip into one session, looping a short clip until the
// session window is filled.
func (sr *sessionRun) play(ctx context.Context, session *window.Session) error {
	sr.runner.logger.Info("session start",
		"session", session.Index,
		"start_ns", session.StartNs,
		"end_ns", session.EndNs(),
		"run_id", session.Context["run_id"])

	remapper := window.NewRemapper(session, sr.clip.FirstNs)
	windower := window.NewWindower(session, window.Options{
		EpisodeNs:           int64(sr.runner.cfg.Session.EpisodeSeconds) * 1_000_000_000,
		AlignToSessionStart: true,
		EmitEmpty:           sr.runner.cfg.Session.EmitEmptyEpisodes,
	})
	batches := make(map[string]*flatten.Batch)

	clipDur := sr.clip.DurationNs()
	loops := 1
	if clipDur > 0 {
		if n := int(session.DurationNs / clipDur); n > loops {
			loops = n
		}
	}

replay:
	for loop := 0; loop < loops; loop++ {
		remapper.SetLoop(loop, clipDur)
		for _, rec := range sr.clip.Records {
			if err := ctx.Err(); err != nil {
				return err
			}

			remapped := remapper.Remap(rec.EventTimeNs)
			if remapped >= session.EndNs() {
				break replay
			}

			decision := sr.decisions[rec.Channel]
			sr.runner.metrics.RecordRead(decision.Category.String())
			if !decision.Include {
				sr.runner.metrics.RecordDropped("excluded")
				continue
			}
			if !sr.decimator.Keep(rec.Channel) {
				sr.runner.metrics.RecordDropped("throttled")
				continue
			}
			sr.runner.metrics.RecordKept(decision.Category.String())

			out := rec
			out.EventTimeNs = remapped
			for _, episode := range windower.Offer(out) {
				if err := sr.writeEpisode(episode); err != nil {
					return err
				}
			}

			if err := sr.route(session, decision.Category, out, batches); err != nil {
				return err
			}
		}
	}

	for _, episode := range windower.Flush(session.EndNs()) {
		if err := sr.writeEpisode(episode); err != nil {
			return err
		}
	}

	// Whatever is still buffered flushes at session end regardless of size.
	for entry, batch := range batches {
		if err := sr.flushBatch(session, entry, batch); err != nil {
			return err
		}
	}
	return nil
}

// route writes one kept record to its category output. Raw records are
// episode-only and produce no direct write.
func (sr *sessionRun) route(session *window.Session, category classify.Category,
	rec bag.Record, batches map[string]*flatten.Batch) error {

	switch category {
	case classify.Image:
		return sr.writeImage(session, rec)
	case classify.PointData:
		return sr.writePointCloud(session, rec)
	case classify.Structured:
		return sr.batchRow(session, rec, batches)
	default:
		return nil
	}
}

func (sr *sessionRun) writeImage(session *window.Session, rec bag.Record) error {
	contentType := sniffImageContentType(rec.Payload)
	if contentType == "" {
		sr.runner.metrics.RecordDropped("unsupported_image")
		sr.runner.logger.Debug("skipping image with unknown format", "channel", rec.Channel)
		return nil
	}

	base := map[string]string{"topic": rec.Channel, "type": rec.DeclaredType}
	lbls := labels.Compose(session.Context, base, sr.composer.Synthetic(false))
	job := writeJob{
		payload:     rec.Payload,
		tsUs:        sr.allocUs(imageEntry, rec.EventTimeNs),
		labels:      lbls,
		contentType: contentType,
	}
	if err := sr.writer.submit(imageEntry, job); err != nil {
		return err
	}
	sr.summary.Images++
	return nil
}

func (sr *sessionRun) writePointCloud(session *window.Session, rec bag.Record) error {
	base := map[string]string{
		"topic": rec.Channel,
		"type":  rec.DeclaredType,
		"kind":  "pointcloud2",
	}
	lbls := labels.Compose(session.Context, base, sr.composer.Synthetic(false))
	job := writeJob{
		payload:     rec.Payload,
		tsUs:        sr.allocUs(pointCloudEntry, rec.EventTimeNs),
		labels:      lbls,
		contentType: contentTypeOctet,
	}
	if err := sr.writer.submit(pointCloudEntry, job); err != nil {
		return err
	}
	sr.summary.PointClouds++
	return nil
}

// batchRow flattens a structured record into its entry's batch, flushing
// when the batch reaches the configured size. Decode failures skip the
// record for structured output; it already counted for episode inclusion.
func (sr *sessionRun) batchRow(session *window.Session, rec bag.Record,
	batches map[string]*flatten.Batch) error {

	row, err := flatten.Flatten(rec.Channel, rec.DeclaredType, rec.Payload, rec.EventTimeNs)
	if err != nil {
		if errors.IsInvalid(err) {
			sr.runner.metrics.RecordDecodeFailure(rec.Channel)
			sr.runner.logger.Debug("payload not flattened",
				"channel", rec.Channel, "error", err)
			return nil
		}
		return err
	}

	entry := sr.namer.EntryName(rec.Channel)
	batch, ok := batches[entry]
	if !ok {
		batch = flatten.NewBatch(entry)
		batches[entry] = batch
	}
	if err := batch.Add(row); err != nil {
		return err
	}

	if batch.Len() >= sr.runner.cfg.Batch.JSONBatchSize {
		return sr.flushBatch(session, entry, batch)
	}
	return nil
}

func (sr *sessionRun) flushBatch(session *window.Session, entry string, batch *flatten.Batch) error {
	if batch.Len() == 0 {
		return nil
	}

	lbls := labels.Compose(session.Context, batch.Labels(), sr.composer.Synthetic(false))
	job := writeJob{
		payload:     batch.Payload(),
		tsUs:        sr.allocUs(entry, batch.LastTsNs()),
		labels:      lbls,
		contentType: contentTypeJSON,
	}
	if err := sr.writer.submit(entry, job); err != nil {
		return err
	}
	sr.summary.JSONRows += batch.Len()
	sr.summary.JSONBatches++
	batch.Reset()
	return nil
}

// writeEpisode serializes a closed window into one blob record at the
// episode start time.
func (sr *sessionRun) writeEpisode(episode *window.Episode) error {
	payload, err := sr.runner.encoder.Encode(episode.Messages)
	if err != nil {
		return err
	}

	stats := window.ComputeStats(episode.Messages)
	meta := stats.Labels()
	meta["episode_index"] = strconv.Itoa(episode.Index)
	meta["session_index"] = strconv.Itoa(episode.Session.Index)
	meta["format"] = formatLabel(sr.runner.encoder.ContentType())
	meta["duration_target_seconds"] = strconv.Itoa(sr.runner.cfg.Session.EpisodeSeconds)

	lbls := labels.Compose(episode.Session.Context, meta, sr.composer.Synthetic(true))
	job := writeJob{
		payload:     payload,
		tsUs:        sr.allocUs(episodeEntry, episode.StartNs),
		labels:      lbls,
		contentType: sr.runner.encoder.ContentType(),
	}
	if err := sr.writer.submit(episodeEntry, job); err != nil {
		return err
	}

	outcome := "ok"
	if episode.Empty() {
		outcome = "empty"
		sr.summary.EmptyEpisodes++
	}
	sr.summary.Episodes++
	sr.runner.metrics.RecordEpisodeClosed(outcome, len(episode.Messages), len(payload))
	return nil
}

// allocUs allocates the store timestamp for an entry and counts the
// allocations that had to be nudged off their source time.
func (sr *sessionRun) allocUs(entry string, eventTimeNs int64) int64 {
	us := sr.alloc.AllocUs(entry, eventTimeNs)
	if us != timeunit.UsFromNs(eventTimeNs) {
		sr.runner.metrics.RecordTimestampNudge(entry)
	}
	return us
}
