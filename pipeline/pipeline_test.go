package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reductstore/ros-reductstore-demo/bag"
	"github.com/reductstore/ros-reductstore-demo/classify"
	"github.com/reductstore/ros-reductstore-demo/config"
	"github.com/reductstore/ros-reductstore-demo/errors"
)

type fakeRecord struct {
	tsUs        int64
	payload     []byte
	labels      map[string]string
	contentType string
}

// fakeSink is an in-memory Sink with the store's duplicate timestamp
// semantics and optional one-shot failure injection.
type fakeSink struct {
	mu       sync.Mutex
	records  map[string][]fakeRecord
	existing []string

	failEntry string
	failErr   error
	failOnce  bool
	failed    bool
}

func newFakeSink() *fakeSink {
	return &fakeSink{records: make(map[string][]fakeRecord)}
}

func (f *fakeSink) Write(_ context.Context, entry string, payload []byte, tsUs int64,
	labels map[string]string, contentType string) error {

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failErr != nil && entry == f.failEntry && (!f.failOnce || !f.failed) {
		f.failed = true
		return f.failErr
	}

	for _, rec := range f.records[entry] {
		if rec.tsUs == tsUs {
			return errors.WrapInvalid(
				fmt.Errorf("%w: %s@%d", errors.ErrDuplicateTimestamp, entry, tsUs),
				"fakeSink", "Write", "write "+entry)
		}
	}
	f.records[entry] = append(f.records[entry], fakeRecord{
		tsUs:        tsUs,
		payload:     payload,
		labels:      labels,
		contentType: contentType,
	})
	return nil
}

func (f *fakeSink) Entries(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.existing...), nil
}

func (f *fakeSink) RemoveEntry(_ context.Context, entry string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, name := range f.existing {
		if name == entry {
			f.existing = append(f.existing[:i], f.existing[i+1:]...)
			return nil
		}
	}
	return errors.WrapInvalid(errors.ErrEntryNotFound, "fakeSink", "RemoveEntry", "resolve "+entry)
}

func (f *fakeSink) entry(name string) []fakeRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeRecord(nil), f.records[name]...)
}

const (
	imuChannel   = "/vectornav/IMU_restamped"
	imageChannel = "/camera/image_raw/compressed"
	pcChannel    = "/pc/points"
)

var imuPayload = []byte(`{"header":{"frame_id":"imu_link"},` +
	`"orientation":{"x":0.1,"y":0.2,"z":0.3,"w":0.9},` +
	`"angular_velocity":{"x":0.01,"y":0.02,"z":0.03},` +
	`"linear_acceleration":{"x":0.5,"y":0.6,"z":9.8}}`)

// testClip builds a clip spanning roughly the given number of seconds:
// one IMU row and one JPEG image per second, one point cloud every other
// second.
func testClip(t *testing.T, seconds int) *bag.Clip {
	t.Helper()

	var records []bag.Record
	for i := 0; i < seconds; i++ {
		base := int64(i) * int64(time.Second)
		records = append(records,
			bag.Record{
				Channel:      imuChannel,
				DeclaredType: "sensor_msgs/msg/Imu",
				Payload:      imuPayload,
				EventTimeNs:  base,
			},
			bag.Record{
				Channel:      imageChannel,
				DeclaredType: "sensor_msgs/msg/CompressedImage",
				Payload:      []byte{0xff, 0xd8, 0xff, 0xe0, 0x01, 0x02},
				EventTimeNs:  base + 1000,
			})
		if i%2 == 0 {
			records = append(records, bag.Record{
				Channel:      pcChannel,
				DeclaredType: "sensor_msgs/msg/PointCloud2",
				Payload:      []byte{0x01, 0x02, 0x03, 0x04},
				EventTimeNs:  base + 2000,
			})
		}
	}

	clip, err := bag.LoadClip(bag.NewSliceReader(records, map[string]string{
		imuChannel:   "sensor_msgs/msg/Imu",
		imageChannel: "sensor_msgs/msg/CompressedImage",
		pcChannel:    "sensor_msgs/msg/PointCloud2",
	}))
	require.NoError(t, err)
	return clip
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Robot = "testbot"
	seed := int64(42)
	cfg.Seed = &seed
	cfg.Session.DurationSeconds = 60
	cfg.Session.IntervalSeconds = 3600
	cfg.Session.StartOffsetHours = 0
	cfg.Session.EndOffsetHours = 0
	cfg.Session.EpisodeSeconds = 30
	cfg.Throttle.ImageHz = 1.0
	cfg.Throttle.PointCloudHz = 1.0
	cfg.Topics = config.TopicsConfig{
		ImageChannels:      []string{imageChannel},
		PointCloudChannels: []string{pcChannel},
	}
	return cfg
}

func testRunner(cfg *config.Config) *Runner {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fixed := time.Unix(1_700_000_000, 0).UTC()
	return New(cfg, logger, WithClock(func() time.Time { return fixed }))
}

func TestRunnerSeedsSingleSession(t *testing.T) {
	cfg := testConfig()
	runner := testRunner(cfg)
	clip := testClip(t, 30)
	sink := newFakeSink()

	summary, err := runner.seed(context.Background(), clip, sink)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Sessions)
	assert.Equal(t, 2, summary.Episodes)
	assert.Equal(t, 0, summary.EmptyEpisodes)
	// The clip loops twice to fill the 60s session.
	assert.Equal(t, 60, summary.Images)
	assert.Equal(t, 30, summary.PointClouds)
	assert.Equal(t, 60, summary.JSONRows)
	assert.Equal(t, 1, summary.JSONBatches)
	assert.Equal(t, int64(0), summary.DuplicateRecords)

	episodes := sink.entry(episodeEntry)
	require.Len(t, episodes, 2)
	assert.Equal(t, "0", episodes[0].labels["episode_index"])
	assert.Equal(t, "1", episodes[1].labels["episode_index"])
	assert.Equal(t, "0", episodes[0].labels["session_index"])
	assert.Equal(t, "ndjson", episodes[0].labels["format"])
	assert.Equal(t, "30", episodes[0].labels["duration_target_seconds"])
	assert.Equal(t, "testbot", episodes[0].labels["robot"])
	assert.NotEmpty(t, episodes[0].labels["run_id"])
	assert.NotEmpty(t, episodes[0].labels["total_messages"])
	// Aggregated synthetic metrics carry the max_ prefix on episodes.
	assert.NotEmpty(t, episodes[0].labels["max_battery_pct"])
	assert.Equal(t, "application/x-ndjson", episodes[0].contentType)

	images := sink.entry(imageEntry)
	require.Len(t, images, 60)
	assert.Equal(t, "image/jpeg", images[0].contentType)
	assert.Equal(t, imageChannel, images[0].labels["topic"])
	assert.Equal(t, "sensor_msgs/msg/CompressedImage", images[0].labels["type"])
	assert.Equal(t, "testbot", images[0].labels["robot"])
	// Point samples stay unprefixed.
	assert.NotEmpty(t, images[0].labels["battery_pct"])

	pcs := sink.entry(pointCloudEntry)
	require.Len(t, pcs, 30)
	assert.Equal(t, contentTypeOctet, pcs[0].contentType)
	assert.Equal(t, "pointcloud2", pcs[0].labels["kind"])

	batches := sink.entry("imu")
	require.Len(t, batches, 1)
	assert.Equal(t, "60", batches[0].labels["rows"])
	assert.Equal(t, "json_batch", batches[0].labels["type"])
	assert.Equal(t, imuChannel, batches[0].labels["topic"])
	assert.Equal(t, contentTypeJSON, batches[0].contentType)
	assert.Equal(t, byte('['), batches[0].payload[0])

	for _, name := range []string{episodeEntry, imageEntry, pointCloudEntry} {
		recs := sink.entry(name)
		for i := 1; i < len(recs); i++ {
			assert.Greater(t, recs[i].tsUs, recs[i-1].tsUs,
				"entry %s timestamps must be strictly increasing", name)
		}
	}
}

func TestRunnerSessionContextSharedWithinSession(t *testing.T) {
	cfg := testConfig()
	runner := testRunner(cfg)
	sink := newFakeSink()

	_, err := runner.seed(context.Background(), testClip(t, 30), sink)
	require.NoError(t, err)

	episodes := sink.entry(episodeEntry)
	images := sink.entry(imageEntry)
	require.NotEmpty(t, episodes)
	require.NotEmpty(t, images)

	runID := episodes[0].labels["run_id"]
	for _, rec := range episodes {
		assert.Equal(t, runID, rec.labels["run_id"])
	}
	for _, rec := range images {
		assert.Equal(t, runID, rec.labels["run_id"])
	}
}

func TestRunnerEmitsEmptyEpisodes(t *testing.T) {
	cfg := testConfig()
	cfg.Session.DurationSeconds = 60
	cfg.Session.EpisodeSeconds = 10
	cfg.Session.EmitEmptyEpisodes = true
	runner := testRunner(cfg)
	sink := newFakeSink()

	// Two bursts 55 seconds apart leave the middle slots empty; the clip
	// is too long to loop inside the session.
	records := []bag.Record{
		{Channel: imuChannel, DeclaredType: "sensor_msgs/msg/Imu", Payload: imuPayload, EventTimeNs: 0},
		{Channel: imuChannel, DeclaredType: "sensor_msgs/msg/Imu", Payload: imuPayload, EventTimeNs: 55 * int64(time.Second)},
	}
	clip, err := bag.LoadClip(bag.NewSliceReader(records, map[string]string{
		imuChannel: "sensor_msgs/msg/Imu",
	}))
	require.NoError(t, err)

	summary, err := runner.seed(context.Background(), clip, sink)
	require.NoError(t, err)

	assert.Equal(t, 6, summary.Episodes)
	assert.Equal(t, 4, summary.EmptyEpisodes)

	episodes := sink.entry(episodeEntry)
	require.Len(t, episodes, 6)
	assert.Equal(t, "1", episodes[0].labels["total_messages"])
	assert.Equal(t, "0", episodes[1].labels["total_messages"])
	assert.Equal(t, "1", episodes[5].labels["total_messages"])
}

func TestRunnerToleratesDuplicateTimestamps(t *testing.T) {
	cfg := testConfig()
	runner := testRunner(cfg)
	sink := newFakeSink()
	sink.failEntry = episodeEntry
	sink.failOnce = true
	sink.failErr = errors.WrapInvalid(
		fmt.Errorf("%w: injected", errors.ErrDuplicateTimestamp),
		"fakeSink", "Write", "write episodes")

	summary, err := runner.seed(context.Background(), testClip(t, 30), sink)
	require.NoError(t, err)

	assert.Equal(t, int64(1), summary.DuplicateRecords)
	assert.Len(t, sink.entry(episodeEntry), 1)
}

func TestRunnerAbortsOnWriteError(t *testing.T) {
	cfg := testConfig()
	runner := testRunner(cfg)
	sink := newFakeSink()
	sink.failEntry = imageEntry
	sink.failErr = errors.WrapTransient(errors.ErrStoreUnavailable,
		"fakeSink", "Write", "write image")

	_, err := runner.seed(context.Background(), testClip(t, 30), sink)
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
}

func TestRunnerWipeRemovesExistingEntries(t *testing.T) {
	cfg := testConfig()
	runner := testRunner(cfg)
	sink := newFakeSink()
	sink.existing = []string{"episodes", "image", "stale"}

	require.NoError(t, runner.wipe(context.Background(), sink))

	entries, err := sink.Entries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestThrottleTargets(t *testing.T) {
	cfg := testConfig()
	cfg.Throttle.ImageHz = 2.0
	cfg.Throttle.PointCloudHz = 0.5
	cfg.Throttle.PerChannel = map[string]float64{pcChannel: 0.25}
	runner := testRunner(cfg)

	decisions := map[string]classify.Decision{
		imageChannel: {Include: true, Category: classify.Image},
		pcChannel:    {Include: true, Category: classify.PointData},
		imuChannel:   {Include: true, Category: classify.Structured},
		"/excluded":  {},
	}

	targets := runner.throttleTargets(decisions)
	assert.Equal(t, 2.0, targets[imageChannel])
	assert.Equal(t, 0.25, targets[pcChannel], "per-channel override wins")
	assert.NotContains(t, targets, imuChannel)
	assert.NotContains(t, targets, "/excluded")
}

func TestFormatLabel(t *testing.T) {
	assert.Equal(t, "ndjson", formatLabel("application/x-ndjson"))
	assert.Equal(t, "mcap", formatLabel("application/mcap"))
	assert.Equal(t, "octet-stream", formatLabel("application/octet-stream"))
}
