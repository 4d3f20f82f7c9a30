package config

import (
	"encoding/json"
	"fmt"

	"github.com/reductstore/ros-reductstore-demo/classify"
	"github.com/reductstore/ros-reductstore-demo/errors"
	"github.com/reductstore/ros-reductstore-demo/reductstore"
)

// Config represents the complete seeder configuration, read once at start.
type Config struct {
	// Robot names the simulated robot; the bucket defaults to it.
	Robot string `json:"robot" yaml:"robot"`
	// Bucket is the destination bucket; empty means use Robot.
	Bucket string `json:"bucket,omitempty" yaml:"bucket"`
	// WipeBucket removes all existing entries before seeding.
	WipeBucket bool `json:"wipe_bucket,omitempty" yaml:"wipe_bucket"`
	// Seed fixes the random source for reproducible runs; nil draws from
	// the wall clock.
	Seed *int64 `json:"seed,omitempty" yaml:"seed"`

	Source   SourceConfig       `json:"source" yaml:"source"`
	Store    reductstore.Config `json:"store" yaml:"store"`
	Session  SessionConfig      `json:"session" yaml:"session"`
	Throttle ThrottleConfig     `json:"throttle,omitempty" yaml:"throttle"`
	Topics   TopicsConfig       `json:"topics,omitempty" yaml:"topics"`
	Batch    BatchConfig        `json:"batch,omitempty" yaml:"batch"`
	Metrics  MetricsConfig      `json:"metrics,omitempty" yaml:"metrics"`
}

// SourceConfig locates the input clip.
type SourceConfig struct {
	// ClipPath is the JSONL clip to replay.
	ClipPath string `json:"clip_path" yaml:"clip_path"`
}

// SessionConfig shapes the session schedule and episode windows.
type SessionConfig struct {
	// DurationSeconds is the length of each session.
	DurationSeconds int `json:"duration_seconds" yaml:"duration_seconds"`
	// IntervalSeconds spaces consecutive session starts.
	IntervalSeconds int `json:"interval_seconds" yaml:"interval_seconds"`
	// StartOffsetHours and EndOffsetHours bound the schedule relative to
	// now; negative values seed history.
	StartOffsetHours int `json:"start_offset_hours" yaml:"start_offset_hours"`
	EndOffsetHours   int `json:"end_offset_hours" yaml:"end_offset_hours"`
	// EpisodeSeconds is the fixed episode window length.
	EpisodeSeconds int `json:"episode_seconds" yaml:"episode_seconds"`
	// EmitEmptyEpisodes writes near-empty episode records for windows with
	// no surviving messages, preserving regular temporal coverage.
	EmitEmptyEpisodes bool `json:"emit_empty_episodes,omitempty" yaml:"emit_empty_episodes"`
}

// ThrottleConfig sets target output rates. A zero target drops the
// category entirely; a negative target is invalid.
type ThrottleConfig struct {
	ImageHz      float64 `json:"image_hz" yaml:"image_hz"`
	PointCloudHz float64 `json:"point_cloud_hz" yaml:"point_cloud_hz"`
	// PerChannel overrides the category target for specific channels.
	PerChannel map[string]float64 `json:"per_channel,omitempty" yaml:"per_channel"`
}

// TopicsConfig controls classification: denied name patterns and the
// per-category channel allow-lists.
type TopicsConfig struct {
	// DenyPatterns excludes channels whose name contains any pattern.
	// Omitted means the built-in heavy-sensor denylist. A channel named on
	// any of the allow-lists below is exempt, so a deny pattern can never
	// contradict an explicit channel listing.
	DenyPatterns []string `json:"deny_patterns,omitempty" yaml:"deny_patterns"`
	// ImageChannels are the only channels whose image payloads are kept.
	ImageChannels []string `json:"image_channels,omitempty" yaml:"image_channels"`
	// PointCloudChannels are the only channels whose dense range payloads
	// are kept.
	PointCloudChannels []string `json:"point_cloud_channels,omitempty" yaml:"point_cloud_channels"`
	// CameraInfoChannels route camera intrinsics to structured output.
	CameraInfoChannels []string `json:"camera_info_channels,omitempty" yaml:"camera_info_channels"`
	// RawChannels are kept verbatim as opaque bytes.
	RawChannels []string `json:"raw_channels,omitempty" yaml:"raw_channels"`
	// EntryNames overrides the derived entry name for specific channels.
	EntryNames map[string]string `json:"entry_names,omitempty" yaml:"entry_names"`
}

// ClassifierConfig converts the topics section into classifier settings.
func (t TopicsConfig) ClassifierConfig() classify.Config {
	return classify.Config{
		DenyChannelPatterns:       t.DenyPatterns,
		AllowedImageChannels:      t.ImageChannels,
		AllowedPointCloudChannels: t.PointCloudChannels,
		AllowedCameraInfoChannels: t.CameraInfoChannels,
		RawChannels:               t.RawChannels,
	}
}

// BatchConfig shapes JSON row batching.
type BatchConfig struct {
	// JSONBatchSize is the row count that triggers a flush; the session
	// end always flushes whatever remains.
	JSONBatchSize int `json:"json_batch_size" yaml:"json_batch_size"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Port    int    `json:"port,omitempty" yaml:"port"`
	Path    string `json:"path,omitempty" yaml:"path"`
}

// DefaultConfig returns the default seeder configuration.
func DefaultConfig() *Config {
	return &Config{
		Robot:      "orion",
		WipeBucket: true,
		Source: SourceConfig{
			ClipPath: "./data/example-010-amr.jsonl",
		},
		Store: reductstore.DefaultConfig(),
		Session: SessionConfig{
			DurationSeconds:  10 * 60,
			IntervalSeconds:  18 * 60 * 60,
			StartOffsetHours: -24,
			EndOffsetHours:   0,
			EpisodeSeconds:   30,
			// Windows with no surviving messages still produce a record,
			// keeping episode coverage regular across the session.
			EmitEmptyEpisodes: true,
		},
		Throttle: ThrottleConfig{
			ImageHz:      1.0,
			PointCloudHz: 0.01,
		},
		Topics: TopicsConfig{
			ImageChannels:      []string{"/rsense/color/image_raw/compressed_restamped_downsampled"},
			PointCloudChannels: []string{"/os_node/segmented_point_cloud_no_destagger_restamped"},
			CameraInfoChannels: []string{"/rsense/color/camera_info_restamped"},
		},
		Batch: BatchConfig{
			JSONBatchSize: 1000,
		},
		Metrics: MetricsConfig{
			Port: 9090,
			Path: "/metrics",
		},
	}
}

// BucketName resolves the destination bucket.
func (c *Config) BucketName() string {
	if c.Bucket != "" {
		return c.Bucket
	}
	return c.Robot
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	data, err := json.Marshal(c)
	if err != nil {
		copied := *c
		return &copied
	}

	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		copied := *c
		return &copied
	}

	return &clone
}

// Validate checks the configuration for errors and contradictions. It is
// called once at startup, before any session opens.
func (c *Config) Validate() error {
	if c.Robot == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "robot is required")
	}
	if c.Source.ClipPath == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "source.clip_path is required")
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}

	if c.Session.DurationSeconds <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"session.duration_seconds must be positive")
	}
	if c.Session.IntervalSeconds <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"session.interval_seconds must be positive")
	}
	if c.Session.EpisodeSeconds <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"session.episode_seconds must be positive")
	}
	if c.Session.EpisodeSeconds > c.Session.DurationSeconds {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"session.episode_seconds must not exceed session.duration_seconds")
	}
	if c.Session.StartOffsetHours > c.Session.EndOffsetHours {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"session.start_offset_hours must not exceed session.end_offset_hours")
	}

	if c.Throttle.ImageHz < 0 || c.Throttle.PointCloudHz < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"throttle targets must not be negative")
	}
	for channel, target := range c.Throttle.PerChannel {
		if target < 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				fmt.Sprintf("throttle.per_channel[%s] must not be negative", channel))
		}
	}

	if c.Batch.JSONBatchSize <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"batch.json_batch_size must be positive")
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"metrics.port must be a valid TCP port")
	}

	return c.validateTopics()
}

// validateTopics rejects a channel allow-listed for two mutually
// exclusive categories.
func (c *Config) validateTopics() error {
	lists := map[string][]string{
		"image_channels":       c.Topics.ImageChannels,
		"point_cloud_channels": c.Topics.PointCloudChannels,
		"camera_info_channels": c.Topics.CameraInfoChannels,
		"raw_channels":         c.Topics.RawChannels,
	}

	seen := make(map[string]string)
	for list, channels := range lists {
		for _, channel := range channels {
			if channel == "" {
				return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
					fmt.Sprintf("topics.%s contains an empty channel name", list))
			}
			if prev, ok := seen[channel]; ok {
				return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
					fmt.Sprintf("channel %s allow-listed for both %s and %s", channel, prev, list))
			}
			seen[channel] = list
		}
	}
	return nil
}
