// Package classify decides per-channel inclusion and output category from a
// channel's name and declared message type. Decisions are static per run:
// they depend on configuration and the topic catalog, never on message
// content.
package classify

import (
	"strings"
)

// Category is the closed set of output categories a channel can route to.
type Category int

const (
	// Excluded channels produce no output at all.
	Excluded Category = iota
	// Image channels route to the image record entry.
	Image
	// PointData channels route to the point cloud record entry.
	PointData
	// Structured channels route to per-channel JSON batch entries.
	Structured
	// Raw channels are kept for episode inclusion only.
	Raw
)

// String returns the category name used in labels and metrics.
func (c Category) String() string {
	switch c {
	case Image:
		return "image"
	case PointData:
		return "point_cloud"
	case Structured:
		return "structured"
	case Raw:
		return "raw"
	case Excluded:
		return "excluded"
	default:
		return "unknown"
	}
}

// Decision is the classifier verdict for one channel.
type Decision struct {
	Include  bool
	Category Category
}

// Type suffixes recognized by the classifier. Declared types follow the
// ROS 2 convention "pkg/msg/Name", sometimes with a distro prefix, so
// matching is by suffix.
const (
	typePointCloud      = "sensor_msgs/msg/PointCloud2"
	typeImage           = "sensor_msgs/msg/Image"
	typeCompressedImage = "sensor_msgs/msg/CompressedImage"
	typeCameraInfo      = "sensor_msgs/msg/CameraInfo"
)

// essentialTypePatterns mark lightweight structured telemetry that is kept
// on every run: inertial, environmental, and navigation messages.
var essentialTypePatterns = []string{
	"sensor_msgs/msg/Imu",
	"sensor_msgs/msg/MagneticField",
	"sensor_msgs/msg/FluidPressure",
	"sensor_msgs/msg/Temperature",
	"tf2_msgs/msg/TFMessage",
	"nav_msgs/",
	"geometry_msgs/",
	"std_msgs/",
}

// DefaultDenyPatterns excludes heavy ranging sensors by channel name.
var DefaultDenyPatterns = []string{
	"lidar", "laser", "scan", "os_node", "ouster", "velodyne", "sick", "hokuyo",
}

// Config holds the allow and deny lists the classifier is built from.
type Config struct {
	DenyChannelPatterns       []string `json:"deny_channel_patterns"        yaml:"deny_channel_patterns"`
	AllowedImageChannels      []string `json:"allowed_image_channels"       yaml:"allowed_image_channels"`
	AllowedPointCloudChannels []string `json:"allowed_point_cloud_channels" yaml:"allowed_point_cloud_channels"`
	AllowedCameraInfoChannels []string `json:"allowed_camera_info_channels" yaml:"allowed_camera_info_channels"`
	RawChannels               []string `json:"raw_channels"                 yaml:"raw_channels"`
}

// Classifier evaluates the rule chain for channels. Build one per run with
// New and reuse it; it is immutable after construction.
type Classifier struct {
	denyPatterns []string
	images       map[string]struct{}
	pointClouds  map[string]struct{}
	cameraInfos  map[string]struct{}
	raws         map[string]struct{}
	// allowed is the union of the four channel lists; membership exempts
	// a channel from the name denylist.
	allowed map[string]struct{}
}

// New builds a classifier from configuration. A nil DenyChannelPatterns
// falls back to DefaultDenyPatterns; an explicit empty slice disables the
// denylist.
func New(cfg Config) *Classifier {
	deny := cfg.DenyChannelPatterns
	if deny == nil {
		deny = DefaultDenyPatterns
	}
	lowered := make([]string, len(deny))
	for i, p := range deny {
		lowered[i] = strings.ToLower(p)
	}
	allowed := make(map[string]struct{})
	for _, list := range [][]string{
		cfg.AllowedImageChannels,
		cfg.AllowedPointCloudChannels,
		cfg.AllowedCameraInfoChannels,
		cfg.RawChannels,
	} {
		for _, channel := range list {
			allowed[channel] = struct{}{}
		}
	}
	return &Classifier{
		denyPatterns: lowered,
		images:       toSet(cfg.AllowedImageChannels),
		pointClouds:  toSet(cfg.AllowedPointCloudChannels),
		cameraInfos:  toSet(cfg.AllowedCameraInfoChannels),
		raws:         toSet(cfg.RawChannels),
		allowed:      allowed,
	}
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// Classify evaluates the rules in order, first match wins:
//
//  1. denylisted channel name patterns are excluded, unless the channel
//     appears on an allow-list: an explicit channel name always beats a
//     name pattern, so the heavy-sensor denylist cannot silence a channel
//     the configuration asked for by name
//  2. point cloud types are excluded unless the channel is allow-listed
//  3. camera info is structured when allow-listed, excluded otherwise
//  4. essential telemetry types are structured
//  5. image types are included only for allow-listed channels
//  6. channels on the raw list are kept for episode inclusion only
//  7. everything else is excluded
func (c *Classifier) Classify(channel, declaredType string) Decision {
	if _, ok := c.allowed[channel]; !ok {
		lowerChannel := strings.ToLower(channel)
		for _, pattern := range c.denyPatterns {
			if strings.Contains(lowerChannel, pattern) {
				return Decision{}
			}
		}
	}

	if strings.HasSuffix(declaredType, typePointCloud) {
		if _, ok := c.pointClouds[channel]; ok {
			return Decision{Include: true, Category: PointData}
		}
		return Decision{}
	}

	if strings.HasSuffix(declaredType, typeCameraInfo) {
		if _, ok := c.cameraInfos[channel]; ok {
			return Decision{Include: true, Category: Structured}
		}
		return Decision{}
	}

	for _, pattern := range essentialTypePatterns {
		if strings.Contains(declaredType, pattern) {
			return Decision{Include: true, Category: Structured}
		}
	}

	if strings.HasSuffix(declaredType, typeImage) || strings.HasSuffix(declaredType, typeCompressedImage) {
		if _, ok := c.images[channel]; ok {
			return Decision{Include: true, Category: Image}
		}
		return Decision{}
	}

	if _, ok := c.raws[channel]; ok {
		return Decision{Include: true, Category: Raw}
	}

	return Decision{}
}

// Map precomputes decisions for a whole topic catalog.
func (c *Classifier) Map(catalog map[string]string) map[string]Decision {
	out := make(map[string]Decision, len(catalog))
	for channel, declaredType := range catalog {
		out[channel] = c.Classify(channel, declaredType)
	}
	return out
}
