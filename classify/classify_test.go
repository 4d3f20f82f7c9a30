package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testClassifier() *Classifier {
	return New(Config{
		AllowedImageChannels:      []string{"/camera/image_color/compressed"},
		AllowedPointCloudChannels: []string{"/front_cloud/points"},
		AllowedCameraInfoChannels: []string{"/camera/camera_info"},
		RawChannels:               []string{"/diagnostics"},
	})
}

func TestClassify(t *testing.T) {
	c := testClassifier()

	tests := []struct {
		name         string
		channel      string
		declaredType string
		include      bool
		category     Category
	}{
		{
			name:         "denylisted channel name",
			channel:      "/os_node/points",
			declaredType: "sensor_msgs/msg/PointCloud2",
			include:      false,
		},
		{
			name:         "denylist is case insensitive",
			channel:      "/Velodyne/Packets",
			declaredType: "std_msgs/msg/ByteMultiArray",
			include:      false,
		},
		{
			name:         "allow-listed point cloud",
			channel:      "/front_cloud/points",
			declaredType: "sensor_msgs/msg/PointCloud2",
			include:      true,
			category:     PointData,
		},
		{
			name:         "point cloud without allow-list entry",
			channel:      "/rear_cloud/points",
			declaredType: "sensor_msgs/msg/PointCloud2",
			include:      false,
		},
		{
			name:         "imu is essential",
			channel:      "/vectornav/IMU",
			declaredType: "sensor_msgs/msg/Imu",
			include:      true,
			category:     Structured,
		},
		{
			name:         "tf is essential",
			channel:      "/tf",
			declaredType: "tf2_msgs/msg/TFMessage",
			include:      true,
			category:     Structured,
		},
		{
			name:         "odometry is essential",
			channel:      "/odom",
			declaredType: "nav_msgs/msg/Odometry",
			include:      true,
			category:     Structured,
		},
		{
			name:         "allow-listed camera info",
			channel:      "/camera/camera_info",
			declaredType: "sensor_msgs/msg/CameraInfo",
			include:      true,
			category:     Structured,
		},
		{
			name:         "camera info without allow-list entry",
			channel:      "/other/camera_info",
			declaredType: "sensor_msgs/msg/CameraInfo",
			include:      false,
		},
		{
			name:         "allow-listed compressed image",
			channel:      "/camera/image_color/compressed",
			declaredType: "sensor_msgs/msg/CompressedImage",
			include:      true,
			category:     Image,
		},
		{
			name:         "image without allow-list entry",
			channel:      "/other/image_raw",
			declaredType: "sensor_msgs/msg/Image",
			include:      false,
		},
		{
			name:         "raw channel",
			channel:      "/diagnostics",
			declaredType: "diagnostic_msgs/msg/DiagnosticArray",
			include:      true,
			category:     Raw,
		},
		{
			name:         "unknown type excluded",
			channel:      "/rosout",
			declaredType: "rcl_interfaces/msg/Log",
			include:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := c.Classify(tt.channel, tt.declaredType)
			assert.Equal(t, tt.include, d.Include)
			if tt.include {
				assert.Equal(t, tt.category, d.Category)
			} else {
				assert.Equal(t, Excluded, d.Category)
			}
		})
	}
}

func TestAllowListBeatsDenyPattern(t *testing.T) {
	c := New(Config{
		AllowedImageChannels:      []string{"/lidar_cam/image_raw/compressed"},
		AllowedPointCloudChannels: []string{"/os_node/segmented_point_cloud_no_destagger_restamped"},
		AllowedCameraInfoChannels: []string{"/lidar_cam/camera_info"},
		RawChannels:               []string{"/ouster/metadata"},
	})

	tests := []struct {
		name         string
		channel      string
		declaredType string
		category     Category
	}{
		{
			name:         "allow-listed point cloud on denylisted channel",
			channel:      "/os_node/segmented_point_cloud_no_destagger_restamped",
			declaredType: "sensor_msgs/msg/PointCloud2",
			category:     PointData,
		},
		{
			name:         "allow-listed image on denylisted channel",
			channel:      "/lidar_cam/image_raw/compressed",
			declaredType: "sensor_msgs/msg/CompressedImage",
			category:     Image,
		},
		{
			name:         "allow-listed camera info on denylisted channel",
			channel:      "/lidar_cam/camera_info",
			declaredType: "sensor_msgs/msg/CameraInfo",
			category:     Structured,
		},
		{
			name:         "raw-listed denylisted channel",
			channel:      "/ouster/metadata",
			declaredType: "std_msgs/msg/String",
			category:     Raw,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := c.Classify(tt.channel, tt.declaredType)
			assert.True(t, d.Include)
			assert.Equal(t, tt.category, d.Category)
		})
	}

	// A sibling channel under the same denied namespace stays excluded.
	d := c.Classify("/os_node/points", "sensor_msgs/msg/PointCloud2")
	assert.False(t, d.Include)
}

func TestExplicitEmptyDenylist(t *testing.T) {
	c := New(Config{
		DenyChannelPatterns:       []string{},
		AllowedPointCloudChannels: []string{"/os_node/points"},
	})
	d := c.Classify("/os_node/points", "sensor_msgs/msg/PointCloud2")
	assert.True(t, d.Include)
	assert.Equal(t, PointData, d.Category)
}

func TestMap(t *testing.T) {
	c := testClassifier()
	catalog := map[string]string{
		"/vectornav/IMU": "sensor_msgs/msg/Imu",
		"/rosout":        "rcl_interfaces/msg/Log",
	}
	decisions := c.Map(catalog)
	assert.Len(t, decisions, 2)
	assert.True(t, decisions["/vectornav/IMU"].Include)
	assert.False(t, decisions["/rosout"].Include)
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "image", Image.String())
	assert.Equal(t, "point_cloud", PointData.String())
	assert.Equal(t, "structured", Structured.String())
	assert.Equal(t, "raw", Raw.String())
	assert.Equal(t, "excluded", Excluded.String())
	assert.Equal(t, "unknown", Category(99).String())
}
