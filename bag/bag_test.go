package bag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reductstore/ros-reductstore-demo/errors"
)

func testRecords() []Record {
	return []Record{
		{Channel: "/vectornav/IMU", DeclaredType: "sensor_msgs/msg/Imu", EventTimeNs: 100, Payload: []byte(`{"ax":0.1}`)},
		{Channel: "/camera/image", DeclaredType: "sensor_msgs/msg/CompressedImage", EventTimeNs: 150, Payload: []byte{0xFF, 0xD8, 0xFF, 0x01}},
		{Channel: "/vectornav/IMU", DeclaredType: "sensor_msgs/msg/Imu", EventTimeNs: 200, Payload: []byte(`{"ax":0.2}`)},
	}
}

func TestLoadClip(t *testing.T) {
	clip, err := LoadClip(NewSliceReader(testRecords(), nil))
	require.NoError(t, err)

	assert.Len(t, clip.Records, 3)
	assert.Equal(t, int64(100), clip.FirstNs)
	assert.Equal(t, int64(200), clip.LastNs)
	assert.Equal(t, int64(100), clip.DurationNs())
	assert.Equal(t, "sensor_msgs/msg/Imu", clip.Topics["/vectornav/IMU"])

	counts := clip.ChannelCounts()
	assert.Equal(t, 2, counts["/vectornav/IMU"])
	assert.Equal(t, 1, counts["/camera/image"])

	assert.Equal(t, []string{"/camera/image", "/vectornav/IMU"}, clip.Channels())
}

func TestLoadClipEmpty(t *testing.T) {
	_, err := LoadClip(NewSliceReader(nil, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrEmptyClip)
}

func TestLoadClipRejectsDisorder(t *testing.T) {
	recs := []Record{
		{Channel: "a", EventTimeNs: 200},
		{Channel: "a", EventTimeNs: 100},
	}
	_, err := LoadClip(NewSliceReader(recs, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrClipOrder)
}

func TestLoadClipAllowsEqualTimestamps(t *testing.T) {
	recs := []Record{
		{Channel: "a", EventTimeNs: 100},
		{Channel: "b", EventTimeNs: 100},
	}
	clip, err := LoadClip(NewSliceReader(recs, nil))
	require.NoError(t, err)
	assert.Len(t, clip.Records, 2)
}

func TestSliceReaderExhaustion(t *testing.T) {
	r := NewSliceReader(testRecords()[:1], nil)
	require.True(t, r.HasNext())
	_, err := r.ReadNext()
	require.NoError(t, err)
	require.False(t, r.HasNext())
	_, err = r.ReadNext()
	assert.ErrorIs(t, err, errors.ErrSourceExhausted)
}
