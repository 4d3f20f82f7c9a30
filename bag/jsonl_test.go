package bag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleClip = `{"topics":{"/vectornav/IMU":"sensor_msgs/msg/Imu","/camera/image":"sensor_msgs/msg/CompressedImage"}}
{"channel":"/vectornav/IMU","ts_ns":100,"data":{"ax":0.1}}

{"channel":"/camera/image","ts_ns":150,"blob":"/9j/AQ=="}
{"channel":"/vectornav/IMU","ts_ns":200,"data":{"ax":0.2}}
`

func TestJSONLReader(t *testing.T) {
	r := NewJSONLReader(strings.NewReader(sampleClip))

	clip, err := LoadClip(r)
	require.NoError(t, err)
	require.Len(t, clip.Records, 3)

	first := clip.Records[0]
	assert.Equal(t, "/vectornav/IMU", first.Channel)
	assert.Equal(t, "sensor_msgs/msg/Imu", first.DeclaredType)
	assert.Equal(t, int64(100), first.EventTimeNs)
	assert.JSONEq(t, `{"ax":0.1}`, string(first.Payload))

	img := clip.Records[1]
	assert.Equal(t, "sensor_msgs/msg/CompressedImage", img.DeclaredType)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF, 0x01}, img.Payload)

	assert.Len(t, clip.Topics, 2)
	require.NoError(t, r.Close())
}

func TestJSONLReaderRejectsGarbage(t *testing.T) {
	r := NewJSONLReader(strings.NewReader("{\"channel\":\"a\",\"ts_ns\":1}\nnot json\n"))

	_, err := r.ReadNext()
	require.NoError(t, err)
	require.True(t, r.HasNext())
	_, err = r.ReadNext()
	require.Error(t, err)
}

func TestJSONLReaderRequiresChannel(t *testing.T) {
	r := NewJSONLReader(strings.NewReader("{\"ts_ns\":1,\"data\":{}}\n"))
	require.True(t, r.HasNext())
	_, err := r.ReadNext()
	require.Error(t, err)
}

func TestClipEncoderRoundTrip(t *testing.T) {
	records := testRecords()

	var enc ClipEncoder
	blob, err := enc.Encode(records)
	require.NoError(t, err)
	assert.Equal(t, "application/x-ndjson", enc.ContentType())

	clip, err := LoadClip(NewJSONLReader(strings.NewReader(string(blob))))
	require.NoError(t, err)
	require.Len(t, clip.Records, len(records))

	for i, rec := range records {
		got := clip.Records[i]
		assert.Equal(t, rec.Channel, got.Channel)
		assert.Equal(t, rec.EventTimeNs, got.EventTimeNs)
		assert.Equal(t, rec.DeclaredType, got.DeclaredType)
	}

	// Binary payloads survive the base64 leg.
	assert.Equal(t, records[1].Payload, clip.Records[1].Payload)
	// Structured payloads stay as JSON.
	assert.JSONEq(t, string(records[0].Payload), string(clip.Records[0].Payload))
}

func TestClipEncoderEmptyEpisode(t *testing.T) {
	var enc ClipEncoder
	blob, err := enc.Encode(nil)
	require.NoError(t, err)
	assert.Empty(t, blob)
}
