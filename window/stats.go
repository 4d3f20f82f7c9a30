package window

import (
	"strconv"
	"strings"

	"github.com/reductstore/ros-reductstore-demo/bag"
)

// Stats aggregates one closed episode for labeling. All values serialize to
// decimal strings; the key set is stable and disjoint from session context
// and synthetic metric keys by contract.
type Stats struct {
	TotalMessages         int
	TotalChannels         int
	DurationSeconds       float64
	TotalBytes            int64
	AvgMessageBytes       int64
	MaxMessagesPerChannel int
	MaxBytesPerChannel    int64
	MaxChannelHz          float64
	DominantType          string
	DominantTypeCount     int
}

// ComputeStats aggregates an episode's messages.
func ComputeStats(records []bag.Record) Stats {
	var s Stats
	s.TotalMessages = len(records)
	if len(records) == 0 {
		return s
	}

	channelCounts := make(map[string]int)
	channelBytes := make(map[string]int64)
	typeCounts := make(map[string]int)

	minNs := records[0].EventTimeNs
	maxNs := records[0].EventTimeNs
	for _, rec := range records {
		channelCounts[rec.Channel]++
		channelBytes[rec.Channel] += int64(len(rec.Payload))
		typeCounts[rec.DeclaredType]++
		s.TotalBytes += int64(len(rec.Payload))
		if rec.EventTimeNs < minNs {
			minNs = rec.EventTimeNs
		}
		if rec.EventTimeNs > maxNs {
			maxNs = rec.EventTimeNs
		}
	}

	s.TotalChannels = len(channelCounts)
	s.DurationSeconds = float64(maxNs-minNs) / 1e9
	s.AvgMessageBytes = s.TotalBytes / int64(len(records))

	for _, count := range channelCounts {
		if count > s.MaxMessagesPerChannel {
			s.MaxMessagesPerChannel = count
		}
	}
	for _, size := range channelBytes {
		if size > s.MaxBytesPerChannel {
			s.MaxBytesPerChannel = size
		}
	}
	if s.DurationSeconds > 0 {
		s.MaxChannelHz = float64(s.MaxMessagesPerChannel) / s.DurationSeconds
	}

	for typ, count := range typeCounts {
		if count > s.DominantTypeCount || (count == s.DominantTypeCount && typ < s.DominantType) {
			s.DominantType = typ
			s.DominantTypeCount = count
		}
	}
	// Short message name only, e.g. "Imu" from "sensor_msgs/msg/Imu".
	if idx := strings.LastIndex(s.DominantType, "/"); idx >= 0 {
		s.DominantType = s.DominantType[idx+1:]
	}

	return s
}

// Labels renders the statistics as record labels.
func (s Stats) Labels() map[string]string {
	labels := map[string]string{
		"total_messages":         strconv.Itoa(s.TotalMessages),
		"total_topics":           strconv.Itoa(s.TotalChannels),
		"duration_seconds":       strconv.FormatFloat(s.DurationSeconds, 'f', -1, 64),
		"total_bytes":            strconv.FormatInt(s.TotalBytes, 10),
		"avg_message_size":       strconv.FormatInt(s.AvgMessageBytes, 10),
		"max_messages_per_topic": strconv.Itoa(s.MaxMessagesPerChannel),
		"max_bytes_per_topic":    strconv.FormatInt(s.MaxBytesPerChannel, 10),
		"max_topic_frequency_hz": strconv.FormatFloat(s.MaxChannelHz, 'f', -1, 64),
	}
	if s.DominantType != "" {
		labels["max_topic_type"] = s.DominantType
		labels["max_topic_type_count"] = strconv.Itoa(s.DominantTypeCount)
	}
	return labels
}
