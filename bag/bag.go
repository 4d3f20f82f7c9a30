// Package bag defines the source sequence boundary: ordered, timestamped
// sensor records read from a recorded clip. Parsing of real bag container
// formats (MCAP, rosbag2) is an external collaborator; this package only
// fixes the interface and ships a newline-delimited JSON clip format used by
// the demo binary and tests.
package bag

import (
	"sort"

	"github.com/reductstore/ros-reductstore-demo/errors"
)

// Record is one timestamped message from a recorded clip. Records are
// immutable once read; downstream stages copy what they keep.
type Record struct {
	Channel      string
	Payload      []byte
	EventTimeNs  int64
	DeclaredType string
}

// Reader yields records in non-decreasing event time order.
//
// TopicCatalog reports the channel to declared-type mapping known to the
// reader. Formats without an up-front catalog may grow the map as records
// are read; LoadClip returns the complete catalog either way.
type Reader interface {
	HasNext() bool
	ReadNext() (Record, error)
	TopicCatalog() map[string]string
	Close() error
}

// Clip is a fully loaded recording: every record of the source sequence,
// the complete topic catalog, and the clip's time bounds.
type Clip struct {
	Records []Record
	Topics  map[string]string
	FirstNs int64
	LastNs  int64
}

// DurationNs returns the time span covered by the clip.
func (c *Clip) DurationNs() int64 {
	if len(c.Records) == 0 {
		return 0
	}
	return c.LastNs - c.FirstNs
}

// ChannelCounts returns the number of records per channel, the input the
// rate controller computes throttle ratios from.
func (c *Clip) ChannelCounts() map[string]int {
	counts := make(map[string]int, len(c.Topics))
	for _, rec := range c.Records {
		counts[rec.Channel]++
	}
	return counts
}

// Channels returns the clip's channel names in stable order.
func (c *Clip) Channels() []string {
	names := make([]string, 0, len(c.Topics))
	for name := range c.Topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadClip drains a reader into memory, validating the ordering contract.
// Returns ErrEmptyClip for a clip without records and ErrClipOrder when
// event times decrease.
func LoadClip(r Reader) (*Clip, error) {
	clip := &Clip{Topics: make(map[string]string)}

	var lastNs int64
	for r.HasNext() {
		rec, err := r.ReadNext()
		if err != nil {
			return nil, errors.Wrap(err, "Clip", "LoadClip", "read record")
		}
		if len(clip.Records) == 0 {
			clip.FirstNs = rec.EventTimeNs
		} else if rec.EventTimeNs < lastNs {
			return nil, errors.WrapInvalid(errors.ErrClipOrder, "Clip", "LoadClip", "validate ordering")
		}
		lastNs = rec.EventTimeNs
		clip.LastNs = rec.EventTimeNs
		clip.Records = append(clip.Records, rec)
		if rec.DeclaredType != "" {
			clip.Topics[rec.Channel] = rec.DeclaredType
		}
	}

	// Reader-side catalog wins over per-record types when both exist.
	for name, typ := range r.TopicCatalog() {
		clip.Topics[name] = typ
	}

	if len(clip.Records) == 0 {
		return nil, errors.WrapFatal(errors.ErrEmptyClip, "Clip", "LoadClip", "validate clip")
	}
	return clip, nil
}
