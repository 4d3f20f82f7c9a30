// Package window partitions a replayed source sequence into fixed-duration
// episodes on a virtual session timeline. A session is a scheduled time
// slot sharing one context; episodes are the bounded bundles written to the
// store.
package window

import (
	"time"

	"github.com/reductstore/ros-reductstore-demo/pkg/timeunit"
)

// Session is one scheduled replay slot. Context is generated once per
// session and reused for every episode and record within it.
type Session struct {
	Index      int
	StartNs    int64
	DurationNs int64
	Context    map[string]string
}

// EndNs returns the exclusive end of the session timeline.
func (s *Session) EndNs() int64 {
	return s.StartNs + s.DurationNs
}

// SessionStarts builds the session schedule: start timestamps every
// interval across [now+startOffset, now+endOffset]. Offsets may be negative
// to seed history behind the current wall clock.
func SessionStarts(now time.Time, startOffset, endOffset, interval time.Duration) []int64 {
	if interval <= 0 {
		return nil
	}
	var starts []int64
	end := now.Add(endOffset)
	for t := now.Add(startOffset); !t.After(end); t = t.Add(interval) {
		starts = append(starts, timeunit.FromTimeNs(t.UTC()))
	}
	return starts
}

// Remapper maps source clip event times onto the session timeline. In
// direct replay the clip plays once from the session start; in looped
// replay a short clip repeats with a cumulative loop offset to fill the
// session.
type Remapper struct {
	sessionStartNs int64
	clipFirstNs    int64
	loopOffsetNs   int64
}

// NewRemapper anchors a remapper at the session start for a clip whose
// first message is at clipFirstNs.
func NewRemapper(session *Session, clipFirstNs int64) *Remapper {
	return &Remapper{
		sessionStartNs: session.StartNs,
		clipFirstNs:    clipFirstNs,
	}
}

// SetLoop positions the remapper at loop iteration i of a clip spanning
// clipDurationNs. Loop 0 is direct replay.
func (r *Remapper) SetLoop(i int, clipDurationNs int64) {
	r.loopOffsetNs = int64(i) * clipDurationNs
}

// Remap converts a source event time to the session timeline.
func (r *Remapper) Remap(sourceNs int64) int64 {
	return r.sessionStartNs + r.loopOffsetNs + (sourceNs - r.clipFirstNs)
}
