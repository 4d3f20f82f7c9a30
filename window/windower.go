package window

import (
	"github.com/reductstore/ros-reductstore-demo/bag"
)

// State is the windower's position in its episode lifecycle.
type State int

const (
	// StateNoEpisode means no window is open.
	StateNoEpisode State = iota
	// StateOpen means a window is accepting messages.
	StateOpen
	// StateClosing is the transient state while an episode is finalized;
	// it is only observable from within a close.
	StateClosing
)

// Episode is one fixed-duration window of remapped messages. Mutated only
// by the windower while open; read-only once returned from Offer or Flush.
type Episode struct {
	Session  *Session
	Index    int
	StartNs  int64
	EndNs    int64
	Messages []bag.Record
}

// Empty reports whether no messages survived filtering for this window.
func (e *Episode) Empty() bool {
	return len(e.Messages) == 0
}

// Options configure a windower for one session.
type Options struct {
	// EpisodeNs is the fixed window duration.
	EpisodeNs int64
	// AlignToSessionStart anchors windows at precomputed slot boundaries
	// from the session start. When false the first accepted message's
	// timestamp anchors the window grid.
	AlignToSessionStart bool
	// EmitEmpty closes and returns windows with zero qualifying messages,
	// preserving regular temporal coverage.
	EmitEmpty bool
}

// Windower assigns remapped messages to consecutive fixed-duration
// episodes. Messages must arrive in non-decreasing remapped time order;
// every message satisfies StartNs <= ts < EndNs of the episode holding it,
// and no message ever lands in two episodes.
type Windower struct {
	session *Session
	opts    Options

	state    State
	anchorNs int64
	anchored bool
	current  *Episode
}

// NewWindower creates a windower for a session.
func NewWindower(session *Session, opts Options) *Windower {
	if opts.EpisodeNs <= 0 {
		panic("window: EpisodeNs must be positive")
	}
	return &Windower{session: session, opts: opts}
}

// State returns the current lifecycle state.
func (w *Windower) State() State {
	return w.state
}

// slotFor returns the window index a remapped timestamp belongs to.
func (w *Windower) slotFor(remappedNs int64) int {
	return int((remappedNs - w.anchorNs) / w.opts.EpisodeNs)
}

// openSlot opens the episode for a slot index.
func (w *Windower) openSlot(slot int) {
	startNs := w.anchorNs + int64(slot)*w.opts.EpisodeNs
	w.current = &Episode{
		Session: w.session,
		Index:   slot,
		StartNs: startNs,
		EndNs:   startNs + w.opts.EpisodeNs,
	}
	w.state = StateOpen
}

// Offer places a message (whose EventTimeNs is already remapped onto the
// session timeline) into its window. It returns the episodes closed by the
// transition, oldest first: the previously open window and, when EmitEmpty
// is set, any empty slots skipped over.
func (w *Windower) Offer(rec bag.Record) []*Episode {
	if !w.anchored {
		if w.opts.AlignToSessionStart {
			w.anchorNs = w.session.StartNs
		} else {
			w.anchorNs = rec.EventTimeNs
		}
		w.anchored = true
	}

	slot := w.slotFor(rec.EventTimeNs)
	var closed []*Episode

	if w.current == nil {
		if w.opts.EmitEmpty && w.opts.AlignToSessionStart {
			closed = append(closed, w.emptySlots(0, slot)...)
		}
		w.openSlot(slot)
	} else if slot > w.current.Index {
		closed = append(closed, w.closeCurrent())
		if w.opts.EmitEmpty {
			closed = append(closed, w.emptySlots(closed[0].Index+1, slot)...)
		}
		w.openSlot(slot)
	}

	w.current.Messages = append(w.current.Messages, rec)
	return closed
}

// Flush closes the open episode because the source is exhausted or the
// session ended. With EmitEmpty set it also emits empty windows up to (but
// not including) the slot containing throughNs, keeping slot coverage
// regular to the session end.
func (w *Windower) Flush(throughNs int64) []*Episode {
	var closed []*Episode

	if !w.anchored {
		if !w.opts.AlignToSessionStart || !w.opts.EmitEmpty {
			return nil
		}
		// Session saw no messages at all; cover it with empty slots.
		w.anchorNs = w.session.StartNs
		w.anchored = true
	}

	nextSlot := 0
	if w.current != nil {
		nextSlot = w.current.Index + 1
		closed = append(closed, w.closeCurrent())
	}

	if w.opts.EmitEmpty {
		endSlot := w.slotFor(throughNs)
		closed = append(closed, w.emptySlots(nextSlot, endSlot)...)
	}

	w.state = StateNoEpisode
	return closed
}

// closeCurrent finalizes the open episode.
func (w *Windower) closeCurrent() *Episode {
	w.state = StateClosing
	ep := w.current
	w.current = nil
	w.state = StateNoEpisode
	return ep
}

// emptySlots builds closed empty episodes for slots [from, to).
func (w *Windower) emptySlots(from, to int) []*Episode {
	var out []*Episode
	for slot := from; slot < to; slot++ {
		startNs := w.anchorNs + int64(slot)*w.opts.EpisodeNs
		out = append(out, &Episode{
			Session: w.session,
			Index:   slot,
			StartNs: startNs,
			EndNs:   startNs + w.opts.EpisodeNs,
		})
	}
	return out
}
