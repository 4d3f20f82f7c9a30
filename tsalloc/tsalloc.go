// Package tsalloc guarantees strictly increasing record timestamps per
// store entry. The store admits exactly one record per (entry, microsecond);
// with microsecond truncation two source events can collide, and an episode
// blob and session metadata may legitimately reuse the same start time under
// different entries. The allocator nudges ties forward by the minimal
// increment and never reorders records within an entry.
package tsalloc

import (
	"sync"

	"github.com/reductstore/ros-reductstore-demo/pkg/timeunit"
)

// Allocator tracks the last emitted unit per entry for the lifetime of the
// process. State is in-memory only; a restart begins with a fresh session
// and an empty allocator.
//
// Allocation must happen in the order writes are issued for a given entry.
// The pipeline allocates on its single consume goroutine before handing
// records to the writer queues, which preserves that order.
type Allocator struct {
	mu     sync.Mutex
	lastUs map[string]int64
}

// New creates an empty allocator.
func New() *Allocator {
	return &Allocator{lastUs: make(map[string]int64)}
}

// AllocUs converts an event time to store units and returns a timestamp
// strictly greater than every previous allocation for the entry.
func (a *Allocator) AllocUs(entry string, eventTimeNs int64) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	candidate := timeunit.UsFromNs(eventTimeNs)
	last, seen := a.lastUs[entry]
	if seen && candidate <= last {
		candidate = last + 1
	}
	a.lastUs[entry] = candidate
	return candidate
}

// LastUs returns the last allocated unit for an entry and whether the entry
// has allocated at all.
func (a *Allocator) LastUs(entry string) (int64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	last, ok := a.lastUs[entry]
	return last, ok
}

// Entries returns how many distinct entries have allocated.
func (a *Allocator) Entries() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.lastUs)
}
