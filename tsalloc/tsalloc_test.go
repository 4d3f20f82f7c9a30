package tsalloc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocTruncatesToMicroseconds(t *testing.T) {
	a := New()
	assert.Equal(t, int64(5), a.AllocUs("episodes", 5_999))
}

func TestAllocNudgesCollisions(t *testing.T) {
	a := New()

	// Same event time twice: second allocation lands one unit later.
	first := a.AllocUs("episodes", 1_000_000)
	second := a.AllocUs("episodes", 1_000_000)
	assert.Equal(t, int64(1_000), first)
	assert.Equal(t, int64(1_001), second)

	// Sub-microsecond spacing also collides after truncation.
	third := a.AllocUs("episodes", 1_001_500)
	assert.Equal(t, int64(1_002), third)
}

func TestAllocPerEntryIsolation(t *testing.T) {
	a := New()

	// The episode blob and session metadata share a start time but live
	// under different entries, so neither is nudged.
	startNs := int64(1_700_000_000_000_000_000)
	blob := a.AllocUs("episodes", startNs)
	meta := a.AllocUs("session_meta", startNs)
	assert.Equal(t, blob, meta)
	assert.Equal(t, 2, a.Entries())
}

func TestAllocZeroEventTime(t *testing.T) {
	a := New()
	assert.Equal(t, int64(0), a.AllocUs("e", 0))
	assert.Equal(t, int64(1), a.AllocUs("e", 0))
}

func TestLastUs(t *testing.T) {
	a := New()
	_, ok := a.LastUs("episodes")
	assert.False(t, ok)

	a.AllocUs("episodes", 42_000)
	last, ok := a.LastUs("episodes")
	require.True(t, ok)
	assert.Equal(t, int64(42), last)
}

// Property: for arbitrary, possibly colliding event times delivered in
// non-decreasing order, output is strictly increasing and each input
// produces exactly one allocation.
func TestAllocStrictlyIncreasingProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := New()

	const n = 10_000
	eventNs := int64(0)
	prev := int64(-1)
	for i := 0; i < n; i++ {
		// Step forward by 0..2 microseconds so truncation collides often.
		eventNs += rng.Int63n(3) * 1_000
		got := a.AllocUs("entry", eventNs)
		require.Greater(t, got, prev, "allocation %d must exceed previous", i)
		prev = got
	}
}

// Ties are nudged by the minimal increment only: the allocator must not
// run ahead of event time by more than the number of ties seen.
func TestAllocMinimalNudge(t *testing.T) {
	a := New()
	base := int64(10_000_000) // 10ms in ns -> 10_000us
	for i := int64(0); i < 5; i++ {
		got := a.AllocUs("entry", base)
		assert.Equal(t, int64(10_000)+i, got)
	}
}
