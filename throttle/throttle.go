// Package throttle implements deterministic per-channel decimation. Ratios
// are computed once per run from observed message counts over a reference
// duration; at runtime every Nth candidate message is kept. Decimation is
// not random sampling: kept messages stay uniformly spaced in time, which
// downstream frequency analysis depends on.
package throttle

import (
	"math"
	"time"

	"github.com/reductstore/ros-reductstore-demo/errors"
)

// Plan holds the per-channel decimation factors for one run. Channels with
// a non-positive target are dropped entirely, which is distinct from a
// keep-every of 1 (keep all).
type Plan struct {
	keepEvery map[string]int
	dropped   map[string]struct{}
}

// ComputeRatios derives a plan from per-channel counts observed over
// referenceDuration and the configured target rates. Channels absent from
// targets are kept in full.
func ComputeRatios(counts map[string]int, referenceDuration time.Duration, targets map[string]float64) (*Plan, error) {
	if referenceDuration <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Plan", "ComputeRatios",
			"reference duration must be positive")
	}

	plan := &Plan{
		keepEvery: make(map[string]int, len(counts)),
		dropped:   make(map[string]struct{}),
	}

	seconds := referenceDuration.Seconds()
	for channel, count := range counts {
		if count <= 0 {
			continue
		}

		target, hasTarget := targets[channel]
		if hasTarget && target <= 0 {
			plan.dropped[channel] = struct{}{}
			continue
		}

		keep := 1
		if hasTarget {
			observed := float64(count) / seconds
			if observed > target {
				keep = int(math.Floor(observed / target))
				if keep < 1 {
					keep = 1
				}
			}
		}
		plan.keepEvery[channel] = keep
	}

	// Targets for channels the clip never produced still mark full drops,
	// so a category-wide zero target suppresses output regardless of input.
	for channel, target := range targets {
		if target <= 0 {
			plan.dropped[channel] = struct{}{}
		}
	}

	return plan, nil
}

// KeepEvery returns the decimation factor for a channel, always >= 1.
func (p *Plan) KeepEvery(channel string) int {
	if n, ok := p.keepEvery[channel]; ok {
		return n
	}
	return 1
}

// Dropped reports whether a channel is suppressed entirely.
func (p *Plan) Dropped(channel string) bool {
	_, ok := p.dropped[channel]
	return ok
}

// Ratios returns a copy of the keep-every map for logging.
func (p *Plan) Ratios() map[string]int {
	out := make(map[string]int, len(p.keepEvery))
	for channel, n := range p.keepEvery {
		out[channel] = n
	}
	return out
}

// Decimator applies a plan at runtime. It is not safe for concurrent use;
// the pipeline consumes the source sequence on one goroutine.
type Decimator struct {
	plan     *Plan
	counters map[string]int
}

// NewDecimator creates a decimator with fresh counters.
func NewDecimator(plan *Plan) *Decimator {
	return &Decimator{
		plan:     plan,
		counters: make(map[string]int),
	}
}

// Keep counts a candidate message on the channel and reports whether it
// survives decimation.
func (d *Decimator) Keep(channel string) bool {
	if d.plan.Dropped(channel) {
		return false
	}
	d.counters[channel]++
	return d.counters[channel]%d.plan.KeepEvery(channel) == 0
}

// Seen returns how many candidates were counted for a channel.
func (d *Decimator) Seen(channel string) int {
	return d.counters[channel]
}
