// Package labels composes the string label set attached to each output
// record: session context generated once per session, per-episode aggregate
// statistics, and synthetic telemetry metrics drawn from a run-seeded
// random source.
package labels

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Site and shift vocabularies for generated session context.
var (
	Sites  = []string{"alpha-plant", "beta-yard", "charlie-warehouse"}
	Shifts = []string{"day", "swing", "night"}
)

// metric is one synthetic telemetry dimension. A probability of 1 means the
// metric is always attached; anything lower is an independent per-episode
// inclusion draw.
type metric struct {
	key         string
	lo, hi      int
	probability float64
}

var syntheticMetrics = []metric{
	{key: "battery_pct", lo: 15, hi: 100, probability: 1},
	{key: "cpu_temp_c", lo: 45, hi: 85, probability: 1},
	{key: "memory_pct", lo: 20, hi: 95, probability: 1},
	{key: "net_latency_ms", lo: 1, hi: 150, probability: 1},
	{key: "vibration_level", lo: 0, hi: 25, probability: 0.7},
	{key: "safety_score", lo: 60, hi: 100, probability: 0.8},
	{key: "obstacle_dist_cm", lo: 0, hi: 500, probability: 0.6},
	{key: "speed_scaled", lo: 0, hi: 180, probability: 0.9},
	{key: "ai_confidence", lo: 70, hi: 99, probability: 0.75},
	{key: "wifi_dbm", lo: -90, hi: -30, probability: 0.85},
	{key: "event_severity", lo: 1, hi: 10, probability: 0.10},
	{key: "vision_confidence", lo: 50, hi: 95, probability: 0.06},
	{key: "lidar_quality", lo: 70, hi: 100, probability: 0.05},
}

// zone risk bands, keyed in a fixed order so draws are reproducible.
var zoneTypes = []string{"safe_zone", "caution_zone", "restricted_zone"}

var zoneRisk = map[string][2]int{
	"safe_zone":       {0, 20},
	"caution_zone":    {20, 60},
	"restricted_zone": {60, 100},
}

const zoneProbability = 0.4

// Composer generates session context and synthetic metrics from a single
// random source. Seeded composers are reproducible across runs; an
// unseeded composer draws from the wall clock. Not safe for concurrent
// use, matching the sequential pipeline.
type Composer struct {
	rng *rand.Rand
}

// NewComposer creates a composer seeded for reproducible runs.
func NewComposer(seed int64) *Composer {
	return &Composer{rng: rand.New(rand.NewSource(seed))}
}

// NewUnseededComposer creates a composer with a non-reproducible source.
func NewUnseededComposer() *Composer {
	return &Composer{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// intBetween draws an integer in [lo, hi] inclusive.
func (c *Composer) intBetween(lo, hi int) int {
	return lo + c.rng.Intn(hi-lo+1)
}

// SessionContext generates the per-session identity labels. Called once
// per session; every episode and record in the session carries the same
// context.
func (c *Composer) SessionContext(robot string) map[string]string {
	return map[string]string{
		"robot":       robot,
		"run_id":      uuid.New().String()[:8],
		"state_id":    "state-" + strconv.Itoa(c.intBetween(1, 5)),
		"mission_id":  "mission-" + strconv.Itoa(c.intBetween(1000, 9999)),
		"operator_id": "op-" + strconv.Itoa(c.intBetween(10, 99)),
		"site":        Sites[c.rng.Intn(len(Sites))],
		"shift":       Shifts[c.rng.Intn(len(Shifts))],
	}
}

// Synthetic draws one set of telemetry metrics. When aggregated is true
// the numeric keys carry a "max_" prefix, marking them as per-episode
// maxima rather than point samples.
func (c *Composer) Synthetic(aggregated bool) map[string]string {
	prefix := ""
	if aggregated {
		prefix = "max_"
	}

	out := make(map[string]string, len(syntheticMetrics)+2)
	for _, m := range syntheticMetrics {
		if m.probability < 1 && c.rng.Float64() >= m.probability {
			continue
		}
		out[prefix+m.key] = strconv.Itoa(c.intBetween(m.lo, m.hi))
	}

	if c.rng.Float64() < zoneProbability {
		zone := zoneTypes[c.rng.Intn(len(zoneTypes))]
		band := zoneRisk[zone]
		out[prefix+"zone_risk"] = strconv.Itoa(c.intBetween(band[0], band[1]))
		out["zone_type"] = zone
	}

	return out
}

// Compose merges context, statistics, and synthetic metrics into one label
// set. Merge order is context, statistics, synthetic; the three key sets
// are disjoint by contract so later maps never shadow earlier values.
func Compose(context, stats, synthetic map[string]string) map[string]string {
	out := make(map[string]string, len(context)+len(stats)+len(synthetic))
	for k, v := range context {
		out[k] = v
	}
	for k, v := range stats {
		out[k] = v
	}
	for k, v := range synthetic {
		out[k] = v
	}
	return out
}
