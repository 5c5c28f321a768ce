package oracle

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Speed returns |cur-last| / dt in units per second. A non-positive dt
// yields 0.
func Speed(cur, last mgl64.Vec3, dt time.Duration) float64 {
	secs := dt.Seconds()
	if secs <= 0 {
		return 0
	}
	return cur.Sub(last).Len() / secs
}

// SpeedBelow reports whether the speed between two samples is at most
// threshold.
func SpeedBelow(cur, last mgl64.Vec3, dt time.Duration, threshold float64) bool {
	return Speed(cur, last, dt) <= threshold
}

// Tier classifies a measured value against two thresholds.
type Tier int

const (
	TierFine Tier = iota
	TierWarn
	TierExcessive
)

func (t Tier) String() string {
	switch t {
	case TierFine:
		return "fine"
	case TierWarn:
		return "warn"
	case TierExcessive:
		return "excessive"
	default:
		return "unknown"
	}
}

// Tiers holds the thresholds of a graded check. Values strictly above Warn
// are TierWarn; values at or above Excessive are TierExcessive.
type Tiers struct {
	Warn      float64
	Excessive float64
}

// Classify grades v.
func (t Tiers) Classify(v float64) Tier {
	switch {
	case v >= t.Excessive:
		return TierExcessive
	case v > t.Warn:
		return TierWarn
	default:
		return TierFine
	}
}

// HoldTimer integrates a per-frame condition. It is satisfied once the
// condition has held continuously for Required; any failing frame resets
// the accumulated time to zero.
type HoldTimer struct {
	Required time.Duration

	held      time.Duration
	satisfied bool
}

// Update feeds one frame and reports whether the hold is satisfied.
func (h *HoldTimer) Update(ok bool, dt time.Duration) bool {
	if h.satisfied {
		return true
	}
	if !ok {
		h.held = 0
		return false
	}
	h.held += dt
	if h.held >= h.Required {
		h.satisfied = true
	}
	return h.satisfied
}

// Held returns the continuous time accumulated so far.
func (h *HoldTimer) Held() time.Duration { return h.held }

// Satisfied reports whether the hold completed.
func (h *HoldTimer) Satisfied() bool { return h.satisfied }

// Reset clears all progress.
func (h *HoldTimer) Reset() {
	h.held = 0
	h.satisfied = false
}

// CrossingDetector reports rising edges of a boolean condition so a
// penalty fires once per crossing rather than once per frame.
type CrossingDetector struct {
	above bool
}

// Observe returns true only on the frame the condition becomes true.
func (c *CrossingDetector) Observe(cond bool) bool {
	rising := cond && !c.above
	c.above = cond
	return rising
}

// Reset re-arms the detector.
func (c *CrossingDetector) Reset() { c.above = false }
