package infra

import (
	"math"
	"time"
)

// Throttle is a per-connection intent budget. A connection may send Burst
// intents at once and earns PerSecond more every second, never banking more
// than Burst. Not safe for concurrent use; the read loop that owns the
// connection owns its Throttle.
type Throttle struct {
	Burst     float64
	PerSecond float64

	budget float64
	last   time.Time
}

// NewThrottle returns a full budget as of now.
func NewThrottle(burst int, perSecond float64, now time.Time) *Throttle {
	return &Throttle{
		Burst:     float64(burst),
		PerSecond: perSecond,
		budget:    float64(burst),
		last:      now,
	}
}

// Allow spends one intent from the budget at time now.
func (t *Throttle) Allow(now time.Time) bool {
	if now.After(t.last) {
		t.budget = math.Min(t.Burst, t.budget+now.Sub(t.last).Seconds()*t.PerSecond)
		t.last = now
	}
	if t.budget < 1 {
		return false
	}
	t.budget--
	return true
}

// RetryIn reports how long until the next intent would be allowed.
func (t *Throttle) RetryIn() time.Duration {
	if t.budget >= 1 || t.PerSecond <= 0 {
		return 0
	}
	return time.Duration((1 - t.budget) / t.PerSecond * float64(time.Second))
}
