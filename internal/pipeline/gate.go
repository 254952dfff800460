package pipeline

import (
	"sync"
	"time"
)

// progressGate throttles and sanitizes one rendition's progress stream:
// values are clamped to [0,100], forced monotonically non-decreasing, and
// emitted at most once per interval. 100 always passes so the final tick is
// never swallowed.
type progressGate struct {
	mu       sync.Mutex
	interval time.Duration
	now      func() time.Time
	lastEmit time.Time
	lastPct  float64
	emitted  bool
}

func newProgressGate(interval time.Duration) *progressGate {
	return &progressGate{
		interval: interval,
		now:      time.Now,
	}
}

// Offer returns the percent to publish and whether to publish it.
func (g *progressGate) Offer(percent float64) (float64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if percent < g.lastPct {
		percent = g.lastPct
	}

	now := g.now()
	if g.emitted && percent < 100 && now.Sub(g.lastEmit) < g.interval {
		g.lastPct = percent
		return 0, false
	}
	if g.emitted && percent == 100 && g.lastPct == 100 {
		return 0, false
	}

	g.lastEmit = now
	g.lastPct = percent
	g.emitted = true
	return percent, true
}
