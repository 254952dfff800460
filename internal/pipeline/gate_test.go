package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestGate(interval time.Duration) (*progressGate, *time.Time) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := newProgressGate(interval)
	g.now = func() time.Time { return clock }
	return g, &clock
}

func TestGateClampsRange(t *testing.T) {
	g, clock := newTestGate(3 * time.Second)

	pct, ok := g.Offer(-5)
	require.True(t, ok)
	require.Equal(t, 0.0, pct)

	*clock = clock.Add(3 * time.Second)
	pct, ok = g.Offer(140)
	require.True(t, ok)
	require.Equal(t, 100.0, pct)
}

func TestGateMonotonic(t *testing.T) {
	g, clock := newTestGate(3 * time.Second)

	pct, ok := g.Offer(50)
	require.True(t, ok)
	require.Equal(t, 50.0, pct)

	*clock = clock.Add(3 * time.Second)
	pct, ok = g.Offer(30)
	require.True(t, ok)
	require.Equal(t, 50.0, pct)
}

func TestGateThrottles(t *testing.T) {
	g, clock := newTestGate(3 * time.Second)

	_, ok := g.Offer(10)
	require.True(t, ok)

	*clock = clock.Add(time.Second)
	_, ok = g.Offer(20)
	require.False(t, ok)

	*clock = clock.Add(2 * time.Second)
	pct, ok := g.Offer(25)
	require.True(t, ok)
	require.Equal(t, 25.0, pct)
}

func TestGateFinalTickAlwaysPasses(t *testing.T) {
	g, clock := newTestGate(3 * time.Second)

	_, ok := g.Offer(95)
	require.True(t, ok)

	// 100 passes inside the throttle window, but only once.
	*clock = clock.Add(time.Second)
	pct, ok := g.Offer(100)
	require.True(t, ok)
	require.Equal(t, 100.0, pct)

	*clock = clock.Add(time.Second)
	_, ok = g.Offer(100)
	require.False(t, ok)
}
