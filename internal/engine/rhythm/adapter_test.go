package rhythm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/mascot-dance/internal/engine/blend"
	"github.com/Faultbox/mascot-dance/pkg/math"
)

// fakeClock is a hand-driven BeatClock.
type fakeClock struct {
	playing   bool
	info      TimeInfo
	finalized bool
	listeners []func(BeatEvent)
}

func (c *fakeClock) IsPlaying() bool    { return c.playing }
func (c *fakeClock) TimeInfo() TimeInfo { return c.info }
func (c *fakeClock) BPM() float64       { return c.info.BPM }
func (c *fakeClock) BeatsToMs(beats float64) float64 {
	if c.info.BPM <= 0 {
		return 0
	}
	return beats * 60000 / c.info.BPM
}
func (c *fakeClock) BPMFinalized() bool { return c.finalized }
func (c *fakeClock) OnBeat(fn func(BeatEvent)) func() {
	c.listeners = append(c.listeners, fn)
	idx := len(c.listeners) - 1
	return func() { c.listeners[idx] = nil }
}

func (c *fakeClock) fire(ev BeatEvent) {
	for _, fn := range c.listeners {
		if fn != nil {
			fn(ev)
		}
	}
}

// step advances the fake clock's phase by deltaMs at its BPM.
func (c *fakeClock) step(deltaMs float64) {
	beats := deltaMs / 1000 * c.info.BPM / 60
	c.info.BeatProgress = frac(c.info.BeatProgress + beats)
	c.info.BarProgress = frac(c.info.BarProgress + beats/4)
}

func newPlayingClock() *fakeClock {
	return &fakeClock{
		playing: true,
		info:    TimeInfo{BPM: 120, Intensity: 1, Pattern: "straight"},
	}
}

func TestNilClockStaysNeutral(t *testing.T) {
	a := New(nil, DefaultConfig())
	for i := 0; i < 30; i++ {
		a.Update(33)
	}

	assert.Equal(t, Neutral(), a.Modulation())
	assert.False(t, a.IsPlaying())
	assert.False(t, a.IsOnBeatNow(0.5))
	assert.Equal(t, 500.0, a.BeatsToMs(1), "default tempo applies without a clock")
	a.Close()
}

func TestPlayingProducesBeatModulation(t *testing.T) {
	clock := newPlayingClock()
	a := New(clock, DefaultConfig())

	for i := 0; i < 60; i++ {
		clock.step(16)
		a.Update(16)
	}

	assert.Greater(t, a.Modulation().DistanceFromNeutral(), 0.001)
}

func TestNotPlayingConvergesToNeutralMonotonically(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StaleFrames = 1 << 30
	clock := newPlayingClock()
	a := New(clock, cfg)

	// Park on the beat so the pulse targets are at their peak.
	clock.info.BeatProgress = 0
	for i := 0; i < 120; i++ {
		a.Update(16)
	}
	start := a.Modulation().DistanceFromNeutral()
	require.Greater(t, start, 0.01)

	clock.playing = false
	prev := start
	converged := -1
	for tick := 1; tick <= 300; tick++ {
		a.Update(16)
		d := a.Modulation().DistanceFromNeutral()
		assert.LessOrEqual(t, d, prev+1e-12, "distance from neutral grew at tick %d", tick)
		prev = d
		if converged < 0 && d < 1e-3 {
			converged = tick
		}
	}
	assert.Positive(t, converged, "did not converge within 300 ticks")
}

func TestStaleFallbackActivatesAfterThreshold(t *testing.T) {
	cfg := DefaultConfig()
	clock := newPlayingClock()
	a := New(clock, cfg)

	clock.info.BeatProgress = 0.3
	a.Update(16) // establishes the baseline

	for i := 1; i <= cfg.StaleFrames; i++ {
		a.Update(16)
		require.False(t, a.IsUsingFallback(), "fallback active after %d stale frames", i)
	}

	a.Update(16)
	assert.True(t, a.IsUsingFallback())

	// The local estimate keeps the beat moving: 250 ms is half a beat at 120 BPM.
	before := a.TimeInfo().BeatProgress
	a.Update(250)
	assert.InDelta(t, frac(before+0.5), a.TimeInfo().BeatProgress, 1e-9)

	// Fresh upstream data ends the fallback.
	clock.info.BeatProgress = 0.6
	a.Update(16)
	assert.False(t, a.IsUsingFallback())
	assert.Equal(t, 0.6, a.TimeInfo().BeatProgress)
}

func TestStaleCounterResetsOnMovement(t *testing.T) {
	cfg := DefaultConfig()
	clock := newPlayingClock()
	a := New(clock, cfg)

	for round := 0; round < 5; round++ {
		for i := 0; i < cfg.StaleFrames; i++ {
			a.Update(16)
		}
		clock.info.BeatProgress = frac(clock.info.BeatProgress + 0.1)
	}
	assert.False(t, a.IsUsingFallback())
}

func TestStoppedClockResetsStaleness(t *testing.T) {
	cfg := DefaultConfig()
	clock := newPlayingClock()
	a := New(clock, cfg)

	for i := 0; i < cfg.StaleFrames+2; i++ {
		a.Update(16)
	}
	require.True(t, a.IsUsingFallback())

	clock.playing = false
	a.Update(16)
	assert.False(t, a.IsUsingFallback())
	assert.Equal(t, 0.0, a.TimeInfo().BarProgress)
}

func TestBeatHelpers(t *testing.T) {
	clock := newPlayingClock()
	a := New(clock, DefaultConfig())

	clock.info.BeatProgress = 0.02
	clock.info.BarProgress = 0.005
	a.Update(16)
	assert.True(t, a.IsOnBeatNow(0.05))
	assert.True(t, a.IsOnAccent(0.9), "downbeat of a straight bar is fully accented")
	assert.InDelta(t, 1.0, a.BeatSync(0, 1, CurveLinear), 0.01)

	clock.info.BeatProgress = 0.5
	clock.info.BarProgress = 0.125
	a.Update(16)
	assert.False(t, a.IsOnBeatNow(0.1))
	assert.False(t, a.IsOnAccent(0.1))
	assert.InDelta(t, 0.2, a.BeatSync(0.2, 0.8, CurveSharp), 1e-9)

	// Just before beat 2 of the bar (weight 0.3).
	clock.info.BeatProgress = 0.97
	clock.info.BarProgress = 0.2425
	a.Update(16)
	assert.True(t, a.IsOnAccent(0.3))
	assert.False(t, a.IsOnAccent(0.5))
}

func TestBeatSyncCurves(t *testing.T) {
	clock := newPlayingClock()
	a := New(clock, DefaultConfig())
	clock.info.BeatProgress = 1.0 / 6 // pulse = 0.75
	a.Update(16)

	lin := a.BeatSync(0, 1, CurveLinear)
	assert.InDelta(t, 0.75, lin, 1e-9)
	assert.InDelta(t, smoothstep(0.75), a.BeatSync(0, 1, CurveEase), 1e-9)
	assert.Less(t, a.BeatSync(0, 1, CurveSharp), lin)
	assert.Greater(t, a.BeatSync(0, 1, CurveSine), lin)
}

func TestOnBeatAccentRaisesBoost(t *testing.T) {
	clock := newPlayingClock()
	a := New(clock, DefaultConfig())

	clock.info.BeatProgress = 0.5 // pulse is zero, only the envelope counts
	clock.info.BarProgress = 0.375
	a.Update(16)
	quiet := a.Modulation().AccentBoost

	clock.fire(BeatEvent{Beat: 0, Accent: true})
	for i := 0; i < 5; i++ {
		a.Update(16)
	}
	assert.Greater(t, a.Modulation().AccentBoost, quiet)

	a.Close()
	assert.Nil(t, clock.listeners[0])
}

func TestQuantizedGrooveWaitsForBarLine(t *testing.T) {
	clock := newPlayingClock()
	a := New(clock, DefaultConfig())

	clock.info.BarProgress = 0.6
	a.Update(16)
	a.SetGroove(GrooveEnergetic, GrooveOptions{Quantize: true, Bars: 1})
	assert.True(t, a.GroovePending())
	assert.Equal(t, GrooveEnergetic, a.Groove())

	clock.info.BarProgress = 0.9
	a.Update(16)
	assert.True(t, a.GroovePending())

	clock.info.BarProgress = 0.01
	a.Update(16)
	assert.False(t, a.GroovePending())

	// One bar at 120 BPM is 2 s; afterwards the preset is fully applied.
	for i := 0; i < 130; i++ {
		clock.step(16)
		a.Update(16)
	}
	p, _ := LookupGroove(GrooveEnergetic)
	assert.Equal(t, p, a.groove.current())

	a.SetGroove("no-such-groove", GrooveOptions{})
	assert.Equal(t, GrooveEnergetic, a.Groove())
}

func TestGrooveAppliesImmediatelyWhenStopped(t *testing.T) {
	clock := newPlayingClock()
	clock.playing = false
	a := New(clock, DefaultConfig())

	a.SetGroove(GrooveFlowing, GrooveOptions{Quantize: true})
	assert.False(t, a.GroovePending())
	p, _ := LookupGroove(GrooveFlowing)
	assert.Equal(t, p, a.groove.current())
}

func TestModulationApply(t *testing.T) {
	pose := blend.New().Blend(nil, 0, math.Euler{}, 1, 1)
	pose.Position = math.Vec3{Y: 1}

	assert.Equal(t, pose, Neutral().Apply(pose))

	m := Neutral()
	m.PositionMultiplier = 2
	m.GrooveOffset = [3]float64{0.5, 0, 0}
	m.ScaleMultiplier = 1.5
	m.GrooveScale = 2
	m.GlowMultiplier = 1.2
	m.AccentBoost = 1.5
	m.GrooveRotation = [3]float64{0, 0, 0.2}

	out := m.Apply(pose)
	assert.True(t, out.Position.Near(math.Vec3{X: 0.5, Y: 2}, 1e-6))
	assert.InDelta(t, 3.0, out.Scale, 1e-6)
	assert.InDelta(t, 1.8, out.Glow, 1e-6)
	assert.InDelta(t, 0.2, out.Rotation.Z, 1e-5)
}
