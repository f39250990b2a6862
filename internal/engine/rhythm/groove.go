package rhythm

import "math"

// Groove preset names.
const (
	GrooveSubtle    = "subtle"
	GrooveBouncy    = "bouncy"
	GrooveFlowing   = "flowing"
	GrooveEnergetic = "energetic"
)

// GroovePreset is a named bundle of idle-motion amplitudes.
type GroovePreset struct {
	Name   string
	Bounce float64 // vertical hop between beats
	Sway   float64 // lateral drift over a bar
	Pulse  float64 // scale pulse on the beat
	Roll   float64 // z rotation, two swings per bar (radians)
	Twist  float64 // y rotation following the sway (radians)
}

var groovePresets = map[string]GroovePreset{
	GrooveSubtle:    {Name: GrooveSubtle, Bounce: 0.01, Sway: 0.01, Pulse: 0.01, Roll: 0.02, Twist: 0.02},
	GrooveBouncy:    {Name: GrooveBouncy, Bounce: 0.04, Sway: 0.015, Pulse: 0.02, Roll: 0.03, Twist: 0.03},
	GrooveFlowing:   {Name: GrooveFlowing, Bounce: 0.015, Sway: 0.04, Pulse: 0.015, Roll: 0.08, Twist: 0.06},
	GrooveEnergetic: {Name: GrooveEnergetic, Bounce: 0.06, Sway: 0.03, Pulse: 0.04, Roll: 0.06, Twist: 0.05},
}

// Grooves returns the preset names in ascending energy order.
func Grooves() []string {
	return []string{GrooveSubtle, GrooveBouncy, GrooveFlowing, GrooveEnergetic}
}

// LookupGroove returns the preset registered under name.
func LookupGroove(name string) (GroovePreset, bool) {
	p, ok := groovePresets[name]
	return p, ok
}

func (p GroovePreset) lerp(to GroovePreset, t float64) GroovePreset {
	mix := func(a, b float64) float64 { return a + (b-a)*t }
	return GroovePreset{
		Name:   to.Name,
		Bounce: mix(p.Bounce, to.Bounce),
		Sway:   mix(p.Sway, to.Sway),
		Pulse:  mix(p.Pulse, to.Pulse),
		Roll:   mix(p.Roll, to.Roll),
		Twist:  mix(p.Twist, to.Twist),
	}
}

// GrooveOptions controls how a preset change is applied.
type GrooveOptions struct {
	Quantize bool // wait for the next bar line before starting
	Bars     int  // length of the crossfade in bars, 0 for instant
}

// grooveState crossfades between presets.
type grooveState struct {
	from, to GroovePreset
	progress float64 // 0..1 through the crossfade
	spanMs   float64 // crossfade length
	armed    bool    // waiting for a bar line
}

func newGrooveState(p GroovePreset) grooveState {
	return grooveState{from: p, to: p, progress: 1}
}

// current returns the blended preset.
func (g *grooveState) current() GroovePreset {
	if g.progress >= 1 {
		return g.to
	}
	return g.from.lerp(g.to, smoothstep(g.progress))
}

// request arms or starts a crossfade toward p.
func (g *grooveState) request(p GroovePreset, opts GrooveOptions, barMs float64, startNow bool) {
	g.from = g.current()
	g.to = p
	g.spanMs = float64(opts.Bars) * barMs
	g.progress = 0
	g.armed = opts.Quantize && !startNow
	if !g.armed && g.spanMs <= 0 {
		g.progress = 1
	}
}

// onBarLine starts an armed crossfade.
func (g *grooveState) onBarLine() {
	if !g.armed {
		return
	}
	g.armed = false
	if g.spanMs <= 0 {
		g.progress = 1
	}
}

func (g *grooveState) advance(deltaMs float64) {
	if g.armed || g.progress >= 1 {
		return
	}
	if g.spanMs <= 0 {
		g.progress = 1
		return
	}
	g.progress = math.Min(1, g.progress+deltaMs/g.spanMs)
}

func smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}
