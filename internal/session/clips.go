package session

import (
	stdmath "math"

	"github.com/Faultbox/mascot-dance/internal/engine/blend"
	"github.com/Faultbox/mascot-dance/pkg/math"
)

// Keyframe is one pose of a gesture clip at a point in its timeline.
type Keyframe struct {
	At       float32 // position in the clip, [0, 1]
	Position math.Vec3
	Rotation math.Quat
	Scale    float32
	Glow     float32
}

func key(at float32) Keyframe {
	return Keyframe{At: at, Rotation: math.QuatIdentity(), Scale: 1, Glow: 1}
}

func (k Keyframe) move(x, y, z float32) Keyframe {
	k.Position = math.Vec3{X: x, Y: y, Z: z}
	return k
}

func (k Keyframe) turn(x, y, z float32) Keyframe {
	k.Rotation = math.QuatFromEuler(math.Euler{X: x, Y: y, Z: z})
	return k
}

func (k Keyframe) scale(s float32) Keyframe {
	k.Scale = s
	return k
}

func (k Keyframe) glow(g float32) Keyframe {
	k.Glow = g
	return k
}

// Clip is a named keyframed gesture. Keys must be sorted by At.
type Clip struct {
	Name       string
	DurationMs float64
	Keys       []Keyframe

	moves, turns, scales, glows bool
}

func newClip(name string, durationMs float64, keys ...Keyframe) *Clip {
	c := &Clip{Name: name, DurationMs: durationMs, Keys: keys}
	identity := math.QuatIdentity()
	for _, k := range keys {
		c.moves = c.moves || k.Position != (math.Vec3{})
		c.turns = c.turns || !k.Rotation.Near(identity, 1e-6)
		c.scales = c.scales || k.Scale != 1
		c.glows = c.glows || k.Glow != 1
	}
	return c
}

// Sample interpolates the clip at t in [0, 1].
func (c *Clip) Sample(t float32) Keyframe {
	keys := c.Keys
	if len(keys) == 0 {
		return key(t)
	}
	if len(keys) == 1 {
		return keys[0]
	}

	// Find surrounding keyframes
	var prev, next int
	for i := range keys {
		if keys[i].At > t {
			next = i
			break
		}
		prev = i
		next = i
	}

	// Before the first key, or at or past the last key
	if prev == next {
		return keys[prev]
	}

	k0, k1 := keys[prev], keys[next]
	u := float32(0)
	if k1.At != k0.At {
		u = (t - k0.At) / (k1.At - k0.At)
	}
	u = easeInOut(u)

	return Keyframe{
		At:       t,
		Position: k0.Position.Lerp(k1.Position, u),
		Rotation: k0.Rotation.Slerp(k1.Rotation, u),
		Scale:    k0.Scale + u*(k1.Scale-k0.Scale),
		Glow:     k0.Glow + u*(k1.Glow-k0.Glow),
	}
}

func easeInOut(t float32) float32 {
	return t * t * (3 - 2*t)
}

// clipInstance is a clip playing on the mascot.
type clipInstance struct {
	clip    *Clip
	startMs float64
	scale   float32
}

func (a *clipInstance) StartTime() float64 { return a.startMs }
func (a *clipInstance) Duration() float64  { return a.clip.DurationMs }

// Evaluate scales the clip's deviation from rest by the gesture scale.
func (a *clipInstance) Evaluate(progress float64) blend.PartialPose {
	k := a.clip.Sample(float32(progress))
	var out blend.PartialPose
	if a.clip.moves {
		p := k.Position.Scale(a.scale)
		out.Position = &p
	}
	if a.clip.turns {
		e := math.QuatIdentity().Slerp(k.Rotation, a.scale).ToEuler()
		out.Rotation = &e
	}
	if a.clip.scales {
		s := 1 + (k.Scale-1)*a.scale
		out.Scale = &s
	}
	if a.clip.glows {
		g := 1 + (k.Glow-1)*a.scale
		out.Glow = &g
	}
	return out
}

const tau = float32(2 * stdmath.Pi)

// clips is the gesture library. Every name the choreographer emits has one.
var clips = map[string]*Clip{}

func register(c *Clip) { clips[c.Name] = c }

func init() {
	// punctuation
	register(newClip("nod", 500, key(0), key(0.4).turn(0.25, 0, 0), key(1)))
	register(newClip("tilt", 600, key(0), key(0.5).turn(0, 0, 0.2), key(1)))
	register(newClip("breathe", 1200, key(0), key(0.5).scale(1.05), key(1)))
	register(newClip("bounce", 450, key(0), key(0.35).move(0, 0.15, 0).scale(1.03), key(0.8).scale(0.97), key(1)))
	register(newClip("pulse", 350, key(0), key(0.3).scale(1.12), key(1)))
	register(newClip("headBob", 700,
		key(0), key(0.25).turn(0.15, 0, 0), key(0.5), key(0.75).turn(0.15, 0, 0), key(1)))

	// movement
	register(newClip("sway", 1200,
		key(0), key(0.25).move(-0.1, 0, 0).turn(0, 0, 0.1), key(0.75).move(0.1, 0, 0).turn(0, 0, -0.1), key(1)))
	register(newClip("float", 1500, key(0), key(0.5).move(0, 0.08, 0), key(1)))
	register(newClip("lean", 800, key(0), key(0.4).turn(0, 0, 0.3), key(1)))
	register(newClip("twist", 700, key(0), key(0.4).turn(0, 0.5, 0), key(1)))
	register(newClip("spin", 900,
		key(0), key(1.0/3).turn(0, tau/3, 0), key(2.0/3).turn(0, 2*tau/3, 0), key(1).turn(0, tau, 0)))
	register(newClip("jump", 700,
		key(0), key(0.15).scale(0.9), key(0.45).move(0, 0.4, 0).scale(1.05), key(0.85).scale(0.92), key(1)))
	register(newClip("hula", 1000,
		key(0), key(0.25).move(0.08, 0, 0), key(0.5).move(0, 0, 0.08), key(0.75).move(-0.08, 0, 0), key(1)))
	register(newClip("orbit", 1400,
		key(0), key(0.25).move(0.2, 0.05, 0), key(0.5).move(0, 0.1, 0.2), key(0.75).move(-0.2, 0.05, 0), key(1)))

	// dynamics
	register(newClip("shimmer", 800, key(0), key(0.25).glow(1.3), key(0.5).glow(1.1), key(0.75).glow(1.3), key(1)))
	register(newClip("glow", 900, key(0), key(0.4).glow(1.6), key(1)))
	register(newClip("shake", 400,
		key(0), key(0.2).move(0.05, 0, 0), key(0.4).move(-0.05, 0, 0), key(0.6).move(0.04, 0, 0), key(0.8).move(-0.03, 0, 0), key(1)))
	register(newClip("flash", 300, key(0), key(0.15).glow(2.5), key(1)))
	register(newClip("sparkle", 700, key(0), key(0.3).glow(1.8).scale(1.05), key(1)))
	register(newClip("vibrate", 350,
		key(0), key(0.25).move(0.02, 0, 0).turn(0, 0, 0.03), key(0.5).move(-0.02, 0, 0), key(0.75).move(0.02, 0, 0).turn(0, 0, -0.03), key(1)))

	// climactic
	register(newClip("burst", 1200, key(0), key(0.2).scale(1.4).glow(2.2), key(0.6).scale(1.1).glow(1.4), key(1)))
}

// LookupClip returns the clip registered under name.
func LookupClip(name string) (*Clip, bool) {
	c, ok := clips[name]
	return c, ok
}
