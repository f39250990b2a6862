// Package blend composes concurrently active timed animations into a single
// pose delta.
package blend

import (
	"github.com/Faultbox/mascot-dance/pkg/math"
)

// Animation is a timed animation owned by the caller's animation system.
// The blender only reads it.
type Animation interface {
	// StartTime is the start of the animation in milliseconds.
	StartTime() float64
	// Duration is the length of the animation in milliseconds.
	Duration() float64
	// Evaluate returns the animation's contribution at progress in [0, 1].
	Evaluate(progress float64) PartialPose
}

// PartialPose is a single animation's output. Nil fields contribute nothing.
type PartialPose struct {
	Position *math.Vec3
	Rotation *math.Euler
	Scale    *float32
	Glow     *float32
}

// Pose is the combined output of all active animations.
type Pose struct {
	Position   math.Vec3  // additive offset
	Rotation   math.Euler // base rotation composed with animation rotations
	Quaternion math.Quat  // same rotation as a quaternion
	Scale      float32
	Glow       float32
}

// Transform returns the pose's model matrix (T * R * S).
func (p Pose) Transform() math.Mat4 {
	return math.Compose(p.Position, p.Quaternion, p.Scale)
}

// Blender combines animation outputs. It keeps scratch state between calls
// but nothing that affects results, so one Blender can serve every frame.
type Blender struct {
	accum math.Quat
}

// New creates a blender.
func New() *Blender {
	return &Blender{accum: math.QuatIdentity()}
}

// Blend evaluates every active animation at currentTime (ms) and combines the
// results onto the base rotation, scale and glow.
//
// Rotations are multiplied in slice order; swapping two animations can change
// the result.
func (b *Blender) Blend(active []Animation, currentTime float64, baseRotation math.Euler, baseScale, baseGlow float32) Pose {
	var position math.Vec3
	scale := float32(1)
	glow := float32(1)
	rotated := false
	b.accum = math.QuatIdentity()

	for _, anim := range active {
		if anim == nil {
			continue
		}
		out := anim.Evaluate(Progress(anim, currentTime))

		if out.Position != nil {
			position = position.Add(*out.Position)
		}
		if out.Rotation != nil && !out.Rotation.IsZero() {
			b.accum = b.accum.Mul(math.QuatFromEuler(*out.Rotation))
			rotated = true
		}
		if out.Scale != nil {
			scale *= *out.Scale
		}
		if out.Glow != nil {
			glow *= *out.Glow
		}
	}

	pose := Pose{
		Position:   position,
		Rotation:   baseRotation,
		Quaternion: math.QuatFromEuler(baseRotation),
		Scale:      baseScale * scale,
		Glow:       baseGlow * glow,
	}
	if rotated {
		pose.Quaternion = pose.Quaternion.Mul(b.accum).Normalize()
		pose.Rotation = pose.Quaternion.ToEuler()
	}
	return pose
}

// Progress returns how far anim has run at currentTime, clamped to [0, 1].
// Animations without a positive duration are complete.
func Progress(anim Animation, currentTime float64) float64 {
	d := anim.Duration()
	if d <= 0 {
		return 1
	}
	p := (currentTime - anim.StartTime()) / d
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
