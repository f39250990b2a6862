package rhythm

import (
	"github.com/Faultbox/mascot-dance/internal/engine/blend"
	"github.com/Faultbox/mascot-dance/pkg/math"
)

// ModulationState holds the smoothed beat and groove signals.
type ModulationState struct {
	ScaleMultiplier    float64
	GlowMultiplier     float64
	PositionMultiplier float64
	RotationMultiplier float64
	AccentBoost        float64

	GrooveOffset   [3]float64
	GrooveScale    float64
	GrooveRotation [3]float64
}

// Neutral returns the state that leaves a pose untouched.
func Neutral() ModulationState {
	return ModulationState{
		ScaleMultiplier:    1,
		GlowMultiplier:     1,
		PositionMultiplier: 1,
		RotationMultiplier: 1,
		AccentBoost:        1,
		GrooveScale:        1,
	}
}

// Apply modulates a blended gesture pose. Gesture offsets and rotations are
// scaled by the beat multipliers, then the groove motion is layered on top.
func (m ModulationState) Apply(p blend.Pose) blend.Pose {
	out := p

	out.Position = p.Position.Scale(float32(m.PositionMultiplier)).Add(math.Vec3{
		X: float32(m.GrooveOffset[0]),
		Y: float32(m.GrooveOffset[1]),
		Z: float32(m.GrooveOffset[2]),
	})

	rm := float32(m.RotationMultiplier)
	rot := math.Euler{X: p.Rotation.X * rm, Y: p.Rotation.Y * rm, Z: p.Rotation.Z * rm}
	groove := math.Euler{
		X: float32(m.GrooveRotation[0]),
		Y: float32(m.GrooveRotation[1]),
		Z: float32(m.GrooveRotation[2]),
	}
	if !groove.IsZero() || rm != 1 {
		out.Quaternion = math.QuatFromEuler(rot).Mul(math.QuatFromEuler(groove)).Normalize()
		out.Rotation = out.Quaternion.ToEuler()
	}

	out.Scale = p.Scale * float32(m.ScaleMultiplier*m.GrooveScale)
	out.Glow = p.Glow * float32(m.GlowMultiplier*m.AccentBoost)
	return out
}

// distance is the largest absolute deviation between two states.
func (m ModulationState) distance(o ModulationState) float64 {
	d := 0.0
	upd := func(a, b float64) {
		if a-b > d {
			d = a - b
		} else if b-a > d {
			d = b - a
		}
	}
	upd(m.ScaleMultiplier, o.ScaleMultiplier)
	upd(m.GlowMultiplier, o.GlowMultiplier)
	upd(m.PositionMultiplier, o.PositionMultiplier)
	upd(m.RotationMultiplier, o.RotationMultiplier)
	upd(m.AccentBoost, o.AccentBoost)
	upd(m.GrooveScale, o.GrooveScale)
	for i := 0; i < 3; i++ {
		upd(m.GrooveOffset[i], o.GrooveOffset[i])
		upd(m.GrooveRotation[i], o.GrooveRotation[i])
	}
	return d
}

// DistanceFromNeutral is the largest deviation of any signal from neutral.
func (m ModulationState) DistanceFromNeutral() float64 {
	return m.distance(Neutral())
}
