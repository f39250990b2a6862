package dance

import (
	"github.com/Faultbox/mascot-dance/internal/engine/rhythm"
)

// AudioFeatures are the per-frame band energies, each expected in [0,1].
type AudioFeatures struct {
	Bass  float64
	Vocal float64
	Flux  float64
}

func (f AudioFeatures) clamped() AudioFeatures {
	return AudioFeatures{Bass: clamp01(f.Bass), Vocal: clamp01(f.Vocal), Flux: clamp01(f.Flux)}
}

// GestureOptions accompany a gesture request.
type GestureOptions struct {
	Scale float64
}

// GeometryTarget names a mascot shape and optional variant.
type GeometryTarget struct {
	Geometry string
	Variant  string
}

// Rhythm is the subset of the rhythm adapter the choreographer reads.
type Rhythm interface {
	IsPlaying() bool
	TimeInfo() rhythm.TimeInfo
	BeatsToMs(beats float64) float64
	BPMFinalized() bool
}

// GestureSink plays one-shot gestures.
type GestureSink interface {
	Gesture(name string, opts GestureOptions)
}

// GeometrySink owns the mascot shape.
type GeometrySink interface {
	CurrentGeometry() (GeometryTarget, bool)
	MorphTo(geometry string)
	SetGeometry(geometry string)
	ApplyVariant(geometry, variant string)
}

// EmotionSink owns the mascot emotion.
type EmotionSink interface {
	CurrentEmotion() (string, bool)
	SetEmotion(name string)
}

// GrooveSink receives idle groove requests. *rhythm.Adapter satisfies it.
type GrooveSink interface {
	SetGroove(name string, opts rhythm.GrooveOptions)
}

// Random is the source of every probabilistic decision.
// *rand.Rand from math/rand/v2 satisfies it.
type Random interface {
	Float64() float64
	IntN(n int) int
}

type nopSink struct{}

func (nopSink) Gesture(string, GestureOptions)          {}
func (nopSink) CurrentGeometry() (GeometryTarget, bool) { return GeometryTarget{}, false }
func (nopSink) MorphTo(string)                          {}
func (nopSink) SetGeometry(string)                      {}
func (nopSink) ApplyVariant(string, string)             {}
func (nopSink) CurrentEmotion() (string, bool)          { return "", false }
func (nopSink) SetEmotion(string)                       {}
func (nopSink) SetGroove(string, rhythm.GrooveOptions)  {}

type stoppedRhythm struct{}

func (stoppedRhythm) IsPlaying() bool                 { return false }
func (stoppedRhythm) TimeInfo() rhythm.TimeInfo       { return rhythm.TimeInfo{} }
func (stoppedRhythm) BeatsToMs(beats float64) float64 { return beats * 500 }
func (stoppedRhythm) BPMFinalized() bool              { return false }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
