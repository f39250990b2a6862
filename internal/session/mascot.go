package session

import (
	stdmath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/mascot-dance/internal/dance"
	"github.com/Faultbox/mascot-dance/internal/engine/blend"
	"github.com/Faultbox/mascot-dance/internal/engine/rhythm"
	"github.com/Faultbox/mascot-dance/pkg/math"
)

// morphMs is how long an animated geometry change takes. The shape swaps at
// the midpoint while the mascot is smallest.
const morphMs = 600.0

// emotionGlow tints the resting brightness per emotion.
var emotionGlow = map[string]float32{
	"resting":   0.85,
	"sadness":   0.85,
	"calm":      0.9,
	"fear":      0.9,
	"focused":   0.95,
	"suspicion": 0.95,
	"disgust":   0.95,
	"neutral":   1.0,
	"joy":       1.1,
	"love":      1.1,
	"glitch":    1.15,
	"excited":   1.2,
	"surprise":  1.2,
	"anger":     1.25,
	"euphoria":  1.3,
}

// Mascot is a headless stand-in for the rendered avatar. It accepts every
// choreographer command, plays gesture clips and produces the final pose.
type Mascot struct {
	log *zap.Logger

	nowMs  float64
	active []blend.Animation

	geometry     dance.GeometryTarget
	morphFrom    dance.GeometryTarget
	morphStartMs float64
	morphing     bool

	emotion string

	played   map[string]int
	unknown  map[string]int
	shapes   map[string]int
	feelings map[string]int
}

// NewMascot creates a mascot showing geometry and emotion.
func NewMascot(geometry dance.GeometryTarget, emotion string, log *zap.Logger) *Mascot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mascot{
		log:      log,
		geometry: geometry,
		emotion:  emotion,
		played:   make(map[string]int),
		unknown:  make(map[string]int),
		shapes:   make(map[string]int),
		feelings: make(map[string]int),
	}
}

// Gesture implements dance.GestureSink.
func (m *Mascot) Gesture(name string, opts dance.GestureOptions) {
	clip, ok := LookupClip(name)
	if !ok {
		m.unknown[name]++
		m.log.Warn("unknown gesture", zap.String("gesture", name))
		return
	}
	m.played[name]++
	m.active = append(m.active, &clipInstance{clip: clip, startMs: m.nowMs, scale: float32(opts.Scale)})
}

// CurrentGeometry implements dance.GeometrySink.
func (m *Mascot) CurrentGeometry() (dance.GeometryTarget, bool) {
	return m.geometry, m.geometry.Geometry != ""
}

// MorphTo implements dance.GeometrySink with an animated transition.
func (m *Mascot) MorphTo(geometry string) {
	m.morphFrom = m.geometry
	m.morphStartMs = m.nowMs
	m.morphing = true
	m.setShape(geometry)
}

// SetGeometry implements dance.GeometrySink with an instant swap.
func (m *Mascot) SetGeometry(geometry string) {
	m.morphing = false
	m.setShape(geometry)
}

func (m *Mascot) setShape(geometry string) {
	if geometry != m.geometry.Geometry {
		m.geometry = dance.GeometryTarget{Geometry: geometry}
	}
	m.shapes[geometry]++
}

// ApplyVariant implements dance.GeometrySink.
func (m *Mascot) ApplyVariant(geometry, variant string) {
	if geometry != m.geometry.Geometry {
		m.log.Debug("variant for inactive geometry ignored",
			zap.String("geometry", geometry), zap.String("variant", variant))
		return
	}
	m.geometry.Variant = variant
}

// CurrentEmotion implements dance.EmotionSink.
func (m *Mascot) CurrentEmotion() (string, bool) {
	return m.emotion, m.emotion != ""
}

// SetEmotion implements dance.EmotionSink.
func (m *Mascot) SetEmotion(name string) {
	m.emotion = name
	m.feelings[name]++
}

// Advance moves the mascot's clock and drops finished gestures.
func (m *Mascot) Advance(deltaMs float64) {
	if deltaMs > 0 {
		m.nowMs += deltaMs
	}
	kept := m.active[:0]
	for _, a := range m.active {
		if blend.Progress(a, m.nowMs) < 1 {
			kept = append(kept, a)
		}
	}
	clear(m.active[len(kept):])
	m.active = kept

	if m.morphing && m.nowMs-m.morphStartMs >= morphMs {
		m.morphing = false
	}
}

// ShownGeometry is the shape on screen; during a morph it is the old one until
// the midpoint.
func (m *Mascot) ShownGeometry() dance.GeometryTarget {
	if m.morphing && m.nowMs-m.morphStartMs < morphMs/2 {
		return m.morphFrom
	}
	return m.geometry
}

// restScale dips during a morph so the shape swap happens out of sight.
func (m *Mascot) restScale() float32 {
	if !m.morphing {
		return 1
	}
	t := (m.nowMs - m.morphStartMs) / morphMs
	return float32(1 - 0.3*stdmath.Sin(stdmath.Pi*clamp01(t)))
}

func (m *Mascot) restGlow() float32 {
	if g, ok := emotionGlow[m.emotion]; ok {
		return g
	}
	return 1
}

// Pose blends the playing gestures and applies the beat modulation.
func (m *Mascot) Pose(b *blend.Blender, mod rhythm.ModulationState) blend.Pose {
	p := b.Blend(m.active, m.nowMs, math.Euler{}, m.restScale(), m.restGlow())
	return mod.Apply(p)
}

// Playing returns how many gestures are running.
func (m *Mascot) Playing() int { return len(m.active) }

func clamp01(v float64) float64 {
	return stdmath.Max(0, stdmath.Min(1, v))
}
