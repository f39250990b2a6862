// Package session runs a headless dance session: a beat clock, the rhythm
// adapter, the choreographer and a mascot driven frame by frame from a
// feature script.
package session

import (
	"context"
	"fmt"
	stdmath "math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/mascot-dance/internal/config"
	"github.com/Faultbox/mascot-dance/internal/dance"
	"github.com/Faultbox/mascot-dance/internal/engine/beatclock"
	"github.com/Faultbox/mascot-dance/internal/engine/blend"
	"github.com/Faultbox/mascot-dance/internal/engine/rhythm"
)

// Summary describes what happened during a session.
type Summary struct {
	ID          string
	Script      string
	Frames      int
	SimulatedMs float64
	Bars        int

	Gestures        map[string]int
	UnknownGestures int
	Shapes          map[string]int
	Emotions        map[string]int
	FinalGeometry   dance.GeometryTarget
	FinalEmotion    string
	FinalGroove     string

	FallbackFrames int
	PeakScale      float32
	PeakGlow       float32
	Reloads        int

	Stats dance.Stats
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. Components get named children.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithReload delivers replacement configs. They are applied between frames.
func WithReload(ch <-chan *config.Config) Option {
	return func(s *Session) { s.reload = ch }
}

// Session owns one mascot and everything that drives it. It is not safe for
// concurrent use; configs from other goroutines arrive through WithReload.
type Session struct {
	ID uuid.UUID

	cfg    *config.Config
	log    *zap.Logger
	reload <-chan *config.Config

	clock   *beatclock.Metronome
	adapter *rhythm.Adapter
	choreo  *dance.Choreographer
	mascot  *Mascot
	blender *blend.Blender
	jitter  *rand.Rand

	frameMs      float64
	nextReportMs float64
	script       string
	summary      Summary
	closed       bool
}

// New creates a session from cfg.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}

	s := &Session{
		ID:      uuid.New(),
		cfg:     cfg,
		log:     zap.NewNop(),
		blender: blend.New(),
		frameMs: 1000 / float64(cfg.Session.FrameRate),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.Stringer("session", s.ID))

	seed := cfg.Session.Seed
	s.jitter = rand.New(rand.NewPCG(seed+1, seed^0x5eed))

	s.clock = beatclock.New(cfg.Session.BPM,
		beatclock.WithPattern(cfg.Session.Pattern),
		beatclock.WithFinalizeBeats(cfg.Session.FinalizeBeats),
	)
	s.adapter = rhythm.New(s.clock, cfg.Rhythm, rhythm.WithLogger(s.log.Named("rhythm")))

	home := dance.GeometryTarget{
		Geometry: cfg.Choreography.Morph.HomeGeometry,
		Variant:  cfg.Choreography.Morph.HomeVariant,
	}
	s.mascot = NewMascot(home, cfg.Choreography.Emotion.HomeEmotion, s.log.Named("mascot"))

	s.choreo = dance.New(s.adapter, cfg.Choreography,
		dance.WithGestureSink(s.mascot),
		dance.WithGeometrySink(s.mascot),
		dance.WithEmotionSink(s.mascot),
		dance.WithGrooveSink(s.adapter),
		dance.WithRandom(dance.NewRandom(seed)),
		dance.WithLogger(s.log.Named("choreo")),
	)

	s.resetSummary()
	s.log.Info("session created",
		zap.Float64("bpm", cfg.Session.BPM),
		zap.Int("fps", cfg.Session.FrameRate),
		zap.Uint64("seed", seed))
	return s, nil
}

func (s *Session) resetSummary() {
	s.summary = Summary{
		ID:       s.ID.String(),
		Gestures: make(map[string]int),
		Shapes:   make(map[string]int),
		Emotions: make(map[string]int),
	}
	s.nextReportMs = s.reportIntervalMs()
}

func (s *Session) reportIntervalMs() float64 {
	return float64(s.cfg.Session.ReportInterval) / float64(time.Millisecond)
}

// Choreographer exposes the session's choreographer.
func (s *Session) Choreographer() *dance.Choreographer { return s.choreo }

// Adapter exposes the session's rhythm adapter.
func (s *Session) Adapter() *rhythm.Adapter { return s.adapter }

// Mascot exposes the session's mascot.
func (s *Session) Mascot() *Mascot { return s.mascot }

// Run plays every segment of script and returns the summary. It stops early
// with ctx's error when ctx is cancelled.
func (s *Session) Run(ctx context.Context, script *Script) (Summary, error) {
	if s.closed {
		return s.Summary(), fmt.Errorf("session %s is closed", s.ID)
	}
	if err := script.Validate(); err != nil {
		return s.Summary(), fmt.Errorf("script: %w", err)
	}
	s.script = script.Name

	s.log.Info("starting session",
		zap.String("script", script.Name),
		zap.Int("segments", len(script.Segments)),
		zap.Int("bars", script.Bars()))

	for _, seg := range script.Segments {
		bpm := s.beginSegment(script, seg)
		beats := float64(seg.Bars * s.cfg.Rhythm.BeatsPerBar)
		frames := int(stdmath.Round(beats * 60000 / bpm / s.frameMs))

		for i := 0; i < frames; i++ {
			select {
			case <-ctx.Done():
				s.log.Warn("session cancelled", zap.Error(ctx.Err()))
				return s.Summary(), ctx.Err()
			case cfg := <-s.reload:
				s.Apply(cfg)
			default:
			}
			s.Step(s.frameMs, s.features(seg))
		}
	}

	sum := s.Summary()
	s.log.Info("session finished",
		zap.Int("frames", sum.Frames),
		zap.Int("bars", sum.Bars),
		zap.Int("gestures", sum.Stats.Gestures),
		zap.Int("morphs", sum.Stats.Morphs),
		zap.Int("emotions", sum.Stats.Emotions))
	return sum, nil
}

// beginSegment configures the transport and choreography for seg and returns
// its tempo.
func (s *Session) beginSegment(script *Script, seg Segment) float64 {
	bpm := firstPositive(seg.BPM, script.BPM, s.cfg.Session.BPM)
	pattern := firstNonEmpty(seg.Pattern, script.Pattern, s.cfg.Session.Pattern)

	s.clock.SetBPM(bpm)
	s.clock.SetPattern(pattern)
	if seg.IsPlaying() {
		s.clock.Play()
	} else {
		s.clock.Stop()
	}
	s.clock.Stall(seg.Stall)

	if seg.Enabled != nil {
		s.choreo.SetEnabled(*seg.Enabled)
	}
	if seg.Intensity != nil {
		s.choreo.SetIntensity(*seg.Intensity)
	}

	s.log.Info("segment",
		zap.String("name", seg.Name),
		zap.Int("bars", seg.Bars),
		zap.Float64("bpm", bpm),
		zap.String("pattern", pattern),
		zap.Bool("playing", seg.IsPlaying()),
		zap.Bool("stall", seg.Stall))
	return bpm
}

func (s *Session) features(seg Segment) dance.AudioFeatures {
	noise := func(v float64) float64 {
		if seg.Jitter == 0 {
			return v
		}
		return stdmath.Max(0, stdmath.Min(1, v+(s.jitter.Float64()*2-1)*seg.Jitter))
	}
	return dance.AudioFeatures{Bass: noise(seg.Bass), Vocal: noise(seg.Vocal), Flux: noise(seg.Flux)}
}

// Step advances everything by one frame and returns the mascot's pose.
func (s *Session) Step(deltaMs float64, f dance.AudioFeatures) blend.Pose {
	if s.closed {
		return blend.Pose{}
	}
	s.clock.Advance(deltaMs)
	s.adapter.Update(deltaMs)
	s.choreo.Update(deltaMs, f)
	s.mascot.Advance(deltaMs)
	pose := s.mascot.Pose(s.blender, s.adapter.Modulation())

	s.summary.Frames++
	s.summary.SimulatedMs += deltaMs
	if s.adapter.IsUsingFallback() {
		s.summary.FallbackFrames++
	}
	s.summary.PeakScale = max(s.summary.PeakScale, pose.Scale)
	s.summary.PeakGlow = max(s.summary.PeakGlow, pose.Glow)

	if s.nextReportMs > 0 && s.summary.SimulatedMs >= s.nextReportMs {
		s.nextReportMs += s.reportIntervalMs()
		st := s.choreo.State()
		s.log.Info("status",
			zap.Int("bar", st.BarCount),
			zap.Bool("enabled", st.Enabled),
			zap.String("groove", st.Groove),
			zap.String("geometry", st.CurrentGeometry.Geometry),
			zap.String("emotion", st.CurrentEmotion),
			zap.Float64("energy", st.Energy),
			zap.Int("playing", s.mascot.Playing()))
	}
	return pose
}

// Apply swaps the tuning of the running session. Transport settings of the
// session section take effect with the next session.
func (s *Session) Apply(cfg *config.Config) {
	if cfg == nil || s.closed {
		return
	}
	if err := cfg.Validate(); err != nil {
		s.log.Warn("reloaded config rejected", zap.Error(err))
		return
	}
	s.adapter.SetConfig(cfg.Rhythm)
	s.choreo.ApplyConfig(cfg.Choreography)
	next := *cfg
	next.Session = s.cfg.Session
	next.Session.ReportInterval = cfg.Session.ReportInterval
	s.cfg = &next
	s.summary.Reloads++
	s.log.Info("config reloaded", zap.String("source", cfg.Source()))
}

// Summary returns what has happened so far.
func (s *Session) Summary() Summary {
	sum := s.summary
	sum.Script = s.script
	sum.Gestures = copyCounts(s.mascot.played)
	sum.Shapes = copyCounts(s.mascot.shapes)
	sum.Emotions = copyCounts(s.mascot.feelings)
	for _, n := range s.mascot.unknown {
		sum.UnknownGestures += n
	}
	sum.FinalGeometry = s.mascot.geometry
	sum.FinalEmotion = s.mascot.emotion
	sum.FinalGroove = s.adapter.Groove()

	st := s.choreo.State()
	sum.Bars = st.BarCount
	sum.Stats = s.choreo.Stats()
	return sum
}

// Close stops the choreographer and detaches from the clock. Nothing reaches
// the mascot afterwards.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.choreo.Destroy()
	s.adapter.Close()
	s.log.Info("session closed")
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func firstPositive(vals ...float64) float64 {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 120
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
