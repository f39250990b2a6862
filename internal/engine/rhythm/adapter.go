package rhythm

import (
	"math"

	"go.uber.org/zap"
)

// Curve shapes BeatSync output.
type Curve int

const (
	CurveLinear Curve = iota
	CurveEase         // smoothstep
	CurveSharp        // pulse^4, a short spike on the beat
	CurveSine         // sin of the half pulse, soft shoulders
)

// accentWindow is the beat-phase tolerance used by IsOnAccent.
const accentWindow = 0.1

// Adapter converts a BeatClock into smoothed modulation. It is owned by one
// session and driven from that session's frame loop.
type Adapter struct {
	clock BeatClock
	cfg   Config
	log   *zap.Logger

	playing bool
	info    TimeInfo // effective clock state for this tick

	mod    ModulationState
	target ModulationState

	// Staleness tracking on the raw upstream beat phase.
	lastRawBeat   float64
	hasRaw        bool
	staleFrames   int
	fallback      bool
	fallbackBeats float64
	anchor        TimeInfo

	lastBar   float64
	accentEnv float64
	groove    grooveState

	unsubscribe func()
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter's logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.log = l
		}
	}
}

// New creates an adapter reading from clock. A nil clock is allowed; the
// adapter then stays neutral.
func New(clock BeatClock, cfg Config, opts ...Option) *Adapter {
	a := &Adapter{
		clock:  clock,
		cfg:    cfg,
		log:    zap.NewNop(),
		mod:    Neutral(),
		target: Neutral(),
	}
	for _, opt := range opts {
		opt(a)
	}

	preset, ok := LookupGroove(cfg.DefaultGroove)
	if !ok {
		preset = groovePresets[GrooveSubtle]
	}
	a.groove = newGrooveState(preset)

	if clock != nil {
		a.unsubscribe = clock.OnBeat(a.onBeat)
	}
	return a
}

// Close detaches from the clock. Safe to call more than once.
func (a *Adapter) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

// SetConfig replaces the tuning without resetting smoothed state.
func (a *Adapter) SetConfig(cfg Config) {
	a.cfg = cfg
}

func (a *Adapter) onBeat(ev BeatEvent) {
	if ev.Accent {
		a.accentEnv = 1
	}
}

// Update advances the smoothed state by deltaTimeMs.
func (a *Adapter) Update(deltaTimeMs float64) {
	if deltaTimeMs < 0 || math.IsNaN(deltaTimeMs) {
		deltaTimeMs = 0
	}
	dt := deltaTimeMs / 1000

	a.playing = a.clock != nil && a.clock.IsPlaying()
	if a.playing {
		a.info = a.sample(deltaTimeMs)
		if a.lastBar-a.info.BarProgress > 0.5 {
			a.groove.onBarLine()
		}
		a.lastBar = a.info.BarProgress
		a.groove.advance(deltaTimeMs)
		a.computeTargets()
	} else {
		a.stopTracking()
		a.groove.onBarLine()
		a.groove.advance(deltaTimeMs)
		a.target = Neutral()
	}

	a.accentEnv *= math.Exp(-a.cfg.AccentDecay * dt)
	a.smooth(dt)
}

// sample reads the upstream clock and substitutes a locally integrated phase
// while the upstream beat phase is frozen.
func (a *Adapter) sample(deltaTimeMs float64) TimeInfo {
	raw := a.clock.TimeInfo()

	if a.hasRaw && math.Abs(raw.BeatProgress-a.lastRawBeat) < a.cfg.StaleEpsilon {
		a.staleFrames++
	} else {
		if a.fallback {
			a.log.Info("beat clock recovered", zap.Float64("fallback_beats", a.fallbackBeats))
		}
		a.staleFrames = 0
		a.fallback = false
	}
	a.lastRawBeat = raw.BeatProgress
	a.hasRaw = true

	if !a.fallback && a.staleFrames > a.cfg.StaleFrames {
		a.fallback = true
		a.fallbackBeats = 0
		a.anchor = raw
		a.log.Warn("beat clock stalled, integrating locally",
			zap.Int("stale_frames", a.staleFrames),
			zap.Float64("bpm", raw.BPM))
	}
	if !a.fallback {
		return raw
	}

	bpm := raw.BPM
	if bpm <= 0 {
		bpm = a.clock.BPM()
	}
	if bpm > 0 {
		a.fallbackBeats += deltaTimeMs / 1000 * bpm / 60
	}
	info := raw
	info.BeatProgress = frac(a.anchor.BeatProgress + a.fallbackBeats)
	info.BarProgress = frac(a.anchor.BarProgress + a.fallbackBeats/a.cfg.beatsPerBar())
	return info
}

func (a *Adapter) stopTracking() {
	a.hasRaw = false
	a.staleFrames = 0
	a.fallback = false
	a.lastBar = 0
	a.info.BeatProgress = 0
	a.info.BarProgress = 0
}

func (a *Adapter) computeTargets() {
	info := a.info
	intensity := clamp01(info.Intensity)
	k := a.cfg.BeatSyncStrength * intensity
	pulse := beatPulse(info.BeatProgress)

	t := Neutral()
	t.ScaleMultiplier = 1 + pulse*a.cfg.ScaleAmount*k
	t.GlowMultiplier = 1 + pulse*a.cfg.GlowAmount*k
	t.PositionMultiplier = 1 + pulse*a.cfg.PositionAmount*k
	t.RotationMultiplier = 1 + pulse*a.cfg.RotationAmount*k

	accent := a.accentWeight(info) * pulse
	if a.accentEnv > accent {
		accent = a.accentEnv
	}
	t.AccentBoost = 1 + accent*a.cfg.AccentAmount*k

	g := a.groove.current()
	amt := a.cfg.GrooveAmount * intensity
	barPhase := 2 * math.Pi * info.BarProgress
	t.GrooveOffset = [3]float64{
		g.Sway * amt * math.Sin(barPhase),
		g.Bounce * amt * math.Abs(math.Sin(math.Pi*info.BeatProgress)),
		0,
	}
	t.GrooveScale = 1 + g.Pulse*amt*pulse
	t.GrooveRotation = [3]float64{
		0,
		g.Twist * amt * math.Sin(barPhase),
		g.Roll * amt * math.Sin(2*barPhase),
	}
	a.target = t
}

func (a *Adapter) smooth(dt float64) {
	beatSpeed, grooveSpeed := a.cfg.BeatSmoothing, a.cfg.GrooveSmoothing
	if !a.playing {
		beatSpeed, grooveSpeed = a.cfg.FadeSmoothing, a.cfg.FadeSmoothing
	}
	kb := 1 - math.Exp(-beatSpeed*dt)
	kg := 1 - math.Exp(-grooveSpeed*dt)

	m, t := &a.mod, &a.target
	m.ScaleMultiplier += (t.ScaleMultiplier - m.ScaleMultiplier) * kb
	m.GlowMultiplier += (t.GlowMultiplier - m.GlowMultiplier) * kb
	m.PositionMultiplier += (t.PositionMultiplier - m.PositionMultiplier) * kb
	m.RotationMultiplier += (t.RotationMultiplier - m.RotationMultiplier) * kb
	m.AccentBoost += (t.AccentBoost - m.AccentBoost) * kb

	m.GrooveScale += (t.GrooveScale - m.GrooveScale) * kg
	for i := 0; i < 3; i++ {
		m.GrooveOffset[i] += (t.GrooveOffset[i] - m.GrooveOffset[i]) * kg
		m.GrooveRotation[i] += (t.GrooveRotation[i] - m.GrooveRotation[i]) * kg
	}
}

// Modulation returns the current smoothed state.
func (a *Adapter) Modulation() ModulationState {
	return a.mod
}

// IsPlaying reports whether the upstream transport is running.
func (a *Adapter) IsPlaying() bool {
	return a.clock != nil && a.clock.IsPlaying()
}

// TimeInfo returns the effective clock state of the last Update, with the
// local estimate substituted while the upstream clock is stale.
func (a *Adapter) TimeInfo() TimeInfo {
	return a.info
}

// IsUsingFallback reports whether the local beat estimate is active.
func (a *Adapter) IsUsingFallback() bool {
	return a.fallback
}

// BPM returns the upstream tempo, or 0 without a clock.
func (a *Adapter) BPM() float64 {
	if a.clock == nil {
		return 0
	}
	return a.clock.BPM()
}

// BeatsToMs converts beats to milliseconds, using DefaultBPM when the tempo
// is unknown.
func (a *Adapter) BeatsToMs(beats float64) float64 {
	if a.clock != nil && a.clock.BPM() > 0 {
		return a.clock.BeatsToMs(beats)
	}
	if a.cfg.DefaultBPM <= 0 {
		return 0
	}
	return beats * 60000 / a.cfg.DefaultBPM
}

// BPMFinalized reports whether upstream tempo detection has locked.
func (a *Adapter) BPMFinalized() bool {
	return a.clock != nil && a.clock.BPMFinalized()
}

// IsOnBeatNow reports whether the beat phase is within tolerance of a beat.
func (a *Adapter) IsOnBeatNow(tolerance float64) bool {
	if !a.playing {
		return false
	}
	bp := a.info.BeatProgress
	return bp < tolerance || bp > 1-tolerance
}

// IsOnAccent reports whether the nearest beat is on beat and carries an
// accent weight of at least threshold in the current pattern.
func (a *Adapter) IsOnAccent(threshold float64) bool {
	if !a.IsOnBeatNow(accentWindow) {
		return false
	}
	return a.nearestBeatWeight(a.info) >= threshold
}

// BeatSync maps the beat pulse into [min, max] through curve.
func (a *Adapter) BeatSync(min, max float64, curve Curve) float64 {
	if !a.playing {
		return min
	}
	p := beatPulse(a.info.BeatProgress)
	switch curve {
	case CurveEase:
		p = smoothstep(p)
	case CurveSharp:
		p = p * p * p * p
	case CurveSine:
		p = math.Sin(p * math.Pi / 2)
	}
	return min + (max-min)*p
}

// SetGroove requests a groove preset change. Unknown names are ignored.
func (a *Adapter) SetGroove(name string, opts GrooveOptions) {
	p, ok := LookupGroove(name)
	if !ok {
		a.log.Debug("unknown groove ignored", zap.String("groove", name))
		return
	}
	a.groove.request(p, opts, a.BeatsToMs(a.cfg.beatsPerBar()), !a.playing)
	a.log.Debug("groove requested",
		zap.String("groove", name),
		zap.Bool("quantize", opts.Quantize),
		zap.Int("bars", opts.Bars))
}

// Groove returns the name of the preset being moved toward.
func (a *Adapter) Groove() string {
	return a.groove.to.Name
}

// GroovePending reports whether a quantized change waits for a bar line.
func (a *Adapter) GroovePending() bool {
	return a.groove.armed
}

// accentWeight is the pattern weight of the beat currently sounding.
func (a *Adapter) accentWeight(info TimeInfo) float64 {
	w := AccentPattern(info.Pattern)
	idx := int(info.BarProgress*float64(len(w))) % len(w)
	return w[idx]
}

// nearestBeatWeight is the pattern weight of the beat closest to now.
func (a *Adapter) nearestBeatWeight(info TimeInfo) float64 {
	w := AccentPattern(info.Pattern)
	idx := int(info.BarProgress*float64(len(w))) % len(w)
	if info.BeatProgress > 0.5 {
		idx = (idx + 1) % len(w)
	}
	return w[idx]
}

// beatPulse is 1 on the beat and 0 halfway between beats.
func beatPulse(beatProgress float64) float64 {
	return (1 + math.Cos(2*math.Pi*beatProgress)) / 2
}

func frac(x float64) float64 {
	return x - math.Floor(x)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
