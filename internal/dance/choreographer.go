// Package dance decides, once per frame, which gestures, grooves, geometry
// excursions and emotion excursions the mascot performs to the music.
package dance

import (
	"math"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/Faultbox/mascot-dance/internal/engine/rhythm"
	"github.com/Faultbox/mascot-dance/internal/engine/tasks"
)

const (
	morphTask   = "morph.return"
	emotionTask = "emotion.return"
)

// comboTasks names the deferred steps of a combo. A new combo replaces the
// steps of the previous one.
var comboTasks = []string{"combo.1", "combo.2", "combo.3", "combo.4"}

// Stats counts what the choreographer has done since construction or Reset.
type Stats struct {
	Frames           int
	Gestures         int
	Combos           int
	Climaxes         int
	GlowCapped       int
	GlowDropped      map[GlowVerdict]int
	GrooveChanges    int
	Morphs           int
	MorphReturns     int
	Emotions         int
	EmotionReturns   int
	DramaticEmotions int
	ReentrantCalls   int
}

// Snapshot is a read-only copy of the choreographer's state.
type Snapshot struct {
	NowMs           float64
	Enabled         bool
	AutoEnableArmed bool
	Intensity       float64
	Playing         bool
	BarCount        int
	GesturesThisBar int
	LastGestureMs   float64
	Groove          string
	SmoothedBass    float64
	SmoothedVocal   float64
	Energy          float64
	Tier            Tier

	HomeGeometry    GeometryTarget
	CurrentGeometry GeometryTarget
	MorphActive     bool
	MorphReturnDue  bool

	HomeEmotion      string
	CurrentEmotion   string
	EmotionActive    bool
	EmotionReturnDue bool

	PendingTasks int
	Destroyed    bool
}

// Option configures a Choreographer.
type Option func(*Choreographer)

// WithGestureSink sets the gesture consumer.
func WithGestureSink(s GestureSink) Option {
	return func(c *Choreographer) {
		if s != nil {
			c.gestures = s
		}
	}
}

// WithGeometrySink sets the geometry consumer.
func WithGeometrySink(s GeometrySink) Option {
	return func(c *Choreographer) {
		if s != nil {
			c.geometry = s
		}
	}
}

// WithEmotionSink sets the emotion consumer.
func WithEmotionSink(s EmotionSink) Option {
	return func(c *Choreographer) {
		if s != nil {
			c.emotion = s
		}
	}
}

// WithGrooveSink sets the groove consumer, normally the rhythm adapter.
func WithGrooveSink(s GrooveSink) Option {
	return func(c *Choreographer) {
		if s != nil {
			c.groove = s
		}
	}
}

// WithRandom sets the random source.
func WithRandom(r Random) Option {
	return func(c *Choreographer) {
		if r != nil {
			c.rng = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Choreographer) {
		if l != nil {
			c.log = l
		}
	}
}

// NewRandom returns a seeded PCG source suitable for WithRandom.
func NewRandom(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Choreographer turns audio features and the beat clock into mascot actions.
// It is single-threaded: call every method from the frame loop.
type Choreographer struct {
	cfg    Config
	rhythm Rhythm
	log    *zap.Logger
	rng    Random
	tasks  *tasks.Table

	gestures GestureSink
	geometry GeometrySink
	emotion  EmotionSink
	groove   GrooveSink

	enabled         bool
	autoEnableArmed bool
	intensity       float64

	bass  *history
	vocal *history

	playing         bool
	barCount        int
	lastBarProgress float64
	gesturesThisBar int
	lastGestureMs   float64

	currentGroove string
	grooveChanged bool

	climaxed      bool
	lastClimaxBar int
	glow          *GlowGate
	morph         *excursion[GeometryTarget]
	emotionState  *excursion[string]

	stats     Stats
	updating  bool
	destroyed bool
}

// New creates a choreographer reading the given rhythm. A nil rhythm behaves
// as a stopped clock.
func New(r Rhythm, cfg Config, opts ...Option) *Choreographer {
	if r == nil {
		r = stoppedRhythm{}
	}
	c := &Choreographer{
		cfg:      cfg,
		rhythm:   r,
		log:      zap.NewNop(),
		tasks:    tasks.New(),
		gestures: nopSink{},
		geometry: nopSink{},
		emotion:  nopSink{},
		groove:   nopSink{},
		glow:     NewGlowGate(cfg.Glow),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = NewRandom(0)
	}
	c.morph = newExcursion(morphTask, GeometryTarget{})
	c.emotionState = newExcursion(emotionTask, "")
	c.reset()
	return c
}

// Update advances the choreographer by deltaTimeMs with this frame's features.
// Calls made from inside a sink while an Update is running are ignored.
func (c *Choreographer) Update(deltaTimeMs float64, f AudioFeatures) {
	if c.destroyed {
		return
	}
	if c.updating {
		c.stats.ReentrantCalls++
		return
	}
	c.updating = true
	defer func() { c.updating = false }()

	if deltaTimeMs < 0 || math.IsNaN(deltaTimeMs) {
		deltaTimeMs = 0
	}
	f = f.clamped()
	c.stats.Frames++

	c.tasks.Advance(deltaTimeMs)

	if !c.enabled && c.autoEnableArmed && c.rhythm.BPMFinalized() {
		c.enabled = true
		c.autoEnableArmed = false
		c.intensity = 1
		c.log.Info("auto-enabled", zap.Int("bar", c.barCount))
	}

	c.bass.push(f.Bass)
	c.vocal.push(f.Vocal)

	c.playing = c.rhythm.IsPlaying()
	newBar := c.trackBar()

	if !c.enabled || !c.playing {
		return
	}
	if newBar {
		c.selectGroove()
	}
	c.scheduleGesture(f)
	c.considerMorph()
	c.considerEmotion(f)
}

func (c *Choreographer) trackBar() bool {
	if !c.playing {
		c.lastBarProgress = 0
		return false
	}
	bp := c.rhythm.TimeInfo().BarProgress
	wrapped := c.lastBarProgress-bp > 0.5
	c.lastBarProgress = bp
	if !wrapped {
		return false
	}
	c.barCount++
	c.gesturesThisBar = 0
	c.grooveChanged = false
	return true
}

func (c *Choreographer) smoothedEnergy() float64 {
	return c.cfg.BassWeight*c.bass.mean() + c.cfg.VocalWeight*c.vocal.mean()
}

func (c *Choreographer) tier(energy float64) Tier {
	switch {
	case energy >= c.cfg.HighTier:
		return TierHigh
	case energy >= c.cfg.LowTier:
		return TierMid
	default:
		return TierLow
	}
}

func (c *Choreographer) selectGroove() {
	g := c.cfg.Groove
	s := 1 + (1-c.intensity)*g.IntensityScale
	bass, vocal := c.bass.mean(), c.vocal.mean()

	next := rhythm.GrooveSubtle
	switch {
	case bass >= g.EnergeticBass*s:
		next = rhythm.GrooveEnergetic
	case vocal >= g.FlowingVocal*s:
		next = rhythm.GrooveFlowing
	case bass >= g.BouncyEnergy*s || (bass+vocal)/2 >= g.BouncyEnergy*s:
		next = rhythm.GrooveBouncy
	}
	if next == c.currentGroove {
		return
	}
	c.log.Debug("groove",
		zap.Int("bar", c.barCount),
		zap.String("from", c.currentGroove),
		zap.String("groove", next))
	c.currentGroove = next
	c.grooveChanged = true
	c.stats.GrooveChanges++
	c.groove.SetGroove(next, rhythm.GrooveOptions{Quantize: true, Bars: g.TransitionBars})
}

func (c *Choreographer) gestureFrequency() int {
	freq := int(math.Round(c.cfg.Gesture.BaseFrequency / (0.5 + c.intensity)))
	return max(1, freq)
}

func (c *Choreographer) scheduleGesture(f AudioFeatures) {
	gc := c.cfg.Gesture
	now := c.tasks.Now()
	if now-c.lastGestureMs < gc.MinIntervalMs {
		return
	}
	if c.barCount%c.gestureFrequency() != 0 {
		return
	}
	if c.gesturesThisBar > 0 {
		return
	}
	c.gesturesThisBar++

	energy := c.smoothedEnergy()
	tier := c.tier(energy)
	cat := c.pickCategory(f, tier)
	scale := (gc.ScaleBase + gc.ScaleRange*energy) * (0.5 + 0.5*c.intensity)

	if cat != Climactic && c.rng.Float64() < gc.ComboChance.at(tier) {
		c.startCombo(scale)
		return
	}
	pool := GesturePool(cat, tier)
	if len(pool) == 0 {
		return
	}
	c.dispatch(pool[c.rng.IntN(len(pool))], scale)
}

func (c *Choreographer) pickCategory(f AudioFeatures, tier Tier) Category {
	gc := c.cfg.Gesture
	cl := gc.Climax
	ready := tier == TierHigh &&
		c.bass.mean() >= cl.Bass &&
		f.Flux >= cl.Flux &&
		c.intensity >= cl.Intensity &&
		(!c.climaxed || c.barCount-c.lastClimaxBar >= cl.CooldownBars)
	if ready && c.rng.Float64() < cl.Chance {
		c.climaxed = true
		c.lastClimaxBar = c.barCount
		c.stats.Climaxes++
		return Climactic
	}
	switch {
	case f.Flux >= gc.DynamicsFlux:
		return Dynamics
	case c.smoothedEnergy() >= gc.MovementEnergy:
		return Movement
	}
	return Punctuation
}

func (c *Choreographer) startCombo(scale float64) {
	combo := combos[c.rng.IntN(len(combos))]
	stagger := c.rhythm.BeatsToMs(c.cfg.Gesture.ComboStaggerBeats)
	c.stats.Combos++
	c.dispatch(combo[0], scale)
	for i, name := range combo[1:] {
		if i >= len(comboTasks) {
			break
		}
		c.tasks.After(comboTasks[i], float64(i+1)*stagger, func() { c.dispatch(name, scale) })
	}
}

// dispatch sends one gesture through the glow gate to the sink.
func (c *Choreographer) dispatch(name string, scale float64) bool {
	if c.destroyed || !c.enabled {
		return false
	}
	now := c.tasks.Now()
	if IsGlowGesture(name) {
		capped, verdict := c.glow.Admit(name, now, c.barCount, scale)
		if verdict != GlowAllowed {
			c.stats.GlowDropped[verdict]++
			c.log.Debug("glow dropped",
				zap.Int("bar", c.barCount),
				zap.String("gesture", name),
				zap.Stringer("reason", verdict))
			return false
		}
		if capped < scale {
			c.stats.GlowCapped++
		}
		scale = capped
	}
	c.lastGestureMs = now
	c.stats.Gestures++
	c.log.Debug("gesture",
		zap.Int("bar", c.barCount),
		zap.String("gesture", name),
		zap.Float64("scale", scale))
	c.gestures.Gesture(name, GestureOptions{Scale: scale})
	return true
}

func (c *Choreographer) ruleInput() ruleInput {
	return ruleInput{
		bar:           c.barCount,
		grooveChanged: c.grooveChanged,
		groove:        c.currentGroove,
		bass:          c.bass.mean(),
	}
}

func (c *Choreographer) considerMorph() {
	m := c.morph
	if !m.consider(c.cfg.Morph.ExcursionConfig, c.ruleInput(), c.rng) {
		return
	}
	target, ok := pickExcluding(c.rng, geometryCatalog, m.current, m.home)
	if !ok {
		return
	}
	c.applyGeometry(target)
	delay := c.rhythm.BeatsToMs(c.cfg.barsToBeats(c.cfg.Morph.DurationBars))
	h := c.tasks.After(morphTask, delay, c.returnGeometry)
	m.enter(target, c.barCount, h)
	c.stats.Morphs++
	c.log.Debug("morph",
		zap.Int("bar", c.barCount),
		zap.String("geometry", target.Geometry),
		zap.String("variant", target.Variant))
}

func (c *Choreographer) returnGeometry() {
	if c.destroyed || !c.morph.active {
		return
	}
	c.morph.leave()
	c.restoreGeometry(c.morph.home)
	c.stats.MorphReturns++
	c.log.Debug("morph return", zap.Int("bar", c.barCount), zap.String("geometry", c.morph.home.Geometry))
}

func (c *Choreographer) applyGeometry(t GeometryTarget) {
	if t.Geometry == "" {
		return
	}
	if c.cfg.Morph.Animate {
		c.geometry.MorphTo(t.Geometry)
	} else {
		c.geometry.SetGeometry(t.Geometry)
	}
	if t.Variant != "" {
		c.geometry.ApplyVariant(t.Geometry, t.Variant)
	}
}

// restoreGeometry brings home back. A home without a variant clears whatever
// variant the excursion left on the same shape.
func (c *Choreographer) restoreGeometry(home GeometryTarget) {
	c.applyGeometry(home)
	if home.Geometry != "" && home.Variant == "" {
		c.geometry.ApplyVariant(home.Geometry, "")
	}
}

func (c *Choreographer) considerEmotion(f AudioFeatures) {
	e := c.emotionState
	ec := c.cfg.Emotion
	if !e.consider(ec.ExcursionConfig, c.ruleInput(), c.rng) {
		return
	}
	pool := emotionPools[c.tier(c.smoothedEnergy())]
	dramatic := false
	if (f.Bass >= ec.PeakBass || f.Flux >= ec.PeakFlux) && c.rng.Float64() < ec.DramaticChance {
		pool = dramaticEmotions
		dramatic = true
	}
	name, ok := pickExcluding(c.rng, pool, e.current, e.home)
	if !ok {
		return
	}
	c.emotion.SetEmotion(name)
	delay := c.rhythm.BeatsToMs(c.cfg.barsToBeats(ec.DurationBars))
	h := c.tasks.After(emotionTask, delay, c.returnEmotion)
	e.enter(name, c.barCount, h)
	c.stats.Emotions++
	if dramatic {
		c.stats.DramaticEmotions++
	}
	c.log.Debug("emotion",
		zap.Int("bar", c.barCount),
		zap.String("emotion", name),
		zap.Bool("dramatic", dramatic))
}

func (c *Choreographer) returnEmotion() {
	if c.destroyed || !c.emotionState.active {
		return
	}
	c.emotionState.leave()
	if c.emotionState.home != "" {
		c.emotion.SetEmotion(c.emotionState.home)
	}
	c.stats.EmotionReturns++
	c.log.Debug("emotion return", zap.Int("bar", c.barCount), zap.String("emotion", c.emotionState.home))
}

// SetEnabled turns choreography on or off. Disabling cancels every pending
// task and brings active excursions home at once.
func (c *Choreographer) SetEnabled(on bool) {
	if c.destroyed {
		return
	}
	c.autoEnableArmed = false
	if c.enabled == on {
		return
	}
	c.enabled = on
	c.log.Info("enabled", zap.Bool("enabled", on), zap.Int("bar", c.barCount))
	if on {
		return
	}
	c.tasks.CancelAll()
	if c.morph.active {
		c.morph.leave()
		c.restoreGeometry(c.morph.home)
		c.stats.MorphReturns++
	}
	if c.emotionState.active {
		c.emotionState.leave()
		if c.emotionState.home != "" {
			c.emotion.SetEmotion(c.emotionState.home)
		}
		c.stats.EmotionReturns++
	}
}

// Enabled reports whether choreography is running.
func (c *Choreographer) Enabled() bool { return c.enabled }

// SetIntensity sets the overall activity level, clamped to [0,1].
func (c *Choreographer) SetIntensity(v float64) {
	if math.IsNaN(v) {
		return
	}
	c.intensity = clamp01(v)
}

// Intensity returns the activity level.
func (c *Choreographer) Intensity() float64 { return c.intensity }

// Reset cancels pending work and re-seeds all state, taking the home geometry
// and emotion from what the mascot currently shows.
func (c *Choreographer) Reset() {
	if c.destroyed {
		return
	}
	c.tasks.CancelAll()
	c.reset()
	c.log.Debug("reset",
		zap.String("geometry", c.morph.home.Geometry),
		zap.String("emotion", c.emotionState.home))
}

func (c *Choreographer) reset() {
	c.enabled = c.cfg.StartEnabled
	c.autoEnableArmed = true
	c.intensity = clamp01(c.cfg.Intensity)
	c.bass = c.bass.renewed(c.cfg.HistoryLength)
	c.vocal = c.vocal.renewed(c.cfg.HistoryLength)
	c.playing = false
	c.barCount = 0
	c.lastBarProgress = 0
	c.gesturesThisBar = 0
	c.lastGestureMs = math.Inf(-1)
	c.currentGroove = rhythm.GrooveSubtle
	c.grooveChanged = false
	c.climaxed = false
	c.lastClimaxBar = 0
	c.glow.Reset()

	home := GeometryTarget{Geometry: c.cfg.Morph.HomeGeometry, Variant: c.cfg.Morph.HomeVariant}
	if g, ok := c.geometry.CurrentGeometry(); ok && g.Geometry != "" {
		home = g
	}
	c.morph.reset(home)

	emotion := c.cfg.Emotion.HomeEmotion
	if e, ok := c.emotion.CurrentEmotion(); ok && e != "" {
		emotion = e
	}
	c.emotionState.reset(emotion)

	c.stats = Stats{GlowDropped: make(map[GlowVerdict]int)}
}

// Destroy cancels all pending work, then clears state. Stats are kept for
// reporting. Nothing reaches a sink afterwards.
func (c *Choreographer) Destroy() {
	if c.destroyed {
		return
	}
	c.tasks.CancelAll()
	c.destroyed = true
	c.gestures = nopSink{}
	c.geometry = nopSink{}
	c.emotion = nopSink{}
	c.groove = nopSink{}

	stats := c.stats
	c.reset()
	c.stats = stats
	c.enabled = false
	c.autoEnableArmed = false
	c.log.Debug("destroyed")
}

// ApplyConfig swaps tuning without resetting state.
func (c *Choreographer) ApplyConfig(cfg Config) {
	if cfg.HistoryLength != c.cfg.HistoryLength {
		c.bass = c.bass.resized(cfg.HistoryLength)
		c.vocal = c.vocal.resized(cfg.HistoryLength)
	}
	c.cfg = cfg
	c.glow.SetConfig(cfg.Glow)
	c.intensity = clamp01(c.intensity)
}

// State returns a copy of the current state.
func (c *Choreographer) State() Snapshot {
	energy := c.smoothedEnergy()
	return Snapshot{
		NowMs:            c.tasks.Now(),
		Enabled:          c.enabled,
		AutoEnableArmed:  c.autoEnableArmed,
		Intensity:        c.intensity,
		Playing:          c.playing,
		BarCount:         c.barCount,
		GesturesThisBar:  c.gesturesThisBar,
		LastGestureMs:    c.lastGestureMs,
		Groove:           c.currentGroove,
		SmoothedBass:     c.bass.mean(),
		SmoothedVocal:    c.vocal.mean(),
		Energy:           energy,
		Tier:             c.tier(energy),
		HomeGeometry:     c.morph.home,
		CurrentGeometry:  c.morph.current,
		MorphActive:      c.morph.active,
		MorphReturnDue:   c.tasks.Pending(c.morph.ret),
		HomeEmotion:      c.emotionState.home,
		CurrentEmotion:   c.emotionState.current,
		EmotionActive:    c.emotionState.active,
		EmotionReturnDue: c.tasks.Pending(c.emotionState.ret),
		PendingTasks:     c.tasks.Len(),
		Destroyed:        c.destroyed,
	}
}

// Stats returns a copy of the counters.
func (c *Choreographer) Stats() Stats {
	s := c.stats
	s.GlowDropped = make(map[GlowVerdict]int, len(c.stats.GlowDropped))
	for k, v := range c.stats.GlowDropped {
		s.GlowDropped[k] = v
	}
	return s
}
