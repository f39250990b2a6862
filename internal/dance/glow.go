package dance

import "math"

// GlowVerdict is the outcome of a glow-safety check.
type GlowVerdict int

const (
	GlowAllowed      GlowVerdict = iota
	GlowTooSoon                  // within CooldownMs of the previous glow event
	GlowFlashSpacing             // within MinBarsBetweenFlash of the previous flash
)

func (v GlowVerdict) String() string {
	switch v {
	case GlowAllowed:
		return "allowed"
	case GlowTooSoon:
		return "cooldown"
	case GlowFlashSpacing:
		return "flash_spacing"
	}
	return "unknown"
}

// MarshalText lets verdicts key maps in reports.
func (v GlowVerdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// MinGlowCooldownMs is the floor under GlowConfig.CooldownMs. Glow events
// never come faster than 2 Hz, whatever the config says.
const MinGlowCooldownMs = 500.0

var glowGestures = map[string]bool{
	"flash":   true,
	"glow":    true,
	"sparkle": true,
	"shimmer": true,
	"burst":   true,
}

var flashGestures = map[string]bool{
	"flash": true,
}

// IsGlowGesture reports whether a gesture changes brightness.
func IsGlowGesture(name string) bool { return glowGestures[name] }

// IsFlashGesture reports whether a gesture is a full flash.
func IsFlashGesture(name string) bool { return flashGestures[name] }

// GlowGate limits how often brightness effects may fire. Every glow-class
// gesture passes through Admit before reaching a sink.
type GlowGate struct {
	cfg          GlowConfig
	lastGlowMs   float64
	lastFlashBar int
	flashed      bool
}

// NewGlowGate returns a gate with no recorded history.
func NewGlowGate(cfg GlowConfig) *GlowGate {
	g := &GlowGate{cfg: cfg}
	g.Reset()
	return g
}

// Reset forgets previous glow and flash events.
func (g *GlowGate) Reset() {
	g.lastGlowMs = math.Inf(-1)
	g.lastFlashBar = 0
	g.flashed = false
}

// SetConfig swaps the limits without forgetting history.
func (g *GlowGate) SetConfig(cfg GlowConfig) { g.cfg = cfg }

// Admit checks a glow-class gesture at nowMs during bar. When allowed the event
// is recorded and the scale comes back capped at MaxScale.
func (g *GlowGate) Admit(name string, nowMs float64, bar int, scale float64) (float64, GlowVerdict) {
	if nowMs-g.lastGlowMs < max(g.cfg.CooldownMs, MinGlowCooldownMs) {
		return 0, GlowTooSoon
	}
	flash := IsFlashGesture(name)
	if flash && g.flashed && bar-g.lastFlashBar < g.cfg.MinBarsBetweenFlash {
		return 0, GlowFlashSpacing
	}

	g.lastGlowMs = nowMs
	if flash {
		g.lastFlashBar = bar
		g.flashed = true
	}
	if g.cfg.MaxScale > 0 && scale > g.cfg.MaxScale {
		scale = g.cfg.MaxScale
	}
	return scale, GlowAllowed
}
