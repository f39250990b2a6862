package rhythm

// Config holds the adapter's tuning.
type Config struct {
	// BeatSyncStrength scales every beat-synchronised target.
	BeatSyncStrength float64 `yaml:"beat_sync_strength"`

	// Per-channel pulse depth at full strength.
	ScaleAmount    float64 `yaml:"scale_amount"`
	GlowAmount     float64 `yaml:"glow_amount"`
	PositionAmount float64 `yaml:"position_amount"`
	RotationAmount float64 `yaml:"rotation_amount"`
	AccentAmount   float64 `yaml:"accent_amount"`
	AccentDecay    float64 `yaml:"accent_decay"` // envelope decay per second

	// GrooveAmount scales the idle groove motion.
	GrooveAmount float64 `yaml:"groove_amount"`

	// Smoothing speeds (1/s) for value += (target-value)*(1-e^(-speed*dt)).
	BeatSmoothing   float64 `yaml:"beat_smoothing"`
	GrooveSmoothing float64 `yaml:"groove_smoothing"`
	FadeSmoothing   float64 `yaml:"fade_smoothing"`

	// Upstream staleness detection.
	StaleEpsilon float64 `yaml:"stale_epsilon"`
	StaleFrames  int     `yaml:"stale_frames"`

	BeatsPerBar   int     `yaml:"beats_per_bar"`
	DefaultBPM    float64 `yaml:"default_bpm"` // used by BeatsToMs without a tempo
	DefaultGroove string  `yaml:"default_groove"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		BeatSyncStrength: 0.8,
		ScaleAmount:      0.08,
		GlowAmount:       0.3,
		PositionAmount:   0.15,
		RotationAmount:   0.1,
		AccentAmount:     0.5,
		AccentDecay:      4,
		GrooveAmount:     1,
		BeatSmoothing:    12,
		GrooveSmoothing:  6,
		FadeSmoothing:    3,
		StaleEpsilon:     1e-3,
		StaleFrames:      10,
		BeatsPerBar:      4,
		DefaultBPM:       120,
		DefaultGroove:    GrooveSubtle,
	}
}

func (c Config) beatsPerBar() float64 {
	if c.BeatsPerBar <= 0 {
		return 4
	}
	return float64(c.BeatsPerBar)
}
