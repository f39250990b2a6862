package dance

// Config holds every tuned threshold and probability of the choreographer.
// The defaults are art-direction values; change them through configuration
// rather than in code.
type Config struct {
	StartEnabled  bool    `yaml:"start_enabled"`
	Intensity     float64 `yaml:"intensity"`
	HistoryLength int     `yaml:"history_length"`
	BeatsPerBar   int     `yaml:"beats_per_bar"`

	// Energy = BassWeight*bass + VocalWeight*vocal over smoothed history.
	BassWeight  float64 `yaml:"bass_weight"`
	VocalWeight float64 `yaml:"vocal_weight"`
	LowTier     float64 `yaml:"low_tier"`  // energy below this is the low tier
	HighTier    float64 `yaml:"high_tier"` // energy at or above this is the high tier

	Groove  GrooveConfig  `yaml:"groove"`
	Gesture GestureConfig `yaml:"gesture"`
	Glow    GlowConfig    `yaml:"glow"`
	Morph   MorphConfig   `yaml:"morph"`
	Emotion EmotionConfig `yaml:"emotion"`
}

// GrooveConfig selects the idle groove preset from smoothed energy.
type GrooveConfig struct {
	EnergeticBass  float64 `yaml:"energetic_bass"`
	FlowingVocal   float64 `yaml:"flowing_vocal"`
	BouncyEnergy   float64 `yaml:"bouncy_energy"`
	IntensityScale float64 `yaml:"intensity_scale"` // thresholds *= 1 + (1-intensity)*IntensityScale
	TransitionBars int     `yaml:"transition_bars"`
}

// TierChances holds one probability per energy tier.
type TierChances struct {
	Low  float64 `yaml:"low"`
	Mid  float64 `yaml:"mid"`
	High float64 `yaml:"high"`
}

func (t TierChances) at(tier Tier) float64 {
	switch tier {
	case TierHigh:
		return t.High
	case TierMid:
		return t.Mid
	default:
		return t.Low
	}
}

// GestureConfig drives gesture scheduling.
type GestureConfig struct {
	MinIntervalMs     float64      `yaml:"min_interval_ms"`
	BaseFrequency     float64      `yaml:"base_frequency"` // bars between gestures at intensity 0.5
	DynamicsFlux      float64      `yaml:"dynamics_flux"`
	MovementEnergy    float64      `yaml:"movement_energy"`
	ComboChance       TierChances  `yaml:"combo_chance"`
	ComboStaggerBeats float64      `yaml:"combo_stagger_beats"`
	ScaleBase         float64      `yaml:"scale_base"`
	ScaleRange        float64      `yaml:"scale_range"`
	Climax            ClimaxConfig `yaml:"climax"`
}

// ClimaxConfig gates the rare climactic gesture.
type ClimaxConfig struct {
	Bass         float64 `yaml:"bass"`
	Flux         float64 `yaml:"flux"`
	Intensity    float64 `yaml:"intensity"`
	CooldownBars int     `yaml:"cooldown_bars"`
	Chance       float64 `yaml:"chance"`
}

// GlowConfig is the photosensitivity gate for brightness effects.
type GlowConfig struct {
	CooldownMs          float64 `yaml:"cooldown_ms"` // 500 ms keeps glow events at or below 2 Hz
	MinBarsBetweenFlash int     `yaml:"min_bars_between_flash"`
	MaxScale            float64 `yaml:"max_scale"`
}

// ExcursionConfig tunes one home/excursion property.
type ExcursionConfig struct {
	CooldownBars int `yaml:"cooldown_bars"`
	DurationBars int `yaml:"duration_bars"`

	GrooveChangeChance float64 `yaml:"groove_change_chance"`
	BassSurge          float64 `yaml:"bass_surge"`
	BassSurgeChance    float64 `yaml:"bass_surge_chance"`
	TimeBaseChance     float64 `yaml:"time_base_chance"`
	TimeChancePerBar   float64 `yaml:"time_chance_per_bar"`
	TimeMaxChance      float64 `yaml:"time_max_chance"`
	EarlyVarietyBar    int     `yaml:"early_variety_bar"`
	EarlyVarietyChance float64 `yaml:"early_variety_chance"`

	// SharedRollPerBar allows a single random draw per bar across all rules.
	// When false every rule gets its own draw per bar.
	SharedRollPerBar bool `yaml:"shared_roll_per_bar"`
}

// MorphConfig tunes geometry excursions.
type MorphConfig struct {
	ExcursionConfig `yaml:",inline"`
	Animate         bool   `yaml:"animate"` // MorphTo instead of SetGeometry
	HomeGeometry    string `yaml:"home_geometry"`
	HomeVariant     string `yaml:"home_variant"`
}

// EmotionConfig tunes emotion excursions.
type EmotionConfig struct {
	ExcursionConfig `yaml:",inline"`
	PeakBass        float64 `yaml:"peak_bass"`
	PeakFlux        float64 `yaml:"peak_flux"`
	DramaticChance  float64 `yaml:"dramatic_chance"`
	HomeEmotion     string  `yaml:"home_emotion"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		StartEnabled:  false,
		Intensity:     0.7,
		HistoryLength: 60, // ~2 s at 30 Hz
		BeatsPerBar:   4,
		BassWeight:    0.6,
		VocalWeight:   0.4,
		LowTier:       0.3,
		HighTier:      0.6,
		Groove: GrooveConfig{
			EnergeticBass:  0.55,
			FlowingVocal:   0.45,
			BouncyEnergy:   0.30,
			IntensityScale: 0.5,
			TransitionBars: 2,
		},
		Gesture: GestureConfig{
			MinIntervalMs:     400,
			BaseFrequency:     2,
			DynamicsFlux:      0.5,
			MovementEnergy:    0.55,
			ComboChance:       TierChances{Low: 0.05, Mid: 0.10, High: 0.20},
			ComboStaggerBeats: 0.5,
			ScaleBase:         0.6,
			ScaleRange:        0.6,
			Climax: ClimaxConfig{
				Bass:         0.75,
				Flux:         0.6,
				Intensity:    0.9,
				CooldownBars: 32,
				Chance:       0.1,
			},
		},
		Glow: GlowConfig{
			CooldownMs:          500,
			MinBarsBetweenFlash: 4,
			MaxScale:            0.8,
		},
		Morph: MorphConfig{
			ExcursionConfig: ExcursionConfig{
				CooldownBars:       32,
				DurationBars:       16,
				GrooveChangeChance: 0.30,
				BassSurge:          0.75,
				BassSurgeChance:    0.05,
				TimeBaseChance:     0.02,
				TimeChancePerBar:   0.01,
				TimeMaxChance:      0.5,
				EarlyVarietyBar:    8,
				EarlyVarietyChance: 0.20,
				SharedRollPerBar:   true,
			},
			Animate:      true,
			HomeGeometry: "crystal",
			HomeVariant:  "quartz",
		},
		Emotion: EmotionConfig{
			ExcursionConfig: ExcursionConfig{
				CooldownBars:       16,
				DurationBars:       8,
				GrooveChangeChance: 0.50,
				BassSurge:          0.75,
				BassSurgeChance:    0.10,
				TimeBaseChance:     0.05,
				TimeChancePerBar:   0.02,
				TimeMaxChance:      0.6,
				EarlyVarietyBar:    4,
				EarlyVarietyChance: 0.35,
				SharedRollPerBar:   true,
			},
			PeakBass:       0.9,
			PeakFlux:       0.8,
			DramaticChance: 0.15,
			HomeEmotion:    "neutral",
		},
	}
}

func (c Config) barsToBeats(bars int) float64 {
	bpb := c.BeatsPerBar
	if bpb <= 0 {
		bpb = 4
	}
	return float64(bars * bpb)
}
