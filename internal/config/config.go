// Package config handles simulator configuration loading and management.
package config

import (
	"fmt"
	"time"

	"github.com/Faultbox/mascot-dance/internal/dance"
	"github.com/Faultbox/mascot-dance/internal/engine/rhythm"
)

// Config holds all simulator settings.
type Config struct {
	Rhythm       rhythm.Config `yaml:"rhythm"`
	Choreography dance.Config  `yaml:"choreography"`
	Session      SessionConfig `yaml:"session"`
	Logging      LoggingConfig `yaml:"logging"`

	source string
}

// SessionConfig holds settings of a simulated session.
type SessionConfig struct {
	Script         string        `yaml:"script"`     // feature script, empty for the built-in demo
	FrameRate      int           `yaml:"frame_rate"` // simulated frames per second
	Seed           uint64        `yaml:"seed"`       // random seed for choreography and jitter
	BPM            float64       `yaml:"bpm"`        // tempo used when a segment does not set one
	Pattern        string        `yaml:"pattern"`    // accent pattern of the metronome
	FinalizeBeats  int           `yaml:"finalize_beats"`
	ReportInterval time.Duration `yaml:"report_interval"` // simulated time between status logs, 0 to disable
	Watch          bool          `yaml:"watch"`           // reload tuning when the config file changes
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Rhythm:       rhythm.DefaultConfig(),
		Choreography: dance.DefaultConfig(),
		Session: SessionConfig{
			FrameRate:      60,
			Seed:           1,
			BPM:            120,
			Pattern:        "straight",
			FinalizeBeats:  8,
			ReportInterval: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports the first setting that cannot drive a session.
func (c *Config) Validate() error {
	if c.Session.FrameRate <= 0 {
		return fmt.Errorf("session.frame_rate must be positive, got %d", c.Session.FrameRate)
	}
	if c.Session.BPM <= 0 {
		return fmt.Errorf("session.bpm must be positive, got %v", c.Session.BPM)
	}
	if c.Rhythm.BeatsPerBar <= 0 {
		return fmt.Errorf("rhythm.beats_per_bar must be positive, got %d", c.Rhythm.BeatsPerBar)
	}
	if c.Choreography.HistoryLength <= 0 {
		return fmt.Errorf("choreography.history_length must be positive, got %d", c.Choreography.HistoryLength)
	}
	if i := c.Choreography.Intensity; i < 0 || i > 1 {
		return fmt.Errorf("choreography.intensity must be within [0,1], got %v", i)
	}
	if c.Choreography.Glow.CooldownMs < dance.MinGlowCooldownMs {
		return fmt.Errorf("choreography.glow.cooldown_ms must be at least %v, got %v",
			dance.MinGlowCooldownMs, c.Choreography.Glow.CooldownMs)
	}
	return nil
}
