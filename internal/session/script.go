package session

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Script is a timeline of musical segments fed to a session.
type Script struct {
	Name     string    `yaml:"name"`
	BPM      float64   `yaml:"bpm"`     // default tempo of segments, 0 uses the session tempo
	Pattern  string    `yaml:"pattern"` // default accent pattern
	Segments []Segment `yaml:"segments"`
}

// Segment holds the transport state and audio energies for a run of bars.
type Segment struct {
	Name    string  `yaml:"name"`
	Bars    int     `yaml:"bars"`
	BPM     float64 `yaml:"bpm"`
	Pattern string  `yaml:"pattern"`
	Playing *bool   `yaml:"playing"` // default true
	Stall   bool    `yaml:"stall"`   // transport runs but reports a frozen position

	Bass   float64 `yaml:"bass"`
	Vocal  float64 `yaml:"vocal"`
	Flux   float64 `yaml:"flux"`
	Jitter float64 `yaml:"jitter"` // uniform noise added to each feature per frame

	Enabled   *bool    `yaml:"enabled"`   // toggle choreography at segment start
	Intensity *float64 `yaml:"intensity"` // choreography intensity at segment start
}

// IsPlaying reports whether the transport runs during the segment.
func (s Segment) IsPlaying() bool {
	return s.Playing == nil || *s.Playing
}

// LoadScript reads a script from a YAML file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script %s: %w", path, err)
	}
	s, err := ParseScript(data)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	return s, nil
}

// ParseScript decodes and validates a YAML script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every segment.
func (s *Script) Validate() error {
	if len(s.Segments) == 0 {
		return fmt.Errorf("script has no segments")
	}
	if s.BPM < 0 {
		return fmt.Errorf("script bpm must not be negative, got %v", s.BPM)
	}
	for i, seg := range s.Segments {
		label := seg.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		if seg.Bars <= 0 {
			return fmt.Errorf("segment %s: bars must be positive, got %d", label, seg.Bars)
		}
		if seg.BPM < 0 {
			return fmt.Errorf("segment %s: bpm must not be negative, got %v", label, seg.BPM)
		}
		for _, f := range []struct {
			name string
			v    float64
		}{{"bass", seg.Bass}, {"vocal", seg.Vocal}, {"flux", seg.Flux}, {"jitter", seg.Jitter}} {
			if f.v < 0 || f.v > 1 {
				return fmt.Errorf("segment %s: %s must be within [0,1], got %v", label, f.name, f.v)
			}
		}
		if seg.Intensity != nil && (*seg.Intensity < 0 || *seg.Intensity > 1) {
			return fmt.Errorf("segment %s: intensity must be within [0,1], got %v", label, *seg.Intensity)
		}
	}
	return nil
}

// Bars returns the number of bars in the script, counting stopped segments.
func (s *Script) Bars() int {
	n := 0
	for _, seg := range s.Segments {
		n += seg.Bars
	}
	return n
}

// PlayingBars returns the number of bars during which the transport runs.
func (s *Script) PlayingBars() int {
	n := 0
	for _, seg := range s.Segments {
		if seg.IsPlaying() {
			n += seg.Bars
		}
	}
	return n
}

func boolPtr(v bool) *bool { return &v }

// DemoScript is a short song: a quiet intro, a build, a bass-heavy drop, a
// vocal breakdown, a pause and an outro.
func DemoScript() *Script {
	return &Script{
		Name:    "demo",
		Pattern: "straight",
		Segments: []Segment{
			{Name: "intro", Bars: 8, Bass: 0.15, Vocal: 0.2, Flux: 0.1, Jitter: 0.05},
			{Name: "build", Bars: 8, Bass: 0.4, Vocal: 0.35, Flux: 0.35, Jitter: 0.1},
			{Name: "drop", Bars: 16, Pattern: "backbeat", Bass: 0.85, Vocal: 0.35, Flux: 0.6, Jitter: 0.1},
			{Name: "breakdown", Bars: 8, Pattern: "swing", Bass: 0.2, Vocal: 0.65, Flux: 0.2, Jitter: 0.05},
			{Name: "pause", Bars: 2, Playing: boolPtr(false)},
			{Name: "outro", Bars: 8, Pattern: "halftime", Bass: 0.3, Vocal: 0.25, Flux: 0.15, Jitter: 0.05},
		},
	}
}
