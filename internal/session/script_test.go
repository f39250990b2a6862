package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleScript = `
name: sample
bpm: 100
pattern: swing
segments:
  - name: intro
    bars: 4
    bass: 0.2
    vocal: 0.3
  - name: drop
    bars: 8
    bpm: 128
    pattern: backbeat
    bass: 0.9
    flux: 0.7
    jitter: 0.1
    intensity: 1
  - name: pause
    bars: 1
    playing: false
    enabled: false
`

func TestParseScript(t *testing.T) {
	s, err := ParseScript([]byte(sampleScript))
	if err != nil {
		t.Fatalf("ParseScript() error = %v", err)
	}

	if s.Name != "sample" || s.BPM != 100 || s.Pattern != "swing" {
		t.Errorf("unexpected header: %+v", s)
	}
	if len(s.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(s.Segments))
	}

	drop := s.Segments[1]
	if drop.BPM != 128 || drop.Pattern != "backbeat" || drop.Bass != 0.9 {
		t.Errorf("unexpected drop segment: %+v", drop)
	}
	if drop.Intensity == nil || *drop.Intensity != 1 {
		t.Error("drop intensity should be set to 1")
	}
	if drop.Enabled != nil {
		t.Error("drop should leave enabled untouched")
	}

	pause := s.Segments[2]
	if pause.IsPlaying() {
		t.Error("pause segment should be stopped")
	}
	if pause.Enabled == nil || *pause.Enabled {
		t.Error("pause should disable choreography")
	}
	if !s.Segments[0].IsPlaying() {
		t.Error("segments play by default")
	}

	if s.Bars() != 13 {
		t.Errorf("Bars() = %d, want 13", s.Bars())
	}
	if s.PlayingBars() != 12 {
		t.Errorf("PlayingBars() = %d, want 12", s.PlayingBars())
	}
}

func TestParseScript_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"no segments", "name: empty\n", "no segments"},
		{"zero bars", "segments:\n  - name: a\n    bars: 0\n", "bars must be positive"},
		{"negative bpm", "segments:\n  - bars: 1\n    bpm: -1\n", "segment #1: bpm"},
		{"bass out of range", "segments:\n  - name: loud\n    bars: 1\n    bass: 1.5\n", "segment loud: bass"},
		{"jitter out of range", "segments:\n  - bars: 1\n    jitter: -0.1\n", "jitter"},
		{"intensity out of range", "segments:\n  - bars: 1\n    intensity: 2\n", "intensity"},
		{"bad yaml", "segments: [", "parsing script"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScript([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "song.yaml")
	if err := os.WriteFile(path, []byte(sampleScript), 0644); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	s, err := LoadScript(path)
	if err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}
	if s.Name != "sample" {
		t.Errorf("expected name sample, got %q", s.Name)
	}

	_, err = LoadScript(filepath.Join(dir, "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "reading script") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestDemoScript(t *testing.T) {
	s := DemoScript()
	if err := s.Validate(); err != nil {
		t.Fatalf("demo script invalid: %v", err)
	}
	if s.PlayingBars() >= s.Bars() {
		t.Error("demo should contain a stopped segment")
	}
}
