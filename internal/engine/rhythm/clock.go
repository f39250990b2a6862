// Package rhythm turns an external beat/bar clock into smoothed modulation
// signals for procedural animation.
package rhythm

// TimeInfo is a snapshot of the musical clock.
type TimeInfo struct {
	BeatProgress float64 // phase within the current beat, [0, 1)
	BarProgress  float64 // phase within the current bar, [0, 1)
	BPM          float64
	Intensity    float64 // [0, 1]
	Pattern      string  // accent pattern name, see AccentPattern
}

// BeatEvent is delivered to OnBeat listeners at every beat boundary.
type BeatEvent struct {
	Beat   int // beat index within the bar
	Accent bool
}

// BeatClock is the upstream beat/tempo source.
type BeatClock interface {
	IsPlaying() bool
	TimeInfo() TimeInfo
	BPM() float64
	BeatsToMs(beats float64) float64
	// OnBeat registers fn for beat events and returns a function removing it.
	OnBeat(fn func(BeatEvent)) (unsubscribe func())
	// BPMFinalized reports whether tempo detection has locked.
	BPMFinalized() bool
}

// Accent weights per beat of a 4/4 bar.
var accentPatterns = map[string][]float64{
	"straight": {1.0, 0.3, 0.6, 0.3},
	"backbeat": {0.6, 1.0, 0.6, 1.0},
	"swing":    {1.0, 0.2, 0.7, 0.2},
	"halftime": {1.0, 0.2, 0.2, 0.2},
}

// AccentPattern returns the accent weights for pattern, falling back to
// "straight" for unknown names.
func AccentPattern(pattern string) []float64 {
	if w, ok := accentPatterns[pattern]; ok {
		return w
	}
	return accentPatterns["straight"]
}
