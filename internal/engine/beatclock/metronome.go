// Package beatclock provides a synthetic beat clock for headless sessions and
// tests.
package beatclock

import (
	"math"

	"github.com/Faultbox/mascot-dance/internal/engine/rhythm"
)

// DefaultFinalizeBeats is how many beats a Metronome plays before it reports
// a locked tempo.
const DefaultFinalizeBeats = 8

type listener struct {
	id int
	fn func(rhythm.BeatEvent)
}

// Metronome is a steady-tempo rhythm.BeatClock advanced by its owner.
// Stall freezes the reported phase to imitate a hung upstream detector.
type Metronome struct {
	bpm         float64
	beatsPerBar int
	intensity   float64
	pattern     string

	playing   bool
	elapsedMs float64
	stalled   bool
	frozen    rhythm.TimeInfo

	finalizeBeats int
	beatsPlayed   int

	listeners []listener
	nextID    int
}

// Option configures a Metronome.
type Option func(*Metronome)

// WithPattern sets the accent pattern name.
func WithPattern(p string) Option {
	return func(m *Metronome) { m.pattern = p }
}

// WithIntensity sets the reported intensity.
func WithIntensity(v float64) Option {
	return func(m *Metronome) { m.intensity = v }
}

// WithFinalizeBeats sets how many beats pass before BPMFinalized is true.
func WithFinalizeBeats(n int) Option {
	return func(m *Metronome) { m.finalizeBeats = n }
}

// New creates a stopped metronome at bpm in 4/4.
func New(bpm float64, opts ...Option) *Metronome {
	m := &Metronome{
		bpm:           bpm,
		beatsPerBar:   4,
		intensity:     1,
		pattern:       "straight",
		finalizeBeats: DefaultFinalizeBeats,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Play starts the transport.
func (m *Metronome) Play() { m.playing = true }

// Stop halts the transport, keeping its position.
func (m *Metronome) Stop() { m.playing = false }

// SetBPM changes the tempo while keeping the current beat phase.
func (m *Metronome) SetBPM(bpm float64) {
	if bpm <= 0 || bpm == m.bpm {
		return
	}
	beats := m.beats()
	m.bpm = bpm
	m.elapsedMs = beats * 60000 / bpm
}

// SetPattern changes the accent pattern name.
func (m *Metronome) SetPattern(p string) { m.pattern = p }

// SetIntensity changes the reported intensity.
func (m *Metronome) SetIntensity(v float64) { m.intensity = v }

// Stall freezes (true) or releases (false) the reported phase. Beat events
// are withheld while stalled.
func (m *Metronome) Stall(stalled bool) {
	if stalled && !m.stalled {
		m.frozen = m.liveInfo()
	}
	m.stalled = stalled
}

// Advance moves the transport forward and fires beat events for every beat
// boundary crossed.
func (m *Metronome) Advance(deltaMs float64) {
	if !m.playing || deltaMs <= 0 || m.bpm <= 0 {
		return
	}
	before := math.Floor(m.beats())
	m.elapsedMs += deltaMs
	after := math.Floor(m.beats())

	for b := int(before) + 1; b <= int(after); b++ {
		m.beatsPlayed++
		if m.stalled {
			continue
		}
		ev := rhythm.BeatEvent{Beat: b % m.beatsPerBar, Accent: b%m.beatsPerBar == 0}
		for _, l := range m.listeners {
			l.fn(ev)
		}
	}
}

// Elapsed returns the transport position in milliseconds.
func (m *Metronome) Elapsed() float64 { return m.elapsedMs }

// Bars returns the number of whole bars played.
func (m *Metronome) Bars() int {
	return int(m.beats()) / m.beatsPerBar
}

func (m *Metronome) beats() float64 {
	return m.elapsedMs * m.bpm / 60000
}

func (m *Metronome) liveInfo() rhythm.TimeInfo {
	beats := m.beats()
	return rhythm.TimeInfo{
		BeatProgress: beats - math.Floor(beats),
		BarProgress:  frac(beats / float64(m.beatsPerBar)),
		BPM:          m.bpm,
		Intensity:    m.intensity,
		Pattern:      m.pattern,
	}
}

// IsPlaying implements rhythm.BeatClock.
func (m *Metronome) IsPlaying() bool { return m.playing }

// TimeInfo implements rhythm.BeatClock.
func (m *Metronome) TimeInfo() rhythm.TimeInfo {
	if m.stalled {
		return m.frozen
	}
	return m.liveInfo()
}

// BPM implements rhythm.BeatClock.
func (m *Metronome) BPM() float64 { return m.bpm }

// BeatsToMs implements rhythm.BeatClock.
func (m *Metronome) BeatsToMs(beats float64) float64 {
	if m.bpm <= 0 {
		return 0
	}
	return beats * 60000 / m.bpm
}

// OnBeat implements rhythm.BeatClock.
func (m *Metronome) OnBeat(fn func(rhythm.BeatEvent)) func() {
	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, listener{id: id, fn: fn})
	return func() {
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// BPMFinalized implements rhythm.BeatClock.
func (m *Metronome) BPMFinalized() bool {
	return m.beatsPlayed >= m.finalizeBeats
}

func frac(x float64) float64 {
	return x - math.Floor(x)
}

var _ rhythm.BeatClock = (*Metronome)(nil)
