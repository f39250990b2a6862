package dance

import (
	"math"

	"github.com/Faultbox/mascot-dance/internal/engine/rhythm"
	"github.com/Faultbox/mascot-dance/internal/engine/tasks"
)

// excursion tracks a property that leaves its home value for a while and is
// then returned. While active, a pending task in the table brings it back.
type excursion[T comparable] struct {
	task    string
	home    T
	current T
	active  bool
	ret     tasks.Handle

	fired   bool
	lastBar int

	rolledBar int
	ruleBars  [numRules]int
}

const (
	ruleGrooveChange = iota
	ruleBassSurge
	ruleElapsed
	ruleEarlyVariety
	numRules
)

func newExcursion[T comparable](task string, home T) *excursion[T] {
	x := &excursion[T]{task: task}
	x.reset(home)
	return x
}

func (x *excursion[T]) reset(home T) {
	x.home, x.current = home, home
	x.active = false
	x.ret = 0
	x.fired = false
	x.lastBar = 0
	x.rolledBar = -1
	for i := range x.ruleBars {
		x.ruleBars[i] = -1
	}
}

// ruleInput is what the trigger rules look at on a given frame.
type ruleInput struct {
	bar           int
	grooveChanged bool
	groove        string
	bass          float64 // smoothed
}

// consider runs the trigger rules in order and reports whether the excursion
// fires this frame. Each rule draws at most once per bar; with a shared roll
// the first applicable rule spends the bar's only draw.
func (x *excursion[T]) consider(cfg ExcursionConfig, in ruleInput, rng Random) bool {
	barsSince := in.bar - x.lastBar
	if x.fired && barsSince < cfg.CooldownBars {
		return false
	}
	for rule := 0; rule < numRules; rule++ {
		p, ok := x.chance(rule, cfg, in, barsSince)
		if !ok {
			continue
		}
		if cfg.SharedRollPerBar {
			if x.rolledBar == in.bar {
				return false
			}
			x.rolledBar = in.bar
			return rng.Float64() < p
		}
		if x.ruleBars[rule] == in.bar {
			continue
		}
		x.ruleBars[rule] = in.bar
		if rng.Float64() < p {
			return true
		}
	}
	return false
}

func (x *excursion[T]) chance(rule int, cfg ExcursionConfig, in ruleInput, barsSince int) (float64, bool) {
	switch rule {
	case ruleGrooveChange:
		return cfg.GrooveChangeChance, in.grooveChanged
	case ruleBassSurge:
		return cfg.BassSurgeChance, in.groove == rhythm.GrooveEnergetic && in.bass >= cfg.BassSurge
	case ruleElapsed:
		if !x.fired {
			return 0, false
		}
		p := cfg.TimeBaseChance + cfg.TimeChancePerBar*float64(barsSince-cfg.CooldownBars)
		return math.Min(cfg.TimeMaxChance, p), true
	case ruleEarlyVariety:
		return cfg.EarlyVarietyChance, !x.fired && in.bar >= cfg.EarlyVarietyBar
	}
	return 0, false
}

// enter marks the excursion active at value v during bar.
func (x *excursion[T]) enter(v T, bar int, ret tasks.Handle) {
	x.current = v
	x.active = true
	x.fired = true
	x.lastBar = bar
	x.ret = ret
}

// leave returns the excursion to home.
func (x *excursion[T]) leave() {
	x.current = x.home
	x.active = false
	x.ret = 0
}
