package dance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/mascot-dance/internal/engine/rhythm"
)

// scriptedRandom returns queued floats, then 0.99.
type scriptedRandom struct {
	floats []float64
	draws  int
}

func (r *scriptedRandom) Float64() float64 {
	r.draws++
	if len(r.floats) == 0 {
		return 0.99
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *scriptedRandom) IntN(n int) int { return 0 }

func surgeInput(bar int) ruleInput {
	return ruleInput{bar: bar, grooveChanged: true, groove: rhythm.GrooveEnergetic, bass: 0.9}
}

func TestSharedRollDrawsOncePerBar(t *testing.T) {
	cfg := DefaultConfig().Morph.ExcursionConfig
	x := newExcursion("x", "home")
	rng := &scriptedRandom{}

	for i := 0; i < 30; i++ {
		assert.False(t, x.consider(cfg, surgeInput(3), rng))
	}
	assert.Equal(t, 1, rng.draws, "one draw for the whole bar")

	// The bass surge rule applies too but never gets its own draw.
	rng.floats = []float64{0.04}
	assert.False(t, x.consider(cfg, surgeInput(3), rng))
	assert.True(t, x.consider(cfg, surgeInput(4), rng), "0.04 < groove change chance")
}

func TestPerRuleRollDrawsEachRule(t *testing.T) {
	cfg := DefaultConfig().Morph.ExcursionConfig
	cfg.SharedRollPerBar = false
	x := newExcursion("x", "home")

	rng := &scriptedRandom{floats: []float64{0.5, 0.04}}
	assert.True(t, x.consider(cfg, surgeInput(3), rng), "bass surge fires on its own draw")
	assert.Equal(t, 2, rng.draws)

	rng = &scriptedRandom{}
	for i := 0; i < 10; i++ {
		x.consider(cfg, surgeInput(5), rng)
	}
	assert.Equal(t, 2, rng.draws, "each applicable rule once per bar")
}

func TestExcursionCooldownAndElapsedRule(t *testing.T) {
	cfg := DefaultConfig().Emotion.ExcursionConfig
	x := newExcursion("x", "neutral")
	x.enter("joy", 10, 0)
	require.True(t, x.active)

	in := ruleInput{bar: 10 + cfg.CooldownBars - 1}
	rng := &scriptedRandom{floats: []float64{0}}
	assert.False(t, x.consider(cfg, in, rng))
	assert.Zero(t, rng.draws, "inside the cooldown nothing is drawn")

	p, ok := x.chance(ruleElapsed, cfg, ruleInput{}, cfg.CooldownBars+10)
	require.True(t, ok)
	assert.InDelta(t, 0.05+0.02*10, p, 1e-12)

	p, _ = x.chance(ruleElapsed, cfg, ruleInput{}, cfg.CooldownBars+1000)
	assert.Equal(t, cfg.TimeMaxChance, p)

	x.leave()
	assert.False(t, x.active)
	assert.Equal(t, "neutral", x.current)
}

func TestEarlyVarietyOnlyBeforeFirstExcursion(t *testing.T) {
	cfg := DefaultConfig().Morph.ExcursionConfig
	x := newExcursion("x", "home")

	_, ok := x.chance(ruleEarlyVariety, cfg, ruleInput{bar: 7}, 7)
	assert.False(t, ok)
	p, ok := x.chance(ruleEarlyVariety, cfg, ruleInput{bar: 8}, 8)
	assert.True(t, ok)
	assert.Equal(t, 0.20, p)

	x.enter("away", 8, 0)
	_, ok = x.chance(ruleEarlyVariety, cfg, ruleInput{bar: 50}, 42)
	assert.False(t, ok)
}

func TestPickExcluding(t *testing.T) {
	rng := &scriptedRandom{}
	got, ok := pickExcluding(rng, []string{"a", "b", "c"}, "a", "b")
	assert.True(t, ok)
	assert.Equal(t, "c", got)

	got, ok = pickExcluding(rng, []string{"a", "b"}, "a", "b")
	assert.True(t, ok)
	assert.Equal(t, "b", got, "falls back to excluding only current")

	_, ok = pickExcluding(rng, []string{"a"}, "a", "a")
	assert.False(t, ok)
}
