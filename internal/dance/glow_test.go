package dance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlowGate(t *testing.T) {
	g := NewGlowGate(DefaultConfig().Glow)

	scale, v := g.Admit("glow", 0, 0, 0.5)
	assert.Equal(t, GlowAllowed, v)
	assert.Equal(t, 0.5, scale)

	_, v = g.Admit("sparkle", 499, 0, 0.5)
	assert.Equal(t, GlowTooSoon, v)

	scale, v = g.Admit("flash", 500, 1, 1.2)
	assert.Equal(t, GlowAllowed, v)
	assert.Equal(t, 0.8, scale, "brightness is capped")

	_, v = g.Admit("flash", 5000, 4, 0.5)
	assert.Equal(t, GlowFlashSpacing, v)

	_, v = g.Admit("flash", 6000, 5, 0.5)
	assert.Equal(t, GlowAllowed, v)

	// A rejected candidate does not move the cooldown.
	_, v = g.Admit("glow", 6300, 5, 0.5)
	assert.Equal(t, GlowTooSoon, v)
	_, v = g.Admit("glow", 6500, 5, 0.5)
	assert.Equal(t, GlowAllowed, v)
}

func TestGlowGateKeepsCooldownFloor(t *testing.T) {
	cfg := DefaultConfig().Glow
	cfg.CooldownMs = 0
	g := NewGlowGate(cfg)

	_, v := g.Admit("glow", 0, 0, 0.5)
	assert.Equal(t, GlowAllowed, v)
	_, v = g.Admit("glow", 100, 0, 0.5)
	assert.Equal(t, GlowTooSoon, v, "a zero cooldown must not lift the 2 Hz limit")
	_, v = g.Admit("glow", MinGlowCooldownMs, 0, 0.5)
	assert.Equal(t, GlowAllowed, v)

	cfg.CooldownMs = 800
	g.SetConfig(cfg)
	_, v = g.Admit("glow", MinGlowCooldownMs+700, 1, 0.5)
	assert.Equal(t, GlowTooSoon, v, "longer cooldowns still apply")
}

func TestGlowGateReset(t *testing.T) {
	g := NewGlowGate(DefaultConfig().Glow)
	g.Admit("flash", 100, 3, 0.5)
	g.Reset()
	_, v := g.Admit("flash", 101, 3, 0.5)
	assert.Equal(t, GlowAllowed, v)
}

func TestGlowClasses(t *testing.T) {
	for _, name := range []string{"flash", "glow", "sparkle", "shimmer", "burst"} {
		assert.True(t, IsGlowGesture(name), name)
	}
	assert.False(t, IsGlowGesture("nod"))
	assert.True(t, IsFlashGesture("flash"))
	assert.False(t, IsFlashGesture("glow"))
	assert.Equal(t, "flash_spacing", GlowFlashSpacing.String())

	text, err := GlowTooSoon.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "cooldown", string(text))
}
