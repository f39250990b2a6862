package session

import (
	stdmath "math"
	"testing"

	"github.com/Faultbox/mascot-dance/internal/dance"
	"github.com/Faultbox/mascot-dance/pkg/math"
)

func approx(a, b, eps float32) bool {
	return float32(stdmath.Abs(float64(a-b))) <= eps
}

func TestClipSample_Endpoints(t *testing.T) {
	c := newClip("test", 1000, key(0), key(0.5).move(0, 1, 0).scale(2), key(1))

	start := c.Sample(0)
	if start.Position != (math.Vec3{}) || start.Scale != 1 {
		t.Errorf("start should be rest pose, got %+v", start)
	}

	mid := c.Sample(0.5)
	if !approx(mid.Position.Y, 1, 1e-6) || !approx(mid.Scale, 2, 1e-6) {
		t.Errorf("midpoint should hit the key, got %+v", mid)
	}

	end := c.Sample(1.5)
	if end.Position != (math.Vec3{}) || end.Scale != 1 {
		t.Errorf("past the end should hold the last key, got %+v", end)
	}
}

func TestClipSample_EasedBetweenKeys(t *testing.T) {
	c := newClip("test", 1000, key(0), key(1).move(1, 0, 0))

	// smoothstep: symmetric around the midpoint, slow at the ends
	if got := c.Sample(0.5).Position.X; !approx(got, 0.5, 1e-6) {
		t.Errorf("expected 0.5 at the midpoint, got %v", got)
	}
	if got := c.Sample(0.1).Position.X; got >= 0.1 {
		t.Errorf("expected ease-in below linear at t=0.1, got %v", got)
	}
}

func TestClipSample_RotationSlerp(t *testing.T) {
	c := newClip("test", 1000, key(0), key(1).turn(0.4, 0, 0))

	got := c.Sample(0.5).Rotation.ToEuler()
	if !approx(got.X, 0.2, 1e-4) || !approx(got.Y, 0, 1e-4) || !approx(got.Z, 0, 1e-4) {
		t.Errorf("expected half rotation about X, got %+v", got)
	}
}

func TestClip_Channels(t *testing.T) {
	c := newClip("test", 500, key(0), key(0.5).glow(2), key(1))
	if c.moves || c.turns || c.scales {
		t.Error("glow-only clip should not touch position, rotation or scale")
	}
	if !c.glows {
		t.Error("glow channel should be set")
	}
}

func TestClipInstance_ScalesDeviation(t *testing.T) {
	c := newClip("test", 1000, key(0), key(0.5).move(0, 1, 0).scale(1.5).glow(2), key(1))

	full := (&clipInstance{clip: c, scale: 1}).Evaluate(0.5)
	half := (&clipInstance{clip: c, scale: 0.5}).Evaluate(0.5)

	if full.Position == nil || full.Scale == nil || full.Glow == nil {
		t.Fatal("expected position, scale and glow channels")
	}
	if full.Rotation != nil {
		t.Error("clip without rotation keys should not rotate")
	}
	if !approx(half.Position.Y, 0.5, 1e-6) {
		t.Errorf("expected half offset, got %v", half.Position.Y)
	}
	if !approx(*half.Scale, 1.25, 1e-6) {
		t.Errorf("expected scale 1.25, got %v", *half.Scale)
	}
	if !approx(*half.Glow, 1.5, 1e-6) {
		t.Errorf("expected glow 1.5, got %v", *half.Glow)
	}

	zero := (&clipInstance{clip: c, scale: 0}).Evaluate(0.5)
	if *zero.Scale != 1 || *zero.Glow != 1 {
		t.Errorf("zero scale should stay at rest, got scale %v glow %v", *zero.Scale, *zero.Glow)
	}
}

func TestClips_CoverEveryGesture(t *testing.T) {
	for _, name := range dance.Gestures() {
		c, ok := LookupClip(name)
		if !ok {
			t.Errorf("no clip for gesture %q", name)
			continue
		}
		if c.DurationMs <= 0 {
			t.Errorf("clip %q has no duration", name)
		}
		for i := 1; i < len(c.Keys); i++ {
			if c.Keys[i].At < c.Keys[i-1].At {
				t.Errorf("clip %q keys out of order at %d", name, i)
			}
		}
	}
}

func TestClips_EndAtRest(t *testing.T) {
	for name, c := range clips {
		last := c.Keys[len(c.Keys)-1]
		if last.Position != (math.Vec3{}) || last.Scale != 1 || last.Glow != 1 {
			t.Errorf("clip %q does not end at rest: %+v", name, last)
		}
	}
}
