package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Dong-David/the-last-echo/components"
	"github.com/Dong-David/the-last-echo/engine"
)

func TestEffectSystemExpiry(t *testing.T) {
	scene := engine.NewScene()
	fx := NewEffectSystem(scene)

	short := fx.Spawn("flash", components.NewTransform(r3.Vec{}), 0.25)
	long := fx.SpawnBeam(components.NewTransform(r3.Vec{X: 1}), 4, 0.5)
	instant := fx.Spawn("spark", components.NewTransform(r3.Vec{}), 0)

	steps := []struct {
		dt      float64
		removed int
		alive   []bool // short, long, instant
	}{
		{0, 1, []bool{true, true, false}},
		{0.125, 0, []bool{true, true, false}},
		{0.125, 1, []bool{false, true, false}},
		{0.25, 1, []bool{false, false, false}},
		{1, 0, []bool{false, false, false}},
	}

	for i, st := range steps {
		if got := fx.Update(st.dt); got != st.removed {
			t.Errorf("step %d: removed %d, want %d", i, got, st.removed)
		}
		names := []string{"short", "long", "instant"}
		for j, e := range []ecs.Entity{short, long, instant} {
			if got := scene.IsValid(e); got != st.alive[j] {
				t.Errorf("step %d: %s alive = %v, want %v", i, names[j], got, st.alive[j])
			}
		}
	}

	if fx.Live() != 0 || fx.Total() != 3 || scene.Count() != 0 {
		t.Errorf("live %d total %d scene %d", fx.Live(), fx.Total(), scene.Count())
	}
}

func TestEffectSystemBeam(t *testing.T) {
	scene := engine.NewScene()
	fx := NewEffectSystem(scene)

	plain := fx.Spawn("flash", components.NewTransform(r3.Vec{}), 1)
	beam := fx.SpawnBeam(components.NewTransform(r3.Vec{}), 12, 1)

	if fx.IsBeam(plain) || !fx.IsBeam(beam) {
		t.Error("IsBeam should only match beams")
	}
	if scene.Name(beam) != BeamEntityName {
		t.Errorf("beam name = %q", scene.Name(beam))
	}

	fx.Clear()
	if scene.IsValid(beam) || scene.IsValid(plain) || fx.Live() != 0 {
		t.Error("Clear left effects alive")
	}
}
