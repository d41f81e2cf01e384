package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/Dong-David/the-last-echo/components"
	"github.com/Dong-David/the-last-echo/engine"
)

// BeamEntityName is the scene name of weapon traces.
const BeamEntityName = "LaserBeam"

// EffectSystem expires short-lived visual entities.
type EffectSystem struct {
	scene   *engine.Scene
	effects *ecs.Map[components.Effect]
	beams   *ecs.Map[components.Beam]
	filter  *ecs.Filter1[components.Effect]

	expired []ecs.Entity
	live    int
	total   int
}

// NewEffectSystem creates an effect system over scene.
func NewEffectSystem(scene *engine.Scene) *EffectSystem {
	w := scene.World()
	return &EffectSystem{
		scene:   scene,
		effects: ecs.NewMap[components.Effect](w),
		beams:   ecs.NewMap[components.Beam](w),
		filter:  ecs.NewFilter1[components.Effect](w),
	}
}

// Spawn creates an entity that is destroyed after lifetime seconds.
func (s *EffectSystem) Spawn(name string, t components.Transform, lifetime float64) ecs.Entity {
	e := s.scene.CreateEntityWith(name, t)
	s.effects.Add(e, &components.Effect{Remaining: lifetime})
	s.live++
	s.total++
	return e
}

// SpawnBeam creates a beam effect of the given length.
func (s *EffectSystem) SpawnBeam(t components.Transform, length, lifetime float64) ecs.Entity {
	e := s.Spawn(BeamEntityName, t, lifetime)
	s.beams.Add(e, &components.Beam{Length: length})
	return e
}

// IsBeam reports whether e is a live beam.
func (s *EffectSystem) IsBeam(e ecs.Entity) bool {
	return s.scene.IsValid(e) && s.beams.Has(e)
}

// Live returns the number of effects awaiting expiry.
func (s *EffectSystem) Live() int { return s.live }

// Total returns the lifetime number of effects spawned.
func (s *EffectSystem) Total() int { return s.total }

// Update counts every effect down by dt and destroys those at or below zero.
// Returns the number destroyed.
func (s *EffectSystem) Update(dt float64) int {
	s.expired = s.expired[:0]

	query := s.filter.Query()
	for query.Next() {
		eff := query.Get()
		eff.Remaining -= dt
		if eff.Remaining <= 0 {
			s.expired = append(s.expired, query.Entity())
		}
	}

	for _, e := range s.expired {
		s.scene.DestroyEntity(e)
	}
	s.live -= len(s.expired)
	return len(s.expired)
}

// Clear destroys every pending effect.
func (s *EffectSystem) Clear() {
	s.expired = s.expired[:0]
	query := s.filter.Query()
	for query.Next() {
		s.expired = append(s.expired, query.Entity())
	}
	for _, e := range s.expired {
		s.scene.DestroyEntity(e)
	}
	s.live = 0
}
