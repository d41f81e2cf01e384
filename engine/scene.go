// Package engine provides the in-process scene and service back-ends that the
// simulation systems run against: an ECS scene graph, an animation rig registry,
// a body registry and scripted input.
package engine

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Dong-David/the-last-echo/components"
)

// Scene is an entity world with transforms, names and a parent/child hierarchy.
// Every entity created through Scene carries all three base components.
type Scene struct {
	world *ecs.World

	base       *ecs.Map3[components.Transform, components.Hierarchy, components.Name]
	transforms *ecs.Map[components.Transform]
	hierarchy  *ecs.Map[components.Hierarchy]
	names      *ecs.Map[components.Name]

	count int
	stack []ecs.Entity // DestroyHierarchy worklist
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	world := ecs.NewWorld()
	return &Scene{
		world:      world,
		base:       ecs.NewMap3[components.Transform, components.Hierarchy, components.Name](world),
		transforms: ecs.NewMap[components.Transform](world),
		hierarchy:  ecs.NewMap[components.Hierarchy](world),
		names:      ecs.NewMap[components.Name](world),
	}
}

// World exposes the ECS world so systems can register their own component mappers.
func (s *Scene) World() *ecs.World {
	return s.world
}

// CreateEntity creates a named entity at the origin.
func (s *Scene) CreateEntity(name string) ecs.Entity {
	return s.CreateEntityWith(name, components.NewTransform(r3.Vec{}))
}

// CreateEntityWith creates a named entity with the given transform.
func (s *Scene) CreateEntityWith(name string, t components.Transform) ecs.Entity {
	h := components.Hierarchy{}
	n := components.Name{Value: name}
	e := s.base.NewEntity(&t, &h, &n)
	s.count++
	return e
}

// IsValid reports whether e refers to a live scene entity.
func (s *Scene) IsValid(e ecs.Entity) bool {
	if e == (ecs.Entity{}) {
		return false
	}
	return s.world.Alive(e) && s.transforms.Has(e)
}

// Transform returns the entity's transform, or nil if the entity is not valid.
// The pointer is only stable until the next structural change.
func (s *Scene) Transform(e ecs.Entity) *components.Transform {
	if !s.IsValid(e) {
		return nil
	}
	return s.transforms.Get(e)
}

// Name returns the entity's label, or "" if the entity is not valid.
func (s *Scene) Name(e ecs.Entity) string {
	if !s.IsValid(e) {
		return ""
	}
	return s.names.Get(e).Value
}

// Count returns the number of live scene entities.
func (s *Scene) Count() int {
	return s.count
}

// Parent returns the entity's parent, or the zero entity.
func (s *Scene) Parent(e ecs.Entity) ecs.Entity {
	if !s.IsValid(e) {
		return ecs.Entity{}
	}
	return s.hierarchy.Get(e).Parent
}

// Children returns the direct children of e in link order.
func (s *Scene) Children(e ecs.Entity) []ecs.Entity {
	if !s.IsValid(e) {
		return nil
	}
	var out []ecs.Entity
	for c := s.hierarchy.Get(e).FirstChild; s.IsValid(c); c = s.hierarchy.Get(c).NextSibling {
		out = append(out, c)
	}
	return out
}

// SetParent attaches child under parent, detaching it from any previous parent.
// A zero or invalid parent leaves the child at the root.
func (s *Scene) SetParent(child, parent ecs.Entity) {
	if !s.IsValid(child) || child == parent {
		return
	}
	s.detach(child)
	if !s.IsValid(parent) {
		return
	}
	ph := s.hierarchy.Get(parent)
	ch := s.hierarchy.Get(child)
	ch.Parent = parent
	ch.NextSibling = ph.FirstChild
	ph.FirstChild = child
}

// detach unlinks e from its parent's child list.
func (s *Scene) detach(e ecs.Entity) {
	h := s.hierarchy.Get(e)
	parent := h.Parent
	h.Parent = ecs.Entity{}
	next := h.NextSibling
	h.NextSibling = ecs.Entity{}
	if !s.IsValid(parent) {
		return
	}

	ph := s.hierarchy.Get(parent)
	if ph.FirstChild == e {
		ph.FirstChild = next
		return
	}
	for c := ph.FirstChild; s.IsValid(c); {
		ch := s.hierarchy.Get(c)
		if ch.NextSibling == e {
			ch.NextSibling = next
			return
		}
		c = ch.NextSibling
	}
}

// DestroyEntity removes a single entity. Its children are moved to the root.
func (s *Scene) DestroyEntity(e ecs.Entity) {
	if !s.IsValid(e) {
		return
	}
	s.detach(e)
	for _, c := range s.Children(e) {
		ch := s.hierarchy.Get(c)
		ch.Parent = ecs.Entity{}
		ch.NextSibling = ecs.Entity{}
	}
	s.world.RemoveEntity(e)
	s.count--
}

// DestroyHierarchy removes e and every descendant, walking the tree
// breadth-first over a reused worklist. Returns the number of entities removed.
func (s *Scene) DestroyHierarchy(e ecs.Entity) int {
	if !s.IsValid(e) {
		return 0
	}
	s.detach(e)

	// First pass: collect the subtree (no structural changes)
	doomed := s.stack[:0]
	doomed = append(doomed, e)
	for i := 0; i < len(doomed); i++ {
		for c := s.hierarchy.Get(doomed[i]).FirstChild; s.IsValid(c); c = s.hierarchy.Get(c).NextSibling {
			doomed = append(doomed, c)
		}
	}

	// Second pass: remove
	removed := 0
	for _, d := range doomed {
		if s.world.Alive(d) {
			s.world.RemoveEntity(d)
			removed++
		}
	}
	s.count -= removed
	s.stack = doomed[:0]
	return removed
}
