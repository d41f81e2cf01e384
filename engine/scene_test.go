package engine

import (
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Dong-David/the-last-echo/components"
)

func TestSceneCreateAndDestroy(t *testing.T) {
	s := NewScene()
	e := s.CreateEntity("Thing")

	if !s.IsValid(e) {
		t.Fatal("new entity should be valid")
	}
	if got := s.Name(e); got != "Thing" {
		t.Errorf("Name = %q, want Thing", got)
	}
	if s.Count() != 1 {
		t.Errorf("Count = %d, want 1", s.Count())
	}

	s.DestroyEntity(e)
	if s.IsValid(e) {
		t.Error("destroyed entity should be invalid")
	}
	if s.Transform(e) != nil {
		t.Error("Transform of destroyed entity should be nil")
	}
	if s.Count() != 0 {
		t.Errorf("Count = %d, want 0", s.Count())
	}

	// Second destroy is a no-op
	s.DestroyEntity(e)
	if s.Count() != 0 {
		t.Errorf("Count after double destroy = %d, want 0", s.Count())
	}
}

func TestSceneZeroEntityInvalid(t *testing.T) {
	s := NewScene()
	if s.IsValid(ecs.Entity{}) {
		t.Error("zero entity should be invalid")
	}
	if n := s.DestroyHierarchy(ecs.Entity{}); n != 0 {
		t.Errorf("DestroyHierarchy(zero) = %d, want 0", n)
	}
}

func TestSceneSetParent(t *testing.T) {
	s := NewScene()
	a := s.CreateEntity("A")
	b := s.CreateEntity("B")
	c := s.CreateEntity("C")

	s.SetParent(c, a)
	s.SetParent(c, b) // reparent

	if got := s.Parent(c); got != b {
		t.Errorf("Parent(c) = %v, want b", got)
	}
	if kids := s.Children(a); len(kids) != 0 {
		t.Errorf("a should have no children after reparent, got %d", len(kids))
	}
	if kids := s.Children(b); len(kids) != 1 || kids[0] != c {
		t.Errorf("Children(b) = %v, want [c]", kids)
	}
}

func TestSceneDestroyEntityOrphansChildren(t *testing.T) {
	s := NewScene()
	parent := s.CreateEntity("P")
	child := s.CreateEntity("C")
	s.SetParent(child, parent)

	s.DestroyEntity(parent)

	if !s.IsValid(child) {
		t.Fatal("child should survive DestroyEntity of parent")
	}
	if s.IsValid(s.Parent(child)) {
		t.Error("orphaned child should have no valid parent")
	}
}

func TestSceneDestroyHierarchy(t *testing.T) {
	s := NewScene()
	bystander := s.CreateEntity("Bystander")
	root := s.CreateEntity("Root")
	sub := s.Instantiate(AgentPrefab(), root)

	want := 1 + AgentPrefab().Size()
	if s.Count() != want+1 {
		t.Fatalf("Count = %d, want %d", s.Count(), want+1)
	}
	if s.Parent(sub) != root {
		t.Error("prefab root should be parented under root")
	}

	removed := s.DestroyHierarchy(root)
	if removed != want {
		t.Errorf("removed = %d, want %d", removed, want)
	}
	if s.Count() != 1 {
		t.Errorf("Count = %d, want 1", s.Count())
	}
	if !s.IsValid(bystander) {
		t.Error("unrelated entity should survive")
	}
	if s.IsValid(sub) {
		t.Error("prefab root should be destroyed")
	}
}

func TestSceneDestroyDeepHierarchy(t *testing.T) {
	s := NewScene()
	root := s.CreateEntity("Root")
	prev := root
	const depth = 5000
	for i := 0; i < depth; i++ {
		e := s.CreateEntity("Link")
		s.SetParent(e, prev)
		prev = e
	}

	if n := s.DestroyHierarchy(root); n != depth+1 {
		t.Errorf("removed = %d, want %d", n, depth+1)
	}
	if s.Count() != 0 {
		t.Errorf("Count = %d, want 0", s.Count())
	}
}

func TestSceneDestroyHierarchyDetachesFromParent(t *testing.T) {
	s := NewScene()
	parent := s.CreateEntity("P")
	a := s.CreateEntity("A")
	b := s.CreateEntity("B")
	s.SetParent(a, parent)
	s.SetParent(b, parent)

	s.DestroyHierarchy(a)

	kids := s.Children(parent)
	if len(kids) != 1 || kids[0] != b {
		t.Errorf("Children(parent) = %v, want [b]", kids)
	}
}

func TestSceneTransformMutation(t *testing.T) {
	s := NewScene()
	e := s.CreateEntityWith("T", components.NewTransform(r3.Vec{X: 1, Y: 2, Z: 3}))

	tr := s.Transform(e)
	tr.Position.X = 7

	if got := s.Transform(e).Position; got != (r3.Vec{X: 7, Y: 2, Z: 3}) {
		t.Errorf("Position = %v, want {7 2 3}", got)
	}
	if got := s.Transform(e).Scale; got != (r3.Vec{X: 1, Y: 1, Z: 1}) {
		t.Errorf("Scale = %v, want unit", got)
	}
}
