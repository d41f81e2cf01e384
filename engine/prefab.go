package engine

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Dong-David/the-last-echo/components"
)

// Prefab is a reusable tree of named nodes with local transforms.
type Prefab struct {
	Name      string
	Transform components.Transform
	Children  []*Prefab
}

// Instantiate creates the prefab tree under parent and returns its root.
func (s *Scene) Instantiate(p *Prefab, parent ecs.Entity) ecs.Entity {
	if p == nil {
		return ecs.Entity{}
	}

	type pending struct {
		node   *Prefab
		parent ecs.Entity
	}
	var root ecs.Entity
	queue := []pending{{node: p, parent: parent}}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		e := s.CreateEntityWith(next.node.Name, next.node.Transform)
		s.SetParent(e, next.parent)
		if root == (ecs.Entity{}) {
			root = e
		}
		for _, c := range next.node.Children {
			queue = append(queue, pending{node: c, parent: e})
		}
	}
	return root
}

// Size returns the number of nodes in the prefab tree.
func (p *Prefab) Size() int {
	if p == nil {
		return 0
	}
	n := 1
	for _, c := range p.Children {
		n += c.Size()
	}
	return n
}

// AgentPrefab is the visual body for a hostile agent: a root with a skinned
// mesh and a small skeleton beneath it.
func AgentPrefab() *Prefab {
	node := func(name string, y float64, children ...*Prefab) *Prefab {
		return &Prefab{
			Name:      name,
			Transform: components.NewTransform(r3.Vec{Y: y}),
			Children:  children,
		}
	}
	return node("ZombieModel", 0,
		node("Mesh", 0),
		node("Armature", 0,
			node("Hips", 0.9,
				node("Spine", 0.3,
					node("Head", 0.5),
					node("LeftArm", 0.2),
					node("RightArm", 0.2),
				),
				node("LeftLeg", -0.45),
				node("RightLeg", -0.45),
			),
		),
	)
}
