// Package components defines ECS components for the simulation.
package components

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is an entity's local placement.
// Dirty is set by systems that move the entity and cleared by whoever consumes it.
type Transform struct {
	Position r3.Vec
	Rotation quat.Number
	Scale    r3.Vec
	Dirty    bool
}

// IdentityRotation is the unit quaternion.
var IdentityRotation = quat.Number{Real: 1}

// NewTransform returns a transform at pos with identity rotation and unit scale.
func NewTransform(pos r3.Vec) Transform {
	return Transform{
		Position: pos,
		Rotation: IdentityRotation,
		Scale:    r3.Vec{X: 1, Y: 1, Z: 1},
		Dirty:    true,
	}
}

// Hierarchy links an entity into a parent/child tree.
// Children form a singly linked list through NextSibling.
type Hierarchy struct {
	Parent      ecs.Entity
	FirstChild  ecs.Entity
	NextSibling ecs.Entity
}

// Name is a human-readable entity label.
type Name struct {
	Value string
}

// Player marks the controlled entity.
type Player struct{}

// Tile marks a streamed terrain tile and records its grid cell.
type Tile struct {
	X, Z int
}

// Effect is a short-lived visual that is destroyed once Remaining reaches zero.
type Effect struct {
	Remaining float64
}

// Beam marks a weapon trace effect.
type Beam struct {
	Length float64
}
