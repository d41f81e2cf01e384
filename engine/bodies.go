package engine

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Dong-David/the-last-echo/components"
)

var (
	// ErrInvalidBody is returned when a body configuration cannot be simulated.
	ErrInvalidBody = errors.New("invalid body config")
	// ErrUnknownBody is returned for handles the registry does not hold.
	ErrUnknownBody = errors.New("unknown body")
)

// MotionType selects how a body is driven.
type MotionType uint8

const (
	MotionStatic    MotionType = iota // Never moves
	MotionKinematic                   // Moved by the simulation, pushes others
	MotionDynamic                     // Moved by the solver
)

// ShapeType selects a collision primitive.
type ShapeType uint8

const (
	ShapeCapsule ShapeType = iota // Size.X radius, Size.Y half-height
	ShapeSphere                   // Size.X radius
	ShapeBox                      // Size is half-extents
)

// BodyConfig describes a body to create.
type BodyConfig struct {
	Motion      MotionType
	Shape       ShapeType
	Size        r3.Vec
	Position    r3.Vec
	Rotation    quat.Number
	Friction    float64
	Restitution float64
}

// Body is a registered body and its current pose.
type Body struct {
	Config   BodyConfig
	Position r3.Vec
	Rotation quat.Number
}

// BodyRegistry tracks bodies handed to the physics back-end.
type BodyRegistry struct {
	bodies map[components.BodyHandle]*Body
	next   components.BodyHandle
}

// NewBodyRegistry creates an empty registry.
func NewBodyRegistry() *BodyRegistry {
	return &BodyRegistry{bodies: make(map[components.BodyHandle]*Body)}
}

// CreateBody validates cfg and registers a body at its initial pose.
func (r *BodyRegistry) CreateBody(cfg BodyConfig) (components.BodyHandle, error) {
	if err := validateBody(cfg); err != nil {
		return 0, err
	}
	r.next++
	r.bodies[r.next] = &Body{
		Config:   cfg,
		Position: cfg.Position,
		Rotation: cfg.Rotation,
	}
	return r.next, nil
}

func validateBody(cfg BodyConfig) error {
	switch cfg.Shape {
	case ShapeCapsule:
		if cfg.Size.X <= 0 || cfg.Size.Y <= 0 {
			return fmt.Errorf("capsule radius %v half-height %v: %w", cfg.Size.X, cfg.Size.Y, ErrInvalidBody)
		}
	case ShapeSphere:
		if cfg.Size.X <= 0 {
			return fmt.Errorf("sphere radius %v: %w", cfg.Size.X, ErrInvalidBody)
		}
	case ShapeBox:
		if cfg.Size.X <= 0 || cfg.Size.Y <= 0 || cfg.Size.Z <= 0 {
			return fmt.Errorf("box extents %v: %w", cfg.Size, ErrInvalidBody)
		}
	default:
		return fmt.Errorf("shape %d: %w", cfg.Shape, ErrInvalidBody)
	}
	if cfg.Friction < 0 || cfg.Restitution < 0 || cfg.Restitution > 1 {
		return fmt.Errorf("friction %v restitution %v: %w", cfg.Friction, cfg.Restitution, ErrInvalidBody)
	}
	return nil
}

// DestroyBody removes a body. Unknown handles are ignored.
func (r *BodyRegistry) DestroyBody(h components.BodyHandle) {
	delete(r.bodies, h)
}

// MoveKinematic sets the target pose of a kinematic body.
func (r *BodyRegistry) MoveKinematic(h components.BodyHandle, pos r3.Vec, rot quat.Number) error {
	b, ok := r.bodies[h]
	if !ok {
		return fmt.Errorf("move %d: %w", h, ErrUnknownBody)
	}
	if b.Config.Motion != MotionKinematic {
		return fmt.Errorf("move %d: not kinematic: %w", h, ErrInvalidBody)
	}
	b.Position = pos
	b.Rotation = rot
	return nil
}

// Body returns a copy of a registered body.
func (r *BodyRegistry) Body(h components.BodyHandle) (Body, bool) {
	b, ok := r.bodies[h]
	if !ok {
		return Body{}, false
	}
	return *b, true
}

// Count returns the number of live bodies.
func (r *BodyRegistry) Count() int {
	return len(r.bodies)
}
