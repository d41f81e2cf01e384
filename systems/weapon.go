package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Dong-David/the-last-echo/components"
	"github.com/Dong-David/the-last-echo/engine"
)

// GunEntityName is the scene name of the held weapon.
const GunEntityName = "Weapon_Gun"

// Targets is the population the weapon can hit.
type Targets interface {
	Agents() []ecs.Entity
	Eliminate(e ecs.Entity) bool
}

// GunMount places the held weapon relative to the camera or the body.
type GunMount struct {
	FirstPersonOffset r3.Vec  // Camera right, up, forward
	FirstPersonYaw    float64 // Radians
	ThirdPersonOffset r3.Vec  // Body right, up, back
	ThirdPersonYaw    float64
	Scale             float64
}

// WeaponParams controls the hitscan weapon.
type WeaponParams struct {
	MuzzleHeight float64 // Ray origin above the player's feet
	Range        float64
	HitRadius    float64 // Maximum distance from the ray to an agent's centre
	TargetHeight float64 // Agent centre above its feet
	BeamLifetime float64
	BeamWidth    float64
	Cooldown     float64 // Seconds between shots, zero for none
	ShootClip    int     // Clip rewound and played on the shoot animator
	Mount        GunMount
}

// DefaultWeaponParams returns the standard weapon settings.
func DefaultWeaponParams() WeaponParams {
	return WeaponParams{
		MuzzleHeight: 1.4,
		Range:        60,
		HitRadius:    0.6,
		TargetHeight: 1.0,
		BeamLifetime: 0.04,
		BeamWidth:    0.01,
		Cooldown:     0.5,
		Mount: GunMount{
			FirstPersonOffset: r3.Vec{X: 0.38, Y: -0.25, Z: 1.2},
			FirstPersonYaw:    math.Pi / 2,
			ThirdPersonOffset: r3.Vec{X: -0.27, Y: 1.51, Z: -0.53},
			ThirdPersonYaw:    -math.Pi / 2,
			Scale:             0.2,
		},
	}
}

// ShotResult describes one Fire call.
type ShotResult struct {
	Fired    bool
	Hit      bool
	Target   ecs.Entity
	Distance float64 // Along the ray to the hit, or the full range on a miss
	Beam     ecs.Entity
}

// Weapon is a hitscan gun that eliminates the nearest agent on its ray.
type Weapon struct {
	params  WeaponParams
	scene   *engine.Scene
	effects *EffectSystem
	targets Targets
	anim    Animator
	shoot   components.AnimatorHandle

	cooldown float64
	shots    int
	hits     int
}

// NewWeapon creates a weapon. anim may be nil; shoot is the animator played
// on every shot.
func NewWeapon(scene *engine.Scene, params WeaponParams, effects *EffectSystem, targets Targets, anim Animator, shoot components.AnimatorHandle) *Weapon {
	return &Weapon{
		params:  params,
		scene:   scene,
		effects: effects,
		targets: targets,
		anim:    anim,
		shoot:   shoot,
	}
}

// Shots returns the lifetime number of shots fired.
func (w *Weapon) Shots() int { return w.shots }

// Hits returns the lifetime number of agents eliminated.
func (w *Weapon) Hits() int { return w.hits }

// Ready reports whether the cooldown has elapsed.
func (w *Weapon) Ready() bool { return w.cooldown <= 0 }

// Tick counts the cooldown down.
func (w *Weapon) Tick(dt float64) {
	if w.cooldown > 0 {
		w.cooldown -= dt
	}
}

// Raycast returns the agent whose centre lies nearest along the ray and
// within the hit radius of it. dir must be unit length.
func (w *Weapon) Raycast(origin, dir r3.Vec) (ecs.Entity, float64, bool) {
	best := w.params.Range
	var hit ecs.Entity
	found := false

	up := r3.Vec{Y: w.params.TargetHeight}
	for _, e := range w.targets.Agents() {
		t := w.scene.Transform(e)
		if t == nil {
			continue
		}
		toTarget := r3.Sub(r3.Add(t.Position, up), origin)
		along := r3.Dot(toTarget, dir)
		if along <= 0 || along >= best {
			continue
		}
		if r3.Norm(r3.Sub(toTarget, r3.Scale(along, dir))) < w.params.HitRadius {
			best = along
			hit = e
			found = true
		}
	}
	return hit, best, found
}

// Fire shoots from a body at feet with the given rotation. The nearest agent
// on the ray is eliminated and a beam is drawn to it or to full range.
func (w *Weapon) Fire(feet r3.Vec, rotation quat.Number) ShotResult {
	if w.cooldown > 0 {
		return ShotResult{}
	}
	w.cooldown = w.params.Cooldown
	w.shots++

	if w.anim != nil && w.shoot != 0 {
		if err := w.anim.BindClip(w.shoot, w.params.ShootClip); err == nil {
			w.anim.Play(w.shoot)
		}
	}

	origin := r3.Add(feet, r3.Vec{Y: w.params.MuzzleHeight})
	dir := normalizeOr(rotate(rotation, forwardAxis), forwardAxis)

	res := ShotResult{Fired: true, Distance: w.params.Range}
	if e, d, ok := w.Raycast(origin, dir); ok {
		res.Hit = true
		res.Target = e
		res.Distance = d
		if w.targets.Eliminate(e) {
			w.hits++
		}
	}

	end := r3.Add(origin, r3.Scale(res.Distance, dir))
	beam := components.NewTransform(r3.Scale(0.5, r3.Add(origin, end)))
	beam.Rotation = rotation
	beam.Scale = r3.Vec{X: w.params.BeamWidth, Y: w.params.BeamWidth, Z: res.Distance}
	if w.effects != nil {
		res.Beam = w.effects.SpawnBeam(beam, res.Distance, w.params.BeamLifetime)
	}
	return res
}

// CameraPose is the read side of the camera the gun mount follows.
type CameraPose interface {
	Position() r3.Vec
	Forward() r3.Vec
	Right() r3.Vec
	Up() r3.Vec
	Orientation() quat.Number
}

// PlaceGun poses the held weapon in front of the camera in first person, or
// at the body's side in third person.
func (w *Weapon) PlaceGun(gun *components.Transform, firstPerson bool, cam CameraPose, body components.Transform) {
	m := w.params.Mount
	if firstPerson {
		off := m.FirstPersonOffset
		gun.Position = r3.Add(cam.Position(), r3.Add(
			r3.Scale(off.X, cam.Right()),
			r3.Add(r3.Scale(off.Y, cam.Up()), r3.Scale(off.Z, cam.Forward())),
		))
		gun.Rotation = quat.Mul(cam.Orientation(), yawRotation(m.FirstPersonYaw))
	} else {
		off := m.ThirdPersonOffset
		right := rotate(body.Rotation, r3.Vec{X: 1})
		up := rotate(body.Rotation, r3.Vec{Y: 1})
		back := rotate(body.Rotation, r3.Vec{Z: -1})
		gun.Position = r3.Add(body.Position, r3.Add(
			r3.Scale(off.X, right),
			r3.Add(r3.Scale(off.Y, up), r3.Scale(off.Z, back)),
		))
		gun.Rotation = quat.Mul(body.Rotation, yawRotation(m.ThirdPersonYaw))
	}
	gun.Scale = r3.Vec{X: m.Scale, Y: m.Scale, Z: m.Scale}
	gun.Dirty = true
}
