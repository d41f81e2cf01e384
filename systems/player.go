package systems

import (
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Dong-David/the-last-echo/components"
	"github.com/Dong-David/the-last-echo/engine"
)

// PlayerEntityName is the scene name of the controlled body.
const PlayerEntityName = "Player"

// Input is the per-tick control state.
type Input interface {
	MoveAxes() (forward, right float64)
	FirePressed() bool
	ScrollDelta() float64
	ToggleViewPressed() bool
	OrbitDelta() (dx, dy float64)
	LockCamera() bool
}

// CameraRig is the camera the player drives.
type CameraRig interface {
	CameraPose
	Distance() float64
	SetDistance(d float64)
	Pitch() float64
	SetPitch(p float64)
	SetFocalPoint(p r3.Vec)
	Zoom(delta float64)
	Rotate(dx, dy float64)
}

// PlayerBodies creates and drives the player's kinematic body.
type PlayerBodies interface {
	Physics
	KinematicMover
}

// PlayerParams controls movement, head bob and view modes.
type PlayerParams struct {
	Speed          float64
	TurnRate       float64
	BobRate        float64 // Bob phase advance per second while moving
	BobBlendRate   float64
	BobAmplitude   float64 // Third person
	BobAmplitudeFP float64 // First person
	FocusHeight    float64 // Third person focal point above the feet
	EyeHeight      float64 // First person focal point above the feet

	ThirdPersonDistance float64 // Camera distance on leaving first person and while locked
	FirstPersonDistance float64
	FirstPersonEnter    float64 // Scrolling in below this distance enters first person
	FirstPersonScale    float64 // Body scale while the camera is inside it
	LockedMinPitch      float64
	ScrollScale         float64

	Body AgentBodyParams
}

// DefaultPlayerParams returns the standard player settings.
func DefaultPlayerParams() PlayerParams {
	return PlayerParams{
		Speed:          10,
		TurnRate:       15,
		BobRate:        10,
		BobBlendRate:   10,
		BobAmplitude:   0.03,
		BobAmplitudeFP: 0.06,
		FocusHeight:    1.0,
		EyeHeight:      1.7,

		ThirdPersonDistance: 6,
		FirstPersonDistance: 0.5,
		FirstPersonEnter:    1.3,
		FirstPersonScale:    0.001,
		LockedMinPitch:      0.2,
		ScrollScale:         0.1,

		Body: AgentBodyParams{Radius: 0.35, HalfHeight: 0.9, Friction: 0.5},
	}
}

// PlayerResult summarises one Update.
type PlayerResult struct {
	Moving     bool
	ViewToggle bool
	Shot       ShotResult
}

// PlayerController moves the player relative to the camera and keeps the
// camera on it.
type PlayerController struct {
	params PlayerParams
	scene  *engine.Scene
	cam    CameraRig
	anim   Animator
	run    components.AnimatorHandle
	weapon *Weapon
	bodies PlayerBodies

	entity ecs.Entity
	gun    ecs.Entity
	body   components.BodyHandle

	firstPerson bool
	wasMoving   bool
	bobTimer    float64
	bobBlend    float64
}

// NewPlayerController creates the player and gun entities at spawn. anim,
// weapon and bodies may be nil.
func NewPlayerController(
	scene *engine.Scene,
	params PlayerParams,
	spawn r3.Vec,
	cam CameraRig,
	anim Animator,
	run components.AnimatorHandle,
	weapon *Weapon,
	bodies PlayerBodies,
) *PlayerController {
	p := &PlayerController{
		params: params,
		scene:  scene,
		cam:    cam,
		anim:   anim,
		run:    run,
		weapon: weapon,
		bodies: bodies,
	}

	p.entity = scene.CreateEntityWith(PlayerEntityName, components.NewTransform(spawn))
	ecs.NewMap[components.Player](scene.World()).Add(p.entity, &components.Player{})
	if weapon != nil {
		p.gun = scene.CreateEntityWith(GunEntityName, components.NewTransform(spawn))
	}

	if bodies != nil {
		h, err := bodies.CreateBody(engine.BodyConfig{
			Motion:      engine.MotionKinematic,
			Shape:       engine.ShapeCapsule,
			Size:        r3.Vec{X: params.Body.Radius, Y: params.Body.HalfHeight},
			Position:    spawn,
			Rotation:    components.IdentityRotation,
			Friction:    params.Body.Friction,
			Restitution: params.Body.Restitution,
		})
		if err != nil {
			slog.Warn("player_body_failed", "error", err)
		} else {
			p.body = h
		}
	}
	return p
}

// Entity returns the player entity.
func (p *PlayerController) Entity() ecs.Entity { return p.entity }

// Gun returns the held weapon entity, or the zero entity without a weapon.
func (p *PlayerController) Gun() ecs.Entity { return p.gun }

// Position returns the player's feet.
func (p *PlayerController) Position() r3.Vec {
	if t := p.scene.Transform(p.entity); t != nil {
		return t.Position
	}
	return r3.Vec{}
}

// FirstPerson reports whether the camera is inside the body.
func (p *PlayerController) FirstPerson() bool { return p.firstPerson }

// Moving reports whether the player moved on the last Update.
func (p *PlayerController) Moving() bool { return p.wasMoving }

// Speed returns the movement speed.
func (p *PlayerController) Speed() float64 { return p.params.Speed }

// SetSpeed changes the movement speed.
func (p *PlayerController) SetSpeed(v float64) { p.params.Speed = v }

// BobOffset returns the current head-bob height.
func (p *PlayerController) BobOffset() float64 {
	amp := p.params.BobAmplitude
	if p.firstPerson {
		amp = p.params.BobAmplitudeFP
	}
	return math.Abs(math.Sin(p.bobTimer)) * amp * p.bobBlend
}

// Update applies one tick of input.
func (p *PlayerController) Update(in Input, dt float64) PlayerResult {
	var res PlayerResult

	t := p.scene.Transform(p.entity)
	if t == nil {
		return res
	}

	locked := in.LockCamera()
	if in.ToggleViewPressed() {
		p.setFirstPerson(t, !p.firstPerson)
		res.ViewToggle = true
	}
	if s := in.ScrollDelta(); s != 0 {
		res.ViewToggle = p.scroll(t, s, locked) || res.ViewToggle
	}
	if dx, dy := in.OrbitDelta(); dx != 0 || dy != 0 {
		p.cam.Rotate(dx, dy)
	}

	res.Moving = p.move(t, in, dt)
	p.follow(t, locked)

	if p.weapon != nil {
		p.weapon.Tick(dt)
		if in.FirePressed() {
			res.Shot = p.weapon.Fire(t.Position, t.Rotation)
			// Eliminations and the beam change the world's entity layout
			t = p.scene.Transform(p.entity)
		}
		if gun := p.scene.Transform(p.gun); gun != nil {
			p.weapon.PlaceGun(gun, p.firstPerson, p.cam, *t)
		}
	}

	if p.body != 0 {
		if err := p.bodies.MoveKinematic(p.body, t.Position, t.Rotation); err != nil {
			slog.Debug("player_body_sync_failed", "error", err)
		}
	}
	return res
}

func (p *PlayerController) setFirstPerson(t *components.Transform, on bool) {
	p.firstPerson = on
	if on {
		s := p.params.FirstPersonScale
		t.Scale = r3.Vec{X: s, Y: s, Z: s}
		p.cam.SetDistance(p.params.FirstPersonDistance)
	} else {
		t.Scale = r3.Vec{X: 1, Y: 1, Z: 1}
		p.cam.SetDistance(p.params.ThirdPersonDistance)
	}
	t.Dirty = true
}

// scroll zooms the third-person camera, entering first person when close
// enough, and leaves first person on scrolling out. Reports a view change.
func (p *PlayerController) scroll(t *components.Transform, delta float64, locked bool) bool {
	if p.firstPerson {
		if delta < 0 {
			p.setFirstPerson(t, false)
			return true
		}
		return false
	}
	if !locked {
		p.cam.Zoom(delta * p.params.ScrollScale)
	}
	if delta > 0 && p.cam.Distance() < p.params.FirstPersonEnter {
		p.setFirstPerson(t, true)
		return true
	}
	return false
}

// move walks the body along the camera's ground-plane axes.
func (p *PlayerController) move(t *components.Transform, in Input, dt float64) bool {
	fwdAxis, rightAxis := in.MoveAxes()
	camFwd := normalizeOr(planar(p.cam.Forward()), r3.Vec{})
	camRight := normalizeOr(planar(p.cam.Right()), r3.Vec{})
	dir := r3.Add(r3.Scale(fwdAxis, camFwd), r3.Scale(rightAxis, camRight))

	moving := r3.Norm(dir) > 0
	if moving != p.wasMoving {
		if p.anim != nil && p.run != 0 {
			if moving {
				p.anim.Play(p.run)
			} else {
				p.anim.Pause(p.run)
			}
		}
		p.wasMoving = moving
	}

	blend := math.Min(dt*p.params.BobBlendRate, 1)
	if !moving {
		p.bobBlend += (0 - p.bobBlend) * blend
		if p.bobBlend < 0.01 {
			p.bobBlend = 0
			p.bobTimer = 0
		}
		return false
	}

	dir = r3.Unit(dir)
	t.Position = r3.Add(t.Position, r3.Scale(p.params.Speed*dt, dir))
	if !p.firstPerson {
		t.Rotation = turnToward(t.Rotation, yawRotation(yawToward(dir)), p.params.TurnRate, dt)
	}
	t.Dirty = true

	p.bobTimer += dt * p.params.BobRate
	p.bobBlend += (1 - p.bobBlend) * blend
	return true
}

// follow keeps the camera on the player for the current view mode.
func (p *PlayerController) follow(t *components.Transform, locked bool) {
	bob := p.BobOffset()
	if p.firstPerson {
		s := p.params.FirstPersonScale
		t.Scale = r3.Vec{X: s, Y: s, Z: s}
		p.cam.SetDistance(p.params.FirstPersonDistance)
		p.cam.SetFocalPoint(r3.Add(t.Position, r3.Vec{Y: p.params.EyeHeight + bob}))

		// Body yaw tracks the camera's ground-plane forward
		look := normalizeOr(planar(p.cam.Forward()), facing(t.Rotation))
		t.Rotation = yawRotation(yawToward(look))
		t.Dirty = true
		return
	}

	t.Scale = r3.Vec{X: 1, Y: 1, Z: 1}
	p.cam.SetFocalPoint(r3.Add(t.Position, r3.Vec{Y: p.params.FocusHeight + bob}))
	if locked {
		p.cam.SetDistance(p.params.ThirdPersonDistance)
		if p.cam.Pitch() < p.params.LockedMinPitch {
			p.cam.SetPitch(p.params.LockedMinPitch)
		}
	}
}

// Rotation returns the player's orientation.
func (p *PlayerController) Rotation() quat.Number {
	if t := p.scene.Transform(p.entity); t != nil {
		return t.Rotation
	}
	return components.IdentityRotation
}
