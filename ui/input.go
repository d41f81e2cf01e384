package ui

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// RaylibInput samples keyboard and mouse once per simulation step.
//
//	W/S A/D  move along the camera's ground-plane axes
//	F, LCtrl fire
//	wheel    zoom, entering first person when close
//	V        toggle first/third person
//	RMB drag orbit
//	L        toggle camera lock
type RaylibInput struct {
	forward, right float64
	fire           bool
	scroll         float64
	toggleView     bool
	orbitX, orbitY float64
	lock           bool

	// Sampled between steps so edge-triggered keys are not lost when a
	// frame runs several steps or none.
	pendingFire   bool
	pendingToggle bool
	pendingScroll float64
	pendingOrbitX float64
	pendingOrbitY float64
	consumed      bool
}

// NewRaylibInput creates an input source with the camera unlocked.
func NewRaylibInput() *RaylibInput {
	return &RaylibInput{}
}

// Poll reads the devices for this frame. Call once per rendered frame
// before the simulation update.
func (in *RaylibInput) Poll() {
	if in.consumed {
		in.pendingFire = false
		in.pendingToggle = false
		in.pendingScroll = 0
		in.pendingOrbitX = 0
		in.pendingOrbitY = 0
		in.consumed = false
	}

	in.forward, in.right = 0, 0
	if rl.IsKeyDown(rl.KeyW) {
		in.forward++
	}
	if rl.IsKeyDown(rl.KeyS) {
		in.forward--
	}
	if rl.IsKeyDown(rl.KeyD) {
		in.right++
	}
	if rl.IsKeyDown(rl.KeyA) {
		in.right--
	}

	if rl.IsKeyPressed(rl.KeyF) || rl.IsKeyPressed(rl.KeyLeftControl) {
		in.pendingFire = true
	}
	if rl.IsKeyPressed(rl.KeyV) {
		in.pendingToggle = true
	}
	if rl.IsKeyPressed(rl.KeyL) {
		in.lock = !in.lock
	}
	in.pendingScroll += float64(rl.GetMouseWheelMove())

	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		// One screen height of drag is pi mouse units
		d := rl.GetMouseDelta()
		unit := math.Pi / float64(max(rl.GetScreenHeight(), 1))
		in.pendingOrbitX += float64(d.X) * unit
		in.pendingOrbitY += float64(d.Y) * unit
	}
}

// Advance hands the polled state to the next simulation step. Edge input
// goes to the first step after Poll only.
func (in *RaylibInput) Advance() {
	if in.consumed {
		in.fire, in.toggleView = false, false
		in.scroll, in.orbitX, in.orbitY = 0, 0, 0
		return
	}
	in.fire = in.pendingFire
	in.toggleView = in.pendingToggle
	in.scroll = in.pendingScroll
	in.orbitX, in.orbitY = in.pendingOrbitX, in.pendingOrbitY
	in.consumed = true
}

func (in *RaylibInput) MoveAxes() (forward, right float64) { return in.forward, in.right }

func (in *RaylibInput) FirePressed() bool { return in.fire }

func (in *RaylibInput) ScrollDelta() float64 { return in.scroll }

func (in *RaylibInput) ToggleViewPressed() bool { return in.toggleView }

func (in *RaylibInput) OrbitDelta() (dx, dy float64) { return in.orbitX, in.orbitY }

func (in *RaylibInput) LockCamera() bool { return in.lock }
