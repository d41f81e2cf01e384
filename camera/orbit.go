package camera

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// OrbitParams tunes the orbit camera.
type OrbitParams struct {
	Distance      float64 // Initial distance from the focal point
	Pitch         float64 // Initial pitch in radians, positive looks down
	Yaw           float64
	MinDistance   float64 // Zooming closer pushes the focal point forward instead
	PitchLimit    float64
	RotationSpeed float64 // Radians per unit of mouse delta
	MaxZoomSpeed  float64
}

// DefaultOrbitParams returns the standard orbit settings.
func DefaultOrbitParams() OrbitParams {
	return OrbitParams{
		Distance:      6,
		Pitch:         0.5,
		Yaw:           0,
		MinDistance:   1,
		PitchLimit:    1.56,
		RotationSpeed: 0.8,
		MaxZoomSpeed:  100,
	}
}

// Orbit is a camera circling a focal point at a distance.
type Orbit struct {
	params OrbitParams

	focal    r3.Vec
	distance float64
	pitch    float64
	yaw      float64

	viewportW, viewportH float64
}

// NewOrbit creates an orbit camera looking at the origin.
func NewOrbit(params OrbitParams, viewportW, viewportH float64) *Orbit {
	o := &Orbit{
		params:    params,
		distance:  params.Distance,
		yaw:       params.Yaw,
		viewportW: viewportW,
		viewportH: viewportH,
	}
	o.SetPitch(params.Pitch)
	return o
}

// SetViewport updates the viewport used for pan speed.
func (o *Orbit) SetViewport(w, h float64) {
	o.viewportW, o.viewportH = w, h
}

// Distance returns the distance from the focal point.
func (o *Orbit) Distance() float64 { return o.distance }

// SetDistance sets the distance from the focal point.
func (o *Orbit) SetDistance(d float64) { o.distance = d }

// Pitch returns the pitch in radians.
func (o *Orbit) Pitch() float64 { return o.pitch }

// SetPitch sets the pitch, clamped to the pitch limit.
func (o *Orbit) SetPitch(p float64) {
	o.pitch = math.Max(-o.params.PitchLimit, math.Min(o.params.PitchLimit, p))
}

// Yaw returns the yaw in radians.
func (o *Orbit) Yaw() float64 { return o.yaw }

// SetYaw sets the yaw in radians.
func (o *Orbit) SetYaw(y float64) { o.yaw = y }

// FocalPoint returns the point the camera looks at.
func (o *Orbit) FocalPoint() r3.Vec { return o.focal }

// SetFocalPoint moves the point the camera looks at.
func (o *Orbit) SetFocalPoint(p r3.Vec) { o.focal = p }

// Orientation returns the camera rotation: yaw about +Y after pitch about +X.
func (o *Orbit) Orientation() quat.Number {
	return quat.Mul(axisAngle(r3.Vec{Y: 1}, -o.yaw), axisAngle(r3.Vec{X: 1}, -o.pitch))
}

// Forward returns the unit view direction.
func (o *Orbit) Forward() r3.Vec {
	return rotate(o.Orientation(), r3.Vec{Z: -1})
}

// Right returns the unit right direction.
func (o *Orbit) Right() r3.Vec {
	return rotate(o.Orientation(), r3.Vec{X: 1})
}

// Up returns the unit up direction.
func (o *Orbit) Up() r3.Vec {
	return rotate(o.Orientation(), r3.Vec{Y: 1})
}

// Position returns the eye position.
func (o *Orbit) Position() r3.Vec {
	return r3.Sub(o.focal, r3.Scale(o.distance, o.Forward()))
}

// ZoomSpeed grows with the square of the distance, capped.
func (o *Orbit) ZoomSpeed() float64 {
	d := math.Max(o.distance*0.2, 0)
	return math.Min(d*d, o.params.MaxZoomSpeed)
}

// Zoom moves toward the focal point by delta scaled by the zoom speed.
// Below the minimum distance the focal point is pushed forward instead.
func (o *Orbit) Zoom(delta float64) {
	o.distance -= delta * o.ZoomSpeed()
	if o.distance < o.params.MinDistance {
		o.focal = r3.Add(o.focal, o.Forward())
		o.distance = o.params.MinDistance
	}
}

// Rotate orbits by a mouse delta. Yaw reverses when the camera is upside down.
func (o *Orbit) Rotate(dx, dy float64) {
	sign := 1.0
	if o.Up().Y < 0 {
		sign = -1
	}
	o.yaw += sign * dx * o.params.RotationSpeed
	o.SetPitch(o.pitch + dy*o.params.RotationSpeed)
}

// PanSpeed returns the per-axis pan factors for the current viewport.
func (o *Orbit) PanSpeed() (x, y float64) {
	factor := func(extent float64) float64 {
		v := math.Min(extent/1000, 2.4)
		return 0.0366*v*v - 0.1778*v + 0.3021
	}
	return factor(o.viewportW), factor(o.viewportH)
}

// Pan slides the focal point in the view plane by a mouse delta.
func (o *Orbit) Pan(dx, dy float64) {
	xs, ys := o.PanSpeed()
	o.focal = r3.Add(o.focal, r3.Scale(-dx*xs*o.distance, o.Right()))
	o.focal = r3.Add(o.focal, r3.Scale(dy*ys*o.distance, o.Up()))
}

func axisAngle(axis r3.Vec, angle float64) quat.Number {
	s, c := math.Sincos(angle / 2)
	return quat.Number{Real: c, Imag: axis.X * s, Jmag: axis.Y * s, Kmag: axis.Z * s}
}

func rotate(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}
