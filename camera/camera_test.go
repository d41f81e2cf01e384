package camera

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestViewCentered(t *testing.T) {
	v := NewView(1280, 720)
	v.Follow(30, -12)

	// View centre should map to screen centre
	sx, sy := v.WorldToScreen(30, -12)
	if math.Abs(float64(sx-640)) > 0.01 || math.Abs(float64(sy-360)) > 0.01 {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}
}

func TestViewScreenToWorldRoundtrip(t *testing.T) {
	v := NewView(1280, 720)
	v.Follow(-5, 9)
	v.SetZoom(3)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},
		{100, 100},
		{1200, 600},
	}

	for _, tc := range testCases {
		wx, wz := v.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := v.WorldToScreen(wx, wz)
		if math.Abs(float64(sx-tc.sx)) > 0.01 || math.Abs(float64(sy-tc.sy)) > 0.01 {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wz, sx, sy)
		}
	}
}

func TestViewZoomClamp(t *testing.T) {
	v := NewView(1280, 720)

	v.SetZoom(0.1)
	if v.Zoom != v.MinZoom {
		t.Errorf("expected zoom clamped to %f, got %f", v.MinZoom, v.Zoom)
	}

	v.SetZoom(1000)
	if v.Zoom != v.MaxZoom {
		t.Errorf("expected zoom clamped to %f, got %f", v.MaxZoom, v.Zoom)
	}
}

func TestViewIsVisible(t *testing.T) {
	v := NewView(1280, 720)
	v.SetZoom(1)

	if !v.IsVisible(0, 0, 10) {
		t.Error("center should be visible")
	}
	if v.IsVisible(2000, 1300, 10) {
		t.Error("far point should not be visible")
	}
	if !v.IsVisible(-700, 0, 100) {
		t.Error("edge point with large radius should be visible")
	}
}

func TestViewPan(t *testing.T) {
	v := NewView(1280, 720)
	v.SetZoom(4)
	v.Pan(40, -80)
	if v.X != 10 || v.Z != -20 {
		t.Errorf("after pan centre = (%f, %f), want (10, -20)", v.X, v.Z)
	}
}

func vecNear(a, b r3.Vec, tol float64) bool {
	return r3.Norm(r3.Sub(a, b)) <= tol
}

func TestOrbitDirections(t *testing.T) {
	p := DefaultOrbitParams()
	p.Pitch = 0
	o := NewOrbit(p, 1280, 720)

	tests := []struct {
		name    string
		yaw     float64
		forward r3.Vec
		right   r3.Vec
	}{
		{"yaw zero", 0, r3.Vec{Z: -1}, r3.Vec{X: 1}},
		{"quarter turn", math.Pi / 2, r3.Vec{X: 1}, r3.Vec{Z: 1}},
		{"half turn", math.Pi, r3.Vec{Z: 1}, r3.Vec{X: -1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o.SetYaw(tc.yaw)
			if !vecNear(o.Forward(), tc.forward, 1e-9) {
				t.Errorf("Forward = %v, want %v", o.Forward(), tc.forward)
			}
			if !vecNear(o.Right(), tc.right, 1e-9) {
				t.Errorf("Right = %v, want %v", o.Right(), tc.right)
			}
			if !vecNear(o.Up(), r3.Vec{Y: 1}, 1e-9) {
				t.Errorf("Up = %v, want +Y", o.Up())
			}
		})
	}
}

func TestOrbitPitchLooksDown(t *testing.T) {
	o := NewOrbit(DefaultOrbitParams(), 1280, 720)
	o.SetFocalPoint(r3.Vec{X: 3, Y: 1, Z: 2})

	if o.Forward().Y >= 0 {
		t.Errorf("positive pitch should look down, forward %v", o.Forward())
	}
	pos := o.Position()
	if pos.Y <= 1 {
		t.Errorf("eye %v should sit above the focal point", pos)
	}
	if d := r3.Norm(r3.Sub(pos, o.FocalPoint())); math.Abs(d-o.Distance()) > 1e-9 {
		t.Errorf("eye distance %v, want %v", d, o.Distance())
	}
}

func TestOrbitPitchClamp(t *testing.T) {
	o := NewOrbit(DefaultOrbitParams(), 1280, 720)
	o.SetPitch(3)
	if o.Pitch() != 1.56 {
		t.Errorf("Pitch = %v, want 1.56", o.Pitch())
	}
	o.Rotate(0, -10)
	if o.Pitch() != -1.56 {
		t.Errorf("Pitch = %v, want -1.56", o.Pitch())
	}
}

func TestOrbitZoom(t *testing.T) {
	t.Run("speed grows with distance", func(t *testing.T) {
		o := NewOrbit(DefaultOrbitParams(), 1280, 720)
		o.SetDistance(10)
		if math.Abs(o.ZoomSpeed()-4) > 1e-12 {
			t.Errorf("ZoomSpeed = %v, want 4", o.ZoomSpeed())
		}
		o.SetDistance(1000)
		if o.ZoomSpeed() != 100 {
			t.Errorf("ZoomSpeed = %v, want cap 100", o.ZoomSpeed())
		}
	})

	t.Run("zoom in", func(t *testing.T) {
		o := NewOrbit(DefaultOrbitParams(), 1280, 720)
		o.SetDistance(10)
		o.Zoom(0.5)
		if math.Abs(o.Distance()-8) > 1e-12 {
			t.Errorf("Distance = %v, want 8", o.Distance())
		}
	})

	t.Run("minimum pushes focal point", func(t *testing.T) {
		o := NewOrbit(DefaultOrbitParams(), 1280, 720)
		o.SetDistance(1.5)
		fwd := o.Forward()
		o.Zoom(100)
		if o.Distance() != 1 {
			t.Errorf("Distance = %v, want 1", o.Distance())
		}
		if !vecNear(o.FocalPoint(), fwd, 1e-12) {
			t.Errorf("FocalPoint = %v, want %v", o.FocalPoint(), fwd)
		}
	})
}

func TestOrbitPan(t *testing.T) {
	p := DefaultOrbitParams()
	p.Pitch = 0
	o := NewOrbit(p, 1000, 1000)
	o.SetDistance(2)

	xs, ys := o.PanSpeed()
	want := 0.0366 - 0.1778 + 0.3021
	if math.Abs(xs-want) > 1e-12 || math.Abs(ys-want) > 1e-12 {
		t.Fatalf("PanSpeed = %v, %v, want %v", xs, ys, want)
	}

	o.Pan(1, 0)
	if !vecNear(o.FocalPoint(), r3.Vec{X: -2 * want}, 1e-9) {
		t.Errorf("FocalPoint = %v after panning right", o.FocalPoint())
	}
}
