// Package camera provides the orbit camera that drives streaming and the
// top-down view used by the debug viewer.
package camera

// View maps the world's XZ plane onto the screen for the top-down viewer.
// Screen Y grows downward and follows world +Z.
type View struct {
	// Centre of the view in world coordinates
	X, Z float32

	// Pixels per world unit
	Zoom float32

	ViewportW, ViewportH float32

	MinZoom, MaxZoom float32
}

// NewView creates a view centred on the origin.
func NewView(viewportW, viewportH float32) *View {
	return &View{
		Zoom:      8,
		ViewportW: viewportW,
		ViewportH: viewportH,
		MinZoom:   0.5,
		MaxZoom:   64,
	}
}

// WorldToScreen converts world coordinates to screen coordinates.
func (v *View) WorldToScreen(wx, wz float32) (sx, sy float32) {
	sx = v.ViewportW/2 + (wx-v.X)*v.Zoom
	sy = v.ViewportH/2 + (wz-v.Z)*v.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (v *View) ScreenToWorld(sx, sy float32) (wx, wz float32) {
	wx = v.X + (sx-v.ViewportW/2)/v.Zoom
	wz = v.Z + (sy-v.ViewportH/2)/v.Zoom
	return wx, wz
}

// IsVisible returns true if a circle at (wx, wz) with the given radius
// could be on screen.
func (v *View) IsVisible(wx, wz, radius float32) bool {
	halfW := v.ViewportW/(2*v.Zoom) + radius
	halfH := v.ViewportH/(2*v.Zoom) + radius
	return absf(wx-v.X) <= halfW && absf(wz-v.Z) <= halfH
}

// Follow centres the view on a world point.
func (v *View) Follow(wx, wz float32) {
	v.X, v.Z = wx, wz
}

// Resize updates viewport dimensions.
func (v *View) Resize(viewportW, viewportH float32) {
	v.ViewportW = viewportW
	v.ViewportH = viewportH
}

// Pan moves the view by the given delta in screen pixels.
func (v *View) Pan(dx, dy float32) {
	v.X += dx / v.Zoom
	v.Z += dy / v.Zoom
}

// SetZoom sets the zoom level, clamped to min/max.
func (v *View) SetZoom(zoom float32) {
	v.Zoom = clamp(zoom, v.MinZoom, v.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (v *View) ZoomBy(factor float32) {
	v.SetZoom(v.Zoom * factor)
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area.
func (v *View) VisibleWorldBounds() (minX, minZ, maxX, maxZ float32) {
	halfW := v.ViewportW / (2 * v.Zoom)
	halfH := v.ViewportH / (2 * v.Zoom)
	return v.X - halfW, v.Z - halfH, v.X + halfW, v.Z + halfH
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
