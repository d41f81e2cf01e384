package engine

// InputFrame is the input state for one simulation tick.
type InputFrame struct {
	Forward    float64 // -1..1, along camera forward
	Right      float64 // -1..1, along camera right
	Fire       bool
	Scroll     float64 // Wheel delta, positive zooms in
	ToggleView bool
	OrbitX     float64 // Camera orbit delta in mouse units, scaled by the camera's rotation speed
	OrbitY     float64
}

// Segment holds a frame for a number of ticks.
type Segment struct {
	Frame InputFrame
	Ticks int
}

// ScriptedInput replays a fixed sequence of input segments, one frame per tick.
// Edge-triggered fields (Fire, ToggleView, Scroll) fire only on the first tick
// of their segment.
type ScriptedInput struct {
	segments []Segment
	loop     bool
	lockCam  bool

	seg     int
	tick    int
	current InputFrame
	first   bool
}

// NewScriptedInput creates a replayer. When loop is set the script restarts
// after the last segment, otherwise input goes idle.
func NewScriptedInput(segments []Segment, loop bool) *ScriptedInput {
	return &ScriptedInput{segments: segments, loop: loop}
}

// Advance moves to the next tick's frame.
func (s *ScriptedInput) Advance() {
	s.first = false
	if len(s.segments) == 0 || s.seg >= len(s.segments) {
		s.current = InputFrame{}
		return
	}
	if s.tick == 0 {
		s.first = true
	}
	s.current = s.segments[s.seg].Frame
	s.tick++
	if s.tick >= s.segments[s.seg].Ticks {
		s.tick = 0
		s.seg++
		if s.seg >= len(s.segments) && s.loop {
			s.seg = 0
		}
	}
}

// SetLockCamera sets the lock-camera flag reported to the player controller.
func (s *ScriptedInput) SetLockCamera(lock bool) {
	s.lockCam = lock
}

// MoveAxes returns the forward and right movement axes.
func (s *ScriptedInput) MoveAxes() (forward, right float64) {
	return s.current.Forward, s.current.Right
}

// FirePressed reports a trigger press this tick.
func (s *ScriptedInput) FirePressed() bool {
	return s.first && s.current.Fire
}

// ScrollDelta returns this tick's wheel movement.
func (s *ScriptedInput) ScrollDelta() float64 {
	if !s.first {
		return 0
	}
	return s.current.Scroll
}

// ToggleViewPressed reports a view toggle press this tick.
func (s *ScriptedInput) ToggleViewPressed() bool {
	return s.first && s.current.ToggleView
}

// OrbitDelta returns camera rotation this tick.
func (s *ScriptedInput) OrbitDelta() (dx, dy float64) {
	return s.current.OrbitX, s.current.OrbitY
}

// LockCamera reports whether the camera follows in play mode.
func (s *ScriptedInput) LockCamera() bool {
	return s.lockCam
}

// PatrolScript walks a wide loop while turning the camera and firing ahead,
// which keeps the streamer, flow field and population busy in headless runs.
func PatrolScript(ticksPerSecond int) []Segment {
	sec := func(s float64) int { return int(s * float64(ticksPerSecond)) }
	return []Segment{
		{Frame: InputFrame{Forward: 1}, Ticks: sec(4)},
		{Frame: InputFrame{Forward: 1, Fire: true}, Ticks: sec(0.6)},
		{Frame: InputFrame{Forward: 1, OrbitX: 0.02}, Ticks: sec(2)},
		{Frame: InputFrame{Right: 1, Fire: true}, Ticks: sec(0.6)},
		{Frame: InputFrame{Right: 1}, Ticks: sec(3)},
		{Frame: InputFrame{Fire: true}, Ticks: sec(0.6)},
		{Frame: InputFrame{Fire: true}, Ticks: sec(0.6)},
		{Frame: InputFrame{Forward: -1, Right: -1}, Ticks: sec(3)},
		{Frame: InputFrame{Scroll: -5}, Ticks: sec(1)},
		{Frame: InputFrame{Forward: 1, OrbitX: -0.02}, Ticks: sec(4)},
		{Frame: InputFrame{Scroll: 5, Fire: true}, Ticks: sec(1)},
	}
}
