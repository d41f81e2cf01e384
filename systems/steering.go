package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Dong-David/the-last-echo/components"
	"github.com/Dong-David/the-last-echo/engine"
)

// SteeringParams controls agent motion.
type SteeringParams struct {
	BaseSpeed        float64 // Units per second before the per-agent factor
	StopDistance     float64 // No translation at or inside this planar distance to the player
	TurnRate         float64 // Exponential smoothing rate for yaw
	WobbleFrequency  float64
	WobbleAmplitude  float64
	WobbleWeight     float64
	SeparationRadius float64
	SeparationWeight float64
}

// DefaultSteeringParams returns the standard steering settings.
func DefaultSteeringParams() SteeringParams {
	return SteeringParams{
		BaseSpeed:        3.0,
		StopDistance:     1.2,
		TurnRate:         5.0,
		WobbleFrequency:  2.5,
		WobbleAmplitude:  0.35,
		WobbleWeight:     1.0,
		SeparationRadius: 0.8,
		SeparationWeight: 0.5,
	}
}

// SteerResult summarises one Update.
type SteerResult struct {
	Valid     int // Agents with a live transform
	Processed int // Agents whose parity matched this tick
	Moved     int
}

// steerAgent is the per-tick working set for one valid agent.
type steerAgent struct {
	t     *components.Transform
	agent *components.Agent
}

// SteeringSystem moves agents toward the player along the flow field.
type SteeringSystem struct {
	params   SteeringParams
	grid     Grid
	scene    *engine.Scene
	agentMap *ecs.Map[components.Agent]

	tick uint64
	time float64

	working    []steerAgent
	hash       *SpatialHash
	candidates []int
}

// NewSteeringSystem creates a steering system over scene.
func NewSteeringSystem(scene *engine.Scene, grid Grid, params SteeringParams) *SteeringSystem {
	return &SteeringSystem{
		params:   params,
		grid:     grid,
		scene:    scene,
		agentMap: ecs.NewMap[components.Agent](scene.World()),
		hash:     NewSpatialHash(params.SeparationRadius),
	}
}

// Params returns the current steering settings.
func (s *SteeringSystem) Params() SteeringParams {
	return s.params
}

// SetBaseSpeed changes the agent base speed.
func (s *SteeringSystem) SetBaseSpeed(v float64) {
	s.params.BaseSpeed = v
}

// Tick returns the number of completed updates.
func (s *SteeringSystem) Tick() uint64 {
	return s.tick
}

// Time returns the accumulated simulation time driving the wobble.
func (s *SteeringSystem) Time() float64 {
	return s.time
}

// Update steers half the agents, alternating parity every call. field may
// be nil, in which case every agent heads straight for the player.
func (s *SteeringSystem) Update(agents []ecs.Entity, playerPosition r3.Vec, field FlowSampler, dt float64) SteerResult {
	s.tick++
	s.time += dt

	var res SteerResult

	s.working = s.working[:0]
	maxFactor := 0.0
	for _, e := range agents {
		t := s.scene.Transform(e)
		if t == nil || !s.agentMap.Has(e) {
			continue
		}
		a := s.agentMap.Get(e)
		s.working = append(s.working, steerAgent{t: t, agent: a})
		maxFactor = math.Max(maxFactor, math.Abs(a.SpeedFactor))
	}
	res.Valid = len(s.working)
	if res.Valid == 0 {
		return res
	}

	// Positions change during the pass. Buckets are sized so that any pair
	// within the separation radius after moving stays in adjacent buckets.
	maxStep := s.params.BaseSpeed * maxFactor * math.Abs(dt)
	s.hash.Reset(s.params.SeparationRadius + maxStep)
	for i, w := range s.working {
		s.hash.Insert(i, w.t.Position)
	}

	parity := s.tick % 2
	for i := range s.working {
		n := uint64(i + 1)
		if n%2 != parity {
			continue
		}
		res.Processed++
		if s.steer(i, playerPosition, field, dt) {
			res.Moved++
		}
	}
	return res
}

// steer updates one agent and reports whether it translated.
func (s *SteeringSystem) steer(i int, playerPosition r3.Vec, field FlowSampler, dt float64) bool {
	w := s.working[i]
	pos := w.t.Position

	base := s.baseDirection(pos, playerPosition, field)

	wobble := r3.Scale(
		math.Sin(s.time*s.params.WobbleFrequency+float64(w.agent.Seed))*s.params.WobbleAmplitude,
		perpendicular(base),
	)

	separation := s.separation(i, pos)

	composite := r3.Add(base, r3.Add(
		r3.Scale(s.params.WobbleWeight, wobble),
		r3.Scale(s.params.SeparationWeight, separation),
	))
	dir := normalizeOr(composite, base)

	target := yawRotation(yawToward(dir))
	w.t.Rotation = turnToward(w.t.Rotation, target, s.params.TurnRate, dt)

	moved := false
	stop := s.params.StopDistance
	if planarDistSq(pos, playerPosition) > stop*stop {
		step := s.params.BaseSpeed * w.agent.SpeedFactor * dt
		w.t.Position = r3.Add(pos, r3.Scale(step, facing(w.t.Rotation)))
		moved = true
	}
	w.t.Position.Y = w.agent.GroundY
	w.t.Dirty = true
	return moved
}

// baseDirection picks the flow direction at pos, then the planar heading to
// the player, then +Z.
func (s *SteeringSystem) baseDirection(pos, playerPosition r3.Vec, field FlowSampler) r3.Vec {
	if field != nil {
		if d, ok := field.Direction(s.grid.ToCell(pos)); ok && r3.Norm(d) > epsilon {
			return d
		}
	}
	return normalizeOr(planar(r3.Sub(playerPosition, pos)), forwardAxis)
}

// separation averages the push away from every agent inside the radius.
func (s *SteeringSystem) separation(i int, pos r3.Vec) r3.Vec {
	r := s.params.SeparationRadius
	rSq := r * r

	var sum r3.Vec
	count := 0
	s.candidates = s.hash.QueryInto(s.candidates[:0], pos)
	for _, j := range s.candidates {
		if j == i {
			continue
		}
		diff := planar(r3.Sub(pos, s.working[j].t.Position))
		distSq := r3.Dot(diff, diff)
		if distSq <= 0.001 || distSq >= rSq {
			continue
		}
		dist := math.Sqrt(distSq)
		sum = r3.Add(sum, r3.Scale((r-dist)/dist, diff))
		count++
	}
	if count == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/float64(count), sum)
}
