package systems

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Dong-David/the-last-echo/components"
	"github.com/Dong-David/the-last-echo/engine"
)

// AgentEntityName is the scene name of every agent root.
const AgentEntityName = "Zombie_Minion"

// Animator is the animation service.
type Animator interface {
	Clone(src components.AnimatorHandle) (components.AnimatorHandle, error)
	Clips(h components.AnimatorHandle) []engine.Clip
	BindClip(h components.AnimatorHandle, clip int) error
	Play(h components.AnimatorHandle)
	Pause(h components.AnimatorHandle)
	Destroy(h components.AnimatorHandle)
}

// Physics is the body service.
type Physics interface {
	CreateBody(cfg engine.BodyConfig) (components.BodyHandle, error)
	DestroyBody(h components.BodyHandle)
}

// KinematicMover drives kinematic bodies to a target pose.
type KinematicMover interface {
	MoveKinematic(h components.BodyHandle, pos r3.Vec, rot quat.Number) error
}

// RadiusSource reports the current streaming ring radius in cells.
type RadiusSource interface {
	Radius() int
}

// AgentBodyParams is the kinematic capsule given to each agent.
type AgentBodyParams struct {
	Radius      float64
	HalfHeight  float64
	Friction    float64
	Restitution float64
}

// PopulationParams controls spawning and culling.
type PopulationParams struct {
	MaxAgents     int
	SpawnInterval float64 // Seconds between ambient spawns
	RingScale     float64 // Multiplier on R*cellSize for both cull and spawn distance
	DespawnMargin float64 // Cells added to the cull distance
	SpawnMargin   float64 // Cells added to the ambient spawn distance
	GroundY       float64
	AnimationClip int
	Body          AgentBodyParams
}

// DefaultPopulationParams returns the standard population settings.
func DefaultPopulationParams() PopulationParams {
	return PopulationParams{
		MaxAgents:     50,
		SpawnInterval: 1.0,
		RingScale:     2.0,
		DespawnMargin: 1.5,
		SpawnMargin:   0.5,
		GroundY:       -1.75,
		AnimationClip: 4,
		Body: AgentBodyParams{
			Radius:      0.35,
			HalfHeight:  0.9,
			Friction:    0.5,
			Restitution: 0,
		},
	}
}

// TickResult summarises one population Tick.
type TickResult struct {
	Despawned int
	Stale     int // Handles dropped because their entity was already gone
	Spawned   bool
}

// agentResources remembers service handles per entity so they can be
// released even if the entity was destroyed elsewhere.
type agentResources struct {
	animator components.AnimatorHandle
	body     components.BodyHandle
}

// PopulationManager owns the ordered list of live agents.
type PopulationManager struct {
	params   PopulationParams
	grid     Grid
	scene    *engine.Scene
	anim     Animator
	physics  Physics
	template components.AnimatorHandle
	prefab   *engine.Prefab
	radius   RadiusSource
	rng      *rand.Rand

	agentMap *ecs.Map[components.Agent]

	agents     []ecs.Entity
	resources  map[ecs.Entity]agentResources
	nextID     uint32
	spawnTimer float64

	spawned    int
	despawned  int
	eliminated int
	failed     int
}

// NewPopulationManager creates a manager. anim may be nil to run without
// animation; template is the animator cloned for each agent.
func NewPopulationManager(
	scene *engine.Scene,
	grid Grid,
	params PopulationParams,
	anim Animator,
	template components.AnimatorHandle,
	physics Physics,
	prefab *engine.Prefab,
	radius RadiusSource,
	rng *rand.Rand,
) *PopulationManager {
	return &PopulationManager{
		params:    params,
		grid:      grid,
		scene:     scene,
		anim:      anim,
		physics:   physics,
		template:  template,
		prefab:    prefab,
		radius:    radius,
		rng:       rng,
		agentMap:  ecs.NewMap[components.Agent](scene.World()),
		agents:    make([]ecs.Entity, 0, params.MaxAgents),
		resources: make(map[ecs.Entity]agentResources, params.MaxAgents),
	}
}

// SetRadiusSource sets where the ring radius is read from.
func (p *PopulationManager) SetRadiusSource(r RadiusSource) {
	p.radius = r
}

// Agents returns the live agents in spawn order. The slice is owned by the manager.
func (p *PopulationManager) Agents() []ecs.Entity {
	return p.agents
}

// Count returns the number of live agents.
func (p *PopulationManager) Count() int {
	return len(p.agents)
}

// Cap returns the population limit.
func (p *PopulationManager) Cap() int {
	return p.params.MaxAgents
}

// Spawned returns the lifetime number of successful spawns.
func (p *PopulationManager) Spawned() int { return p.spawned }

// Despawned returns the lifetime number of despawns, eliminations included.
func (p *PopulationManager) Despawned() int { return p.despawned }

// Eliminated returns the lifetime number of agents removed by Eliminate.
func (p *PopulationManager) Eliminated() int { return p.eliminated }

// Failed returns the lifetime number of spawns rolled back on body failure.
func (p *PopulationManager) Failed() int { return p.failed }

// Agent returns the agent component of e, or nil.
func (p *PopulationManager) Agent(e ecs.Entity) *components.Agent {
	if !p.scene.IsValid(e) || !p.agentMap.Has(e) {
		return nil
	}
	return p.agentMap.Get(e)
}

// ringRadius returns R*cellSize*RingScale in world units.
func (p *PopulationManager) ringRadius() float64 {
	r := 0
	if p.radius != nil {
		r = p.radius.Radius()
	}
	return float64(r) * p.grid.CellSize * p.params.RingScale
}

// DespawnDistance returns the planar distance beyond which agents are culled.
func (p *PopulationManager) DespawnDistance() float64 {
	return p.ringRadius() + p.grid.CellSize*p.params.DespawnMargin
}

// SpawnDistance returns the ambient spawn distance from the player.
func (p *PopulationManager) SpawnDistance() float64 {
	return p.ringRadius() + p.grid.CellSize*p.params.SpawnMargin
}

// agentSeed derives a stable per-agent seed from its identifier.
func agentSeed(id uint32) uint32 {
	return id * 2654435761
}

// Spawn creates an agent at position. It does nothing and returns false when
// the population is full or the physics body cannot be created.
func (p *PopulationManager) Spawn(position r3.Vec) (ecs.Entity, bool) {
	if len(p.agents) >= p.params.MaxAgents {
		return ecs.Entity{}, false
	}

	p.nextID++
	id := p.nextID
	seed := agentSeed(id)

	animator := p.cloneAnimator(id)

	e := p.scene.CreateEntityWith(AgentEntityName, components.NewTransform(position))
	if p.prefab != nil {
		p.scene.Instantiate(p.prefab, e)
	}

	body, err := p.physics.CreateBody(engine.BodyConfig{
		Motion:      engine.MotionKinematic,
		Shape:       engine.ShapeCapsule,
		Size:        r3.Vec{X: p.params.Body.Radius, Y: p.params.Body.HalfHeight},
		Position:    position,
		Rotation:    components.IdentityRotation,
		Friction:    p.params.Body.Friction,
		Restitution: p.params.Body.Restitution,
	})
	if err != nil {
		slog.Warn("agent_body_failed", "id", id, "error", err)
		if animator != 0 {
			p.anim.Destroy(animator)
		}
		p.scene.DestroyHierarchy(e)
		p.failed++
		return ecs.Entity{}, false
	}

	p.agentMap.Add(e, &components.Agent{
		ID:          id,
		Seed:        seed,
		GroundY:     position.Y,
		SpeedFactor: components.SpeedFactorForSeed(seed),
		Animator:    animator,
		Body:        body,
	})
	p.resources[e] = agentResources{animator: animator, body: body}
	p.agents = append(p.agents, e)
	p.spawned++
	return e, true
}

// cloneAnimator clones the template and starts the walk clip. Failures are
// logged and the agent proceeds unanimated.
func (p *PopulationManager) cloneAnimator(id uint32) components.AnimatorHandle {
	if p.anim == nil || p.template == 0 {
		return 0
	}
	h, err := p.anim.Clone(p.template)
	if err != nil {
		slog.Warn("agent_animator_clone_failed", "id", id, "error", err)
		return 0
	}
	if err := p.anim.BindClip(h, p.params.AnimationClip); err != nil {
		slog.Warn("agent_animator_bind_failed", "id", id, "clip", p.params.AnimationClip, "error", err)
	}
	p.anim.Play(h)
	return h
}

// Despawn releases e's animator and body, destroys its subtree and removes
// it from the active list. Unknown or already-removed entities are ignored.
func (p *PopulationManager) Despawn(e ecs.Entity) bool {
	idx := p.indexOf(e)
	if idx < 0 {
		return false
	}
	p.release(e)
	p.agents = append(p.agents[:idx], p.agents[idx+1:]...)
	p.despawned++
	return true
}

// Eliminate is Despawn for agents killed by the player.
func (p *PopulationManager) Eliminate(e ecs.Entity) bool {
	if !p.Despawn(e) {
		return false
	}
	p.eliminated++
	return true
}

// release tears down everything owned by e. Safe on a destroyed entity.
func (p *PopulationManager) release(e ecs.Entity) {
	if res, ok := p.resources[e]; ok {
		if res.animator != 0 && p.anim != nil {
			p.anim.Destroy(res.animator)
		}
		if res.body != 0 {
			p.physics.DestroyBody(res.body)
		}
		delete(p.resources, e)
	}
	p.scene.DestroyHierarchy(e)
}

func (p *PopulationManager) indexOf(e ecs.Entity) int {
	for i, a := range p.agents {
		if a == e {
			return i
		}
	}
	return -1
}

// Tick culls distant agents and runs the ambient spawn timer.
func (p *PopulationManager) Tick(playerPosition r3.Vec, dt float64) TickResult {
	var res TickResult

	limit := p.DespawnDistance()
	limitSq := limit * limit

	kept := p.agents[:0]
	for _, e := range p.agents {
		t := p.scene.Transform(e)
		if t == nil {
			p.release(e)
			res.Stale++
			continue
		}
		if planarDistSq(playerPosition, t.Position) > limitSq {
			p.release(e)
			res.Despawned++
			continue
		}
		kept = append(kept, e)
	}
	clear(p.agents[len(kept):])
	p.agents = kept
	p.despawned += res.Despawned

	p.spawnTimer += dt
	if p.spawnTimer >= p.params.SpawnInterval {
		p.spawnTimer = 0
		if len(p.agents) < p.params.MaxAgents {
			angle := p.rng.Float64() * 2 * math.Pi
			dist := p.SpawnDistance()
			pos := r3.Vec{
				X: playerPosition.X + math.Cos(angle)*dist,
				Y: p.params.GroundY,
				Z: playerPosition.Z + math.Sin(angle)*dist,
			}
			_, res.Spawned = p.Spawn(pos)
		}
	}
	return res
}

// SyncBodies pushes each agent's pose to its kinematic body.
func (p *PopulationManager) SyncBodies(mover KinematicMover) {
	for _, e := range p.agents {
		t := p.scene.Transform(e)
		if t == nil {
			continue
		}
		if res, ok := p.resources[e]; ok && res.body != 0 {
			if err := mover.MoveKinematic(res.body, t.Position, t.Rotation); err != nil {
				slog.Debug("agent_body_sync_failed", "error", err)
			}
		}
	}
}

// Clear despawns every agent.
func (p *PopulationManager) Clear() {
	for _, e := range p.agents {
		p.release(e)
		p.despawned++
	}
	clear(p.agents)
	p.agents = p.agents[:0]
}
