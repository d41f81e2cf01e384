// Package game wires the streaming, navigation and population systems into a
// fixed-step simulation that runs headless or under the debug viewer.
package game

import (
	"log/slog"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Dong-David/the-last-echo/camera"
	"github.com/Dong-David/the-last-echo/components"
	"github.com/Dong-David/the-last-echo/config"
	"github.com/Dong-David/the-last-echo/engine"
	"github.com/Dong-David/the-last-echo/systems"
	"github.com/Dong-David/the-last-echo/telemetry"
)

// FrameInput is per-tick control input. Advance is called once before each
// simulation step.
type FrameInput interface {
	systems.Input
	Advance()
}

// Options configures a Game.
type Options struct {
	Config         *config.Config // nil uses the embedded defaults
	Seed           int64
	LogStats       bool
	StatsWindowSec float64 // 0 uses the config value
	OutputDir      string
	StepsPerUpdate int
	Input          FrameInput // nil replays the patrol script
	StatsCallback  func(telemetry.WindowStats)
}

// Stats is the read-only view of the simulation consumed by the HUD.
type Stats struct {
	Tick         int32
	SimTime      float64
	ActiveChunks int
	ActiveAgents int
	AgentCap     int
	RenderRadius int
	FlowCells    int
	FlowAsync    bool
	FlowBusy     bool
	LiveEffects  int

	Spawned    int
	Despawned  int
	Eliminated int
	Shots      int
	Hits       int

	PlayerPosition r3.Vec
	FirstPerson    bool
	CameraDistance float64

	PlayerSpeed        float64
	BaseRenderDistance int
	ZoomInfluence      float64
}

// Game holds the complete simulation state.
type Game struct {
	cfg *config.Config
	rng *rand.Rand
	dt  float64

	scene  *engine.Scene
	rigs   *engine.RigRegistry
	bodies *engine.BodyRegistry
	grid   systems.Grid
	cam    *camera.Orbit
	input  FrameInput

	streamer   *systems.ChunkStreamer
	population *systems.PopulationManager
	flow       *systems.FlowField
	asyncFlow  *systems.AsyncFlowField
	scheduler  systems.FlowScheduler
	costs      systems.CostSource
	steering   *systems.SteeringSystem
	effects    *systems.EffectSystem
	weapon     *systems.Weapon
	player     *systems.PlayerController

	// Telemetry
	perfCollector    *telemetry.PerfCollector
	collector        *telemetry.Collector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	registry         *systems.SystemRegistry
	statsCallback    func(telemetry.WindowStats)
	logStats         bool
	flowGeneration   int
	distances        []float64

	// State
	tick   int32
	paused bool
	speed  int // simulation steps per Update

	lastPerfLog time.Time
}

// NewGameWithOptions builds the world, the player and every system.
func NewGameWithOptions(opts Options) *Game {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Defaults()
	}
	speed := opts.StepsPerUpdate
	if speed < 1 {
		speed = 1
	}

	g := &Game{
		cfg:           cfg,
		rng:           rand.New(rand.NewSource(opts.Seed)),
		dt:            cfg.Physics.DT,
		scene:         engine.NewScene(),
		rigs:          engine.NewRigRegistry(),
		bodies:        engine.NewBodyRegistry(),
		grid:          systems.NewGrid(cfg.Grid.CellSize),
		cam:           camera.NewOrbit(orbitParams(cfg), float64(cfg.Screen.Width), float64(cfg.Screen.Height)),
		scheduler:     systems.FlowScheduler{Interval: cfg.FlowField.Interval},
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		registry:      systems.NewSystemRegistry(),
		statsCallback: opts.StatsCallback,
		logStats:      opts.LogStats,
		speed:         speed,
	}

	g.input = opts.Input
	if g.input == nil {
		ticksPerSecond := int(math.Round(1 / g.dt))
		g.input = engine.NewScriptedInput(engine.PatrolScript(ticksPerSecond), true)
	}

	// Agents
	zombieTemplate := g.rigs.CreateTemplate(engine.ZombieClips())
	g.population = systems.NewPopulationManager(
		g.scene, g.grid, populationParams(cfg),
		g.rigs, zombieTemplate, g.bodies, engine.AgentPrefab(), nil, g.rng,
	)

	// Terrain streaming; ambushes spawn through the population
	g.streamer = systems.NewChunkStreamer(g.scene, g.grid, streamParams(cfg), g.cam, g.population, g.rng)
	g.population.SetRadiusSource(g.streamer)

	// Navigation
	if cfg.FlowField.Obstacles.Enabled {
		g.costs = systems.NewNoiseCostSource(noiseCostParams(cfg))
	}
	if cfg.FlowField.Async {
		g.asyncFlow = systems.NewAsyncFlowField(g.grid, flowFieldParams(cfg))
		if g.costs != nil {
			g.asyncFlow.SetCostSource(g.costs)
		}
	} else {
		g.flow = systems.NewFlowField(g.grid, flowFieldParams(cfg))
		if g.costs != nil {
			g.flow.SetCostSource(g.costs)
		}
	}
	g.steering = systems.NewSteeringSystem(g.scene, g.grid, steeringParams(cfg))

	// Player
	playerTemplate := g.rigs.CreateTemplate(engine.PlayerClips())
	run := g.cloneRig(playerTemplate, 1, true)
	shoot := g.cloneRig(playerTemplate, cfg.Weapon.ShootClip, false)

	g.effects = systems.NewEffectSystem(g.scene)
	g.weapon = systems.NewWeapon(g.scene, weaponParams(cfg), g.effects, g.population, g.rigs, shoot)
	g.player = systems.NewPlayerController(
		g.scene, playerParams(cfg), r3.Vec{}, g.cam, g.rigs, run, g.weapon, g.bodies,
	)

	// Telemetry
	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}
	g.collector = telemetry.NewCollector(statsWindow, float32(g.dt))
	g.bookmarkDetector = telemetry.NewBookmarkDetector(10, cfg.Population.MaxAgents)

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			slog.Error("failed to create output manager", "error", err)
		} else {
			g.outputManager = om
			if err := om.WriteConfig(cfg); err != nil {
				slog.Error("failed to write config", "error", err)
			}
		}
	}

	// Stream the first ring before the first tick so the player never stands
	// on nothing.
	g.streamer.Advance(g.player.Position())

	return g
}

// cloneRig clones the template with clip bound. On failure the controller
// runs without that animator.
func (g *Game) cloneRig(template components.AnimatorHandle, clip int, loop bool) components.AnimatorHandle {
	h, err := g.rigs.Clone(template)
	if err != nil {
		slog.Warn("player_rig_clone_failed", "error", err)
		return 0
	}
	if err := g.rigs.BindClip(h, clip); err != nil {
		slog.Warn("player_rig_bind_failed", "clip", clip, "error", err)
	}
	g.rigs.SetLoop(h, loop)
	return h
}

// Update runs one or more simulation steps based on the speed setting.
func (g *Game) Update() {
	if g.paused {
		return
	}
	for i := 0; i < g.speed; i++ {
		g.Step()
	}
	g.maybeLogPerf()
}

// UpdateHeadless runs simulation steps without checking pause, for headless runs.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.speed; i++ {
		g.Step()
	}
}

// Step runs a single fixed tick.
func (g *Game) Step() {
	g.perfCollector.StartTick()
	dt := g.dt

	g.perfCollector.StartPhase(telemetry.PhasePlayer)
	g.input.Advance()
	pr := g.player.Update(g.input, dt)
	if pr.Shot.Fired {
		g.collector.RecordShot(pr.Shot.Hit)
	}
	playerPos := g.player.Position()

	g.perfCollector.StartPhase(telemetry.PhaseStreaming)
	failedBefore := g.population.Failed()
	sr := g.streamer.Advance(playerPos)
	g.collector.RecordTiles(sr.Created, sr.Destroyed)
	for i := 0; i < sr.Ambushes; i++ {
		g.collector.RecordSpawn(true)
	}

	g.perfCollector.StartPhase(telemetry.PhaseFlowField)
	g.updateFlowField(playerPos, dt)

	g.perfCollector.StartPhase(telemetry.PhasePopulation)
	tr := g.population.Tick(playerPos, dt)
	g.collector.RecordDespawns(tr.Despawned)
	if tr.Spawned {
		g.collector.RecordSpawn(false)
	}
	g.collector.RecordSpawnFailure(g.population.Failed() - failedBefore)

	g.perfCollector.StartPhase(telemetry.PhaseSteering)
	steer := g.steering.Update(g.population.Agents(), playerPos, g.flowSampler(), dt)
	g.collector.RecordSteered(steer.Processed)

	g.perfCollector.StartPhase(telemetry.PhaseEffects)
	g.effects.Update(dt)

	g.perfCollector.StartPhase(telemetry.PhaseServices)
	g.rigs.Advance(dt)
	g.population.SyncBodies(g.bodies)

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.tick++
	g.flushTelemetry()

	g.perfCollector.EndTick()
}

// updateFlowField recomputes toward the player at most once per interval.
func (g *Game) updateFlowField(target r3.Vec, dt float64) {
	if g.asyncFlow != nil {
		g.recordAsyncGeneration()
	}
	if !g.scheduler.Tick(dt) {
		return
	}
	if g.asyncFlow != nil {
		g.asyncFlow.Request(target)
		return
	}
	g.flow.Recompute(target)
	g.collector.RecordFlowRecompute(g.flow.LastWork())
}

// recordAsyncGeneration counts snapshots published since the last check.
func (g *Game) recordAsyncGeneration() {
	snap := g.asyncFlow.Snapshot()
	if gen := snap.Generation(); gen != g.flowGeneration {
		g.flowGeneration = gen
		g.collector.RecordFlowRecompute(0)
	}
}

// flowSampler returns the field steering reads this tick.
func (g *Game) flowSampler() systems.FlowSampler {
	if g.asyncFlow != nil {
		return g.asyncFlow
	}
	return g.flow
}

// FlowCells returns the size of the field steering currently reads.
func (g *Game) FlowCells() int {
	if g.asyncFlow != nil {
		return g.asyncFlow.Snapshot().Len()
	}
	return g.flow.Len()
}

// FlowDirection samples the current field at a cell without growing it.
func (g *Game) FlowDirection(c systems.Coord) (r3.Vec, bool) {
	return g.flowSampler().Direction(c)
}

// Stats returns the HUD counters.
func (g *Game) Stats() Stats {
	s := Stats{
		Tick:         g.tick,
		SimTime:      float64(g.tick) * g.dt,
		ActiveChunks: g.streamer.ActiveCount(),
		ActiveAgents: g.population.Count(),
		AgentCap:     g.population.Cap(),
		RenderRadius: g.streamer.Radius(),
		FlowCells:    g.FlowCells(),
		FlowAsync:    g.asyncFlow != nil,
		LiveEffects:  g.effects.Live(),

		Spawned:    g.population.Spawned(),
		Despawned:  g.population.Despawned(),
		Eliminated: g.population.Eliminated(),
		Shots:      g.weapon.Shots(),
		Hits:       g.weapon.Hits(),

		PlayerPosition: g.player.Position(),
		FirstPerson:    g.player.FirstPerson(),
		CameraDistance: g.cam.Distance(),

		PlayerSpeed:        g.player.Speed(),
		BaseRenderDistance: g.streamer.BaseRadius(),
		ZoomInfluence:      g.streamer.ZoomInfluence(),
	}
	if g.asyncFlow != nil {
		s.FlowBusy = g.asyncFlow.Busy()
	}
	return s
}

// SetPlayerSpeed changes the player's movement speed.
func (g *Game) SetPlayerSpeed(v float64) {
	if v < 0 {
		v = 0
	}
	g.player.SetSpeed(v)
}

// SetBaseRenderDistance changes the streaming radius before zoom.
func (g *Game) SetBaseRenderDistance(r int) {
	g.streamer.SetBaseRadius(r)
}

// SetZoomInfluence changes how much camera distance widens the ring.
func (g *Game) SetZoomInfluence(v float64) {
	g.streamer.SetZoomInfluence(v)
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 { return g.tick }

// DT returns the fixed step in seconds.
func (g *Game) DT() float64 { return g.dt }

// Paused reports whether Update is suspended.
func (g *Game) Paused() bool { return g.paused }

// SetPaused suspends or resumes Update.
func (g *Game) SetPaused(p bool) { g.paused = p }

// Speed returns the number of steps per Update.
func (g *Game) Speed() int { return g.speed }

// SetSpeed sets the number of steps per Update, clamped to [1, 10].
func (g *Game) SetSpeed(s int) {
	g.speed = max(1, min(s, 10))
}

// Scene returns the world the systems share.
func (g *Game) Scene() *engine.Scene { return g.scene }

// Camera returns the orbit camera.
func (g *Game) Camera() *camera.Orbit { return g.cam }

// Population returns the agent manager.
func (g *Game) Population() *systems.PopulationManager { return g.population }

// Streamer returns the tile streamer.
func (g *Game) Streamer() *systems.ChunkStreamer { return g.streamer }

// Player returns the player controller.
func (g *Game) Player() *systems.PlayerController { return g.player }

// Config returns the configuration the game was built from.
func (g *Game) Config() *config.Config { return g.cfg }

// Costs returns the obstacle source, or nil when obstacles are disabled.
func (g *Game) Costs() systems.CostSource { return g.costs }

// Grid returns the shared grid.
func (g *Game) Grid() systems.Grid { return g.grid }

// SteeringParams returns the steering settings in use.
func (g *Game) SteeringParams() systems.SteeringParams { return g.steering.Params() }

// Registry returns the phase metadata.
func (g *Game) Registry() *systems.SystemRegistry { return g.registry }

// PerfStats returns phase timing over the rolling window.
func (g *Game) PerfStats() telemetry.PerfStats { return g.perfCollector.Stats() }

// RecordFrame records frame timing in graphical mode.
func (g *Game) RecordFrame() { g.perfCollector.RecordFrame() }

// Unload releases every entity, service handle and output file.
func (g *Game) Unload() {
	g.effects.Clear()
	g.population.Clear()
	g.streamer.Clear()
	if g.asyncFlow != nil {
		g.asyncFlow.Stop()
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
