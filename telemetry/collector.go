// Package telemetry provides window statistics, phase timing, bookmarks and CSV
// output for simulation runs.
package telemetry

import "math"

// WorldSample is the state read from the simulation when a window closes.
type WorldSample struct {
	Agents       int
	Chunks       int
	RenderRadius int
	FlowCells    int
	PlayerX      float64
	PlayerZ      float64
	Distances    []float64 // Planar agent-to-player distances
}

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	windowStartTick int32

	// Event counters for current window
	ambientSpawns  int
	ambushSpawns   int
	despawns       int
	eliminations   int
	spawnFailures  int
	tilesCreated   int
	tilesDestroyed int
	shots          int
	hits           int
	flowRecomputes int
	flowWork       int
	steered        int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(math.Round(windowDurationSec / float64(dt)))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordSpawn records an accepted spawn.
func (c *Collector) RecordSpawn(ambush bool) {
	if ambush {
		c.ambushSpawns++
	} else {
		c.ambientSpawns++
	}
}

// RecordSpawnFailure records a spawn rolled back by a service failure.
func (c *Collector) RecordSpawnFailure(n int) {
	c.spawnFailures += n
}

// RecordDespawns records agents culled by distance.
func (c *Collector) RecordDespawns(n int) {
	c.despawns += n
}

// RecordTiles records tiles streamed in and out.
func (c *Collector) RecordTiles(created, destroyed int) {
	c.tilesCreated += created
	c.tilesDestroyed += destroyed
}

// RecordShot records a weapon discharge.
func (c *Collector) RecordShot(hit bool) {
	c.shots++
	if hit {
		c.hits++
		c.eliminations++
	}
}

// RecordFlowRecompute records a completed flow field pass and its work.
func (c *Collector) RecordFlowRecompute(work int) {
	c.flowRecomputes++
	c.flowWork += work
}

// RecordSteered records agents processed by a steering pass.
func (c *Collector) RecordSteered(n int) {
	c.steered += n
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, world WorldSample) WindowStats {
	var hitRate, flowWork float64
	if c.shots > 0 {
		hitRate = float64(c.hits) / float64(c.shots)
	}
	if c.flowRecomputes > 0 {
		flowWork = float64(c.flowWork) / float64(c.flowRecomputes)
	}

	mean, std, p10, p50, p90 := ComputeDistanceStats(world.Distances)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		Agents:       world.Agents,
		Chunks:       world.Chunks,
		RenderRadius: world.RenderRadius,
		FlowCells:    world.FlowCells,
		PlayerX:      world.PlayerX,
		PlayerZ:      world.PlayerZ,

		AmbientSpawns:  c.ambientSpawns,
		AmbushSpawns:   c.ambushSpawns,
		Despawns:       c.despawns,
		Eliminations:   c.eliminations,
		SpawnFailures:  c.spawnFailures,
		TilesCreated:   c.tilesCreated,
		TilesDestroyed: c.tilesDestroyed,

		Shots:   c.shots,
		Hits:    c.hits,
		HitRate: hitRate,

		FlowRecomputes: c.flowRecomputes,
		FlowWorkMean:   flowWork,
		AgentsSteered:  c.steered,

		DistanceMean: mean,
		DistanceStd:  std,
		DistanceP10:  p10,
		DistanceP50:  p50,
		DistanceP90:  p90,
	}

	c.windowStartTick = currentTick
	c.ambientSpawns = 0
	c.ambushSpawns = 0
	c.despawns = 0
	c.eliminations = 0
	c.spawnFailures = 0
	c.tilesCreated = 0
	c.tilesDestroyed = 0
	c.shots = 0
	c.hits = 0
	c.flowRecomputes = 0
	c.flowWork = 0
	c.steered = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
