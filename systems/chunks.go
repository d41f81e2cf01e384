package systems

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Dong-David/the-last-echo/components"
	"github.com/Dong-David/the-last-echo/engine"
)

// ZoomSource reports the camera's current orbit distance.
type ZoomSource interface {
	Distance() float64
}

// AgentSpawner accepts spawn requests.
type AgentSpawner interface {
	Spawn(position r3.Vec) (ecs.Entity, bool)
}

// StreamParams controls tile streaming.
type StreamParams struct {
	BaseRadius      int
	ZoomInfluence   float64 // Camera distance per extra ring
	MinRadius       int
	MaxRadius       int
	TileOffsetY     float64
	TileScale       float64
	AmbushChance    float64
	AmbushExclusion int     // Chebyshev distance from the player cell inside which no ambush spawns
	GroundY         float64 // Height ambush spawns are snapped to
}

// DefaultStreamParams returns the standard streaming settings.
func DefaultStreamParams() StreamParams {
	return StreamParams{
		BaseRadius:      15,
		ZoomInfluence:   5,
		MinRadius:       1,
		MaxRadius:       30,
		TileOffsetY:     -2,
		TileScale:       2,
		AmbushChance:    0.15,
		AmbushExclusion: 2,
		GroundY:         -1.75,
	}
}

// StreamResult summarises one Advance.
type StreamResult struct {
	Created   int
	Destroyed int
	Ambushes  int // Spawn requests accepted by the spawner
}

// ChunkStreamer keeps a square of terrain tiles centred on the player. The
// active set always equals the Chebyshev-R neighbourhood of the player cell.
type ChunkStreamer struct {
	params  StreamParams
	grid    Grid
	scene   *engine.Scene
	zoom    ZoomSource
	spawner AgentSpawner
	rng     *rand.Rand

	tileMap *ecs.Map[components.Tile]

	active map[Coord]ecs.Entity
	radius int
	center Coord
	stale  []Coord

	totalCreated   int
	totalDestroyed int
	totalAmbushes  int
}

// NewChunkStreamer creates a streamer. zoom and spawner may be nil: a nil zoom
// reads as distance zero, a nil spawner disables ambushes.
func NewChunkStreamer(scene *engine.Scene, grid Grid, params StreamParams, zoom ZoomSource, spawner AgentSpawner, rng *rand.Rand) *ChunkStreamer {
	return &ChunkStreamer{
		params:  params,
		grid:    grid,
		scene:   scene,
		zoom:    zoom,
		spawner: spawner,
		rng:     rng,
		tileMap: ecs.NewMap[components.Tile](scene.World()),
		active:  make(map[Coord]ecs.Entity),
		radius:  clampInt(params.BaseRadius, params.MinRadius, params.MaxRadius),
	}
}

// SetSpawner replaces the ambush spawner.
func (s *ChunkStreamer) SetSpawner(sp AgentSpawner) {
	s.spawner = sp
}

// SetBaseRadius sets the radius at zero zoom.
func (s *ChunkStreamer) SetBaseRadius(r int) {
	s.params.BaseRadius = r
}

// BaseRadius returns the radius at zero zoom.
func (s *ChunkStreamer) BaseRadius() int {
	return s.params.BaseRadius
}

// SetZoomInfluence sets how much camera distance adds one ring. Non-positive
// values are ignored.
func (s *ChunkStreamer) SetZoomInfluence(v float64) {
	if v > 0 {
		s.params.ZoomInfluence = v
	}
}

// ZoomInfluence returns the camera distance per extra ring.
func (s *ChunkStreamer) ZoomInfluence() float64 {
	return s.params.ZoomInfluence
}

// radiusFor returns the ring radius for a camera distance.
func (s *ChunkStreamer) radiusFor(zoom float64) int {
	r := s.params.BaseRadius + int(math.Floor(zoom/s.params.ZoomInfluence))
	return clampInt(r, s.params.MinRadius, s.params.MaxRadius)
}

// Radius returns the ring radius used by the last Advance.
func (s *ChunkStreamer) Radius() int {
	return s.radius
}

// Center returns the player cell of the last Advance.
func (s *ChunkStreamer) Center() Coord {
	return s.center
}

// CellSize returns the tile edge length.
func (s *ChunkStreamer) CellSize() float64 {
	return s.grid.CellSize
}

// ActiveCount returns the number of live tiles.
func (s *ChunkStreamer) ActiveCount() int {
	return len(s.active)
}

// Active reports whether c has a live tile.
func (s *ChunkStreamer) Active(c Coord) bool {
	_, ok := s.active[c]
	return ok
}

// Tile returns the tile entity at c.
func (s *ChunkStreamer) Tile(c Coord) (ecs.Entity, bool) {
	e, ok := s.active[c]
	return e, ok
}

// Totals returns lifetime counts of created and destroyed tiles and accepted ambushes.
func (s *ChunkStreamer) Totals() (created, destroyed, ambushes int) {
	return s.totalCreated, s.totalDestroyed, s.totalAmbushes
}

// TileName returns the entity name used for the tile at c.
func TileName(c Coord) string {
	return fmt.Sprintf("MapGrid_%d_%d", c.X, c.Z)
}

// Advance streams tiles around playerPosition. The radius is read fresh from
// the zoom source every call.
func (s *ChunkStreamer) Advance(playerPosition r3.Vec) StreamResult {
	var res StreamResult

	zoom := 0.0
	if s.zoom != nil {
		zoom = s.zoom.Distance()
	}
	s.radius = s.radiusFor(zoom)
	s.center = s.grid.ToCell(playerPosition)
	r := s.radius

	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			c := Coord{X: s.center.X + dx, Z: s.center.Z + dz}
			if _, ok := s.active[c]; ok {
				continue
			}
			s.createTile(c)
			res.Created++

			if Chebyshev(c, s.center) > s.params.AmbushExclusion && s.rollAmbush() {
				if _, ok := s.spawner.Spawn(s.grid.ToWorld(c, s.params.GroundY)); ok {
					res.Ambushes++
				}
			}
		}
	}

	// Collect first, then delete
	s.stale = s.stale[:0]
	for c := range s.active {
		if Chebyshev(c, s.center) > r {
			s.stale = append(s.stale, c)
		}
	}
	for _, c := range s.stale {
		e := s.active[c]
		if s.scene.IsValid(e) {
			s.scene.DestroyEntity(e)
		}
		delete(s.active, c)
		res.Destroyed++
	}

	s.totalCreated += res.Created
	s.totalDestroyed += res.Destroyed
	s.totalAmbushes += res.Ambushes
	return res
}

func (s *ChunkStreamer) createTile(c Coord) {
	t := components.NewTransform(s.grid.ToWorld(c, s.params.TileOffsetY))
	t.Scale = r3.Vec{X: s.params.TileScale, Y: 1, Z: s.params.TileScale}
	e := s.scene.CreateEntityWith(TileName(c), t)
	s.tileMap.Add(e, &components.Tile{X: c.X, Z: c.Z})
	s.active[c] = e
}

func (s *ChunkStreamer) rollAmbush() bool {
	if s.spawner == nil || s.rng == nil || s.params.AmbushChance <= 0 {
		return false
	}
	return s.rng.Float64() < s.params.AmbushChance
}

// Clear destroys every tile.
func (s *ChunkStreamer) Clear() {
	for c, e := range s.active {
		if s.scene.IsValid(e) {
			s.scene.DestroyEntity(e)
		}
		delete(s.active, c)
		s.totalDestroyed++
	}
}
