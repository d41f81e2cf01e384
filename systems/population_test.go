package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Dong-David/the-last-echo/engine"
)

type fixedRadius int

func (r fixedRadius) Radius() int { return int(r) }

type popFixture struct {
	scene  *engine.Scene
	rigs   *engine.RigRegistry
	bodies *engine.BodyRegistry
	pop    *PopulationManager
}

func newPopFixture(params PopulationParams, radius int) *popFixture {
	scene := engine.NewScene()
	rigs := engine.NewRigRegistry()
	bodies := engine.NewBodyRegistry()
	template := rigs.CreateTemplate(engine.ZombieClips())
	pop := NewPopulationManager(scene, NewGrid(2.0), params, rigs, template, bodies,
		engine.AgentPrefab(), fixedRadius(radius), rand.New(rand.NewSource(7)))
	return &popFixture{
		scene:  scene,
		rigs:   rigs,
		bodies: bodies,
		pop:    pop,
	}
}

func TestPopulationCap(t *testing.T) {
	f := newPopFixture(DefaultPopulationParams(), 1)
	perAgent := 1 + engine.AgentPrefab().Size()

	for i := 0; i < 50; i++ {
		if _, ok := f.pop.Spawn(r3.Vec{X: float64(i) * 0.1, Y: -1.75}); !ok {
			t.Fatalf("spawn %d failed", i+1)
		}
	}
	if _, ok := f.pop.Spawn(r3.Vec{}); ok {
		t.Error("51st spawn should be refused")
	}
	if f.pop.Count() != 50 || f.bodies.Count() != 50 || f.rigs.Count() != 51 {
		t.Errorf("count %d, bodies %d, rigs %d", f.pop.Count(), f.bodies.Count(), f.rigs.Count())
	}
	if f.scene.Count() != 50*perAgent {
		t.Errorf("scene holds %d entities, want %d", f.scene.Count(), 50*perAgent)
	}

	for i := 0; i < 20; i++ {
		f.pop.Tick(r3.Vec{}, 1.0)
		if f.pop.Count() > f.pop.Cap() {
			t.Fatalf("population %d exceeds cap", f.pop.Count())
		}
	}
	if f.pop.Count() != 50 {
		t.Errorf("Count = %d, want 50", f.pop.Count())
	}
}

func TestPopulationDespawnThreshold(t *testing.T) {
	f := newPopFixture(DefaultPopulationParams(), 1)
	// R=1, cell 2: 1*2*2 + 2*1.5
	if got := f.pop.DespawnDistance(); got != 7 {
		t.Fatalf("DespawnDistance = %v, want 7", got)
	}

	tests := []struct {
		name string
		pos  r3.Vec
		kept bool
	}{
		{"inside", r3.Vec{X: 3, Y: -1.75, Z: 3}, true},
		{"exactly at threshold", r3.Vec{X: 7, Y: -1.75}, true},
		{"height ignored", r3.Vec{Z: -7, Y: 50}, true},
		{"just beyond", r3.Vec{X: 7.000001, Y: -1.75}, false},
		{"diagonal beyond", r3.Vec{X: 5, Y: -1.75, Z: 5}, false},
	}

	entities := make([]ecs.Entity, len(tests))
	for i, tc := range tests {
		e, ok := f.pop.Spawn(tc.pos)
		if !ok {
			t.Fatalf("%s: spawn failed", tc.name)
		}
		entities[i] = e
	}

	res := f.pop.Tick(r3.Vec{}, 0)
	if res.Despawned != 2 || res.Spawned {
		t.Errorf("Tick = %+v, want 2 despawned and no spawn", res)
	}
	for i, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.scene.IsValid(entities[i]); got != tc.kept {
				t.Errorf("entity valid = %v, want %v", got, tc.kept)
			}
			if got := f.pop.indexOf(entities[i]) >= 0; got != tc.kept {
				t.Errorf("in active list = %v, want %v", got, tc.kept)
			}
		})
	}
}

func TestPopulationAmbientSpawn(t *testing.T) {
	f := newPopFixture(DefaultPopulationParams(), 1)
	player := r3.Vec{X: 10, Y: 3, Z: -4}

	if res := f.pop.Tick(player, 0.5); res.Spawned {
		t.Fatal("spawned before the interval elapsed")
	}
	res := f.pop.Tick(player, 0.5)
	if !res.Spawned || f.pop.Count() != 1 {
		t.Fatalf("Tick = %+v, count %d, want one spawn", res, f.pop.Count())
	}
	if res := f.pop.Tick(player, 0.5); res.Spawned {
		t.Error("timer should reset after spawning")
	}

	e := f.pop.Agents()[0]
	pos := f.scene.Transform(e).Position
	if d := math.Sqrt(planarDistSq(pos, player)); math.Abs(d-f.pop.SpawnDistance()) > 1e-9 {
		t.Errorf("spawn distance %v, want %v", d, f.pop.SpawnDistance())
	}
	if pos.Y != -1.75 {
		t.Errorf("spawn Y = %v, want -1.75", pos.Y)
	}

	a := f.pop.Agent(e)
	if a == nil || a.ID != 1 || a.GroundY != -1.75 {
		t.Fatalf("Agent = %+v", a)
	}
	if a.SpeedFactor < 0.8 || a.SpeedFactor >= 1.2 {
		t.Errorf("SpeedFactor %v outside [0.8, 1.2)", a.SpeedFactor)
	}
	st, ok := f.rigs.State(a.Animator)
	if !ok || st.Clip != 4 || !st.Playing {
		t.Errorf("animator state = %+v %v, want clip 4 playing", st, ok)
	}
	if _, ok := f.bodies.Body(a.Body); !ok {
		t.Error("agent has no body")
	}
}

func TestPopulationDespawnReleasesResources(t *testing.T) {
	f := newPopFixture(DefaultPopulationParams(), 1)
	e, _ := f.pop.Spawn(r3.Vec{Y: -1.75})
	keep, _ := f.pop.Spawn(r3.Vec{X: 1, Y: -1.75})

	if !f.pop.Despawn(e) {
		t.Fatal("Despawn returned false")
	}
	if f.pop.Despawn(e) {
		t.Error("second Despawn should be a no-op")
	}
	if f.pop.Despawn(ecs.Entity{}) {
		t.Error("Despawn of the zero entity should be a no-op")
	}

	if f.pop.Count() != 1 || f.pop.Agents()[0] != keep {
		t.Errorf("active list = %v", f.pop.Agents())
	}
	if f.bodies.Count() != 1 || f.rigs.Count() != 2 {
		t.Errorf("bodies %d, rigs %d after despawn", f.bodies.Count(), f.rigs.Count())
	}
	if f.scene.Count() != 1+engine.AgentPrefab().Size() {
		t.Errorf("scene count %d, subtree not destroyed", f.scene.Count())
	}

	if !f.pop.Eliminate(keep) || f.pop.Eliminated() != 1 || f.pop.Despawned() != 2 {
		t.Errorf("eliminated %d despawned %d", f.pop.Eliminated(), f.pop.Despawned())
	}
	if f.scene.Count() != 0 || f.bodies.Count() != 0 || f.rigs.Count() != 1 {
		t.Errorf("leaks: scene %d bodies %d rigs %d", f.scene.Count(), f.bodies.Count(), f.rigs.Count())
	}
}

func TestPopulationStaleHandles(t *testing.T) {
	f := newPopFixture(DefaultPopulationParams(), 1)
	e, _ := f.pop.Spawn(r3.Vec{Y: -1.75})
	f.pop.Spawn(r3.Vec{X: 1, Y: -1.75})

	// Destroyed behind the manager's back
	f.scene.DestroyHierarchy(e)

	res := f.pop.Tick(r3.Vec{}, 0)
	if res.Stale != 1 || res.Despawned != 0 {
		t.Errorf("Tick = %+v, want 1 stale", res)
	}
	if f.pop.Count() != 1 || f.bodies.Count() != 1 || f.rigs.Count() != 2 {
		t.Errorf("count %d bodies %d rigs %d", f.pop.Count(), f.bodies.Count(), f.rigs.Count())
	}
}

func TestPopulationBodyFailureRollsBack(t *testing.T) {
	p := DefaultPopulationParams()
	p.Body.Radius = 0
	f := newPopFixture(p, 1)

	if _, ok := f.pop.Spawn(r3.Vec{}); ok {
		t.Fatal("spawn with an invalid body should fail")
	}
	if f.pop.Count() != 0 || f.pop.Failed() != 1 || f.pop.Spawned() != 0 {
		t.Errorf("count %d failed %d spawned %d", f.pop.Count(), f.pop.Failed(), f.pop.Spawned())
	}
	if f.scene.Count() != 0 || f.rigs.Count() != 1 {
		t.Errorf("rollback left scene %d rigs %d", f.scene.Count(), f.rigs.Count())
	}
}

func TestPopulationCloneFailureProceeds(t *testing.T) {
	scene := engine.NewScene()
	rigs := engine.NewRigRegistry()
	bodies := engine.NewBodyRegistry()
	pop := NewPopulationManager(scene, NewGrid(2.0), DefaultPopulationParams(), rigs, 999, bodies,
		nil, fixedRadius(1), rand.New(rand.NewSource(1)))

	e, ok := pop.Spawn(r3.Vec{Y: -1.75})
	if !ok {
		t.Fatal("clone failure should not block the spawn")
	}
	if a := pop.Agent(e); a == nil || a.Animator != 0 || a.Body == 0 {
		t.Errorf("Agent = %+v, want no animator and a body", a)
	}
	if scene.Count() != 1 {
		t.Errorf("scene count %d, want the root only without a prefab", scene.Count())
	}
}

func TestPopulationSyncBodies(t *testing.T) {
	f := newPopFixture(DefaultPopulationParams(), 1)
	e, _ := f.pop.Spawn(r3.Vec{Y: -1.75})

	tr := f.scene.Transform(e)
	tr.Position = r3.Vec{X: 3, Y: -1.75, Z: 4}
	tr.Rotation = yawRotation(1)
	f.pop.SyncBodies(f.bodies)

	b, _ := f.bodies.Body(f.pop.Agent(e).Body)
	if b.Position != tr.Position || b.Rotation != tr.Rotation {
		t.Errorf("body pose %v %v, want %v %v", b.Position, b.Rotation, tr.Position, tr.Rotation)
	}
}

func TestPopulationClear(t *testing.T) {
	f := newPopFixture(DefaultPopulationParams(), 2)
	for i := 0; i < 10; i++ {
		f.pop.Spawn(r3.Vec{X: float64(i), Y: -1.75})
	}
	f.pop.Clear()

	if f.pop.Count() != 0 || f.scene.Count() != 0 || f.bodies.Count() != 0 || f.rigs.Count() != 1 {
		t.Errorf("Clear left count %d scene %d bodies %d rigs %d",
			f.pop.Count(), f.scene.Count(), f.bodies.Count(), f.rigs.Count())
	}
	if f.pop.Despawned() != 10 {
		t.Errorf("Despawned = %d, want 10", f.pop.Despawned())
	}
}

func TestAgentSeedsDistinct(t *testing.T) {
	seen := make(map[uint32]bool)
	for id := uint32(1); id <= 1000; id++ {
		s := agentSeed(id)
		if seen[s] {
			t.Fatalf("seed collision at id %d", id)
		}
		seen[s] = true
	}
}

func TestPopulationAgentLookup(t *testing.T) {
	f := newPopFixture(DefaultPopulationParams(), 1)
	e, ok := f.pop.Spawn(r3.Vec{Y: -1.75})
	if !ok {
		t.Fatal("spawn failed")
	}
	plain := f.scene.CreateEntity("Rock")

	tests := []struct {
		name string
		e    ecs.Entity
		want bool
	}{
		{"agent", e, true},
		{"entity without agent", plain, false},
		{"zero entity", ecs.Entity{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.pop.Agent(tc.e) != nil; got != tc.want {
				t.Errorf("Agent present = %v, want %v", got, tc.want)
			}
		})
	}

	f.scene.DestroyEntity(e)
	if f.pop.Agent(e) != nil {
		t.Error("destroyed entity still resolves to an agent")
	}
}
