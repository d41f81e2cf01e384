package main

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/Dong-David/the-last-echo/config"
	"github.com/Dong-David/the-last-echo/game"
	"github.com/Dong-David/the-last-echo/systems"
	"github.com/Dong-David/the-last-echo/telemetry"
)

// Fitness weights.
const (
	overlapWeight  = 10.0
	distanceWeight = 1.0
	idleWeight     = 0.5

	noCrowdPenalty = 1e4 // distance term when no window had agents

	warmupSec      = 5.0 // skip the first sim-seconds while the crowd forms
	sampleEverySec = 0.5
)

// FitnessEvaluator runs headless patrol simulations and scores the crowd.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64

	mu          sync.Mutex
	lastOverlap float64 // mean overlapping pairs from the most recent Evaluate call
	lastReach   float64 // mean median distance from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 5.0,
	}
}

// LastBreakdown returns the overlap and distance terms of the most recent
// evaluation.
func (fe *FitnessEvaluator) LastBreakdown() (overlap, reach float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastOverlap, fe.lastReach
}

// runResult holds the results from a single simulation run.
type runResult struct {
	overlaps    []float64               // overlapping pairs per sample
	windowStats []telemetry.WindowStats // collected via StatsCallback each window
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]*runResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	fitness := make([]float64, len(results))
	overlap := make([]float64, len(results))
	reach := make([]float64, len(results))
	for i, r := range results {
		fitness[i], overlap[i], reach[i] = fe.computeFitness(r)
	}

	fe.mu.Lock()
	fe.lastOverlap = stat.Mean(overlap, nil)
	fe.lastReach = stat.Mean(reach, nil)
	fe.mu.Unlock()

	return stat.Mean(fitness, nil)
}

// runSimulation executes a single headless run on the patrol script.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	result := &runResult{}
	g := game.NewGameWithOptions(game.Options{
		Seed:           seed,
		StatsWindowSec: fe.statsWindow,
		StepsPerUpdate: 1,
		Config:         cfg,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	defer g.Unload()

	dt := cfg.Physics.DT
	warmupTicks := int32(warmupSec / dt)
	sampleEvery := max(int32(sampleEverySec/dt), 1)
	minGap := 2 * cfg.AgentBody.Radius
	hash := systems.NewSpatialHash(minGap)

	for g.Tick() < fe.maxTicks {
		g.UpdateHeadless()

		tick := g.Tick()
		if tick < warmupTicks || tick%sampleEvery != 0 {
			continue
		}
		result.overlaps = append(result.overlaps, float64(countOverlaps(g, hash, minGap)))
	}
	return result
}

// countOverlaps returns the number of agent pairs whose bodies interpenetrate
// on the ground plane.
func countOverlaps(g *game.Game, hash *systems.SpatialHash, minGap float64) int {
	agents := g.Population().Agents()
	points := make([]r3.Vec, 0, len(agents))
	for _, e := range agents {
		if t := g.Scene().Transform(e); t != nil {
			points = append(points, r3.Vec{X: t.Position.X, Z: t.Position.Z})
		}
	}

	hash.Reset(minGap)
	for i, p := range points {
		hash.Insert(i, p)
	}

	pairs := 0
	var near []int
	for i, p := range points {
		near = hash.QueryInto(near[:0], p)
		for _, j := range near {
			if j > i && r3.Norm(r3.Sub(points[j], p)) < minGap {
				pairs++
			}
		}
	}
	return pairs
}

// copyConfig creates a copy of the base config. Every section is a value
// type so a struct copy is deep.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeFitness returns the scalar fitness (lower = better) together with
// its overlap and distance terms.
// Formula: 10×meanOverlaps + meanP50Distance + 0.5×idleWindows
func (fe *FitnessEvaluator) computeFitness(r *runResult) (fitness, overlap, reach float64) {
	if len(r.overlaps) > 0 {
		overlap = stat.Mean(r.overlaps, nil)
	}

	var p50 []float64
	idle := 0
	for _, w := range r.windowStats {
		if w.Agents == 0 {
			idle++
			continue
		}
		p50 = append(p50, w.DistanceP50)
	}
	if len(p50) > 0 {
		reach = stat.Mean(p50, nil)
	} else {
		reach = noCrowdPenalty
	}

	fitness = overlapWeight*overlap + distanceWeight*reach + idleWeight*float64(idle)
	return fitness, overlap, reach
}
