package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// World state at window end
	Agents       int     `csv:"agents"`
	Chunks       int     `csv:"chunks"`
	RenderRadius int     `csv:"render_radius"`
	FlowCells    int     `csv:"flow_cells"`
	PlayerX      float64 `csv:"player_x"`
	PlayerZ      float64 `csv:"player_z"`

	// Events during window
	AmbientSpawns  int `csv:"ambient_spawns"`
	AmbushSpawns   int `csv:"ambush_spawns"`
	Despawns       int `csv:"despawns"`
	Eliminations   int `csv:"eliminations"`
	SpawnFailures  int `csv:"spawn_failures"`
	TilesCreated   int `csv:"tiles_created"`
	TilesDestroyed int `csv:"tiles_destroyed"`

	// Weapon
	Shots   int     `csv:"shots"`
	Hits    int     `csv:"hits"`
	HitRate float64 `csv:"hit_rate"`

	// Navigation
	FlowRecomputes int     `csv:"flow_recomputes"`
	FlowWorkMean   float64 `csv:"flow_work_mean"` // Cells dequeued per recompute
	AgentsSteered  int     `csv:"agents_steered"`

	// Planar distance from agents to the player, sampled at window end
	DistanceMean float64 `csv:"distance_mean"`
	DistanceStd  float64 `csv:"distance_std"`
	DistanceP10  float64 `csv:"distance_p10"`
	DistanceP50  float64 `csv:"distance_p50"`
	DistanceP90  float64 `csv:"distance_p90"`
}

// Percentile returns the p-th empirical quantile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	switch {
	case p < 0:
		p = 0
	case p > 1:
		p = 1
	}
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// ComputeDistanceStats calculates mean, standard deviation and percentiles.
func ComputeDistanceStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	if n > 1 {
		std = stat.StdDev(sorted, nil)
	}
	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("agents", s.Agents),
		slog.Int("chunks", s.Chunks),
		slog.Int("render_radius", s.RenderRadius),
		slog.Int("flow_cells", s.FlowCells),
		slog.Int("ambient_spawns", s.AmbientSpawns),
		slog.Int("ambush_spawns", s.AmbushSpawns),
		slog.Int("despawns", s.Despawns),
		slog.Int("eliminations", s.Eliminations),
		slog.Int("spawn_failures", s.SpawnFailures),
		slog.Int("shots", s.Shots),
		slog.Float64("hit_rate", s.HitRate),
		slog.Int("flow_recomputes", s.FlowRecomputes),
		slog.Float64("distance_mean", s.DistanceMean),
		slog.Float64("distance_p10", s.DistanceP10),
		slog.Float64("distance_p50", s.DistanceP50),
		slog.Float64("distance_p90", s.DistanceP90),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"agents", s.Agents,
		"chunks", s.Chunks,
		"render_radius", s.RenderRadius,
		"ambient_spawns", s.AmbientSpawns,
		"ambush_spawns", s.AmbushSpawns,
		"despawns", s.Despawns,
		"eliminations", s.Eliminations,
		"shots", s.Shots,
		"hits", s.Hits,
		"flow_recomputes", s.FlowRecomputes,
		"flow_work_mean", s.FlowWorkMean,
		"agents_steered", s.AgentsSteered,
		"distance_mean", s.DistanceMean,
		"distance_p50", s.DistanceP50,
	)
}
