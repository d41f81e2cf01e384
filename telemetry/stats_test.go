package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p10", []float64{1, 2, 3, 4, 5}, 0.1, 1.0},
		{"p90", []float64{1, 2, 3, 4, 5}, 0.9, 5.0},
		{"clamped above", []float64{1, 2, 3}, 1.5, 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeDistanceStats(t *testing.T) {
	// Unsorted on purpose
	values := []float64{4, 1, 5, 3, 2}
	mean, std, p10, p50, p90 := ComputeDistanceStats(values)

	if math.Abs(mean-3) > 1e-9 {
		t.Errorf("mean = %v, want 3", mean)
	}
	if math.Abs(std-math.Sqrt(2.5)) > 1e-9 {
		t.Errorf("std = %v, want %v", std, math.Sqrt(2.5))
	}
	if p10 != 1 || p50 != 3 || p90 != 5 {
		t.Errorf("percentiles = %v %v %v, want 1 3 5", p10, p50, p90)
	}
	if values[0] != 4 {
		t.Error("input slice should not be reordered")
	}
}

func TestComputeDistanceStatsEmpty(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeDistanceStats(nil)

	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(1.25, 0.125)
	if c.WindowDurationTicks() != 10 {
		t.Fatalf("window ticks = %d, want 10", c.WindowDurationTicks())
	}

	c.RecordSpawn(false)
	c.RecordSpawn(true)
	c.RecordSpawn(true)
	c.RecordDespawns(2)
	c.RecordShot(true)
	c.RecordShot(false)
	c.RecordFlowRecompute(100)
	c.RecordFlowRecompute(300)
	c.RecordTiles(9, 4)

	if c.ShouldFlush(9) || !c.ShouldFlush(10) {
		t.Error("flush should trigger at the window boundary")
	}

	s := c.Flush(10, WorldSample{Agents: 3, Chunks: 961, RenderRadius: 15, Distances: []float64{2, 4, 6}})
	if s.AmbientSpawns != 1 || s.AmbushSpawns != 2 || s.Despawns != 2 {
		t.Errorf("spawn counters = %+v", s)
	}
	if s.Shots != 2 || s.Hits != 1 || s.Eliminations != 1 || s.HitRate != 0.5 {
		t.Errorf("weapon counters = %+v", s)
	}
	if s.FlowRecomputes != 2 || s.FlowWorkMean != 200 {
		t.Errorf("flow counters = %+v", s)
	}
	if s.TilesCreated != 9 || s.TilesDestroyed != 4 || s.Chunks != 961 {
		t.Errorf("tile counters = %+v", s)
	}
	if math.Abs(s.DistanceMean-4) > 1e-9 || s.SimTimeSec != 1.25 {
		t.Errorf("distance mean %v sim time %v", s.DistanceMean, s.SimTimeSec)
	}

	next := c.Flush(20, WorldSample{})
	if next.WindowStartTick != 10 || next.Shots != 0 || next.AmbushSpawns != 0 || next.FlowWorkMean != 0 {
		t.Errorf("counters should reset between windows: %+v", next)
	}
}
