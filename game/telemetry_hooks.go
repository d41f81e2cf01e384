package game

import (
	"log/slog"
	"math"

	"github.com/Dong-David/the-last-echo/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.sampleWorld())
	perfStats := g.perfCollector.Stats()

	// Call stats callback if provided
	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	// Write to CSV if output manager is enabled
	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	// Check for bookmarks
	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}
	}
}

// sampleWorld reads the state recorded at the end of a window.
func (g *Game) sampleWorld() telemetry.WorldSample {
	player := g.player.Position()

	g.distances = g.distances[:0]
	for _, e := range g.population.Agents() {
		t := g.scene.Transform(e)
		if t == nil {
			continue
		}
		dx := t.Position.X - player.X
		dz := t.Position.Z - player.Z
		g.distances = append(g.distances, math.Hypot(dx, dz))
	}

	return telemetry.WorldSample{
		Agents:       g.population.Count(),
		Chunks:       g.streamer.ActiveCount(),
		RenderRadius: g.streamer.Radius(),
		FlowCells:    g.FlowCells(),
		PlayerX:      player.X,
		PlayerZ:      player.Z,
		Distances:    g.distances,
	}
}
