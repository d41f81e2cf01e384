package game

import (
	"fmt"
	"io"
	"time"
)

// logWriter is the destination for log output.
var logWriter io.Writer

// SetLogWriter sets the log output destination.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Logf writes a formatted log message.
func Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
	} else {
		fmt.Println(msg)
	}
}

const perfLogInterval = 10 * time.Second

// maybeLogPerf prints the phase breakdown at most once per perfLogInterval.
func (g *Game) maybeLogPerf() {
	if !g.logStats || time.Since(g.lastPerfLog) < perfLogInterval {
		return
	}
	g.lastPerfLog = time.Now()
	g.logPerfStats()
	g.logWorldState()
}

// logPerfStats logs performance statistics.
func (g *Game) logPerfStats() {
	stats := g.perfCollector.Stats()
	Logf("=== Perf @ Tick %d (speed %dx) | FPS: %.0f ===", g.tick, g.speed, stats.FPS)
	Logf("Avg tick time: %s", stats.AvgTickDuration.Round(time.Microsecond))

	for _, info := range g.registry.All() {
		avg := stats.PhaseAvg[info.ID]
		Logf("  %-18s %10s  %5.1f%%", info.Name, avg.Round(time.Microsecond), stats.PhasePct[info.ID])
	}
	Logf("")
}

// logWorldState logs the current world state.
func (g *Game) logWorldState() {
	s := g.Stats()

	view := "third person"
	if s.FirstPerson {
		view = "first person"
	}

	Logf("=== Tick %d (%.1fs) ===", s.Tick, s.SimTime)
	Logf("Player: (%.1f, %.1f) %s, camera %.1f", s.PlayerPosition.X, s.PlayerPosition.Z, view, s.CameraDistance)
	Logf("Chunks: %d (radius %d, base %d)", s.ActiveChunks, s.RenderRadius, s.BaseRenderDistance)
	Logf("Agents: %d/%d (spawned %d, despawned %d, eliminated %d)",
		s.ActiveAgents, s.AgentCap, s.Spawned, s.Despawned, s.Eliminated)
	Logf("Flow: %d cells, async=%v busy=%v", s.FlowCells, s.FlowAsync, s.FlowBusy)
	Logf("Weapon: %d shots, %d hits | Effects: %d", s.Shots, s.Hits, s.LiveEffects)
	Logf("")
}
