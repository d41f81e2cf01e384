package ui

import (
	"fmt"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/Dong-David/the-last-echo/systems"
	"github.com/Dong-David/the-last-echo/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	ActiveChunks int
	RenderRadius int
	ActiveAgents int
	AgentCap     int
	FlowCells    int
	FlowBusy     bool
	Tick         int32
	SimTime      float64
	Speed        int
	FPS          int32
	Paused       bool
	FirstPerson  bool
	CameraLocked bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Chunks: %d (R=%d) | Agents: %d/%d | Flow cells: %d",
			data.ActiveChunks, data.RenderRadius, data.ActiveAgents, data.AgentCap, data.FlowCells),
		10, 35, 16, rl.LightGray,
	)

	rl.DrawText(
		fmt.Sprintf("Tick: %d (%.1fs) | Speed: %dx | FPS: %d", data.Tick, data.SimTime, data.Speed, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	view := "Third person"
	if data.FirstPerson {
		view = "First person"
	}
	if data.CameraLocked {
		view += " (locked)"
	}
	statusText := "Running"
	if data.Paused {
		statusText = "PAUSED"
	}
	if data.FlowBusy {
		statusText += " | solving"
	}
	rl.DrawText(statusText+" | "+view, 10, 75, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the step phase timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel with phases in registry order.
func (p *PerfPanel) Draw(stats telemetry.PerfStats, registry *systems.SystemRegistry) {
	x := p.x
	y := p.y

	rl.DrawText("Step Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(
		fmt.Sprintf("Tick: %s (%s-%s) | %.0f tps",
			stats.AvgTickDuration.Round(time.Microsecond),
			stats.MinTickDuration.Round(time.Microsecond),
			stats.MaxTickDuration.Round(time.Microsecond),
			stats.TicksPerSecond),
		x, y, 14, rl.Yellow,
	)
	y += 16

	for _, info := range registry.All() {
		avg := stats.PhaseAvg[info.ID]
		pct := stats.PhasePct[info.ID]

		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-16s %6s %5.1f%%", info.Name, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}

// TuningValues are the live parameters exposed as sliders.
type TuningValues struct {
	PlayerSpeed        float64
	BaseRenderDistance int
	ZoomInfluence      float64
	StepsPerUpdate     int
	Paused             bool
}

// TuningPanel renders raygui sliders for the live parameters.
type TuningPanel struct {
	renderer *Renderer
	x, y     float32
	width    float32
	initial  TuningValues
	hasInit  bool
}

const tuningPanelHeight = 190

// NewTuningPanel creates a tuning panel.
func NewTuningPanel(x, y, width float32) *TuningPanel {
	return &TuningPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (t *TuningPanel) SetPosition(x, y float32) {
	t.x = x
	t.y = y
}

// Bounds returns the screen rectangle the panel occupies.
func (t *TuningPanel) Bounds() rl.Rectangle {
	return rl.Rectangle{X: t.x, Y: t.y, Width: t.width, Height: tuningPanelHeight}
}

// Draw renders the sliders and returns the values after this frame's edits.
// The first values seen are kept for the reset button.
func (t *TuningPanel) Draw(v TuningValues) TuningValues {
	if !t.hasInit {
		t.initial = v
		t.hasInit = true
	}

	r := t.renderer
	r.DrawPanel(int32(t.x), int32(t.y), int32(t.width), tuningPanelHeight)
	rl.DrawText("Tuning", int32(t.x)+10, int32(t.y)+8, 16, rl.White)

	labelW := float32(110)
	sliderX := t.x + labelW
	sliderW := t.width - labelW - 60
	y := t.y + 32

	v.PlayerSpeed = float64(gui.SliderBar(
		rl.Rectangle{X: sliderX, Y: y, Width: sliderW, Height: 18},
		"Player speed", fmt.Sprintf("%.1f", v.PlayerSpeed),
		float32(v.PlayerSpeed), 0, 30,
	))
	y += 26

	v.BaseRenderDistance = int(gui.SliderBar(
		rl.Rectangle{X: sliderX, Y: y, Width: sliderW, Height: 18},
		"Render distance", fmt.Sprintf("%d", v.BaseRenderDistance),
		float32(v.BaseRenderDistance), 1, 30,
	) + 0.5)
	y += 26

	v.ZoomInfluence = float64(gui.SliderBar(
		rl.Rectangle{X: sliderX, Y: y, Width: sliderW, Height: 18},
		"Zoom influence", fmt.Sprintf("%.1f", v.ZoomInfluence),
		float32(v.ZoomInfluence), 1, 20,
	))
	y += 26

	v.StepsPerUpdate = int(gui.SliderBar(
		rl.Rectangle{X: sliderX, Y: y, Width: sliderW, Height: 18},
		"Steps/frame", fmt.Sprintf("%d", v.StepsPerUpdate),
		float32(v.StepsPerUpdate), 1, 10,
	) + 0.5)
	y += 32

	if gui.Button(rl.Rectangle{X: t.x + 10, Y: y, Width: 120, Height: 30}, toggleText(v.Paused, "Resume", "Pause")) {
		v.Paused = !v.Paused
	}
	if gui.Button(rl.Rectangle{X: t.x + 140, Y: y, Width: 120, Height: 30}, "Reset") {
		paused := v.Paused
		v = t.initial
		v.Paused = paused
	}

	return v
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
